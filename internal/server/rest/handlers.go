package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/taskmaster/internal/server/models"
	"github.com/dmitrijs2005/taskmaster/internal/server/services"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createTaskRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
}

// updateTaskRequest uses pointers so that an absent field is told apart
// from an empty one.
type updateTaskRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Status      *models.TaskStatus `json:"status"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Time    string `json:"time"`
}

// decodeBody reads a JSON object into dst. An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, msgInvalidBody)
	return false
}

// taskID parses the {id} path variable. Anything that is not a positive
// integer is reported as a missing task.
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, msgTaskNotFound)
		return 0, false
	}
	return id, true
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: "taskmaster",
		Time:    s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	user, err := s.users.GetCurrentUser(r.Context(), claims.UserID)
	if err != nil {
		s.writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	tasks, err := s.tasks.List(r.Context(), claims.UserID)
	if err != nil {
		s.writeServiceError(w, r, err, msgTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var req createTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := s.tasks.Create(r.Context(), claims.UserID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		s.writeServiceError(w, r, err, msgTaskNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := s.tasks.Update(r.Context(), claims.UserID, id, models.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		s.writeServiceError(w, r, err, msgTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := s.tasks.Delete(r.Context(), claims.UserID, id); err != nil {
		s.writeServiceError(w, r, err, msgTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgTaskDeleted})
}
