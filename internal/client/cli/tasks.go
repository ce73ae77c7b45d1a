package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskmaster/internal/client/models"
)

var errTaskNotFound = errors.New("task not found")

func (a *App) List(ctx context.Context) error {
	tasks, err := a.client.ListTasks(ctx)
	if err != nil {
		return a.report(err)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks yet")
		return nil
	}
	for _, t := range tasks {
		fmt.Fprintln(a.out, t)
	}
	return nil
}

func (a *App) Add(ctx context.Context) error {
	title, err := GetRequiredText(a.reader, "Enter title", a.out)
	if err != nil {
		return err
	}
	description, err := GetSimpleText(a.reader, "Enter description (optional)", a.out)
	if err != nil {
		return err
	}
	status, err := GetSimpleText(a.reader, "Enter status: pending, in-progress, completed (empty for pending)", a.out)
	if err != nil {
		return err
	}

	t, err := a.client.CreateTask(ctx, models.NewTask{
		Title:       title,
		Description: description,
		Status:      models.TaskStatus(status),
	})
	if err != nil {
		return a.report(err)
	}

	fmt.Fprintf(a.out, "Created %s\n", t)
	return nil
}

// Edit asks for each field in turn; an empty answer keeps the current
// value and "-" clears the description.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := parseID(a.reader, args, a.out)
	if err != nil {
		return a.report(err)
	}

	var ch models.TaskChanges

	title, err := GetSimpleText(a.reader, "New title (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if title != "" {
		ch.Title = &title
	}

	description, err := GetSimpleText(a.reader, "New description (empty to keep, - to clear)", a.out)
	if err != nil {
		return err
	}
	switch description {
	case "":
	case "-":
		empty := ""
		ch.Description = &empty
	default:
		ch.Description = &description
	}

	status, err := GetSimpleText(a.reader, "New status: pending, in-progress, completed (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if status != "" {
		s := models.TaskStatus(status)
		ch.Status = &s
	}

	if ch == (models.TaskChanges{}) {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	t, err := a.client.UpdateTask(ctx, id, ch)
	if err != nil {
		return a.report(err)
	}

	fmt.Fprintf(a.out, "Updated %s\n", t)
	return nil
}

// Cycle moves a task to the next status. The cycle order is a client
// convenience; the server accepts any status.
func (a *App) Cycle(ctx context.Context, args []string) error {
	id, err := parseID(a.reader, args, a.out)
	if err != nil {
		return a.report(err)
	}

	tasks, err := a.client.ListTasks(ctx)
	if err != nil {
		return a.report(err)
	}

	var current *models.Task
	for _, t := range tasks {
		if t.ID == id {
			current = t
			break
		}
	}
	if current == nil {
		return a.report(errTaskNotFound)
	}

	next := current.Status.Next()
	t, err := a.client.UpdateTask(ctx, id, models.TaskChanges{Status: &next})
	if err != nil {
		return a.report(err)
	}

	fmt.Fprintf(a.out, "Updated %s\n", t)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := parseID(a.reader, args, a.out)
	if err != nil {
		return a.report(err)
	}

	if err := a.client.DeleteTask(ctx, id); err != nil {
		return a.report(err)
	}

	fmt.Fprintf(a.out, "Deleted #%d\n", id)
	return nil
}
