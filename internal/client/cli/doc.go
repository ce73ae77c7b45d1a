// Package cli provides the interactive taskmaster command-line client.
//
// It wires configuration and the REST client into a read-eval-print loop.
// Typical flow: register or log in, then list, add, edit, cycle and delete
// tasks. The session token lives only in memory; when the server rejects
// it the client forgets it and asks the user to log in again.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
