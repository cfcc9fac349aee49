// Package cli provides the interactive MDD command-line client.
//
// It wires configuration, the local session database, the REST client and
// the application services behind an interactive REPL. Every screen is
// entered through guards.Router, so the same guards that protect the web
// routes decide what a command may show.
//
// Key features:
//   - Login / Signup / Logout, with the session kept across restarts
//   - Articles feed of followed themes, article detail and comments
//   - Theme catalog with subscribe / unsubscribe
//   - Profile view and update
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and the input helpers for details.
package cli
