// Package daemon wires together the queue store, workflow manager, and inbox
// watcher behind a single long-running process. It enforces single-instance
// execution with a file lock and exposes the queue operations the IPC server
// serves to the CLI.
package daemon
