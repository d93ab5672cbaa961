// Package devserver provides the development conveniences around a build:
// an HTTP server for the output directory with a websocket live-reload
// channel, and a filesystem watcher that reports changed source files.
package devserver
