// Package logger provides structured logging with configurable log levels.
// Production logs are JSON; other environments get a human-readable console
// format, coloured only when writing to a terminal.
package logger
