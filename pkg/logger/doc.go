// Package logger provides structured logging for the profilesync pipelines.
//
// It wraps zerolog behind a small interface with support for leveled
// logging, structured fields, colored console output, and an optional log
// file. A global instance is available via Initialize/GetLogger so that
// pipeline stages do not have to thread a logger through every call.
package logger
