// Package storage persists pipeline output: full-replacement JSON
// documents under a data directory and an append-only image directory
// keyed by filename. All writes are atomic via temp file + rename.
package storage
