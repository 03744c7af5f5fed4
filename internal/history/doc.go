// Package history keeps a SQLite catalogue of keepsake runs and the outcome
// of every file each run touched.
//
// The Store owns the connection, schema creation and busy retries. Recorder
// adapts a Store to the pipeline observer hook so a run is written as it
// progresses: one row when it starts, one per finished unit, and the final
// statistics when it ends. Recording failures are logged and never fail the
// backup itself.
//
// Relative paths are stored in NFC with forward slashes so the same file is
// found regardless of the filesystem that produced the name.
package history
