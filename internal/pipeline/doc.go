// Package pipeline runs a backup over a source tree.
//
// Compress walks the tree, submits one WorkUnit per regular file to a fixed
// pool of workers, and aggregates their results on a single coordinating
// goroutine. A weighted semaphore caps how many units may be submitted but
// not yet collected (twice the pool size by default), so a large tree never
// queues unbounded work. Each unit asks the detector whether the file
// changed, converts it when a converter is registered for its extension,
// and hands the result to the archive writer. Failures stay inside their
// unit and show up as failed counts in Stats.
//
// The destination root is guarded by a file lock so two runs cannot write
// the same archives at once.
package pipeline
