// Package notifications sends run summaries to an ntfy topic.
//
// The Service publishes a small set of events (run completed, finished with
// failures, interrupted, test) and degrades to a no-op when no topic is
// configured. Observer hooks the service into the pipeline so a compress run
// produces exactly one message when it ends.
package notifications
