// Package services defines shared utilities consumed by the pipeline stages
// and the external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, file paths, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper, and FailureKind which
//     turns a unit error into the label shown in statistics and history.
//   - The Executor abstraction that every tool client runs its binary
//     through, so tests can substitute stubs for 7z and the encoders.
package services
