// Package sevenzip mediates access to the 7z command-line archiver.
//
// It builds the add and test invocations used by the archive writer and the
// verifier. Command execution goes through services.Executor so tests can
// fabricate volumes without 7z installed.
package sevenzip
