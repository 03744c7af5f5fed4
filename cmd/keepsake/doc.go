// Package main hosts the keepsake CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, builds the slog logger and
// wires the pipeline, history, verification and dependency packages behind
// compress, copy, verify, history, doctor and config subcommands. Interrupts
// cancel the command context; a running compress stops submitting files,
// lets in-flight ones finish and still prints its statistics.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is only surfaced here.
package main
