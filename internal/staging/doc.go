// Package staging manages the keepsake-* scratch directories that hold
// conversion intermediates. It lists them for diagnostics and sweeps the
// ones an interrupted or killed run left behind.
package staging
