// Package detect decides whether a source file must be archived again.
package detect
