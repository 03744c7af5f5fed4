// Package exiftool copies metadata from an original media file onto its
// transcoded rendition.
package exiftool
