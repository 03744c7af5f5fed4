// Package deps checks that the external binaries keepsake shells out to are
// installed. It backs the doctor command and the pre-run check of compress.
package deps
