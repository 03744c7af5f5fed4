// Package archive writes one 7z archive per source file.
//
// The Writer picks a compression profile from the file extension, clears
// out whatever an earlier run left at the destination, runs 7z with a fixed
// volume size, and then normalises the output: a single volume is renamed
// to <dest>/<rel>.7z, a multi-volume set stays as .7z.001, .7z.002, and so
// on. The archive hash covers the whole volume set streamed in order, and
// the sidecar is written last so a crash mid-archive leaves the file
// looking unprocessed.
package archive
