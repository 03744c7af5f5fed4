// Package fingerprint owns the per-file sidecar records that let keepsake
// skip unchanged files.
//
// A sidecar lives at <dest>/<rel>.hash and holds three lines: the source
// and archive SHA-256 digests concatenated, the source modification time,
// and the source change time. Sidecars written before timestamps were
// tracked have only the first line; Parse accepts them and reports the
// timestamps as absent.
//
// The package also provides streamed hashing (64 KiB blocks) and the
// platform stat call that produces the timestamp strings.
package fingerprint
