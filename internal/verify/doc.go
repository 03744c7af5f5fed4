// Package verify re-reads a backup destination and checks that every archive
// still hashes to the value recorded in its sidecar.
//
// A pass walks the destination once, pairing each "<rel>.hash" sidecar with
// its "<rel>.7z" archive or volume set, and hashes the archives on a bounded
// errgroup. Given the original source tree it also lists orphaned sidecars,
// and with Deep set it asks 7z to test each archive.
package verify
