// Package avifenc runs libavif's avifenc to transcode images to AVIF.
package avifenc
