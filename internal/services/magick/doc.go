// Package magick runs ImageMagick to normalise image orientation ahead of
// AVIF encoding.
package magick
