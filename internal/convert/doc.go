// Package convert turns media files into smaller renditions before they
// are archived.
//
// A Registry maps file extensions to a Kind (identity, image or video) and
// the Adapter runs the matching Converter inside a per-unit scratch
// directory. Images are auto-oriented with ImageMagick and encoded to AVIF;
// videos go through ffmpeg/NVENC or the Drapto library. A converter failure
// is never fatal: the Adapter logs it and hands back the original file.
// After a successful conversion the source's tags and earliest timestamp
// are copied onto the rendition.
package convert
