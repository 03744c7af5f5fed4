// Package ffmpeg runs ffmpeg to transcode videos to HEVC with NVENC.
//
// The argument set is fixed apart from the constant-quality value and the
// thread count; callers that need a different encoder use the drapto
// package instead.
package ffmpeg
