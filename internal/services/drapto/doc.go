// Package drapto integrates the Drapto Go library as the alternative video
// backend for the conversion step.
//
// Drapto performs its own analysis (crop detection, quality selection by
// resolution) and always writes <stem>.mkv into the requested directory.
// Tests replace the library call with WithEncodeFunc so the real encoder
// never runs.
package drapto
