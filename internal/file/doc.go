// Package file reads entry content out of an archive stream.
//
// Segment offsets are stored relative to the archive origin. A Cursor keeps
// the stream parked at the origin between reads and applies each offset as
// a relative seek that is undone once the segment has been copied out.
package file
