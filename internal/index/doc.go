// Package index implements the XP3 index: the generic tag-length-value
// record, the per-file fragments (info, segm, adlr, time) and the index set
// that collects every file index of an archive.
//
// All integers are little-endian. A record is a u32 tag, a u64 payload
// length and the payload itself. The index set body is a flat sequence of
// records; records tagged "File" hold a nested sequence of fragment records,
// everything else is carried through unchanged.
package index
