// Package write holds the streaming side of segment encoding: a pool of
// zlib writers, the pipeline that turns a source into stored segment bytes,
// and the predicates that decide when compression is not worth it.
package write
