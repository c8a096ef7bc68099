// Package xp3 reads and writes XP3 archives, the container format of the
// KiriKiri visual novel engine.
//
// An archive is a magic-prefixed stream of entry data followed by a single
// index. Each entry is split into one or more segments, stored raw or
// zlib-compressed, and described by a file index holding its name, sizes,
// Adler-32 checksum and an optional timestamp.
//
// # Reading
//
// Open parses the index of an archive on any io.ReadSeeker and serves entry
// content on demand:
//
//	a, err := xp3.OpenFile("data.xp3")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	for name, e := range a.Entries() {
//	    fmt.Println(name, e.OriginalSize)
//	}
//	data, err := a.ReadFile(ctx, "startup.tjs")
//
// Only one unpack runs against the underlying stream at a time; concurrent
// callers wait for their turn.
//
// # Writing
//
// NewWriter starts an archive on an io.WriteSeeker. Entries are written one
// at a time through EnterFile, then Finish writes the index:
//
//	w, err := xp3.NewWriter(f, xp3.Header{Version: xp3.HeaderVersioned, MinorVersion: 1}, xp3.IndexCompressed)
//	ew, err := w.EnterFile(xp3.NotProtected, "sample.txt", nil)
//	_, err = ew.Write([]byte("Hello world!"))
//	err = ew.Finish()
//	_, err = w.Finish()
//
// Build drives the same writer from a declared list of entries, and
// CreateFromDir packs a directory tree. Extract is the inverse of
// CreateFromDir.
package xp3
