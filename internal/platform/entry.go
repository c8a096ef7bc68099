package platform

import (
	"fmt"
	"io/fs"
	"os"
)

// RegularInfo returns the FileInfo of a walked entry if it is a regular file.
// Symlinks and special files report ok=false and should be skipped.
func RegularInfo(root *os.Root, fsPath string, d fs.DirEntry) (info fs.FileInfo, ok bool, err error) {
	dtype := d.Type()
	if dtype&fs.ModeSymlink != 0 {
		return nil, false, nil
	}
	if dtype == 0 || dtype.IsRegular() {
		info, err = root.Lstat(fsPath)
		if err != nil {
			return nil, false, err
		}
		return info, info.Mode().IsRegular(), nil
	}
	return nil, false, nil
}

// CheckUnchanged verifies an open file still matches the info seen during
// the walk, catching files that were swapped or rewritten mid-pack.
func CheckUnchanged(f *os.File, path string, before fs.FileInfo) error {
	after, err := f.Stat()
	if err != nil {
		return err
	}
	if !os.SameFile(before, after) || after.Size() != before.Size() || !after.ModTime().Equal(before.ModTime()) {
		return fmt.Errorf("xp3: file changed during archive creation: %s", path)
	}
	return nil
}
