// Package pathutil maps archive entry names to and from filesystem paths.
//
// Archive names are stored as written by the packer. Both "/" and "\" are
// accepted as separators; the canonical form uses "/".
package pathutil

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned for names that would escape the destination.
var ErrUnsafePath = errors.New("xp3: unsafe entry path")

// Canonical returns name with every separator rewritten to "/".
func Canonical(name string) string {
	return strings.ReplaceAll(name, `\`, "/")
}

// Base returns the last element of an archive name.
// If name is empty or ".", it returns ".".
func Base(name string) string {
	name = Canonical(name)
	if name == "" || name == "." {
		return "."
	}
	name = strings.TrimSuffix(name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// DirPrefix converts a directory name to its prefix form.
// For "" and ".", returns "" (empty prefix matches all).
// For other names, ensures a trailing "/" so only children match.
func DirPrefix(name string) string {
	name = Canonical(name)
	if name == "" || name == "." {
		return ""
	}
	if strings.HasSuffix(name, "/") {
		return name
	}
	return name + "/"
}

// InDir reports whether name lies under the directory prefix.
func InDir(name, prefix string) bool {
	return strings.HasPrefix(Canonical(name), prefix)
}

// Local converts an archive name into a relative OS path.
// Absolute names, names with ".." elements and empty names are rejected.
func Local(name string) (string, error) {
	p := filepath.FromSlash(Canonical(name))
	if !filepath.IsLocal(p) {
		return "", ErrUnsafePath
	}
	return filepath.Clean(p), nil
}
