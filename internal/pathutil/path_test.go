package pathutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"", "."},
		{".", "."},
		{"a.ks", "a.ks"},
		{"scenario/a.ks", "a.ks"},
		{`image\bg\title.png`, "title.png"},
		{"dir/", "dir"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Base(tt.name), tt.name)
	}
}

func TestDirPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", DirPrefix("."))
	assert.Equal(t, "", DirPrefix(""))
	assert.Equal(t, "voice/", DirPrefix("voice"))
	assert.Equal(t, "voice/", DirPrefix("voice/"))
	assert.Equal(t, "a/b/", DirPrefix(`a\b`))

	assert.True(t, InDir(`voice\001.ogg`, "voice/"))
	assert.False(t, InDir("voices/001.ogg", "voice/"))
	assert.True(t, InDir("anything", ""))
}

func TestLocal(t *testing.T) {
	t.Parallel()

	got, err := Local(`scenario\first.ks`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("scenario", "first.ks"), got)

	got, err = Local("a/./b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("a", "b"), got)

	for _, bad := range []string{"", "../x", `..\x`, "/etc/passwd", "a/../../b"} {
		_, err := Local(bad)
		assert.ErrorIs(t, err, ErrUnsafePath, bad)
	}
}
