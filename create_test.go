package xp3

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/xp3/internal/testutil"
)

func sampleTree() map[string][]byte {
	return map[string][]byte{
		"startup.tjs":         []byte("Scripts.execStorage(\"first.ks\");\n"),
		"scenario/first.ks":   []byte("*start\n[wait time=200]\n@jump target=*start\n"),
		"bgimage/title.png":   []byte("\x89PNG not really"),
		"sound/voice/001.ogg": make([]byte, 3000),
	}
}

func TestCreateExtractRoundTrip(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	files := sampleTree()
	testutil.WriteTree(t, src, files)
	mtime := time.Date(2010, 1, 2, 3, 4, 5, 600, time.UTC)
	for name := range files {
		require.NoError(t, os.Chtimes(filepath.Join(src, filepath.FromSlash(name)), mtime, mtime))
	}

	var events []ProgressEvent
	buf := testutil.NewSeekBuffer(nil)
	c, err := CreateFromDir(context.Background(), src, buf,
		CreateWithSkipCompression(DefaultSkipCompression(0)),
		CreateWithSegmentSize(1024),
		CreateWithProgress(func(e ProgressEvent) { events = append(events, e) }),
	)
	require.NoError(t, err)
	assert.Equal(t, len(files), c.IndexSet.Len())
	require.NotEmpty(t, events)
	assert.Equal(t, StageEnumerating, events[0].Stage)
	assert.Equal(t, StageWritingIndex, events[len(events)-1].Stage)
	assert.Equal(t, len(files), events[len(events)-1].FilesDone)

	a := openBuffer(t, buf, WithVerifyChecksum(true))
	assert.Equal(t, HeaderVersioned, a.Header().Version)
	assert.Equal(t, IndexCompressed, a.IndexSet().Compression)

	png, ok := a.Lookup("bgimage/title.png")
	require.True(t, ok)
	assert.False(t, png.Compressed, "skipped by extension")
	ks, ok := a.Lookup("scenario/first.ks")
	require.True(t, ok)
	assert.True(t, ks.Compressed)
	assert.True(t, ks.ModTime().Equal(mtime.Truncate(100*time.Nanosecond)))
	ogg, ok := a.Lookup("sound/voice/001.ogg")
	require.True(t, ok)
	assert.Equal(t, 3, ogg.Segments, "split at segment size")

	dest := t.TempDir()
	stats, err := Extract(context.Background(), a, dest, ExtractWithPreserveTimes(true), ExtractWithVerify(true))
	require.NoError(t, err)
	assert.Equal(t, len(files), stats.Files)
	assert.Equal(t, files, testutil.ReadTree(t, dest))

	info, err := os.Stat(filepath.Join(dest, "scenario", "first.ks"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime.Truncate(100*time.Nanosecond)))
}

func TestCreateOptions(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, sampleTree())

	buf := testutil.NewSeekBuffer(nil)
	_, err := CreateFromDir(context.Background(), src, buf,
		CreateWithHeader(Header{Version: HeaderLegacy}),
		CreateWithIndexCompression(IndexUncompressed),
		CreateWithCompression(SegmentUncompressed),
		CreateWithProtection(Protected),
		CreateWithChangeDetection(ChangeDetectionStrict),
	)
	require.NoError(t, err)

	a := openBuffer(t, buf)
	assert.Equal(t, HeaderLegacy, a.Header().Version)
	for _, e := range a.Entries() {
		assert.False(t, e.Compressed, e.Name)
		assert.True(t, e.Protected, e.Name)
		assert.Equal(t, 1, e.Segments, e.Name)
	}

	_, err = CreateFromDir(context.Background(), src, testutil.NewSeekBuffer(nil), CreateWithMaxFiles(2))
	require.ErrorIs(t, err, ErrTooManyFiles)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CreateFromDir(ctx, src, testutil.NewSeekBuffer(nil))
	require.ErrorIs(t, err, context.Canceled)

	_, err = CreateFromDir(context.Background(), filepath.Join(src, "missing"), testutil.NewSeekBuffer(nil))
	require.Error(t, err)
}

func TestCreateSkipsSymlinks(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string][]byte{"real.txt": []byte("real")})
	require.NoError(t, os.Symlink("real.txt", filepath.Join(src, "link.txt")))

	buf := testutil.NewSeekBuffer(nil)
	_, err := CreateFromDir(context.Background(), src, buf)
	require.NoError(t, err)

	a := openBuffer(t, buf)
	_, ok := a.Lookup("link.txt")
	assert.False(t, ok)
	assert.Equal(t, 1, a.Len())
}

func TestCreateSkipsOutputInsideDir(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string][]byte{"a.txt": []byte("hello")})

	out, err := os.CreateTemp(src, ".xp3-pack-*")
	require.NoError(t, err)
	defer out.Close()

	c, err := CreateFromDir(context.Background(), src, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, c.IndexSet.Names())

	_, err = out.Seek(0, io.SeekStart)
	require.NoError(t, err)
	a, err := Open(out)
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Lookup(filepath.Base(out.Name()))
	assert.False(t, ok)
	assert.Equal(t, 1, a.Len())
}

func TestExtractOptions(t *testing.T) {
	t.Parallel()

	a := openBuffer(t, buildBuffer(t, BuildOptions{}, []WriteEntry{
		{Name: `voice\001.ogg`, Sources: []Source{FromBytes(SegmentUncompressed, []byte("v1"))}},
		{Name: "voice/002.ogg", Sources: []Source{FromBytes(SegmentUncompressed, []byte("v2"))}},
		{Name: "secret.tjs", Protection: Protected, Sources: []Source{FromBytes(SegmentUncompressed, []byte("s"))}},
		{Name: "scenario.ks", Sources: []Source{FromBytes(SegmentUncompressed, []byte("new"))}},
	}))

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()
		dest := t.TempDir()
		stats, err := Extract(context.Background(), a, dest, ExtractWithPrefix("voice"))
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Files)
		assert.Equal(t, map[string][]byte{
			"voice/001.ogg": []byte("v1"),
			"voice/002.ogg": []byte("v2"),
		}, testutil.ReadTree(t, dest))
	})

	t.Run("skip protected", func(t *testing.T) {
		t.Parallel()
		dest := t.TempDir()
		stats, err := Extract(context.Background(), a, dest, ExtractWithSkipProtected(true))
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Files)
		assert.Equal(t, 1, stats.Skipped)
		assert.NotContains(t, testutil.ReadTree(t, dest), "secret.tjs")
	})

	t.Run("existing files", func(t *testing.T) {
		t.Parallel()
		dest := t.TempDir()
		testutil.WriteTree(t, dest, map[string][]byte{"scenario.ks": []byte("old")})

		stats, err := Extract(context.Background(), a, dest)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Skipped)
		assert.Equal(t, []byte("old"), testutil.ReadTree(t, dest)["scenario.ks"])

		_, err = Extract(context.Background(), a, dest, ExtractWithOverwrite(true))
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), testutil.ReadTree(t, dest)["scenario.ks"])
	})
}

func TestExtractRejectsUnsafeNames(t *testing.T) {
	t.Parallel()

	a := openBuffer(t, buildBuffer(t, BuildOptions{}, []WriteEntry{
		{Name: "ok.txt", Sources: []Source{FromBytes(SegmentUncompressed, []byte("ok"))}},
		{Name: `..\..\evil.txt`, Sources: []Source{FromBytes(SegmentUncompressed, []byte("evil"))}},
	}))

	dest := t.TempDir()
	_, err := Extract(context.Background(), a, dest)
	require.ErrorIs(t, err, ErrUnsafePath)
	assert.Empty(t, testutil.ReadTree(t, dest), "nothing written")
}

func TestExtractChecksumMismatch(t *testing.T) {
	t.Parallel()

	buf := buildBuffer(t, BuildOptions{}, []WriteEntry{{
		Name:    "a.txt",
		Sources: []Source{FromBytes(SegmentUncompressed, []byte("content"))},
	}})
	a := openBuffer(t, buf)
	f, _ := a.IndexSet().Lookup("a.txt")
	buf.Bytes()[f.Segments[0].DataOffset+1] ^= 0x20

	dest := t.TempDir()
	_, err := Extract(context.Background(), a, dest, ExtractWithVerify(true))
	require.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Empty(t, testutil.ReadTree(t, dest), "corrupt file discarded")
}
