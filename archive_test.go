package xp3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/xp3/internal/testutil"
)

func u64(v uint64) *uint64 { return &v }

// buildBuffer writes entries into a fresh in-memory archive.
func buildBuffer(tb testing.TB, opts BuildOptions, entries []WriteEntry, wopts ...WriterOption) *testutil.SeekBuffer {
	tb.Helper()
	buf := testutil.NewSeekBuffer(nil)
	_, err := Build(context.Background(), buf, opts, entries, wopts...)
	require.NoError(tb, err)
	return buf
}

// openBuffer opens the archive stored at the start of buf.
func openBuffer(tb testing.TB, buf *testutil.SeekBuffer, opts ...Option) *Archive {
	tb.Helper()
	_, err := buf.Seek(0, io.SeekStart)
	require.NoError(tb, err)
	a, err := Open(buf, opts...)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = a.Close() })
	return a
}

func TestArchiveSingleEntry(t *testing.T) {
	t.Parallel()

	buf := buildBuffer(t, BuildOptions{IndexCompression: IndexUncompressed}, []WriteEntry{{
		Protection: NotProtected,
		Name:       "a.txt",
		Sources:    []Source{FromBytes(SegmentUncompressed, []byte("hello"))},
	}})
	a := openBuffer(t, buf)

	got, err := a.ReadFile(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	_, err = a.ReadFile(context.Background(), "missing.txt")
	require.ErrorIs(t, err, ErrFileNotFound)

	e, ok := a.Lookup("a.txt")
	require.True(t, ok)
	assert.Nil(t, e.Timestamp)
	assert.True(t, e.ModTime().IsZero())
	assert.False(t, e.Protected)
	assert.False(t, e.Compressed)
	assert.Equal(t, 1, e.Segments)
	assert.Equal(t, HeaderLegacy, a.Header().Version)
}

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	payload := func(seed byte, n int) []byte {
		p := make([]byte, n)
		for i := range p {
			p[i] = seed + byte(i*7)
		}
		return p
	}

	entries := []WriteEntry{
		{
			Name:      "scenario/first.ks",
			Timestamp: u64(132537600000000000),
			Sources: []Source{
				FromBytes(SegmentCompressed, bytes.Repeat([]byte("*start\n"), 200)),
				FromBytes(SegmentUncompressed, []byte("@return\n")),
			},
		},
		{
			Protection: Protected,
			Name:       "画像/背景.png",
			Sources:    []Source{FromReader(SegmentUncompressed, bytes.NewReader(payload(3, 4096)))},
		},
		{
			Name:      "empty.txt",
			Timestamp: u64(0),
		},
		{
			Name: "binary.dat",
			Sources: []Source{
				FromBytes(SegmentCompressed, payload(9, 70_000)),
				FromBytes(SegmentCompressed, nil),
				FromBytes(SegmentUncompressed, payload(1, 10)),
			},
		},
	}

	want := map[string][]byte{
		"scenario/first.ks": append(bytes.Repeat([]byte("*start\n"), 200), []byte("@return\n")...),
		"画像/背景.png":         payload(3, 4096),
		"empty.txt":         {},
		"binary.dat":        append(payload(9, 70_000), payload(1, 10)...),
	}

	headers := []Header{
		{Version: HeaderLegacy},
		{Version: HeaderVersioned, MinorVersion: 1},
		{Version: HeaderVersioned, MinorVersion: 0xdeadbeef, IndexSizeOffset: 13},
	}
	for _, hdr := range headers {
		for _, comp := range []IndexCompression{IndexUncompressed, IndexCompressed} {
			t.Run(fmt.Sprintf("%s/%s/%d", hdr.Version, comp, hdr.IndexSizeOffset), func(t *testing.T) {
				t.Parallel()

				// Sources that wrap readers are consumed once; rebuild per run.
				runEntries := slices.Clone(entries)
				runEntries[1].Sources = []Source{FromReader(SegmentUncompressed, bytes.NewReader(payload(3, 4096)))}

				buf := buildBuffer(t, BuildOptions{Header: hdr, IndexCompression: comp}, runEntries)
				a := openBuffer(t, buf, WithVerifyChecksum(true))

				assert.Equal(t, hdr, a.Header())
				assert.Equal(t, comp, a.IndexSet().Compression)
				require.Equal(t, len(want), a.Len())

				for name, data := range want {
					got, err := a.ReadFile(context.Background(), name)
					require.NoError(t, err, name)
					assert.Equal(t, data, got, name)
				}

				e, ok := a.Lookup("画像/背景.png")
				require.True(t, ok)
				assert.True(t, e.Protected)

				e, ok = a.Lookup("scenario/first.ks")
				require.True(t, ok)
				require.NotNil(t, e.Timestamp)
				assert.Equal(t, uint64(132537600000000000), *e.Timestamp)
				assert.True(t, e.Compressed)
				assert.Equal(t, 2, e.Segments)

				e, ok = a.Lookup("empty.txt")
				require.True(t, ok)
				require.NotNil(t, e.Timestamp)
				assert.Zero(t, e.Segments)
			})
		}
	}
}

func TestArchiveEntriesSorted(t *testing.T) {
	t.Parallel()

	var entries []WriteEntry
	for _, name := range []string{"c", "a", "b/2", "b/1"} {
		entries = append(entries, WriteEntry{Name: name, Sources: []Source{FromBytes(SegmentUncompressed, []byte(name))}})
	}
	a := openBuffer(t, buildBuffer(t, BuildOptions{IndexCompression: IndexCompressed}, entries))

	var names []string
	for name, e := range a.Entries() {
		assert.Equal(t, name, e.Name)
		names = append(names, name)
	}
	assert.Equal(t, []string{"a", "b/1", "b/2", "c"}, names)

	// Early break stops iteration.
	count := 0
	for range a.Entries() {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestArchiveDataOffsets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hdr  Header
		want uint64
	}{
		// magic + selector + index offset slot
		{Header{Version: HeaderLegacy}, 19},
		// plus 21 header bytes and the index size padding
		{Header{Version: HeaderVersioned, IndexSizeOffset: 4}, 44},
	}
	for _, tt := range tests {
		buf := buildBuffer(t, BuildOptions{Header: tt.hdr}, []WriteEntry{{
			Name:    "x",
			Sources: []Source{FromBytes(SegmentUncompressed, []byte("abc")), FromBytes(SegmentUncompressed, []byte("de"))},
		}})
		a := openBuffer(t, buf)
		f, ok := a.IndexSet().Lookup("x")
		require.True(t, ok)
		require.Len(t, f.Segments, 2)
		assert.Equal(t, tt.want, f.Segments[0].DataOffset)
		assert.Equal(t, tt.want+3, f.Segments[1].DataOffset)
		assert.Equal(t, []byte("abc"), buf.Bytes()[tt.want:tt.want+3])
	}
}

func TestArchiveEmbedded(t *testing.T) {
	t.Parallel()

	prefix := []byte("MZ executable stub....")
	buf := testutil.NewSeekBuffer(prefix)
	_, err := buf.Seek(0, io.SeekEnd)
	require.NoError(t, err)

	c, err := Build(context.Background(), buf,
		BuildOptions{Header: Header{Version: HeaderVersioned, MinorVersion: 1, IndexSizeOffset: 2}, IndexCompression: IndexCompressed},
		[]WriteEntry{{Name: "data.bin", Sources: []Source{FromBytes(SegmentCompressed, []byte("embedded payload"))}}},
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(buf.Len()-len(prefix)), c.Size)

	_, err = buf.Seek(int64(len(prefix)), io.SeekStart)
	require.NoError(t, err)
	a, err := Open(buf)
	require.NoError(t, err)

	got, err := a.ReadFile(context.Background(), "data.bin")
	require.NoError(t, err)
	assert.Equal(t, "embedded payload", string(got))

	pos, err := buf.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(len(prefix)), pos, "stream parked at origin")
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	good := buildBuffer(t, BuildOptions{IndexCompression: IndexCompressed}, []WriteEntry{{
		Name:    "a",
		Sources: []Source{FromBytes(SegmentUncompressed, []byte("aaaa"))},
	}}).Bytes()

	tests := []struct {
		name string
		data func() []byte
		want error
	}{
		{"empty", func() []byte { return nil }, ErrInvalidFile},
		{"bad magic", func() []byte {
			b := bytes.Clone(good)
			b[0] = 'Y'
			return b
		}, ErrInvalidFile},
		{"zip file", func() []byte { return []byte("PK\x03\x04 not an xp3 archive at all") }, ErrInvalidFile},
		{"truncated offset", func() []byte { return good[:14] }, ErrIO},
		{"truncated index", func() []byte { return good[:len(good)-3] }, ErrIO},
		{"bad index selector", func() []byte {
			b := bytes.Clone(good)
			off := 19 + 4
			b[off] = 7
			return b
		}, ErrInvalidFileIndexHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Open(bytes.NewReader(tt.data()))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestArchiveExtrasSurvive(t *testing.T) {
	t.Parallel()

	extra := Record{ID: TagOf("zzzz"), Payload: []byte{1, 2, 3, 4}}
	buf := buildBuffer(t, BuildOptions{IndexCompression: IndexCompressed, Extras: []Record{extra}}, []WriteEntry{{
		Name:    "a",
		Sources: []Source{FromBytes(SegmentUncompressed, []byte("a"))},
	}})
	a := openBuffer(t, buf)
	require.Equal(t, []Record{extra}, a.IndexSet().Extras)

	// Re-encode with the decoded extras and decode again.
	again := buildBuffer(t, BuildOptions{IndexCompression: IndexUncompressed, Extras: a.IndexSet().Extras}, nil)
	b := openBuffer(t, again)
	assert.Equal(t, []Record{extra}, b.IndexSet().Extras)
	assert.Zero(t, b.Len())
}

func TestArchiveVerifyChecksum(t *testing.T) {
	t.Parallel()

	buf := buildBuffer(t, BuildOptions{}, []WriteEntry{{
		Name:    "a.txt",
		Sources: []Source{FromBytes(SegmentUncompressed, []byte("pristine"))},
	}})
	a := openBuffer(t, buf)
	f, _ := a.IndexSet().Lookup("a.txt")
	buf.Bytes()[f.Segments[0].DataOffset] ^= 0xff

	got, err := a.ReadFile(context.Background(), "a.txt")
	require.NoError(t, err, "unverified by default")
	assert.NotEqual(t, "pristine", string(got))

	v := openBuffer(t, buf, WithVerifyChecksum(true))
	_, err = v.ReadFile(context.Background(), "a.txt")
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestArchiveLimits(t *testing.T) {
	t.Parallel()

	buf := buildBuffer(t, BuildOptions{}, []WriteEntry{{
		Name:    "big",
		Sources: []Source{FromBytes(SegmentUncompressed, make([]byte, 1024))},
	}})

	_, err := buf.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = Open(buf, WithMaxIndexSize(8))
	require.ErrorIs(t, err, ErrSizeOverflow)

	a := openBuffer(t, buf, WithMaxFileSize(100))
	_, err = a.ReadFile(context.Background(), "big")
	require.ErrorIs(t, err, ErrSizeOverflow)
}

func TestArchiveShortInflate(t *testing.T) {
	t.Parallel()

	a := openBuffer(t, buildBuffer(t, BuildOptions{}, []WriteEntry{{
		Name:    "a.txt",
		Sources: []Source{FromBytes(SegmentCompressed, []byte("hello"))},
	}}))
	a.IndexSet().Files["a.txt"].Segments[0].OriginalSize = 8

	var out bytes.Buffer
	require.NoError(t, a.Unpack(context.Background(), "a.txt", &out))
	assert.Equal(t, "hello", out.String())
}

func TestArchiveDigest(t *testing.T) {
	t.Parallel()

	a := openBuffer(t, buildBuffer(t, BuildOptions{}, []WriteEntry{{
		Name:    "a",
		Sources: []Source{FromBytes(SegmentCompressed, []byte("digest me"))},
	}}))
	d, err := a.Digest(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, digest.FromBytes([]byte("digest me")), d)
}

func TestArchiveConcurrentUnpack(t *testing.T) {
	t.Parallel()

	var entries []WriteEntry
	want := make(map[string][]byte)
	for i := range 16 {
		name := fmt.Sprintf("f%02d", i)
		data := bytes.Repeat([]byte{byte(i)}, 5000+i)
		want[name] = data
		flag := SegmentUncompressed
		if i%2 == 0 {
			flag = SegmentCompressed
		}
		entries = append(entries, WriteEntry{Name: name, Sources: []Source{FromBytes(flag, data)}})
	}
	a := openBuffer(t, buildBuffer(t, BuildOptions{IndexCompression: IndexCompressed}, entries))

	g, ctx := errgroup.WithContext(context.Background())
	for name, data := range want {
		g.Go(func() error {
			got, err := a.ReadFile(ctx, name)
			if err != nil {
				return err
			}
			if !bytes.Equal(got, data) {
				return fmt.Errorf("%s: content mismatch", name)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestArchiveClose(t *testing.T) {
	t.Parallel()

	buf := buildBuffer(t, BuildOptions{}, []WriteEntry{{Name: "a", Sources: []Source{FromBytes(SegmentUncompressed, []byte("a"))}}})
	path := filepath.Join(t.TempDir(), "test.xp3")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	a, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "idempotent")

	_, err = a.ReadFile(context.Background(), "a")
	require.ErrorIs(t, err, os.ErrClosed)

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.xp3"))
	require.ErrorIs(t, err, os.ErrNotExist)

	notArchive := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(notArchive, []byte(strings.Repeat("x", 64)), 0o600))
	_, err = OpenFile(notArchive)
	require.ErrorIs(t, err, ErrInvalidFile)
}

func TestArchiveUnpackCanceled(t *testing.T) {
	t.Parallel()

	a := openBuffer(t, buildBuffer(t, BuildOptions{}, []WriteEntry{{Name: "a", Sources: []Source{FromBytes(SegmentUncompressed, []byte("a"))}}}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := a.Unpack(ctx, "a", io.Discard)
	require.ErrorIs(t, err, context.Canceled)
}
