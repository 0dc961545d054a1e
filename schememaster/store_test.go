package schememaster

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = "CODE|NAME\nS1|One\nS2|Two\n"

type fakeDownloader struct {
	calls   atomic.Int32
	body    string
	err     error
	release chan struct{}
}

func (f *fakeDownloader) DownloadSchemeMaster(ctx context.Context, w io.Writer) error {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if _, err := io.WriteString(w, f.body); err != nil {
		return err
	}
	return f.err
}

type fakeRecorder struct {
	mu        sync.Mutex
	hits      int
	downloads []bool
}

func (f *fakeRecorder) ObserveSnapshotDownload(ok bool) {
	f.mu.Lock()
	f.downloads = append(f.downloads, ok)
	f.mu.Unlock()
}

func (f *fakeRecorder) ObserveSnapshotCacheHit() {
	f.mu.Lock()
	f.hits++
	f.mu.Unlock()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newTestStore(t *testing.T, d Downloader, rec Recorder) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), 0, d, rec)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, time.January, 5, 10, 0, 0, 0, time.Local) }
	return s
}

func TestFileName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "NSE_NSEINVEST_ALL_05012025.txt", FileName(time.Date(2025, time.January, 5, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "NSE_NSEINVEST_ALL_29122024.txt", FileName(time.Date(2024, time.December, 29, 0, 0, 0, 0, time.UTC)))
}

func TestEnsureSnapshotCacheHit(t *testing.T) {
	t.Parallel()
	d := &fakeDownloader{body: sampleFile}
	rec := &fakeRecorder{}
	s := newTestStore(t, d, rec)

	first, err := s.EnsureSnapshot(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "NSE_NSEINVEST_ALL_05012025.txt", first.FileName)
	assert.Equal(t, filepath.Join(s.Dir(), first.FileName), first.FilePath)
	assert.Equal(t, int64(len(sampleFile)), first.Size)

	second, err := s.EnsureSnapshot(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), d.calls.Load())
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, []bool{true}, rec.downloads)

	b, err := os.ReadFile(first.FilePath)
	require.NoError(t, err)
	assert.Equal(t, sampleFile, string(b))
}

func TestEnsureSnapshotForced(t *testing.T) {
	t.Parallel()
	d := &fakeDownloader{body: sampleFile}
	s := newTestStore(t, d, nil)
	for i := 0; i < 3; i++ {
		_, err := s.EnsureSnapshot(context.Background(), true)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), d.calls.Load())

	d.body = "CODE|NAME\nS9|Nine\n"
	snap, err := s.EnsureSnapshot(context.Background(), true)
	require.NoError(t, err)
	b, err := os.ReadFile(snap.FilePath)
	require.NoError(t, err)
	assert.Equal(t, d.body, string(b), "forced download replaces the day's file")
}

func TestEnsureSnapshotFailureLeavesNoFile(t *testing.T) {
	t.Parallel()
	errBroker := errors.New("broker said no")
	d := &fakeDownloader{body: "CODE|NA", err: errBroker}
	rec := &fakeRecorder{}
	s := newTestStore(t, d, rec)

	_, err := s.EnsureSnapshot(context.Background(), false)
	var de *DownloadError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "NSE_NSEINVEST_ALL_05012025.txt", de.FileName)
	require.ErrorIs(t, err, errBroker)
	assert.Equal(t, []bool{false}, rec.downloads)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	snaps, err := s.ListSnapshots()
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestEnsureSnapshotNoDownloader(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil, nil)
	_, err := s.EnsureSnapshot(context.Background(), false)
	require.ErrorIs(t, err, errDownloaderNotSet)
}

func TestEnsureSnapshotConcurrentCallsShareDownload(t *testing.T) {
	t.Parallel()
	d := &fakeDownloader{body: sampleFile, release: make(chan struct{})}
	s := newTestStore(t, d, nil)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.EnsureSnapshot(context.Background(), false)
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return d.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(d.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), d.calls.Load())
}

func TestEnsureSnapshotSurvivesFirstCallerCancel(t *testing.T) {
	t.Parallel()
	d := &fakeDownloader{body: sampleFile, release: make(chan struct{})}
	rec := &fakeRecorder{}
	s := newTestStore(t, d, rec)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.EnsureSnapshot(first, false)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return d.calls.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	err := <-firstErr
	var de *DownloadError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, context.Canceled)

	second := make(chan error, 1)
	go func() {
		snap, err := s.EnsureSnapshot(context.Background(), false)
		if err == nil && snap.Size != int64(len(sampleFile)) {
			err = errors.New("unexpected snapshot size")
		}
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(d.release)
	require.NoError(t, <-second)
	assert.Equal(t, int32(1), d.calls.Load(), "the download started by the cancelled caller completes")

	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.downloads) == 1 && rec.downloads[0]
	}, time.Second, time.Millisecond)
}

func TestListSnapshots(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil, nil)

	snaps, err := s.ListSnapshots()
	require.NoError(t, err)
	require.NotNil(t, snaps)
	assert.Empty(t, snaps)

	older := filepath.Join(s.Dir(), "NSE_NSEINVEST_ALL_05012025.txt")
	newer := filepath.Join(s.Dir(), "NSE_NSEINVEST_ALL_29122024.txt")
	writeFile(t, older, sampleFile)
	writeFile(t, newer, "x")
	writeFile(t, filepath.Join(s.Dir(), "notes.txt"), "x")
	writeFile(t, filepath.Join(s.Dir(), "NSE_NSEINVEST_ALL_05012025.txt.123.part"), "x")
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "NSE_NSEINVEST_ALL_01012025.txt"), 0o700))
	now := time.Now()
	require.NoError(t, os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(newer, now, now))

	snaps, err = s.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "NSE_NSEINVEST_ALL_29122024.txt", snaps[0].FileName)
	assert.Equal(t, int64(1), snaps[0].Size)
	assert.Equal(t, "NSE_NSEINVEST_ALL_05012025.txt", snaps[1].FileName)
	assert.Equal(t, older, snaps[1].FilePath)
}

func TestLatestSnapshotPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil, nil)
	_, err := s.LatestSnapshotPath()
	require.ErrorIs(t, err, ErrSnapshotNotFound)

	for _, name := range []string{
		"NSE_NSEINVEST_ALL_29122024.txt",
		"NSE_NSEINVEST_ALL_05012025.txt",
		"NSE_NSEINVEST_ALL_31012024.txt",
	} {
		writeFile(t, filepath.Join(s.Dir(), name), sampleFile)
	}
	latest, err := s.LatestSnapshotPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "NSE_NSEINVEST_ALL_05012025.txt"), latest,
		"ordering follows the embedded date across year boundaries")
}

func TestFileDate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), fileDate("NSE_NSEINVEST_ALL_05012025.txt"))
	assert.True(t, fileDate("NSE_NSEINVEST_ALL_99999999.txt").IsZero())
	assert.True(t, fileDate("other.txt").IsZero())
}

func TestResolvePath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil, nil)
	_, err := s.ResolvePath("")
	require.ErrorIs(t, err, ErrSnapshotNotFound)

	name := "NSE_NSEINVEST_ALL_05012025.txt"
	writeFile(t, filepath.Join(s.Dir(), name), sampleFile)

	p, err := s.ResolvePath(name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), name), p)

	p, err = s.ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), name), p)

	_, err = s.ResolvePath("NSE_NSEINVEST_ALL_06012025.txt")
	require.ErrorIs(t, err, ErrFileNotFound)

	for _, bad := range []string{"../etc/passwd", "NSE_NSEINVEST_ALL_05012025.txt/../x", "server.go", "NSE_NSEINVEST_ALL_0501202.txt"} {
		_, err = s.ResolvePath(bad)
		require.ErrorIs(t, err, ErrInvalidFileName, bad)
	}
}

func TestStoreParseAndIndex(t *testing.T) {
	t.Parallel()
	s, err := NewStore(t.TempDir(), 1, nil, nil)
	require.NoError(t, err)
	path := filepath.Join(s.Dir(), "NSE_NSEINVEST_ALL_05012025.txt")
	raw, err := os.ReadFile(filepath.Join("testdata", "scheme_master.txt"))
	require.NoError(t, err)
	writeFile(t, path, string(raw))

	res, err := s.ParseSnapshot(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Limit, "store default limit applies")
	assert.True(t, res.Limited)
	assert.Equal(t, "HDFCLQ-GR", res.Rows[0]["Scheme Code"])

	res, err = s.ParseSnapshot(path, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.False(t, res.Limited)

	schemes, err := s.PurchasableSchemeIndex(path)
	require.NoError(t, err)
	assert.Len(t, schemes, 3)

	f, err := s.OpenSnapshot(path)
	require.NoError(t, err)
	b, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "Unique No|Scheme Code"))
}
