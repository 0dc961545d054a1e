package schememaster

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mfdesk/mfgateway/common"
	"github.com/mfdesk/mfgateway/log"
	"golang.org/x/sync/singleflight"
)

// Store manages dated scheme master snapshots in a single directory. No state
// is cached between calls: listings rescan the directory and parses reread
// the file.
type Store struct {
	dir          string
	defaultLimit int
	downloader   Downloader
	recorder     Recorder
	group        singleflight.Group
	now          func() time.Time
}

// NewStore returns a store rooted at dir, creating the directory when
// missing. rec may be nil.
func NewStore(dir string, defaultLimit int, d Downloader, rec Recorder) (*Store, error) {
	if err := common.CheckDir(dir, true); err != nil {
		return nil, err
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultRowLimit
	}
	return &Store{
		dir:          dir,
		defaultLimit: defaultLimit,
		downloader:   d,
		recorder:     rec,
		now:          time.Now,
	}, nil
}

// Dir returns the snapshot directory
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns the snapshot name for the calendar day of t
func FileName(t time.Time) string {
	return FilePrefix + t.Format(fileDateLayout) + FileExtension
}

// EnsureSnapshot returns today's snapshot, downloading it when absent or when
// force is set. Concurrent calls for the same day share one download.
func (s *Store) EnsureSnapshot(ctx context.Context, force bool) (*Snapshot, error) {
	name := FileName(s.now())
	if !force {
		snap, err := s.stat(name)
		if err == nil {
			log.Debugf(log.SchemeMgr, "Scheme master %s already downloaded today", name)
			if s.recorder != nil {
				s.recorder.ObserveSnapshotCacheHit()
			}
			return snap, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &DownloadError{FileName: name, Err: err}
		}
	}

	// The shared download outlives any single caller; each caller only stops
	// waiting when its own context ends.
	ch := s.group.DoChan(name, func() (interface{}, error) {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), downloadTimeout)
		defer cancel()
		snap, err := s.download(dctx, name)
		if s.recorder != nil {
			s.recorder.ObserveSnapshotDownload(err == nil)
		}
		return snap, err
	})
	select {
	case <-ctx.Done():
		return nil, &DownloadError{FileName: name, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		snap := *res.Val.(*Snapshot)
		return &snap, nil
	}
}

// download writes the broker response to a temporary file next to the
// target and renames it into place once complete
func (s *Store) download(ctx context.Context, name string) (*Snapshot, error) {
	if s.downloader == nil {
		return nil, &DownloadError{FileName: name, Err: errDownloaderNotSet}
	}
	log.Infof(log.SchemeMgr, "Downloading scheme master %s", name)

	tmp, err := os.CreateTemp(s.dir, name+".*"+partialFileSuffix)
	if err != nil {
		return nil, &DownloadError{FileName: name, Err: err}
	}
	tmpName := tmp.Name()
	fail := func(err error) (*Snapshot, error) {
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Errorf(log.SchemeMgr, "Unable to remove partial download %s: %v", tmpName, rmErr)
		}
		return nil, &DownloadError{FileName: name, Err: err}
	}

	err = s.downloader.DownloadSchemeMaster(ctx, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fail(err)
	}
	if err = os.Chmod(tmpName, snapshotPermissions); err != nil {
		return fail(err)
	}
	if err = os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fail(err)
	}

	snap, err := s.stat(name)
	if err != nil {
		return nil, &DownloadError{FileName: name, Err: err}
	}
	log.Infof(log.SchemeMgr, "Scheme master %s saved, %d bytes", name, snap.Size)
	return snap, nil
}

func (s *Store) stat(name string) (*Snapshot, error) {
	path := filepath.Join(s.dir, name)
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, fs.ErrNotExist)
	}
	return &Snapshot{
		FileName: name,
		FilePath: path,
		Size:     fi.Size(),
		Created:  fi.ModTime(),
	}, nil
}

// ListSnapshots returns every snapshot in the directory, newest first. An
// empty directory yields an empty, non nil slice.
func (s *Store) ListSnapshots() ([]Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	snaps := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !filePattern.MatchString(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		snaps = append(snaps, Snapshot{
			FileName: e.Name(),
			FilePath: filepath.Join(s.dir, e.Name()),
			Size:     fi.Size(),
			Created:  fi.ModTime(),
		})
	}
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].Created.After(snaps[j].Created)
	})
	return snaps, nil
}

// LatestSnapshotPath returns the path of the snapshot with the most recent
// embedded date. Names with the same date order by descending name.
func (s *Store) LatestSnapshotPath() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filePattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", ErrSnapshotNotFound
	}
	sort.Slice(names, func(i, j int) bool {
		di, dj := fileDate(names[i]), fileDate(names[j])
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return names[i] > names[j]
	})
	return filepath.Join(s.dir, names[0]), nil
}

// fileDate returns the date embedded in a snapshot name, or the zero time
// when the digits are not a real date
func fileDate(name string) time.Time {
	m := filePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}
	}
	t, err := time.Parse(fileDateLayout, m[1])
	if err != nil {
		return time.Time{}
	}
	return t
}

// ResolvePath returns the path of the named snapshot, or of the latest one
// when fileName is empty
func (s *Store) ResolvePath(fileName string) (string, error) {
	if fileName == "" {
		return s.LatestSnapshotPath()
	}
	if !filePattern.MatchString(fileName) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, fileName)
	}
	if _, err := s.stat(fileName); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, fileName)
		}
		return "", err
	}
	return filepath.Join(s.dir, fileName), nil
}

// ParseSnapshot parses the snapshot at path. A limit of zero or less uses the
// store's default.
func (s *Store) ParseSnapshot(path string, limit int) (*ParseResult, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	return ParseFile(path, limit)
}

// PurchasableSchemeIndex returns every purchasable scheme in the snapshot at
// path. No row cap applies.
func (s *Store) PurchasableSchemeIndex(path string) ([]Scheme, error) {
	return PurchasableSchemes(path)
}

// OpenSnapshot opens the snapshot at path for raw reading
func (s *Store) OpenSnapshot(path string) (*os.File, error) {
	return openFile(path)
}
