package schememaster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"
)

// Scheme master file naming and format constants
const (
	FilePrefix      = "NSE_NSEINVEST_ALL_"
	FileExtension   = ".txt"
	fileDateLayout  = "02012006"
	Delimiter       = "|"
	DefaultRowLimit = 1000
	// DefaultMinAmount is reported when a purchasable row has no minimum
	// purchase amount
	DefaultMinAmount = "1000"

	purchaseAllowed     = "Y"
	colSchemeCode       = 1
	colSchemeName       = 8
	colPurchaseAllowed  = 9
	colMinPurchaseAmt   = 11
	initialScanBuffer   = 64 * 1024
	maxLineLength       = 4 * 1024 * 1024
	partialFileSuffix   = ".part"
	snapshotPermissions = 0o644
	// downloadTimeout bounds a shared download once it is detached from the
	// caller that started it
	downloadTimeout = 5 * time.Minute
)

var filePattern = regexp.MustCompile(`^` + FilePrefix + `(\d{8})\` + FileExtension + `$`)

var (
	// ErrSnapshotNotFound is returned when no snapshot has been downloaded
	// yet
	ErrSnapshotNotFound = errors.New("no scheme master files found")
	// ErrFileNotFound is returned when a named snapshot does not exist
	ErrFileNotFound = errors.New("scheme master file not found")
	// ErrInvalidFileName is returned for names outside the snapshot naming
	// convention
	ErrInvalidFileName = errors.New("invalid scheme master file name")

	errDownloaderNotSet = errors.New("scheme master downloader not set")
)

// DownloadError wraps any failure of a snapshot download. No file matching
// the naming convention is left behind when it is returned.
type DownloadError struct {
	FileName string
	Err      error
}

// Error implements the error interface
func (d *DownloadError) Error() string {
	return fmt.Sprintf("failed to download scheme master %s: %v", d.FileName, d.Err)
}

// Unwrap returns the underlying cause
func (d *DownloadError) Unwrap() error {
	return d.Err
}

// Downloader fetches the current scheme master file from the broker
type Downloader interface {
	DownloadSchemeMaster(ctx context.Context, w io.Writer) error
}

// Recorder observes download and cache outcomes
type Recorder interface {
	ObserveSnapshotDownload(success bool)
	ObserveSnapshotCacheHit()
}

// Snapshot describes one downloaded scheme master file
type Snapshot struct {
	FileName string    `json:"fileName"`
	FilePath string    `json:"filePath"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
}

// Row maps header column names to the raw field values of one data line
type Row map[string]string

// ParseResult holds the rows produced by a capped parse
type ParseResult struct {
	Rows    []Row `json:"rows"`
	Total   int   `json:"total"`
	Limited bool  `json:"limited"`
	Limit   int   `json:"limit"`
}

// Scheme is a purchasable scheme as offered on the order form
type Scheme struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	MinAmount string `json:"minAmount"`
}
