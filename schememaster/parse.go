package schememaster

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// ParseFile stream parses the snapshot at path, producing at most limit
// rows. A limit of zero or less uses DefaultRowLimit.
func ParseFile(path string, limit int) (*ParseResult, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, limit)
}

// Parse reads pipe delimited lines from r. The first line names the columns.
// Every following non blank line becomes a Row pairing each named header
// column with the field at the same position. Surplus fields are dropped and
// absent trailing fields are left out of the row. Reading stops as soon as
// limit rows exist and one further data line has been seen.
func Parse(r io.Reader, limit int) (*ParseResult, error) {
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	res := &ParseResult{Rows: make([]Row, 0), Limit: limit}

	sc := newScanner(r)
	var header []string
	headerRead := false
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if !headerRead {
			header = strings.Split(line, Delimiter)
			headerRead = true
			continue
		}
		if line == "" {
			continue
		}
		if len(res.Rows) == limit {
			res.Limited = true
			break
		}
		res.Rows = append(res.Rows, mapRow(header, strings.Split(line, Delimiter)))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse scheme master: %w", err)
	}
	res.Total = len(res.Rows)
	return res, nil
}

func mapRow(header, fields []string) Row {
	n := len(fields)
	if len(header) < n {
		n = len(header)
	}
	row := make(Row, n)
	for i := 0; i < n; i++ {
		if header[i] == "" {
			continue
		}
		row[header[i]] = fields[i]
	}
	return row
}

// PurchasableSchemes reads every data line of the snapshot at path and
// returns, in file order, the schemes whose purchase allowed flag is Y. The
// fields are taken by position rather than by header name.
func PurchasableSchemes(path string) ([]Scheme, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	schemes := make([]Scheme, 0)
	sc := newScanner(f)
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		cols := strings.Split(strings.TrimSuffix(sc.Text(), "\r"), Delimiter)
		if len(cols) <= colPurchaseAllowed || cols[colPurchaseAllowed] != purchaseAllowed {
			continue
		}
		minAmount := DefaultMinAmount
		if len(cols) > colMinPurchaseAmt && cols[colMinPurchaseAmt] != "" {
			minAmount = cols[colMinPurchaseAmt]
		}
		schemes = append(schemes, Scheme{
			Code:      cols[colSchemeCode],
			Name:      cols[colSchemeName],
			MinAmount: minAmount,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scheme master: %w", err)
	}
	return schemes, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialScanBuffer), maxLineLength)
	return sc
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	return f, nil
}
