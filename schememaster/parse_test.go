package schememaster

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFile(n int) string {
	var sb strings.Builder
	sb.WriteString("CODE|NAME\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "S%d|Scheme %d\n", i, i)
	}
	return sb.String()
}

func TestParseRowCount(t *testing.T) {
	t.Parallel()
	const n = 5
	for _, limit := range []int{1, n - 1, n, n + 1, 100} {
		res, err := Parse(strings.NewReader(buildFile(n)), limit)
		require.NoError(t, err)
		want := n
		if limit < n {
			want = limit
		}
		assert.Len(t, res.Rows, want, "limit %d", limit)
		assert.Equal(t, want, res.Total, "limit %d", limit)
		assert.Equal(t, n > limit, res.Limited, "limit %d", limit)
		assert.Equal(t, limit, res.Limit)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("read past the row cap")
}

func TestParseStopsAtRowCap(t *testing.T) {
	t.Parallel()
	r := io.MultiReader(strings.NewReader(buildFile(3)), failingReader{})
	res, err := Parse(r, 2)
	require.NoError(t, err, "nothing after the capped rows may be read")
	assert.True(t, res.Limited)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "S1", res.Rows[1]["CODE"])

	_, err = Parse(io.MultiReader(strings.NewReader(buildFile(1)), failingReader{}), 2)
	require.Error(t, err, "a short file is read to its end")
}

func TestParseDefaultLimit(t *testing.T) {
	t.Parallel()
	res, err := Parse(strings.NewReader(buildFile(DefaultRowLimit+1)), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultRowLimit, res.Limit)
	assert.Equal(t, DefaultRowLimit, res.Total)
	assert.True(t, res.Limited)
	assert.Equal(t, Row{"CODE": "S999", "NAME": "Scheme 999"}, res.Rows[DefaultRowLimit-1])
}

func TestParseColumnMapping(t *testing.T) {
	t.Parallel()
	res, err := Parse(strings.NewReader("A|B|C\n1|2\n1|2|3|4\n"), 10)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, Row{"A": "1", "B": "2"}, res.Rows[0])
	_, hasC := res.Rows[0]["C"]
	assert.False(t, hasC)
	assert.Equal(t, Row{"A": "1", "B": "2", "C": "3"}, res.Rows[1])
}

func TestParseHeaderKeptVerbatim(t *testing.T) {
	t.Parallel()
	res, err := Parse(strings.NewReader(" Scheme Code |name||X\na|b|c|d\n"), 10)
	require.NoError(t, err)
	assert.Equal(t, Row{" Scheme Code ": "a", "name": "b", "X": "d"}, res.Rows[0])
}

func TestParseCRLFAndBlankLines(t *testing.T) {
	t.Parallel()
	res, err := ParseFile(filepath.Join("testdata", "crlf.txt"), 1)
	require.NoError(t, err)
	assert.Equal(t, []Row{{"A": "1", "B": "2"}}, res.Rows)
	assert.True(t, res.Limited)

	res, err = Parse(strings.NewReader("A|B\n1|2\n\n"), 1)
	require.NoError(t, err)
	assert.False(t, res.Limited, "trailing blank lines are not data")
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()
	res, err := Parse(strings.NewReader(""), 10)
	require.NoError(t, err)
	assert.NotNil(t, res.Rows)
	assert.Zero(t, res.Total)

	res, err = Parse(strings.NewReader("A|B\n"), 10)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestParseFileNotFound(t *testing.T) {
	t.Parallel()
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt"), 10)
	require.ErrorIs(t, err, ErrFileNotFound)
	_, err = PurchasableSchemes(filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestParseLineTooLong(t *testing.T) {
	t.Parallel()
	long := "A\n" + strings.Repeat("x", maxLineLength+1) + "\n"
	_, err := Parse(strings.NewReader(long), 10)
	require.Error(t, err, "partial results are never returned")
}

func TestPurchasableSchemes(t *testing.T) {
	t.Parallel()
	schemes, err := PurchasableSchemes(filepath.Join("testdata", "scheme_master.txt"))
	require.NoError(t, err)
	assert.Equal(t, []Scheme{
		{Code: "HDFCLQ-GR", Name: "HDFC Liquid Fund Growth", MinAmount: "5000"},
		{Code: "ICICIEQ-GR", Name: "ICICI Bluechip Fund Growth", MinAmount: "1000"},
		{Code: "SBIDBT-GR", Name: "SBI Magnum Gilt Growth", MinAmount: "1000"},
	}, schemes)
}

func TestPurchasableSchemesExample(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "example.txt")
	writeFile(t, path, "COL1|COL2|COL3|COL4|COL5|COL6|COL7|COL8|SCHEME_NAME|ALLOW_PURCHASE|COL11|MIN_AMT\n"+
		"x|SCHEMECODE1|x|x|x|x|x|x|Liquid Fund Growth|Y|x|5000\n")
	schemes, err := PurchasableSchemes(path)
	require.NoError(t, err)
	assert.Equal(t, []Scheme{{Code: "SCHEMECODE1", Name: "Liquid Fund Growth", MinAmount: "5000"}}, schemes)
}

func TestPurchasableSchemesShortRows(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "short.txt")
	writeFile(t, path, "H\n"+
		"a|b|c|d|e|f|g|h|i\n"+
		"a|CODE|c|d|e|f|g|h|Name|Y\n"+
		"a|CODE2|c|d|e|f|g|h|Name2|y|x|1\n")
	schemes, err := PurchasableSchemes(path)
	require.NoError(t, err)
	assert.Equal(t, []Scheme{{Code: "CODE", Name: "Name", MinAmount: DefaultMinAmount}}, schemes)
}
