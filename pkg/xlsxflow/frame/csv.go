package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVOptions configures CSV decoding.
type CSVOptions struct {
	// Comma is the field delimiter; zero means ','. "auto" detection is done by SniffComma.
	Comma rune
	// Encoding is a WHATWG encoding label such as "windows-1252" or "shift_jis".
	// Empty means UTF-8 with an optional byte order mark.
	Encoding string
	// NoHeader treats the first record as data.
	NoHeader bool
}

// FromCSV reads delimited text into a frame.
func FromCSV(r io.Reader, opts CSVOptions) (*Frame, error) {
	dec, err := decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(transform.NewReader(r, dec.NewDecoder()))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return FromStrings(records, !opts.NoHeader), nil
}

func decoder(label string) (encoding.Encoding, error) {
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return unicode.UTF8BOM, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return enc, nil
}

// SniffComma guesses the delimiter of a CSV sample from its first line.
func SniffComma(sample []byte) rune {
	line := string(sample)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(line, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
