// Package ingest turns uploaded or fetched documents into workbooks: it
// detects the format, converts legacy files through an external tool inside a
// temporary workspace, and builds workbooks from CSV and HTML tables.
package ingest

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"
)

// Format is a detected document format.
type Format string

const (
	FormatXLSX    Format = "xlsx"
	FormatOLE     Format = "ole"
	FormatODS     Format = "ods"
	FormatCSV     Format = "csv"
	FormatHTML    Format = "html"
	FormatUnknown Format = "unknown"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Detect classifies a document from its content, file name and content type.
// Magic bytes win over names.
func Detect(data []byte, name, contentType string) Format {
	switch {
	case bytes.HasPrefix(data, oleMagic):
		return FormatOLE
	case bytes.HasPrefix(data, zipMagic):
		return detectZip(data)
	}

	ext := strings.ToLower(filepath.Ext(name))
	ct := strings.ToLower(contentType)
	switch {
	case ext == ".csv" || ext == ".tsv" || strings.Contains(ct, "text/csv"):
		return FormatCSV
	case ext == ".html" || ext == ".htm" || strings.Contains(ct, "text/html"):
		return FormatHTML
	}

	head := strings.ToLower(strings.TrimSpace(string(data[:min(len(data), 512)])))
	switch {
	case strings.HasPrefix(head, "<!doctype html"), strings.HasPrefix(head, "<html"), strings.Contains(head, "<table"):
		return FormatHTML
	case looksDelimited(head):
		return FormatCSV
	}
	return FormatUnknown
}

func detectZip(data []byte) Format {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return FormatUnknown
	}
	for _, f := range zr.File {
		switch f.Name {
		case "[Content_Types].xml":
			return FormatXLSX
		case "mimetype":
			return FormatODS
		}
	}
	return FormatUnknown
}

// looksDelimited reports whether the first lines share a delimiter count.
func looksDelimited(head string) bool {
	lines := strings.FieldsFunc(head, func(r rune) bool { return r == '\n' || r == '\r' })
	if len(lines) == 0 || strings.ContainsRune(head, 0) {
		return false
	}
	for _, sep := range []string{",", ";", "\t"} {
		n := strings.Count(lines[0], sep)
		if n == 0 {
			continue
		}
		ok := true
		for _, l := range lines[1:min(len(lines), 4)] {
			if strings.Count(l, sep) != n {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
