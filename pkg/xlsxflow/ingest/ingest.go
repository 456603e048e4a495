package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/frame"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrPasswordRequired is returned for encrypted workbooks opened without a password.
	ErrPasswordRequired = errors.New("workbook is encrypted, password required")
	// ErrWrongPassword is returned when decryption fails.
	ErrWrongPassword = errors.New("wrong workbook password")
	// ErrUnsupportedFormat is returned for documents that are not spreadsheets.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Options configures Ingest.
type Options struct {
	// Password decrypts protected workbooks.
	Password string
	// ContentType is the declared media type, if known.
	ContentType string
	// Converter handles legacy formats; nil disables conversion.
	Converter *Converter
	// TempDir is the parent of per-invocation workspaces.
	TempDir string
	// CSV configures delimited text import. A zero Comma is sniffed.
	CSV frame.CSVOptions
}

// Ingest builds a workbook from a document. The returned workbook's name
// always ends in ".xlsx".
func Ingest(ctx context.Context, name string, data []byte, opts Options) (*xlsxflow.Workbook, error) {
	log := zerolog.Ctx(ctx)
	format := Detect(data, name, opts.ContentType)
	log.Debug().Str("name", name).Str("format", string(format)).Int("bytes", len(data)).Msg("ingest")

	switch format {
	case FormatXLSX:
		return open(name, data, opts.Password)

	case FormatOLE:
		info, err := InspectOLE(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", xlsxflow.ErrInvalidFormat, err)
		}
		if info.Encrypted {
			if opts.Password == "" {
				return nil, ErrPasswordRequired
			}
			return open(name, data, opts.Password)
		}
		return convert(ctx, name, data, opts)

	case FormatODS:
		return convert(ctx, name, data, opts)

	case FormatCSV:
		csvOpts := opts.CSV
		if csvOpts.Comma == 0 {
			csvOpts.Comma = frame.SniffComma(data)
		}
		fr, err := frame.FromCSV(bytes.NewReader(data), csvOpts)
		if err != nil {
			return nil, err
		}
		return fromFrame(name, fr)

	case FormatHTML:
		frames, err := frame.FromHTML(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if len(frames) == 0 {
			return nil, fmt.Errorf("%w in %s", frame.ErrNoTable, name)
		}
		return fromFrame(name, frames[0])
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xls", ".xlsb", ".ods", ".numbers":
		return convert(ctx, name, data, opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

func open(name string, data []byte, password string) (*xlsxflow.Workbook, error) {
	wb, err := xlsxflow.OpenBytes(xlsxName(name), data, xlsxflow.Options{Password: password})
	if err != nil && password != "" &&
		(errors.Is(err, excelize.ErrWorkbookPassword) || errors.Is(err, xlsxflow.ErrInvalidFormat)) {
		return nil, ErrWrongPassword
	}
	return wb, err
}

func convert(ctx context.Context, name string, data []byte, opts Options) (*xlsxflow.Workbook, error) {
	if opts.Converter == nil {
		return nil, fmt.Errorf("%w: %s needs conversion", ErrConverterUnavailable, name)
	}
	ws, err := NewWorkspace(opts.TempDir)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	input, err := ws.Stage(name, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := opts.Converter.Convert(ctx, ws, input)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("name", name).Int("bytes", len(out)).Msg("converted to xlsx")
	return open(name, out, "")
}

// fromFrame writes a frame to the first sheet of a new workbook.
func fromFrame(name string, fr *frame.Frame) (*xlsxflow.Workbook, error) {
	wb := xlsxflow.New(xlsxName(name))
	sheet := wb.Sheets()[0]
	if _, err := fr.WriteTo(wb.File, sheet, "A1", frame.WriteOptions{Header: true}); err != nil {
		wb.Close()
		return nil, err
	}
	return wb, nil
}

func xlsxName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == "/" || base == "" {
		base = "workbook"
	}
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, ".xlsx") {
		return base
	}
	return strings.TrimSuffix(base, ext) + ".xlsx"
}
