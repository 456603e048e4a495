package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrConverterUnavailable is returned when the converter binary cannot be found.
var ErrConverterUnavailable = errors.New("converter unavailable")

// Placeholders substituted in Converter.Args.
const (
	OutDirPlaceholder = "{outdir}"
	InputPlaceholder  = "{input}"
)

// Converter runs an external command that turns a spreadsheet into xlsx.
type Converter struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// DefaultConverter converts with a headless LibreOffice.
func DefaultConverter() *Converter {
	return &Converter{
		Command: "soffice",
		Args:    []string{"--headless", "--convert-to", "xlsx", "--outdir", OutDirPlaceholder, InputPlaceholder},
		Timeout: 2 * time.Minute,
	}
}

// ParseCommand builds a converter from a command line such as
// "soffice --headless --convert-to xlsx --outdir {outdir} {input}".
func ParseCommand(line string, timeout time.Duration) (*Converter, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrConverterUnavailable)
	}
	return &Converter{Command: fields[0], Args: fields[1:], Timeout: timeout}, nil
}

// Available reports whether the command can be resolved on PATH.
func (c *Converter) Available() bool {
	if c == nil {
		return false
	}
	_, err := exec.LookPath(c.Command)
	return err == nil
}

// Convert runs the converter on input inside ws and returns the produced
// xlsx document.
func (c *Converter) Convert(ctx context.Context, ws *Workspace, input string) ([]byte, error) {
	if c == nil {
		return nil, ErrConverterUnavailable
	}
	bin, err := exec.LookPath(c.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConverterUnavailable, err)
	}

	outDir := ws.Path("out")
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return nil, err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		a = strings.ReplaceAll(a, OutDirPlaceholder, outDir)
		args[i] = strings.ReplaceAll(a, InputPlaceholder, input)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = ws.Dir
	// LibreOffice writes its profile under HOME; keep it inside the workspace.
	cmd.Env = append(os.Environ(), "HOME="+ws.Dir)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("convert %s: %w", filepath.Base(input), ctx.Err())
		}
		return nil, fmt.Errorf("convert %s: %w: %s", filepath.Base(input), err, tail(out.String(), 512))
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	data, err := os.ReadFile(filepath.Join(outDir, base+".xlsx"))
	if err != nil {
		return nil, fmt.Errorf("convert %s: no output produced: %w", filepath.Base(input), err)
	}
	return data, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
