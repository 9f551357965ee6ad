package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/matzehuels/fluidcad/pkg/errors"
)

// Format is an output format rsvg-convert can produce from SVG.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

// DefaultBinary is the converter looked up on PATH when Converter.Binary is empty.
const DefaultBinary = "rsvg-convert"

// Converter turns SVG into PDF or PNG with librsvg's rsvg-convert.
// The zero value is ready to use.
type Converter struct {
	Binary string  // path or name of rsvg-convert
	Scale  float64 // PNG zoom factor, 1 when <= 0
}

// Convert renders svg to f. A missing rsvg-convert or an unknown format is
// UNSUPPORTED; a failing conversion is INTERNAL_ERROR carrying the tool's
// stderr.
func (c Converter) Convert(ctx context.Context, svg []byte, f Format) ([]byte, error) {
	if len(bytes.TrimSpace(svg)) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no svg to convert")
	}
	args, err := c.args(f)
	if err != nil {
		return nil, err
	}

	bin := c.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", f)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s: %s", bin, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}

func (c Converter) args(f Format) ([]string, error) {
	switch f {
	case FormatPDF:
		return []string{"-f", "pdf"}, nil
	case FormatPNG:
		scale := c.Scale
		if scale <= 0 {
			scale = 1
		}
		return []string{"-f", "png", "-z", fmt.Sprintf("%.2f", scale)}, nil
	}
	return nil, errors.Unsupported("svg conversion", fmt.Sprintf("format %q", f))
}

// ToPDF converts SVG bytes to PDF with the default converter.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return Converter{}.Convert(ctx, svg, FormatPDF)
}

// ToPNG converts SVG bytes to PNG at the given scale factor.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return Converter{Scale: scale}.Convert(ctx, svg, FormatPNG)
}
