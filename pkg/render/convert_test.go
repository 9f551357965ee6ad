package render

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/fluidcad/pkg/errors"
)

const squareSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`

// fakeConverter writes a shell script standing in for rsvg-convert.
func fakeConverter(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts need a unix shell")
	}
	path := filepath.Join(t.TempDir(), "rsvg-convert")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConverterArgs(t *testing.T) {
	tests := []struct {
		name string
		conv Converter
		f    Format
		want []string
	}{
		{"pdf", Converter{}, FormatPDF, []string{"-f", "pdf"}},
		{"png default scale", Converter{}, FormatPNG, []string{"-f", "png", "-z", "1.00"}},
		{"png scaled", Converter{Scale: 2}, FormatPNG, []string{"-f", "png", "-z", "2.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.conv.args(tt.f)
			if err != nil {
				t.Fatalf("args(%s): %v", tt.f, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("args(%s) = %v, want %v", tt.f, got, tt.want)
			}
		})
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name string
		conv Converter
		svg  string
		f    Format
		want errors.Code
	}{
		{"empty svg", Converter{}, "  ", FormatPDF, errors.ErrCodeInvalidInput},
		{"unknown format", Converter{}, squareSVG, Format("gif"), errors.ErrCodeUnsupported},
		{"missing tool", Converter{Binary: "fluidcad-no-such-converter"}, squareSVG, FormatPNG, errors.ErrCodeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.conv.Convert(context.Background(), []byte(tt.svg), tt.f)
			if !errors.Is(err, tt.want) {
				t.Errorf("Convert() error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestConvertPipesThroughTool(t *testing.T) {
	// Echo the flags, then the SVG from stdin.
	bin := fakeConverter(t, `echo "$@"; cat`)

	out, err := Converter{Binary: bin, Scale: 3}.Convert(context.Background(), []byte(squareSVG), FormatPNG)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("-f png -z 3.00\n")) {
		t.Errorf("output = %q, want flags first", out)
	}
	if !bytes.Contains(out, []byte(squareSVG)) {
		t.Errorf("output = %q, want the svg from stdin", out)
	}
}

func TestConvertReportsToolFailure(t *testing.T) {
	bin := fakeConverter(t, `echo "cannot parse svg" >&2; exit 1`)

	_, err := Converter{Binary: bin}.Convert(context.Background(), []byte(squareSVG), FormatPDF)
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Fatalf("Convert() error = %v, want INTERNAL_ERROR", err)
	}
	if !strings.Contains(err.Error(), "cannot parse svg") {
		t.Errorf("error %q does not carry stderr", err)
	}
}

func TestToPNG(t *testing.T) {
	if _, err := exec.LookPath(DefaultBinary); err != nil {
		t.Skip("rsvg-convert not installed")
	}
	png, err := ToPNG(context.Background(), []byte(squareSVG), 1)
	if err != nil {
		t.Fatalf("ToPNG: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("ToPNG() output is not a PNG: %q", png[:min(len(png), 8)])
	}
}
