package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/fluidcad/pkg/device"
	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/interchange"
)

// Document encodings, chosen by file extension.
const (
	formatJSON    = "json"
	formatMsgpack = "msgpack"
)

// documentFormat returns msgpack for .msgpack and .mpk files and json for
// everything else.
func documentFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk":
		return formatMsgpack
	}
	return formatJSON
}

// readDevice loads a device document in either encoding.
func readDevice(path string, opts ...device.Option) (*device.Device, error) {
	if documentFormat(path) == formatJSON {
		return interchange.ImportJSON(path, opts...)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return interchange.UnmarshalMsgpack(data, opts...)
}

// writeDevice stores d at path in the encoding its extension selects.
func writeDevice(d *device.Device, path string) error {
	if documentFormat(path) == formatJSON {
		return interchange.ExportJSON(d, path)
	}
	data, err := interchange.MarshalMsgpack(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// parseTarget parses "component" or "component.port", the form
// Target.String prints.
func parseTarget(s string) (device.Target, error) {
	component, port, _ := strings.Cut(s, ".")
	return device.NewTarget(component, port)
}

// parseFloats parses n comma-separated numbers.
func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%q: want %d comma-separated numbers", s, n)
	}
	out := make([]float64, n)
	for i, f := range fields {
		var v float64
		if _, err := fmt.Sscan(strings.TrimSpace(f), &v); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%q", s)
		}
		out[i] = v
	}
	return out, nil
}
