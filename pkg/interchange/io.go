package interchange

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/fluidcad/pkg/device"
	"github.com/matzehuels/fluidcad/pkg/errors"
)

// WriteJSON encodes d as an indented version 1 document and writes it to w.
// The output can be re-read with [ReadJSON].
func WriteJSON(d *device.Device, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(DeviceToV1(d)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a version 1 document from r. ReadJSON does not close r.
func ReadJSON(r io.Reader, opts ...device.Option) (*device.Device, error) {
	doc, err := DecodeDocument(r)
	if err != nil {
		return nil, err
	}
	return DeviceFromV1(doc, opts...)
}

// DecodeDocument decodes the JSON document without building a device.
func DecodeDocument(r io.Reader) (DeviceV1, error) {
	var doc DeviceV1
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		if errors.GetCode(err) != "" {
			return DeviceV1{}, err
		}
		return DeviceV1{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}
	return doc, nil
}

// ImportJSON reads a JSON document from the file at path.
func ImportJSON(path string, opts ...device.Option) (*device.Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f, opts...)
}

// ExportJSON writes d to a JSON file at path.
func ExportJSON(d *device.Device, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(d, f)
}

// MarshalMsgpack encodes d as a msgpack version 1 document. Field names
// match the JSON form.
func MarshalMsgpack(d *device.Device) ([]byte, error) {
	doc := DeviceToV1(d)
	return EncodeMsgpack(&doc)
}

// UnmarshalMsgpack decodes a msgpack document and rebuilds the device.
func UnmarshalMsgpack(data []byte, opts ...device.Option) (*device.Device, error) {
	doc, err := DecodeMsgpack(data)
	if err != nil {
		return nil, err
	}
	return DeviceFromV1(doc, opts...)
}

// EncodeMsgpack encodes a document without building it from a device.
func EncodeMsgpack(doc *DeviceV1) ([]byte, error) {
	data, err := msgpack.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode msgpack: %w", err)
	}
	return data, nil
}

// DecodeMsgpack decodes a msgpack document without building a device.
func DecodeMsgpack(data []byte) (DeviceV1, error) {
	var doc DeviceV1
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		if errors.GetCode(err) != "" {
			return DeviceV1{}, err
		}
		return DeviceV1{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode msgpack")
	}
	return doc, nil
}
