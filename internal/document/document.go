package document

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

var emptyObject = []byte("{}")

// Document is an immutable JSON document. The zero value is an empty object.
type Document struct {
	raw []byte
}

// Empty returns an empty object document.
func Empty() Document {
	return Document{}
}

// Parse validates raw and returns it as a document.
// Blank input yields an empty object.
func Parse(raw []byte) (Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Document{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return Document{}, ErrInvalidJSON
	}
	return Document{raw: bytes.Clone(raw)}, nil
}

// ParseString is Parse for strings.
func ParseString(s string) (Document, error) {
	return Parse([]byte(s))
}

func (d Document) bytes() []byte {
	if len(d.raw) == 0 {
		return emptyObject
	}
	return d.raw
}

// Raw returns a copy of the document's JSON.
func (d Document) Raw() []byte {
	return bytes.Clone(d.bytes())
}

// String returns the document's JSON.
func (d Document) String() string {
	return string(d.bytes())
}

// Pretty returns the document indented for display.
func (d Document) Pretty() []byte {
	return pretty.Pretty(d.bytes())
}

// Get reads a gjson path.
func (d Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d.bytes(), path)
}

// Equal reports whether both documents hold the same bytes.
func (d Document) Equal(other Document) bool {
	return bytes.Equal(d.bytes(), other.bytes())
}

// Set returns a copy with value stored at path.
func (d Document) Set(path string, value any) (Document, error) {
	if path == "" {
		return d, ErrEmptyPath
	}
	raw, err := sjson.SetBytes(d.Raw(), path, value)
	if err != nil {
		return d, fmt.Errorf("document: set %s: %w", path, err)
	}
	return Document{raw: raw}, nil
}

// SetRaw returns a copy with the JSON value stored at path.
// An empty path replaces the whole document.
func (d Document) SetRaw(path, value string) (Document, error) {
	if !gjson.Valid(value) {
		return d, fmt.Errorf("%w at %q", ErrInvalidJSON, path)
	}
	if path == "" {
		return ParseString(value)
	}
	raw, err := sjson.SetRawBytes(d.Raw(), path, []byte(value))
	if err != nil {
		return d, fmt.Errorf("document: set %s: %w", path, err)
	}
	return Document{raw: raw}, nil
}

// Delete returns a copy without path. Deleting a missing path is a no-op.
func (d Document) Delete(path string) (Document, error) {
	if path == "" {
		return d, ErrEmptyPath
	}
	raw, err := sjson.DeleteBytes(d.Raw(), path)
	if err != nil {
		return d, fmt.Errorf("document: delete %s: %w", path, err)
	}
	return Document{raw: raw}, nil
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	return d.Raw(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// Encode renders d as JSON for script state reads.
func Encode(d Document) ([]byte, error) {
	return d.Raw(), nil
}
