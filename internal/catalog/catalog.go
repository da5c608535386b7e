// Package catalog loads, renders and rewrites the product data file.
//
// Records are decoded leniently and the raw bytes of every record are kept, so
// rewriting the file only touches the records whose image was changed. Key order
// and number literals of untouched records survive a round trip.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const imageKey = "imagen"

// ErrMalformed is returned when the catalog data is not a JSON array of objects.
var ErrMalformed = errors.New("malformed catalog json")

// Catalog is the ordered collection of products read from one data file.
type Catalog struct {
	Products []*Product

	records []json.RawMessage
	dirty   map[int]bool
}

// Parse decodes a catalog from its JSON representation.
func Parse(data []byte) (*Catalog, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	c := &Catalog{
		Products: make([]*Product, 0, len(records)),
		records:  records,
		dirty:    make(map[int]bool),
	}

	for i, raw := range records {
		var record map[string]any
		if err := json.Unmarshal(raw, &record); err != nil || record == nil {
			return nil, fmt.Errorf("%w: record %d is not an object", ErrMalformed, i)
		}

		product, err := decodeProduct(record)
		if err != nil {
			return nil, fmt.Errorf("decoding record %d: %w", i, err)
		}
		c.Products = append(c.Products, product)
	}

	return c, nil
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.Products)
}

// FindByID returns the first product with the given id.
func (c *Catalog) FindByID(id ID) *Product {
	for _, p := range c.Products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// SetImage assigns a new image path to the product at index and marks its record
// for rewriting.
func (c *Catalog) SetImage(index int, path string) error {
	if index < 0 || index >= len(c.Products) {
		return fmt.Errorf("product index %d out of range", index)
	}
	c.Products[index].Image = path
	c.dirty[index] = true
	return nil
}

// Changed returns the number of records modified since parsing.
func (c *Catalog) Changed() int {
	return len(c.dirty)
}

// Marshal renders the catalog as a two-space indented JSON array terminated by a
// newline.
func (c *Catalog) Marshal() ([]byte, error) {
	if len(c.records) == 0 {
		return []byte("[]\n"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, raw := range c.records {
		if c.dirty[i] {
			patched, err := setField(raw, imageKey, c.Products[i].Image)
			if err != nil {
				return nil, fmt.Errorf("updating record %d: %w", i, err)
			}
			raw = patched
		}

		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return nil, fmt.Errorf("compacting record %d: %w", i, err)
		}

		buf.WriteString("  ")
		if err := json.Indent(&buf, compact.Bytes(), "  ", "  "); err != nil {
			return nil, fmt.Errorf("indenting record %d: %w", i, err)
		}
		if i < len(c.records)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("]\n")

	return buf.Bytes(), nil
}

type field struct {
	key   string
	value json.RawMessage
}

// setField replaces key in the JSON object raw, keeping the order of the other
// keys. A missing key is appended last.
func setField(raw json.RawMessage, key string, value any) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrMalformed)
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected key %v", ErrMalformed, tok)
		}

		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		fields = append(fields, field{key: name, value: v})
	}

	encoded, err := encodeJSON(value)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range fields {
		if fields[i].key == key {
			fields[i].value = encoded
			replaced = true
		}
	}
	if !replaced {
		fields = append(fields, field{key: key, value: encoded})
	}

	var out bytes.Buffer
	out.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			out.WriteByte(',')
		}
		k, err := encodeJSON(f.key)
		if err != nil {
			return nil, err
		}
		out.Write(k)
		out.WriteByte(':')
		out.Write(f.value)
	}
	out.WriteByte('}')

	return out.Bytes(), nil
}

func encodeJSON(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}
