package catalog

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ID is the textual form of a product identifier. Numeric ids keep their
// shortest decimal form, so 7 and "7" are the same ID.
type ID string

func (id ID) String() string { return string(id) }

// Product is a single catalog record.
type Product struct {
	ID        ID       `mapstructure:"id"`
	Name      string   `mapstructure:"nombre"`
	Color     string   `mapstructure:"color"`
	Image     string   `mapstructure:"imagen"`
	Alt       string   `mapstructure:"alt"`
	Features  []string `mapstructure:"caracteristicas"`
	Price     float64  `mapstructure:"precio"`
	PriceNote string   `mapstructure:"notaPrecio"`
}

// HasImage reports whether the product already carries a non-blank image path.
func (p *Product) HasImage() bool {
	return strings.TrimSpace(p.Image) != ""
}

func decodeProduct(record map[string]any) (*Product, error) {
	var product Product
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       lenientField,
		WeaklyTypedInput: true,
		Result:           &product,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(record); err != nil {
		return nil, err
	}

	return &product, nil
}

// lenientField maps wrongly typed optional values to something decodable, so a
// sloppy record degrades to zero values instead of failing the whole catalog.
func lenientField(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.String:
		switch v := data.(type) {
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		default:
			return "", nil
		}
	case reflect.Float64:
		switch v := data.(type) {
		case float64:
			return v, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return 0.0, nil
			}
			return f, nil
		default:
			return 0.0, nil
		}
	case reflect.Slice:
		items, ok := data.([]any)
		if !ok {
			return []string{}, nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case string:
				out = append(out, v)
			case float64:
				out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
		return out, nil
	default:
		return data, nil
	}
}
