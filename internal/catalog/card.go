package catalog

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	DefaultPlaceholder = "assets/logo2.png"
	DefaultName        = "Producto sin nombre"
	DefaultAlt         = "Producto"
)

// CardDefaults are the fallbacks used when a record lacks a displayable value.
type CardDefaults struct {
	Placeholder string
	Name        string
	Alt         string
}

func DefaultCardDefaults() CardDefaults {
	return CardDefaults{
		Placeholder: DefaultPlaceholder,
		Name:        DefaultName,
		Alt:         DefaultAlt,
	}
}

// Card is the render model of one product.
type Card struct {
	ID         ID
	Name       string
	Alt        string
	Image      string
	Features   []string
	Price      float64
	PriceLabel string
}

// CardOf builds the card of p, filling every missing value from d.
func CardOf(p *Product, d CardDefaults) Card {
	if d.Placeholder == "" {
		d.Placeholder = DefaultPlaceholder
	}
	if d.Name == "" {
		d.Name = DefaultName
	}
	if d.Alt == "" {
		d.Alt = DefaultAlt
	}

	card := Card{
		ID:    p.ID,
		Name:  strings.TrimSpace(p.Name),
		Image: strings.TrimSpace(p.Image),
		Price: p.Price,
	}

	if card.Image == "" {
		card.Image = d.Placeholder
	}

	card.Alt = firstNonEmpty(p.Alt, p.Name, d.Alt)
	if card.Name == "" {
		card.Name = d.Name
	}

	for _, f := range p.Features {
		if f = strings.TrimSpace(f); f != "" {
			card.Features = append(card.Features, f)
		}
	}

	if math.IsNaN(card.Price) || math.IsInf(card.Price, 0) {
		card.Price = 0
	}

	card.PriceLabel = "$" + FormatPrice(card.Price)
	if note := strings.TrimSpace(p.PriceNote); note != "" {
		card.PriceLabel += " (" + note + ")"
	}

	return card
}

// FormatPrice renders v with es-AR separators: dots between thousands and a
// comma before up to three decimals, which are only shown when v is not integral.
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v == math.Trunc(v) {
		return humanize.FormatFloat("#.###,", v)
	}

	s := humanize.FormatFloat("#.###,###", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ",")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
