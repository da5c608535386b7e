// Package cart holds the order a visitor is building and renders it as a
// pre-filled chat message.
package cart

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spigell/catalog-assets/internal/catalog"
)

const (
	// DefaultGreeting opens every order message.
	DefaultGreeting = "Hola! Quiero pedir:"

	chatURL = "https://wa.me/"
)

var (
	ErrEmpty   = errors.New("cart is empty")
	ErrNoPhone = errors.New("chat phone number is not configured")
)

// Item is a single unit added to the cart.
type Item struct {
	Name  string
	Price float64
}

// Line groups the units of one product name.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice float64
	Subtotal  float64
}

// Cart is an ordered list of units. The zero value is an empty cart.
type Cart struct {
	items []Item
}

func New() *Cart {
	return &Cart{}
}

// Add appends one unit.
func (c *Cart) Add(name string, price float64) {
	c.items = append(c.items, Item{Name: name, Price: price})
}

// AddProduct appends one unit of p, using the same name and price fallbacks
// as the catalog cards.
func (c *Cart) AddProduct(p *catalog.Product) {
	card := catalog.CardOf(p, catalog.DefaultCardDefaults())
	c.Add(card.Name, card.Price)
}

// RemoveOne removes the first unit called name. It reports whether a unit was
// removed.
func (c *Cart) RemoveOne(name string) bool {
	for i, item := range c.items {
		if item.Name == name {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.items = nil
}

// Len returns the number of units.
func (c *Cart) Len() int {
	return len(c.items)
}

// Total returns the sum of all unit prices.
func (c *Cart) Total() float64 {
	total := 0.0
	for _, item := range c.items {
		total += item.Price
	}
	return total
}

// Lines groups units by name in the order each name was first added. The unit
// price of a line is the price of its first unit.
func (c *Cart) Lines() []Line {
	var lines []Line
	index := make(map[string]int)
	for _, item := range c.items {
		i, ok := index[item.Name]
		if !ok {
			index[item.Name] = len(lines)
			lines = append(lines, Line{Name: item.Name, UnitPrice: item.Price})
			i = len(lines) - 1
		}
		lines[i].Quantity++
	}

	for i := range lines {
		lines[i].Subtotal = lines[i].UnitPrice * float64(lines[i].Quantity)
	}
	return lines
}

// Message renders the order text sent to the shop.
func (c *Cart) Message(greeting string) string {
	if strings.TrimSpace(greeting) == "" {
		greeting = DefaultGreeting
	}

	var b strings.Builder
	b.WriteString(greeting)
	for _, line := range c.Lines() {
		fmt.Fprintf(&b, "\n- %s (x%d) - $%s", line.Name, line.Quantity, catalog.FormatPrice(line.Subtotal))
	}
	fmt.Fprintf(&b, "\n\n*Total: $%s*", catalog.FormatPrice(c.Total()))

	return b.String()
}

// Link builds the chat URL carrying the order message for phone.
func (c *Cart) Link(phone, greeting string) (string, error) {
	if c.Len() == 0 {
		return "", ErrEmpty
	}

	phone = strings.TrimLeft(strings.TrimSpace(phone), "+")
	if phone == "" {
		return "", ErrNoPhone
	}

	text := strings.ReplaceAll(url.QueryEscape(c.Message(greeting)), "+", "%20")
	return chatURL + url.PathEscape(phone) + "?text=" + text, nil
}
