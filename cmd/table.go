package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spigell/catalog-assets/internal/cart"
	"github.com/spigell/catalog-assets/internal/catalog"
	"github.com/spigell/catalog-assets/internal/matcher"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	if isTerminal(out) {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleDefault)
	}
	return t
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderReport(out io.Writer, report *matcher.Report) {
	if len(report.Proposals) > 0 {
		t := newTable(out)
		t.SetTitle("Proposals")
		t.AppendHeader(table.Row{"#", "ID", "Name", "Image", "Score", "Source", "Replaces"})
		for _, p := range report.Proposals {
			t.AppendRow(table.Row{p.Index, p.ProductID, p.ProductName, p.Path, fmt.Sprintf("%.2f", p.Score), p.Source, p.Previous})
		}
		t.Render()
	}

	if len(report.Unmatched) > 0 {
		t := newTable(out)
		t.SetTitle("Without match")
		t.AppendHeader(table.Row{"#", "ID", "Name"})
		for _, u := range report.Unmatched {
			t.AppendRow(table.Row{u.Index, u.ProductID, u.ProductName})
		}
		t.Render()
	}
}

func renderCards(out io.Writer, cards []catalog.Card) {
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Name", "Image", "Price", "Features"})
	for _, c := range cards {
		t.AppendRow(table.Row{c.ID, c.Name, c.Image, c.PriceLabel, strings.Join(c.Features, "; ")})
	}
	t.AppendFooter(table.Row{"", "", "", "Products", len(cards)})
	t.Render()
}

func renderCart(out io.Writer, c *cart.Cart) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Product", "Qty", "Unit", "Subtotal"})
	for _, line := range c.Lines() {
		t.AppendRow(table.Row{line.Name, line.Quantity, "$" + catalog.FormatPrice(line.UnitPrice), "$" + catalog.FormatPrice(line.Subtotal)})
	}
	t.AppendFooter(table.Row{"", "", "Total", "$" + catalog.FormatPrice(c.Total())})
	t.Render()
}
