// Package markup describes a receipt as typed blocks for on-screen display
// and browser printing when no thermal printer takes the job.
package markup

import (
	"errors"
	"fmt"
)

// Layout carries the paper width hint for the host UI.
type Layout struct {
	Dialect      string `json:"dialect"`        // "58mm", "80mm" or "a4"
	PaperWidthMM int    `json:"paper_width_mm"` // 58, 80 or 210
	Columns      int    `json:"columns"`        // characters per line, 0 for full page
	FullPage     bool   `json:"full_page"`
}

// BlockKind identifies a block.
type BlockKind string

const (
	BlockHeader   BlockKind = "header"
	BlockCustomer BlockKind = "customer"
	BlockItems    BlockKind = "items"
	BlockTotals   BlockKind = "totals"
	BlockFooter   BlockKind = "footer"
)

var blockOrder = map[BlockKind]int{
	BlockHeader:   0,
	BlockCustomer: 1,
	BlockItems:    2,
	BlockTotals:   3,
	BlockFooter:   4,
}

// Line is a label/value row. Text-only rows leave Label empty.
type Line struct {
	Label string `json:"label,omitempty"`
	Value string `json:"value"`
}

// Item is one row of the items table.
type Item struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

// Block is a section of the receipt.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Title string    `json:"title,omitempty"`
	Lines []Line    `json:"lines,omitempty"`
	Items []Item    `json:"items,omitempty"`
	// Emphasis is the grand total row of the totals block.
	Emphasis *Line `json:"emphasis,omitempty"`
}

// Document is a receipt ready for a print-capable UI.
type Document struct {
	Layout Layout  `json:"layout"`
	Blocks []Block `json:"blocks"`
}

// ItemTuple is the information an item row must carry on every output path.
type ItemTuple struct {
	Name     string
	Quantity int
	Amount   string
}

var ErrInvalidDocument = errors.New("markup: invalid document")

// Block returns the first block of the given kind, or nil.
func (d *Document) Block(kind BlockKind) *Block {
	for i := range d.Blocks {
		if d.Blocks[i].Kind == kind {
			return &d.Blocks[i]
		}
	}
	return nil
}

// ItemTuples lists the items in print order.
func (d *Document) ItemTuples() []ItemTuple {
	b := d.Block(BlockItems)
	if b == nil {
		return nil
	}
	out := make([]ItemTuple, 0, len(b.Items))
	for _, it := range b.Items {
		out = append(out, ItemTuple{Name: it.Name, Quantity: it.Quantity, Amount: it.Amount})
	}
	return out
}

// GrandTotal returns the emphasized total, or "" if there is none.
func (d *Document) GrandTotal() string {
	b := d.Block(BlockTotals)
	if b == nil || b.Emphasis == nil {
		return ""
	}
	return b.Emphasis.Value
}

// Validate checks that header, items and totals are present, that no kind
// repeats, and that blocks follow header, customer, items, totals, footer.
func (d *Document) Validate() error {
	if d.Layout.PaperWidthMM <= 0 {
		return fmt.Errorf("%w: paper width %d", ErrInvalidDocument, d.Layout.PaperWidthMM)
	}
	seen := make(map[BlockKind]bool, len(d.Blocks))
	last := -1
	for _, b := range d.Blocks {
		pos, ok := blockOrder[b.Kind]
		if !ok {
			return fmt.Errorf("%w: unknown block %q", ErrInvalidDocument, b.Kind)
		}
		if seen[b.Kind] {
			return fmt.Errorf("%w: duplicate %s block", ErrInvalidDocument, b.Kind)
		}
		if pos < last {
			return fmt.Errorf("%w: %s block out of order", ErrInvalidDocument, b.Kind)
		}
		seen[b.Kind] = true
		last = pos
	}
	for _, required := range []BlockKind{BlockHeader, BlockItems, BlockTotals} {
		if !seen[required] {
			return fmt.Errorf("%w: missing %s block", ErrInvalidDocument, required)
		}
	}
	return nil
}
