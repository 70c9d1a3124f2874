package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument(layout Layout) *Document {
	return &Document{
		Layout: layout,
		Blocks: []Block{
			{Kind: BlockHeader, Title: "TAX INVOICE", Lines: []Line{
				{Value: "Spice Garden"},
				{Value: "12 MG Road"},
				{Label: "Invoice No:", Value: "20261015-001"},
			}},
			{Kind: BlockCustomer, Lines: []Line{{Label: "Customer:", Value: "Asha <VIP>"}}},
			{Kind: BlockItems, Items: []Item{
				{Name: "Paneer Tikka", Quantity: 2, UnitPrice: "250.00", Amount: "500.00"},
				{Name: "Butter Naan", Quantity: 3, UnitPrice: "50.00", Amount: "150.00"},
			}},
			{Kind: BlockTotals, Lines: []Line{
				{Label: "Subtotal:", Value: "650.00"},
				{Label: "GST:", Value: "32.50"},
			}, Emphasis: &Line{Label: "Grand Total:", Value: "692.50"}},
			{Kind: BlockFooter, Lines: []Line{{Value: "Thank you!"}}},
		},
	}
}

var thermal58 = Layout{Dialect: "58mm", PaperWidthMM: 58, Columns: 32}

func TestItemTuplesAndGrandTotal(t *testing.T) {
	doc := sampleDocument(thermal58)

	assert.Equal(t, []ItemTuple{
		{Name: "Paneer Tikka", Quantity: 2, Amount: "500.00"},
		{Name: "Butter Naan", Quantity: 3, Amount: "150.00"},
	}, doc.ItemTuples())
	assert.Equal(t, "692.50", doc.GrandTotal())

	empty := &Document{}
	assert.Nil(t, empty.ItemTuples())
	assert.Empty(t, empty.GrandTotal())
}

func TestValidate(t *testing.T) {
	require.NoError(t, sampleDocument(thermal58).Validate())

	outOfOrder := sampleDocument(thermal58)
	outOfOrder.Blocks[2], outOfOrder.Blocks[3] = outOfOrder.Blocks[3], outOfOrder.Blocks[2]
	assert.ErrorIs(t, outOfOrder.Validate(), ErrInvalidDocument)

	missingItems := sampleDocument(thermal58)
	missingItems.Blocks = append(missingItems.Blocks[:2], missingItems.Blocks[3:]...)
	assert.ErrorIs(t, missingItems.Validate(), ErrInvalidDocument)

	noWidth := sampleDocument(Layout{})
	assert.ErrorIs(t, noWidth.Validate(), ErrInvalidDocument)

	// The customer block is optional.
	noCustomer := sampleDocument(thermal58)
	noCustomer.Blocks = append(noCustomer.Blocks[:1], noCustomer.Blocks[2:]...)
	assert.NoError(t, noCustomer.Validate())
}

func TestRenderHTMLThermal(t *testing.T) {
	html, err := sampleDocument(thermal58).RenderHTML()
	require.NoError(t, err)

	assert.Contains(t, html, "<title>TAX INVOICE</title>")
	assert.Contains(t, html, "size: 58mm auto")
	assert.Contains(t, html, "width: 54mm")
	assert.Contains(t, html, `data-dialect="58mm"`)
	assert.Contains(t, html, "Paneer Tikka")
	assert.Contains(t, html, "692.50")
	assert.Contains(t, html, "Asha &lt;VIP&gt;")
	assert.Less(t, strings.Index(html, "Paneer Tikka"), strings.Index(html, "Butter Naan"))
}

func TestRenderHTMLFullPage(t *testing.T) {
	html, err := sampleDocument(Layout{Dialect: "a4", PaperWidthMM: 210, FullPage: true}).RenderHTML()
	require.NoError(t, err)

	assert.Contains(t, html, "size: A4")
	assert.Contains(t, html, "width: 180mm")
	assert.Contains(t, html, "Thank you!")
}

func TestRenderHTMLRejectsInvalidDocument(t *testing.T) {
	_, err := (&Document{Layout: thermal58}).RenderHTML()
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
