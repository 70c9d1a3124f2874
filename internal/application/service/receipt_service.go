package service

import (
	"fmt"
	"time"

	"github.com/sangkips/restaurant-pos-api/internal/domain/billing"
	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/sangkips/restaurant-pos-api/internal/domain/enum"
	"github.com/sangkips/restaurant-pos-api/pkg/markup"
	"github.com/sangkips/restaurant-pos-api/pkg/printer"
)

// Receipt titles and labels shared by the thermal and on-screen output.
const (
	TitleTaxInvoice   = "TAX INVOICE"
	TitleBillOfSupply = "BILL OF SUPPLY"

	compositionNotice = "Composition taxable person, not eligible to collect tax on supplies"

	labelInvoiceNo  = "Invoice No:"
	labelDate       = "Date:"
	labelCashier    = "Cashier:"
	labelPayment    = "Payment:"
	labelCustomer   = "Customer:"
	labelPhone      = "Phone:"
	labelAddress    = "Address:"
	labelSubtotal   = "Subtotal:"
	labelGST        = "GST:"
	labelDelivery   = "Delivery:"
	labelDiscount   = "Discount:"
	labelGrandTotal = "Grand Total:"
)

const receiptDateLayout = "02/01/2006 15:04"

// ReceiptService composes receipts and renders them for a printer or a screen.
type ReceiptService struct {
	location *time.Location
}

// NewReceiptService creates a receipt service that prints dates in loc.
func NewReceiptService(loc *time.Location) *ReceiptService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReceiptService{location: loc}
}

// Compose builds the receipt for an invoice. Every amount is formatted once
// here so both output paths print identical figures.
func (s *ReceiptService) Compose(inv *entity.Invoice, settings entity.Settings, cashier string) *entity.Receipt {
	r := &entity.Receipt{
		Header: entity.ReceiptHeader{
			Title:     TitleBillOfSupply,
			StoreName: settings.RestaurantName,
			Address:   settings.RestaurantAddress,
			Phone:     settings.RestaurantPhone,
			TaxID:     settings.GSTNumber,
		},
		InvoiceNo: inv.InvoiceNo,
		Date:      inv.IssuedAt.In(s.location).Format(receiptDateLayout),
		Cashier:   cashier,
		Customer: entity.ReceiptCustomer{
			Name:    inv.Customer.Name,
			Phone:   inv.Customer.Phone,
			Address: inv.Customer.Address,
		},
		PaymentType: inv.PaymentMethod,
		Footer:      settings.FooterText,
	}
	if inv.TaxRegime.CollectsTax() {
		r.Header.Title = TitleTaxInvoice
	}
	if inv.TaxRegime == enum.TaxRegimeComposite {
		r.Notice = compositionNotice
	}

	for _, it := range inv.Items {
		r.Items = append(r.Items, entity.ReceiptItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: billing.Format(it.UnitPrice),
			Total:     billing.Format(it.LineTotal),
		})
	}

	totals := inv.Totals()
	r.Totals = append(r.Totals, entity.ReceiptTotal{Label: labelSubtotal, Amount: billing.Format(totals.SubTotal)})
	if inv.TaxRegime.CollectsTax() {
		r.Totals = append(r.Totals, entity.ReceiptTotal{Label: labelGST, Amount: billing.Format(totals.TaxTotal)})
	}
	if totals.DeliveryCharge.IsPositive() {
		r.Totals = append(r.Totals, entity.ReceiptTotal{Label: labelDelivery, Amount: billing.Format(totals.DeliveryCharge)})
	}
	if totals.Discount.IsPositive() {
		r.Totals = append(r.Totals, entity.ReceiptTotal{Label: labelDiscount, Amount: "-" + billing.Format(totals.Discount)})
	}
	r.GrandTotal = billing.Format(totals.GrandTotal)

	return r
}

// FormatReceipt converts a Receipt into ESC/POS bytes for a thermal dialect.
func (s *ReceiptService) FormatReceipt(r *entity.Receipt, dialect enum.PrintDialect) ([]byte, error) {
	if !dialect.Thermal() {
		return nil, fmt.Errorf("format receipt: %s is not a thermal dialect", dialect)
	}
	doc := printer.NewDocument(dialect.Columns())

	// Header
	doc.AlignCenter().
		SetBold(true).
		Text(r.Header.Title).
		SetCharacterScale(2, 2).
		Text(r.Header.StoreName).
		SetCharacterScale(1, 1).
		SetBold(false)

	if r.Header.Address != "" {
		doc.Text(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.Text(r.Header.Phone)
	}
	if r.Header.TaxID != "" {
		doc.TextF("GSTIN: %s", r.Header.TaxID)
	}

	doc.AlignLeft().
		Separator('-')

	// Invoice info
	doc.KeyValue(labelInvoiceNo, r.InvoiceNo).
		KeyValue(labelDate, r.Date)

	if r.Cashier != "" {
		doc.KeyValue(labelCashier, r.Cashier)
	}
	if r.PaymentType != "" {
		doc.KeyValue(labelPayment, r.PaymentType)
	}

	if !r.Customer.Empty() {
		doc.Separator('-')
		for _, l := range customerLines(r.Customer) {
			doc.KeyValue(l.Label, l.Value)
		}
	}

	doc.Separator('-')

	// Items
	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, item.Total)
		if item.Quantity > 1 {
			doc.TextF("  @ %s each", item.UnitPrice)
		}
	}

	doc.Separator('-')

	// Totals
	for _, t := range r.Totals {
		doc.KeyValue(t.Label, t.Amount)
	}
	doc.SetBold(true).
		KeyValue(labelGrandTotal, r.GrandTotal).
		SetBold(false)

	doc.Separator('-')

	// Footer
	doc.AlignCenter()
	if r.Notice != "" {
		doc.Text(r.Notice)
	}
	if r.Footer != "" {
		doc.LineFeed().
			Text(r.Footer)
	}
	doc.AlignLeft().
		FeedLines(4).
		PartialCut()

	return doc.Finalize()
}

// RenderFallback builds the on-screen version of a receipt. It carries the
// same header, items and totals as FormatReceipt, laid out for dialect.
func (s *ReceiptService) RenderFallback(r *entity.Receipt, dialect enum.PrintDialect) (*markup.Document, error) {
	doc := &markup.Document{
		Layout: markup.Layout{
			Dialect:      dialect.String(),
			PaperWidthMM: dialect.PaperWidthMM(),
			Columns:      dialect.Columns(),
			FullPage:     !dialect.Thermal(),
		},
	}

	header := markup.Block{Kind: markup.BlockHeader, Title: r.Header.Title}
	header.Lines = append(header.Lines, markup.Line{Value: r.Header.StoreName})
	if r.Header.Address != "" {
		header.Lines = append(header.Lines, markup.Line{Value: r.Header.Address})
	}
	if r.Header.Phone != "" {
		header.Lines = append(header.Lines, markup.Line{Value: r.Header.Phone})
	}
	if r.Header.TaxID != "" {
		header.Lines = append(header.Lines, markup.Line{Value: "GSTIN: " + r.Header.TaxID})
	}
	header.Lines = append(header.Lines,
		markup.Line{Label: labelInvoiceNo, Value: r.InvoiceNo},
		markup.Line{Label: labelDate, Value: r.Date},
	)
	if r.Cashier != "" {
		header.Lines = append(header.Lines, markup.Line{Label: labelCashier, Value: r.Cashier})
	}
	if r.PaymentType != "" {
		header.Lines = append(header.Lines, markup.Line{Label: labelPayment, Value: r.PaymentType})
	}
	doc.Blocks = append(doc.Blocks, header)

	if !r.Customer.Empty() {
		doc.Blocks = append(doc.Blocks, markup.Block{Kind: markup.BlockCustomer, Lines: customerLines(r.Customer)})
	}

	items := markup.Block{Kind: markup.BlockItems}
	for _, it := range r.Items {
		items.Items = append(items.Items, markup.Item{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Amount:    it.Total,
		})
	}
	doc.Blocks = append(doc.Blocks, items)

	totals := markup.Block{
		Kind:     markup.BlockTotals,
		Emphasis: &markup.Line{Label: labelGrandTotal, Value: r.GrandTotal},
	}
	for _, t := range r.Totals {
		totals.Lines = append(totals.Lines, markup.Line{Label: t.Label, Value: t.Amount})
	}
	doc.Blocks = append(doc.Blocks, totals)

	var footer []markup.Line
	if r.Notice != "" {
		footer = append(footer, markup.Line{Value: r.Notice})
	}
	if r.Footer != "" {
		footer = append(footer, markup.Line{Value: r.Footer})
	}
	if len(footer) > 0 {
		doc.Blocks = append(doc.Blocks, markup.Block{Kind: markup.BlockFooter, Lines: footer})
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func customerLines(c entity.ReceiptCustomer) []markup.Line {
	var lines []markup.Line
	if c.Name != "" {
		lines = append(lines, markup.Line{Label: labelCustomer, Value: c.Name})
	}
	if c.Phone != "" {
		lines = append(lines, markup.Line{Label: labelPhone, Value: c.Phone})
	}
	if c.Address != "" {
		lines = append(lines, markup.Line{Label: labelAddress, Value: c.Address})
	}
	return lines
}
