package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sangkips/restaurant-pos-api/internal/domain/billing"
	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/sangkips/restaurant-pos-api/internal/domain/enum"
	"github.com/sangkips/restaurant-pos-api/pkg/printer"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testSettings() entity.Settings {
	return entity.Settings{
		RestaurantName:    "Spice Route",
		RestaurantAddress: "12 MG Road, Pune",
		RestaurantPhone:   "020-555-0101",
		GSTNumber:         "27AAPFU0939F1ZV",
		GSTType:           enum.TaxRegimeRegular,
		FooterText:        "Thank you!",
		PrinterType:       entity.PrinterTypeUSB,
		PaperWidth:        enum.PrintDialectThermal58mm,
	}
}

// memSettingsRepo keeps the settings row in memory.
type memSettingsRepo struct {
	mu  sync.Mutex
	row *entity.RestaurantSettings
	err error
}

func (r *memSettingsRepo) Get(context.Context) (*entity.RestaurantSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if r.row == nil {
		return nil, nil
	}
	cp := *r.row
	return &cp, nil
}

func (r *memSettingsRepo) Save(_ context.Context, s *entity.RestaurantSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *s
	r.row = &cp
	return nil
}

// memInvoiceRepo stores invoices by number.
type memInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[string]*entity.Invoice
}

func newMemInvoiceRepo(invoices ...*entity.Invoice) *memInvoiceRepo {
	r := &memInvoiceRepo{invoices: make(map[string]*entity.Invoice)}
	for _, inv := range invoices {
		r.invoices[inv.InvoiceNo] = inv
	}
	return r
}

func (r *memInvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices[inv.InvoiceNo] = inv
	return nil
}

func (r *memInvoiceRepo) GetByInvoiceNo(_ context.Context, no string) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invoices[no], nil
}

func (r *memInvoiceRepo) UpdateTotals(context.Context, *entity.Invoice, *entity.DiscountAudit) error {
	return errors.New("not supported")
}

func (r *memInvoiceRepo) ListDiscountAudits(context.Context, string) ([]entity.DiscountAudit, error) {
	return nil, nil
}

// sampleInvoice is two Paneer Tikka and three Butter Naan at 5% GST.
func sampleInvoice(regime enum.TaxRegime) *entity.Invoice {
	items := []entity.LineItem{
		{Item: entity.MenuItemRef{Name: "Paneer Tikka", UnitPrice: dec("250.00"), TaxRatePercent: dec("5")}, Quantity: 2},
		{Item: entity.MenuItemRef{Name: "Butter Naan", UnitPrice: dec("50.00"), TaxRatePercent: dec("5")}, Quantity: 3},
	}
	totals, err := billing.ComputeTotals(items, regime, dec("20.00"), dec("30.00"))
	if err != nil {
		panic(err)
	}
	inv := &entity.Invoice{
		InvoiceNo:     "20260115-001",
		IssuedAt:      time.Date(2026, 1, 15, 13, 45, 0, 0, time.UTC),
		TaxRegime:     regime,
		Customer:      entity.Customer{Name: "Asha", Phone: "98200 00000"},
		PaymentMethod: "UPI",
		Items:         entity.NewInvoiceItems(items),
	}
	inv.SetTotals(totals)
	return inv
}

// stubDevice is a printer that fails at one step, or accepts everything.
type stubDevice struct {
	mu       sync.Mutex
	failAt   printer.Step
	failErr  error
	received []byte
}

func (d *stubDevice) fail(s printer.Step) error {
	if d.failAt == s {
		return d.failErr
	}
	return nil
}

func (d *stubDevice) Open(context.Context) error      { return d.fail(printer.StepOpen) }
func (d *stubDevice) Configure(context.Context) error { return d.fail(printer.StepConfigure) }
func (d *stubDevice) Claim(context.Context) error     { return d.fail(printer.StepClaim) }
func (d *stubDevice) Close() error                    { return nil }

func (d *stubDevice) TransferOut(_ context.Context, data []byte) (int, error) {
	if err := d.fail(printer.StepTransfer); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.received = append(d.received, data...)
	return len(data), nil
}

func (d *stubDevice) IsConnected(context.Context) bool {
	return d.failAt != printer.StepOpen
}

func (d *stubDevice) Received() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.received...)
}
