package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/restaurant-pos-api/internal/domain/billing"
	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/sangkips/restaurant-pos-api/internal/domain/enum"
	"github.com/sangkips/restaurant-pos-api/internal/domain/repository"
	"github.com/sangkips/restaurant-pos-api/pkg/apperror"
	"github.com/sangkips/restaurant-pos-api/pkg/markup"
	"github.com/sangkips/restaurant-pos-api/pkg/printer"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PrintState is a step of a print job.
type PrintState int

const (
	PrintStateIdle PrintState = iota
	PrintStateBuilding
	PrintStateDelivering
	PrintStateDelivered
	PrintStateFallbackRendering
	PrintStateDone
)

var printStateNames = [...]string{"Idle", "Building", "Delivering", "Delivered", "FallbackRendering", "Done"}

func (s PrintState) String() string {
	if int(s) < 0 || int(s) >= len(printStateNames) {
		return fmt.Sprintf("PrintState(%d)", int(s))
	}
	return printStateNames[s]
}

func (s PrintState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the job has finished successfully.
func (s PrintState) Terminal() bool {
	return s == PrintStateDelivered || s == PrintStateDone
}

var printTransitions = map[PrintState][]PrintState{
	PrintStateIdle:              {PrintStateBuilding},
	PrintStateBuilding:          {PrintStateDelivering, PrintStateFallbackRendering},
	PrintStateDelivering:        {PrintStateDelivered, PrintStateFallbackRendering},
	PrintStateFallbackRendering: {PrintStateDone},
}

// PrintPath says how the receipt reached the customer.
type PrintPath string

const (
	PrintPathThermal  PrintPath = "thermal"
	PrintPathFallback PrintPath = "fallback"
)

// PrintRequest asks for a receipt. A nil Dialect uses the configured paper width.
type PrintRequest struct {
	Invoice *entity.Invoice
	Dialect *enum.PrintDialect
	Cashier string
}

// PrintOutcome describes a finished print job.
type PrintOutcome struct {
	JobID    uuid.UUID         `json:"job_id"`
	State    PrintState        `json:"state"`
	Trace    []PrintState      `json:"trace"`
	Path     PrintPath         `json:"path"`
	Dialect  enum.PrintDialect `json:"dialect"`
	Receipt  *entity.Receipt   `json:"receipt"`
	Fallback *markup.Document  `json:"fallback,omitempty"`
	HTML     string            `json:"html,omitempty"`
	Warning  string            `json:"warning,omitempty"`
}

// printJob owns everything one print attempt touches. Jobs share nothing
// but the transport.
type printJob struct {
	id       uuid.UUID
	invoice  *entity.Invoice
	settings entity.Settings
	dialect  enum.PrintDialect
	cashier  string
	state    PrintState
	trace    []PrintState
}

func (j *printJob) to(next PrintState) {
	for _, allowed := range printTransitions[j.state] {
		if allowed == next {
			j.state = next
			j.trace = append(j.trace, next)
			return
		}
	}
	panic(fmt.Sprintf("print job %s: illegal transition %s -> %s", j.id, j.state, next))
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
	PaperWidth string `json:"paper_width"`
}

// PrinterService turns invoices into receipts, sends them to the thermal
// printer, and falls back to an on-screen receipt whenever the printer
// cannot take the job.
type PrinterService struct {
	transport   *printer.Transport
	receipts    *ReceiptService
	invoiceRepo repository.InvoiceRepository
	settingsSvc *SettingsService
	settings    atomic.Pointer[entity.Settings]
	log         *zap.Logger
}

// NewPrinterService creates the printer service and loads the settings
// snapshot. A nil transport means no printer is registered.
func NewPrinterService(
	ctx context.Context,
	transport *printer.Transport,
	receipts *ReceiptService,
	invoiceRepo repository.InvoiceRepository,
	settingsSvc *SettingsService,
	log *zap.Logger,
) (*PrinterService, error) {
	s := &PrinterService{
		transport:   transport,
		receipts:    receipts,
		invoiceRepo: invoiceRepo,
		settingsSvc: settingsSvc,
		log:         log,
	}
	if err := s.ReloadSettings(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ReloadSettings replaces the settings snapshot. Jobs already running keep
// the snapshot they started with.
func (s *PrinterService) ReloadSettings(ctx context.Context) error {
	settings, err := s.settingsSvc.Load(ctx)
	if err != nil {
		return err
	}
	s.settings.Store(&settings)
	return nil
}

// Settings returns a copy of the current snapshot.
func (s *PrinterService) Settings() entity.Settings {
	return *s.settings.Load()
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	settings := s.Settings()
	status := &PrinterStatus{
		Configured: s.transportFor(settings) != nil,
		Type:       settings.PrinterType,
		PaperWidth: settings.PaperWidth.String(),
	}
	if status.Configured {
		if p, ok := s.transport.Device().(printer.StatusReporter); ok {
			status.Connected = p.IsConnected(ctx)
		}
	}
	return status
}

// Print runs one print job to a terminal state. Printer problems never
// surface as errors: they end in the on-screen fallback and a warning.
// Only a request without an invoice, or an invoice whose items cannot be
// totalled, is rejected.
func (s *PrinterService) Print(ctx context.Context, req PrintRequest) (*PrintOutcome, error) {
	if req.Invoice == nil {
		return nil, apperror.NewBadRequestError("invoice is required")
	}
	settings := s.Settings()
	dialect := settings.PaperWidth
	if req.Dialect != nil {
		dialect = *req.Dialect
	}
	if !dialect.Valid() {
		return nil, apperror.NewBadRequestError(fmt.Sprintf("unknown print dialect %d", int(dialect)))
	}

	job := &printJob{
		id:       uuid.New(),
		invoice:  req.Invoice,
		settings: settings,
		dialect:  dialect,
		cashier:  req.Cashier,
		state:    PrintStateIdle,
		trace:    []PrintState{PrintStateIdle},
	}
	log := s.log.With(
		zap.String("job_id", job.id.String()),
		zap.String("invoice_no", job.invoice.InvoiceNo),
		zap.String("dialect", dialect.String()),
	)

	job.to(PrintStateBuilding)
	inv, err := withTotals(job.invoice)
	if err != nil {
		return nil, err
	}
	receipt := s.receipts.Compose(inv, job.settings, job.cashier)
	outcome := &PrintOutcome{JobID: job.id, Dialect: dialect, Receipt: receipt}

	transport := s.transportFor(job.settings)
	var data []byte
	if dialect.Thermal() && transport != nil {
		data, err = s.receipts.FormatReceipt(receipt, dialect)
		if err != nil {
			log.Warn("receipt cannot be encoded for the printer", zap.Error(err))
			outcome.Warning = encodingWarning(err)
		}
	}

	if data != nil {
		job.to(PrintStateDelivering)
		start := time.Now()
		err := transport.Deliver(ctx, data)
		if err == nil {
			job.to(PrintStateDelivered)
			log.Info("receipt printed", zap.Int("bytes", len(data)), zap.Duration("elapsed", time.Since(start)))
			outcome.State, outcome.Trace, outcome.Path = job.state, job.trace, PrintPathThermal
			return outcome, nil
		}
		var te *printer.TransportError
		if errors.As(err, &te) {
			log.Warn("printer delivery failed, using on-screen receipt",
				zap.Stringer("kind", te.Kind),
				zap.String("step", string(te.Step)),
				zap.Error(te.Err),
			)
		} else {
			log.Warn("printer delivery failed, using on-screen receipt", zap.Error(err))
		}
		outcome.Warning = transportWarning(err)
	}

	job.to(PrintStateFallbackRendering)
	doc, err := s.receipts.RenderFallback(receipt, dialect)
	if err != nil {
		return nil, fmt.Errorf("render fallback receipt: %w", err)
	}
	html, err := doc.RenderHTML()
	if err != nil {
		return nil, fmt.Errorf("render fallback receipt: %w", err)
	}
	job.to(PrintStateDone)
	log.Debug("receipt rendered on screen")

	outcome.State, outcome.Trace, outcome.Path = job.state, job.trace, PrintPathFallback
	outcome.Fallback = doc
	outcome.HTML = html
	return outcome, nil
}

// PrintInvoice prints the receipt of a stored invoice.
func (s *PrinterService) PrintInvoice(ctx context.Context, invoiceNo string, dialect *enum.PrintDialect, cashier string) (*PrintOutcome, error) {
	inv, err := s.invoiceRepo.GetByInvoiceNo(ctx, invoiceNo)
	if err != nil {
		return nil, fmt.Errorf("get invoice %s: %w", invoiceNo, err)
	}
	if inv == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return s.Print(ctx, PrintRequest{Invoice: inv, Dialect: dialect, Cashier: cashier})
}

// Preview renders the on-screen receipt of a stored invoice without
// touching the printer.
func (s *PrinterService) Preview(ctx context.Context, invoiceNo string, dialect *enum.PrintDialect, cashier string) (string, error) {
	inv, err := s.invoiceRepo.GetByInvoiceNo(ctx, invoiceNo)
	if err != nil {
		return "", fmt.Errorf("get invoice %s: %w", invoiceNo, err)
	}
	if inv == nil {
		return "", apperror.NewNotFoundError("Invoice")
	}
	settings := s.Settings()
	d := settings.PaperWidth
	if dialect != nil {
		d = *dialect
	}
	doc, err := s.receipts.RenderFallback(s.receipts.Compose(inv, settings, cashier), d)
	if err != nil {
		return "", fmt.Errorf("render receipt %s: %w", invoiceNo, err)
	}
	return doc.RenderHTML()
}

// TestPrint prints a sample receipt that is not stored anywhere.
func (s *PrinterService) TestPrint(ctx context.Context, cashier string) (*PrintOutcome, error) {
	settings := s.Settings()
	items := []entity.LineItem{
		{Item: entity.MenuItemRef{Name: "Test Item 1", UnitPrice: decimal.RequireFromString("10.00"), TaxRatePercent: decimal.NewFromInt(5)}, Quantity: 1},
		{Item: entity.MenuItemRef{Name: "Test Item 2", UnitPrice: decimal.RequireFromString("5.00"), TaxRatePercent: decimal.NewFromInt(5)}, Quantity: 2},
	}
	inv := &entity.Invoice{
		InvoiceNo:     "TEST-PRINT",
		IssuedAt:      time.Now(),
		TaxRegime:     settings.GSTType,
		PaymentMethod: "Cash",
		Items:         entity.NewInvoiceItems(items),
	}
	return s.Print(ctx, PrintRequest{Invoice: inv, Cashier: cashier})
}

// transportFor returns the transport unless printing is switched off in
// settings or no device is configured.
func (s *PrinterService) transportFor(settings entity.Settings) *printer.Transport {
	if s.transport == nil || settings.PrinterType == entity.PrinterTypeNone {
		return nil
	}
	return s.transport
}

// withTotals returns inv, or a copy with totals computed from its items
// when none were stored.
func withTotals(inv *entity.Invoice) (*entity.Invoice, error) {
	if len(inv.Items) == 0 || !inv.Totals().IsZero() {
		return inv, nil
	}
	totals, err := billing.ComputeTotals(inv.LineItems(), inv.TaxRegime, decimal.Zero, decimal.Zero)
	if err != nil {
		return nil, err
	}
	cp := *inv
	cp.SetTotals(totals)
	return &cp, nil
}

func encodingWarning(err error) string {
	var encErr *printer.EncodingError
	if errors.As(err, &encErr) {
		return fmt.Sprintf("receipt text %q cannot be printed on the thermal printer; showing on-screen receipt", encErr.Offending)
	}
	return "receipt could not be prepared for the thermal printer; showing on-screen receipt"
}

func transportWarning(err error) string {
	var te *printer.TransportError
	if !errors.As(err, &te) {
		return "printer unavailable; showing on-screen receipt"
	}
	switch te.Kind {
	case printer.NoDeviceAvailable:
		return "no printer connected; showing on-screen receipt"
	case printer.PermissionDenied:
		return "printer access denied; showing on-screen receipt"
	default:
		return fmt.Sprintf("printing failed during %s; showing on-screen receipt", te.Step)
	}
}
