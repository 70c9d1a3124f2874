package service

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/sangkips/restaurant-pos-api/internal/domain/enum"
	"github.com/sangkips/restaurant-pos-api/pkg/apperror"
	"github.com/sangkips/restaurant-pos-api/pkg/markup"
	"github.com/sangkips/restaurant-pos-api/pkg/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	itemLinePattern   = regexp.MustCompile(`^(\d+)x (.+?) +(\S+)$`)
	grandTotalPattern = regexp.MustCompile(`^Grand Total: +(\S+)$`)
)

func newTestPrinterService(t *testing.T, dev printer.BulkDevice, settings entity.Settings, log *zap.Logger, invoices ...*entity.Invoice) *PrinterService {
	t.Helper()
	var tr *printer.Transport
	if dev != nil {
		tr = printer.NewTransport(dev, time.Second, log)
	}
	settingsSvc := NewSettingsService(&memSettingsRepo{}, settings, log)
	svc, err := NewPrinterService(context.Background(), tr, NewReceiptService(time.UTC), newMemInvoiceRepo(invoices...), settingsSvc, log)
	require.NoError(t, err)
	return svc
}

// thermalTuples pulls the item rows and grand total back out of an ESC/POS stream.
func thermalTuples(t *testing.T, data []byte) ([]markup.ItemTuple, string) {
	t.Helper()
	lines, err := printer.DecodeText(data)
	require.NoError(t, err)

	var items []markup.ItemTuple
	var grand string
	for _, line := range lines {
		if m := itemLinePattern.FindStringSubmatch(line); m != nil {
			qty, _ := strconv.Atoi(m[1])
			items = append(items, markup.ItemTuple{Name: m[2], Quantity: qty, Amount: m[3]})
		}
		if m := grandTotalPattern.FindStringSubmatch(line); m != nil {
			grand = m[1]
		}
	}
	return items, grand
}

func TestPrintDeliversToThermalPrinter(t *testing.T) {
	dev := &stubDevice{}
	svc := newTestPrinterService(t, dev, testSettings(), zap.NewNop())

	out, err := svc.Print(context.Background(), PrintRequest{Invoice: sampleInvoice(enum.TaxRegimeRegular), Cashier: "Ravi"})
	require.NoError(t, err)

	assert.Equal(t, PrintStateDelivered, out.State)
	assert.Equal(t, []PrintState{PrintStateIdle, PrintStateBuilding, PrintStateDelivering, PrintStateDelivered}, out.Trace)
	assert.Equal(t, PrintPathThermal, out.Path)
	assert.Equal(t, enum.PrintDialectThermal58mm, out.Dialect)
	assert.Empty(t, out.Warning)
	assert.Empty(t, out.HTML)
	assert.Nil(t, out.Fallback)
	assert.NotEmpty(t, dev.Received())
	assert.True(t, out.State.Terminal())
}

func TestPrintFallsBackOnEveryTransportFailure(t *testing.T) {
	tests := []struct {
		name    string
		step    printer.Step
		err     error
		kind    printer.ErrorKind
		warning string
	}{
		{"no device", printer.StepOpen, printer.ErrNoDevice, printer.NoDeviceAvailable, "no printer connected"},
		{"permission", printer.StepOpen, os.ErrPermission, printer.PermissionDenied, "printer access denied"},
		{"transfer", printer.StepTransfer, errors.New("pipe error"), printer.TransferFailed, "printing failed during transferOut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			dev := &stubDevice{failAt: tt.step, failErr: tt.err}
			svc := newTestPrinterService(t, dev, testSettings(), zap.New(core))

			out, err := svc.Print(context.Background(), PrintRequest{Invoice: sampleInvoice(enum.TaxRegimeRegular)})
			require.NoError(t, err)

			assert.Equal(t, PrintStateDone, out.State)
			assert.Equal(t, []PrintState{
				PrintStateIdle, PrintStateBuilding, PrintStateDelivering, PrintStateFallbackRendering, PrintStateDone,
			}, out.Trace)
			assert.Equal(t, PrintPathFallback, out.Path)
			assert.Contains(t, out.Warning, tt.warning)
			require.NotNil(t, out.Fallback)
			assert.Contains(t, out.HTML, "Paneer Tikka")

			entries := logs.FilterMessage("printer delivery failed, using on-screen receipt").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.kind.String(), entries[0].ContextMap()["kind"])
		})
	}
}

func TestPrintThermalAndFallbackCarrySameItems(t *testing.T) {
	for _, dialect := range []enum.PrintDialect{enum.PrintDialectThermal58mm, enum.PrintDialectThermal80mm} {
		t.Run(dialect.String(), func(t *testing.T) {
			inv := sampleInvoice(enum.TaxRegimeRegular)

			dev := &stubDevice{}
			thermal, err := newTestPrinterService(t, dev, testSettings(), zap.NewNop()).
				Print(context.Background(), PrintRequest{Invoice: inv, Dialect: &dialect})
			require.NoError(t, err)
			require.Equal(t, PrintPathThermal, thermal.Path)

			broken := &stubDevice{failAt: printer.StepOpen, failErr: printer.ErrNoDevice}
			fallback, err := newTestPrinterService(t, broken, testSettings(), zap.NewNop()).
				Print(context.Background(), PrintRequest{Invoice: inv, Dialect: &dialect})
			require.NoError(t, err)
			require.Equal(t, PrintPathFallback, fallback.Path)

			items, grand := thermalTuples(t, dev.Received())
			assert.Equal(t, []markup.ItemTuple{
				{Name: "Paneer Tikka", Quantity: 2, Amount: "500.00"},
				{Name: "Butter Naan", Quantity: 3, Amount: "150.00"},
			}, items)
			assert.Equal(t, items, fallback.Fallback.ItemTuples())
			assert.Equal(t, "692.50", grand)
			assert.Equal(t, grand, fallback.Fallback.GrandTotal())
		})
	}
}

func TestPrintWithoutTransportRendersFallback(t *testing.T) {
	svc := newTestPrinterService(t, nil, testSettings(), zap.NewNop())

	out, err := svc.Print(context.Background(), PrintRequest{Invoice: sampleInvoice(enum.TaxRegimeRegular)})
	require.NoError(t, err)

	assert.Equal(t, []PrintState{PrintStateIdle, PrintStateBuilding, PrintStateFallbackRendering, PrintStateDone}, out.Trace)
	assert.Equal(t, PrintPathFallback, out.Path)
	assert.Empty(t, out.Warning)
	assert.Contains(t, out.HTML, "size: 58mm auto")
	assert.False(t, svc.GetStatus(context.Background()).Configured)
}

func TestPrintSkipsPrinterWhenSwitchedOff(t *testing.T) {
	settings := testSettings()
	settings.PrinterType = entity.PrinterTypeNone
	dev := &stubDevice{}
	svc := newTestPrinterService(t, dev, settings, zap.NewNop())

	out, err := svc.Print(context.Background(), PrintRequest{Invoice: sampleInvoice(enum.TaxRegimeRegular)})
	require.NoError(t, err)

	assert.Equal(t, PrintPathFallback, out.Path)
	assert.Empty(t, dev.Received())
}

func TestPrintA4AlwaysUsesFallback(t *testing.T) {
	dev := &stubDevice{}
	svc := newTestPrinterService(t, dev, testSettings(), zap.NewNop())
	a4 := enum.PrintDialectA4HTML

	out, err := svc.Print(context.Background(), PrintRequest{Invoice: sampleInvoice(enum.TaxRegimeRegular), Dialect: &a4})
	require.NoError(t, err)

	assert.Equal(t, PrintPathFallback, out.Path)
	assert.Equal(t, enum.PrintDialectA4HTML, out.Dialect)
	assert.True(t, out.Fallback.Layout.FullPage)
	assert.Contains(t, out.HTML, "size: A4")
	assert.Empty(t, dev.Received())
}

func TestPrintUnencodableTextFallsBack(t *testing.T) {
	dev := &stubDevice{}
	svc := newTestPrinterService(t, dev, testSettings(), zap.NewNop())
	inv := sampleInvoice(enum.TaxRegimeRegular)
	inv.Items[0].Name = "Paneer ₹ Special"

	out, err := svc.Print(context.Background(), PrintRequest{Invoice: inv})
	require.NoError(t, err)

	assert.Equal(t, PrintPathFallback, out.Path)
	assert.Equal(t, []PrintState{PrintStateIdle, PrintStateBuilding, PrintStateFallbackRendering, PrintStateDone}, out.Trace)
	assert.Contains(t, out.Warning, `"₹"`)
	assert.Contains(t, out.HTML, "Paneer ₹ Special")
	assert.Empty(t, dev.Received())
}

func TestPrintBillOfSupplyForComposite(t *testing.T) {
	svc := newTestPrinterService(t, nil, testSettings(), zap.NewNop())

	out, err := svc.Print(context.Background(), PrintRequest{Invoice: sampleInvoice(enum.TaxRegimeComposite)})
	require.NoError(t, err)

	assert.Equal(t, TitleBillOfSupply, out.Receipt.Header.Title)
	assert.Equal(t, compositionNotice, out.Receipt.Notice)
	for _, total := range out.Receipt.Totals {
		assert.NotEqual(t, "GST:", total.Label)
	}
	assert.Equal(t, "660.00", out.Receipt.GrandTotal)
}

func TestPrintComputesMissingTotals(t *testing.T) {
	svc := newTestPrinterService(t, nil, testSettings(), zap.NewNop())
	inv := sampleInvoice(enum.TaxRegimeRegular)
	inv.SetTotals(entity.OrderTotals{})

	out, err := svc.Print(context.Background(), PrintRequest{Invoice: inv})
	require.NoError(t, err)

	assert.Equal(t, "682.50", out.Receipt.GrandTotal)
	assert.True(t, inv.GrandTotal.IsZero(), "caller's invoice is left alone")
}

func TestPrintRejectsMissingInvoice(t *testing.T) {
	svc := newTestPrinterService(t, nil, testSettings(), zap.NewNop())

	_, err := svc.Print(context.Background(), PrintRequest{})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.GetAppError(err).Code)

	bad := enum.PrintDialect(9)
	_, err = svc.Print(context.Background(), PrintRequest{Invoice: sampleInvoice(enum.TaxRegimeRegular), Dialect: &bad})
	require.Error(t, err)
}

func TestPrintInvoiceLooksUpStoredInvoice(t *testing.T) {
	inv := sampleInvoice(enum.TaxRegimeRegular)
	svc := newTestPrinterService(t, nil, testSettings(), zap.NewNop(), inv)

	out, err := svc.PrintInvoice(context.Background(), inv.InvoiceNo, nil, "Ravi")
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNo, out.Receipt.InvoiceNo)
	assert.Equal(t, "Ravi", out.Receipt.Cashier)

	_, err = svc.PrintInvoice(context.Background(), "20260115-999", nil, "Ravi")
	assert.Equal(t, 404, apperror.GetAppError(err).Code)
}

func TestTestPrintUsesConfiguredPrinter(t *testing.T) {
	dev := &stubDevice{}
	svc := newTestPrinterService(t, dev, testSettings(), zap.NewNop())

	out, err := svc.TestPrint(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, PrintPathThermal, out.Path)
	assert.Equal(t, "TEST-PRINT", out.Receipt.InvoiceNo)

	status := svc.GetStatus(context.Background())
	assert.True(t, status.Configured)
	assert.True(t, status.Connected)
	assert.Equal(t, "58mm", status.PaperWidth)
}

func TestReloadSettingsSwapsSnapshot(t *testing.T) {
	repo := &memSettingsRepo{}
	settingsSvc := NewSettingsService(repo, testSettings(), zap.NewNop())
	svc, err := NewPrinterService(context.Background(), nil, NewReceiptService(time.UTC), newMemInvoiceRepo(), settingsSvc, zap.NewNop())
	require.NoError(t, err)

	_, err = settingsSvc.Update(context.Background(), &UpdateSettingsInput{
		RestaurantName: "New Name",
		GSTType:        enum.TaxRegimeUnregistered,
		PaperWidth:     "80mm",
	})
	require.NoError(t, err)
	assert.Equal(t, "Spice Route", svc.Settings().RestaurantName)

	require.NoError(t, svc.ReloadSettings(context.Background()))
	assert.Equal(t, "New Name", svc.Settings().RestaurantName)
	assert.Equal(t, enum.PrintDialectThermal80mm, svc.Settings().PaperWidth)
}

func TestPrintStateTransitions(t *testing.T) {
	job := &printJob{state: PrintStateIdle}
	assert.Panics(t, func() { job.to(PrintStateDelivered) })

	job.to(PrintStateBuilding)
	job.to(PrintStateDelivering)
	assert.Panics(t, func() { job.to(PrintStateDone) })

	text, err := PrintStateFallbackRendering.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "FallbackRendering", string(text))
	assert.Equal(t, "PrintState(42)", PrintState(42).String())
}

func TestPreviewRendersWithoutPrinting(t *testing.T) {
	inv := sampleInvoice(enum.TaxRegimeRegular)
	dev := &stubDevice{}
	svc := newTestPrinterService(t, dev, testSettings(), zap.NewNop(), inv)
	a4 := enum.PrintDialectA4HTML

	html, err := svc.Preview(context.Background(), inv.InvoiceNo, &a4, "Ravi")
	require.NoError(t, err)
	assert.Contains(t, html, "692.50")
	assert.Contains(t, html, "size: A4")
	assert.Empty(t, dev.Received())

	_, err = svc.Preview(context.Background(), "20260115-404", nil, "")
	assert.Equal(t, 404, apperror.GetAppError(err).Code)
}
