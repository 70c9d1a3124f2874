package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/restaurant-pos-api/internal/application/service"
	"github.com/sangkips/restaurant-pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/restaurant-pos-api/internal/presentation/http/dto/response"
)

// PrinterHandler handles printer-related HTTP requests.
type PrinterHandler struct {
	printerService *service.PrinterService
}

// NewPrinterHandler creates a new printer handler.
func NewPrinterHandler(printerService *service.PrinterService) *PrinterHandler {
	return &PrinterHandler{printerService: printerService}
}

// GetStatus returns the current printer connection status.
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	status := h.printerService.GetStatus(c.Request.Context())
	response.OK(c, "Printer status retrieved", status)
}

// TestPrint sends a test page to the printer.
func (h *PrinterHandler) TestPrint(c *gin.Context) {
	outcome, err := h.printerService.TestPrint(c.Request.Context(), GetUserName(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondPrinted(c, outcome)
}

// PrintReceipt prints the receipt of a stored invoice. A printer problem
// still answers 200 with the on-screen receipt and a warning.
func (h *PrinterHandler) PrintReceipt(c *gin.Context) {
	var req request.PrintReceiptRequest
	if err := bindJSON(c, &req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	dialect, err := parseDialect(req.Dialect)
	if err != nil {
		response.Error(c, err)
		return
	}

	outcome, err := h.printerService.PrintInvoice(c.Request.Context(), req.InvoiceNo, dialect, GetUserName(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondPrinted(c, outcome)
}

// ReceiptHTML serves the on-screen receipt as a page the browser can print.
func (h *PrinterHandler) ReceiptHTML(c *gin.Context) {
	raw := c.Query("dialect")
	dialect, err := parseDialect(&raw)
	if err != nil {
		response.Error(c, err)
		return
	}

	html, err := h.printerService.Preview(c.Request.Context(), c.Param("invoice_no"), dialect, GetUserName(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func respondPrinted(c *gin.Context, outcome *service.PrintOutcome) {
	if outcome.Path == service.PrintPathThermal {
		response.OK(c, "Receipt sent to printer", outcome)
		return
	}
	msg := "Receipt rendered on screen"
	if outcome.Warning != "" {
		msg = outcome.Warning
	}
	response.OK(c, msg, outcome)
}
