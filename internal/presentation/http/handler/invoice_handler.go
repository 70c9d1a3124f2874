package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/restaurant-pos-api/internal/application/service"
	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/sangkips/restaurant-pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/restaurant-pos-api/internal/presentation/http/dto/response"
)

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	printerService *service.PrinterService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService, printerService *service.PrinterService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, printerService: printerService}
}

// Quote prices a cart without issuing an invoice number.
func (h *InvoiceHandler) Quote(c *gin.Context) {
	var req request.QuoteRequest
	if err := bindJSON(c, &req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	totals, err := h.invoiceService.Quote(c.Request.Context(), &service.QuoteInput{
		Items:          itemInputs(req.Items),
		Discount:       req.Discount,
		DeliveryCharge: req.DeliveryCharge,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quote computed", totals)
}

// Finalize issues an invoice and, when asked, prints its receipt.
func (h *InvoiceHandler) Finalize(c *gin.Context) {
	var req request.FinalizeInvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	dialect, err := parseDialect(req.Dialect)
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	invoice, err := h.invoiceService.Finalize(ctx, &service.FinalizeInvoiceInput{
		Items:          itemInputs(req.Items),
		Discount:       req.Discount,
		DeliveryCharge: req.DeliveryCharge,
		Customer: entity.Customer{
			Name:    req.Customer.Name,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if !req.Print {
		response.Created(c, "Invoice created", gin.H{"invoice": invoice})
		return
	}

	// The invoice is stored; a print problem must not turn this into an error.
	outcome, err := h.printerService.Print(ctx, service.PrintRequest{
		Invoice: invoice,
		Dialect: dialect,
		Cashier: GetUserName(c),
	})
	if err != nil {
		_ = c.Error(err)
		response.Created(c, "Invoice created, receipt could not be rendered", gin.H{"invoice": invoice})
		return
	}
	response.Created(c, "Invoice created", gin.H{"invoice": invoice, "print": outcome})
}

// Get returns an invoice by number.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, err := h.invoiceService.Get(c.Request.Context(), c.Param("invoice_no"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice retrieved successfully", invoice)
}

// EditDiscount changes the discount of an issued invoice.
func (h *InvoiceHandler) EditDiscount(c *gin.Context) {
	var req request.EditDiscountRequest
	if err := bindJSON(c, &req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	invoice, err := h.invoiceService.EditDiscount(c.Request.Context(), &service.EditDiscountInput{
		InvoiceNo: c.Param("invoice_no"),
		Discount:  req.Discount,
		EditedBy:  GetUserName(c),
		Reason:    req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Discount updated", invoice)
}

// ListDiscountAudits returns the discount history of an invoice.
func (h *InvoiceHandler) ListDiscountAudits(c *gin.Context) {
	audits, err := h.invoiceService.ListDiscountAudits(c.Request.Context(), c.Param("invoice_no"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Discount history retrieved", audits)
}

func itemInputs(items []request.InvoiceItemRequest) []service.InvoiceItemInput {
	out := make([]service.InvoiceItemInput, len(items))
	for i, it := range items {
		out[i] = service.InvoiceItemInput{
			Name:           it.Name,
			UnitPrice:      *it.UnitPrice,
			TaxRatePercent: *it.TaxRate,
			Quantity:       it.Quantity,
		}
	}
	return out
}
