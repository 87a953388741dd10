package handlers

import (
	"net/http"
	"strconv"

	"car_repair_backend/internal/services"
	"car_repair_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CashierHandler serves the payment desk.
type CashierHandler struct {
	workflow services.WorkflowService
	reports  services.ReportService
}

// NewCashierHandler creates a new CashierHandler.
func NewCashierHandler(ws services.WorkflowService, rs services.ReportService) *CashierHandler {
	return &CashierHandler{workflow: ws, reports: rs}
}

// CashierQueue lists finished repairs. Optional query: status=completed|paid.
func (h *CashierHandler) CashierQueue(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	queue, err := h.workflow.CashierQueue(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		respondServiceError(c, err, "CashierQueue", "Failed to load cashier queue.")
		return
	}
	c.JSON(http.StatusOK, queue)
}

// InvoicePreview shows subtotal, VAT and total before payment.
func (h *CashierHandler) InvoicePreview(c *gin.Context) {
	repairID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	totals, err := h.reports.InvoiceTotals(c.Request.Context(), repairID)
	if err != nil {
		respondServiceError(c, err, "InvoicePreview", "Failed to compute invoice.")
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *CashierHandler) ProcessPayment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	repairID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.PaymentRequest
	if !bindJSON(c, &req, "ProcessPayment") {
		return
	}
	invoice, err := h.workflow.ProcessPayment(c.Request.Context(), actor, repairID, req)
	if err != nil {
		respondServiceError(c, err, "ProcessPayment", "Failed to process payment.")
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

// RecentInvoices lists the newest invoices. Optional query: limit.
func (h *CashierHandler) RecentInvoices(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "limit must be an integer")
			return
		}
		limit = n
	}
	invoices, err := h.reports.RecentInvoices(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err, "RecentInvoices", "Failed to fetch invoices.")
		return
	}
	c.JSON(http.StatusOK, invoices)
}
