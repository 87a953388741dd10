package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"car_repair_backend/internal/services"
	"car_repair_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the admin dashboard.
type ReportHandler struct {
	reports services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reports: rs}
}

// parseMonthParams reads month and year from the query, defaulting to the
// current month. Range checks are left to the service.
func parseMonthParams(c *gin.Context) (int, int, bool) {
	now := time.Now()
	month, year := int(now.Month()), now.Year()
	if raw := c.Query("month"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "month must be an integer")
			return 0, 0, false
		}
		month = n
	}
	if raw := c.Query("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "year must be an integer")
			return 0, 0, false
		}
		year = n
	}
	return month, year, true
}

// GetDailyRevenue returns revenue for every day of the month.
func (h *ReportHandler) GetDailyRevenue(c *gin.Context) {
	month, year, ok := parseMonthParams(c)
	if !ok {
		return
	}
	report, err := h.reports.DailyRevenue(c.Request.Context(), month, year)
	if err != nil {
		respondServiceError(c, err, "GetDailyRevenue", "Failed to compute revenue.")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetVehicleTypeBreakdown(c *gin.Context) {
	month, year, ok := parseMonthParams(c)
	if !ok {
		return
	}
	report, err := h.reports.VehicleTypeBreakdown(c.Request.Context(), month, year)
	if err != nil {
		respondServiceError(c, err, "GetVehicleTypeBreakdown", "Failed to compute vehicle types.")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetCategoryBreakdown(c *gin.Context) {
	month, year, ok := parseMonthParams(c)
	if !ok {
		return
	}
	items, err := h.reports.CategoryBreakdown(c.Request.Context(), month, year)
	if err != nil {
		respondServiceError(c, err, "GetCategoryBreakdown", "Failed to compute categories.")
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetLowStock lists components at or under the threshold. Optional query:
// threshold, otherwise the configured one.
func (h *ReportHandler) GetLowStock(c *gin.Context) {
	var threshold *int
	if raw := c.Query("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "threshold must be an integer")
			return
		}
		threshold = &n
	}
	items, err := h.reports.LowStockComponents(c.Request.Context(), threshold)
	if err != nil {
		respondServiceError(c, err, "GetLowStock", "Failed to list low stock components.")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ReportHandler) GetLowStockCount(c *gin.Context) {
	count, err := h.reports.LowStockCount(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetLowStockCount", "Failed to count low stock components.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *ReportHandler) GetInventoryUsage(c *gin.Context) {
	stats, err := h.reports.InventoryUsageStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetInventoryUsage", "Failed to compute inventory usage.")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportMonthlyReport downloads the month as an XLSX workbook.
func (h *ReportHandler) ExportMonthlyReport(c *gin.Context) {
	month, year, ok := parseMonthParams(c)
	if !ok {
		return
	}
	// buffered so a failed export can still answer with a JSON error
	var buf bytes.Buffer
	if err := h.reports.ExportMonthlyReport(c.Request.Context(), month, year, &buf); err != nil {
		respondServiceError(c, err, "ExportMonthlyReport", "Failed to export report.")
		return
	}
	filename := fmt.Sprintf("report-%04d-%02d.xlsx", year, month)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
