package controllers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/reports"
)

type GenerateReportRequest struct {
	ReportType string `json:"reportType" binding:"required"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Format     string `json:"format"`
}

var reportFormats = map[string]struct {
	contentType string
	write       func(io.Writer, *reports.Report) error
}{
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", reports.WriteXLSX},
	"pdf":  {"application/pdf", reports.WritePDF},
}

// GenerateReport renders a report of the caller's business as an attachment.
// Dates take RFC3339 or YYYY-MM-DD and are required for ranged types.
func GenerateReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Format == "" {
		req.Format = "xlsx"
	}
	format, ok := reportFormats[req.Format]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported format " + req.Format, "code": "INVALID_INPUT"})
		return
	}

	var startDate, endDate time.Time
	if reports.Ranged(req.ReportType) {
		var err error
		if startDate, err = parseDate(req.StartDate, false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate format", "code": "INVALID_INPUT"})
			return
		}
		if endDate, err = parseDate(req.EndDate, true); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate format", "code": "INVALID_INPUT"})
			return
		}
	}

	report, err := reports.Build(database.DB, reports.Request{
		BusinessID:        c.GetUint("business_id"),
		Type:              req.ReportType,
		From:              startDate,
		To:                endDate,
		LowStockThreshold: opts.Inventory.LowStockThreshold,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := format.write(&buf, report); err != nil {
		respondError(c, fmt.Errorf("render %s report: %w", req.Format, err))
		return
	}

	opts.Logger.Info("report generated",
		zap.String("type", req.ReportType),
		zap.String("format", req.Format),
		zap.Int("rows", len(report.Rows)))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", reports.Filename(req.ReportType, req.Format)))
	c.Data(http.StatusOK, format.contentType, buf.Bytes())
}
