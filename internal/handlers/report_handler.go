package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/gramin-ledger/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		exportService: exportService,
	}
}

// @Summary Dashboard Summary
// @Description Active deposit and loan principal and the available balance
// @Tags Reports
// @Produce json
// @Success 200 {object} services.Summary
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.reportService.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Yearly Settlement Report
// @Tags Reports
// @Produce json
// @Param year path string true "Financial year, e.g. 2024-25"
// @Success 200 {object} services.SettlementReport
// @Failure 422 {object} map[string]string
// @Router /reports/settlements/{year} [get]
func (h *ReportHandler) SettlementReport(c *gin.Context) {
	report, err := h.reportService.YearlySettlementReport(c.Request.Context(), c.Param("year"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary Export Yearly Settlement
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param year path string true "Financial year, e.g. 2024-25"
// @Success 200 {file} file
// @Failure 422 {object} map[string]string
// @Router /reports/settlements/{year}/export [get]
func (h *ReportHandler) SettlementXLSX(c *gin.Context) {
	data, filename, err := h.exportService.SettlementXLSX(c.Request.Context(), c.Param("year"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// @Summary Member Statement
// @Tags Reports
// @Produce json
// @Param member_id path string true "Member ID"
// @Success 200 {object} services.MemberStatement
// @Failure 404 {object} map[string]string
// @Router /members/{member_id}/statement [get]
func (h *ReportHandler) MemberStatement(c *gin.Context) {
	id, err := parseUUIDParam(c, "member_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	statement, err := h.reportService.MemberStatement(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statement)
}

// @Summary Member Statement PDF
// @Tags Reports
// @Produce application/pdf
// @Param member_id path string true "Member ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Router /members/{member_id}/statement.pdf [get]
func (h *ReportHandler) MemberStatementPDF(c *gin.Context) {
	id, err := parseUUIDParam(c, "member_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	data, filename, err := h.exportService.MemberStatementPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// @Summary Public Deposit Listing
// @Description Deposits with member names masked
// @Tags Public
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Deposit status"
// @Param financial_year query string false "Financial year"
// @Success 200 {object} map[string]interface{}
// @Router /public/deposits [get]
func (h *ReportHandler) PublicDeposits(c *gin.Context) {
	query := listQuery(c, "status", "financial_year")

	deposits, total, err := h.reportService.PublicDeposits(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deposits":   deposits,
		"pagination": pagination(query, total),
	})
}

// @Summary Public Loan Listing
// @Description Loans with member names masked
// @Tags Public
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Loan status"
// @Param financial_year query string false "Financial year"
// @Success 200 {object} map[string]interface{}
// @Router /public/loans [get]
func (h *ReportHandler) PublicLoans(c *gin.Context) {
	query := listQuery(c, "status", "financial_year")

	loans, total, err := h.reportService.PublicLoans(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"loans":      loans,
		"pagination": pagination(query, total),
	})
}
