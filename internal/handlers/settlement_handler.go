package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/gramin-ledger/internal/services"
)

type SettlementHandler struct {
	settlementService *services.SettlementService
	jobService        *services.JobService
}

func NewSettlementHandler(settlementService *services.SettlementService, jobService *services.JobService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		jobService:        jobService,
	}
}

// RunSettlementRequest optionally names the year to settle
type RunSettlementRequest struct {
	Year string `json:"year" example:"2024-25"`
}

// @Summary Run Yearly Settlement
// @Description Settles every ACTIVE deposit and loan of the financial year. Without a year the current one is used.
// @Tags Settlements
// @Accept json
// @Produce json
// @Param body body RunSettlementRequest false "Year"
// @Param async query bool false "Run in the background"
// @Success 200 {object} services.SettlementResult
// @Success 202 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /settlements/run [post]
func (h *SettlementHandler) Run(c *gin.Context) {
	var req RunSettlementRequest
	if err := BindNestedOrFlat(c, "settlement", &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Year == "" {
		req.Year = c.Query("year")
	}

	if c.Query("async") == "true" {
		h.jobService.EnqueueSettlement(req.Year)
		c.JSON(http.StatusAccepted, gin.H{"message": "settlement run queued", "status": "/api/v1/jobs/status"})
		return
	}

	result, err := h.settlementService.Run(c.Request.Context(), req.Year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
