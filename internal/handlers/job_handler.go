package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/gramin-ledger/internal/services"
)

// JobHandler exposes the background settlement worker
type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// @Summary Background Job Status
// @Description Worker counters, the settlement cron entry with its next run and the outcome of the last background settlement
// @Tags Jobs
// @Produce json
// @Success 200 {object} services.JobStatus
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.GetStatus())
}

// @Summary Last Background Settlement
// @Tags Jobs
// @Produce json
// @Success 200 {object} services.SettlementRun
// @Failure 404 {object} map[string]string
// @Router /jobs/settlement [get]
func (h *JobHandler) LastSettlement(c *gin.Context) {
	run := h.jobService.LastSettlement()
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no background settlement has run yet"})
		return
	}
	c.JSON(http.StatusOK, run)
}
