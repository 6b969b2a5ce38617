package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/gramin-ledger/internal/services"
)

type DepositHandler struct {
	depositService *services.DepositService
}

func NewDepositHandler(depositService *services.DepositService) *DepositHandler {
	return &DepositHandler{depositService: depositService}
}

// DepositRequest is the body for creating or updating a deposit
type DepositRequest struct {
	MemberID     string           `json:"member_id"`
	Amount       decimal.Decimal  `json:"amount" swaggertype:"string" example:"1000.00"`
	DepositDate  string           `json:"deposit_date" example:"2024-04-01"`
	InterestRate *decimal.Decimal `json:"interest_rate" swaggertype:"string" example:"2.5"`
}

// CloseDepositRequest is the body for returning a deposit. An empty date means today.
type CloseDepositRequest struct {
	ReturnDate string `json:"return_date" example:"2024-05-15"`
}

// @Summary List Deposits
// @Tags Deposits
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "ACTIVE, RETURNED or SETTLED"
// @Param financial_year query string false "Financial year, e.g. 2024-25"
// @Param member_id query string false "Member ID"
// @Success 200 {object} map[string]interface{}
// @Router /deposits [get]
func (h *DepositHandler) Index(c *gin.Context) {
	query := listQuery(c, "status", "financial_year", "member_id")

	deposits, total, err := h.depositService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deposits":   deposits,
		"pagination": pagination(query, total),
	})
}

// @Summary Get Deposit
// @Description Fixed values plus, while ACTIVE, interest accrued as of today
// @Tags Deposits
// @Produce json
// @Param deposit_id path string true "Deposit ID"
// @Success 200 {object} models.DepositResponse
// @Failure 404 {object} map[string]string
// @Router /deposits/{deposit_id} [get]
func (h *DepositHandler) Show(c *gin.Context) {
	id, err := parseUUIDParam(c, "deposit_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	deposit, err := h.depositService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

// @Summary Create Deposit
// @Tags Deposits
// @Accept json
// @Produce json
// @Param deposit body DepositRequest true "Deposit"
// @Success 201 {object} models.DepositResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /deposits [post]
func (h *DepositHandler) Create(c *gin.Context) {
	var req DepositRequest
	if err := BindNestedOrFlat(c, "deposit", &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		badRequest(c, "invalid member_id")
		return
	}
	date, err := parseDate(req.DepositDate, "deposit_date")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	deposit, err := h.depositService.Create(c.Request.Context(), services.CreateDepositInput{
		MemberID:     memberID,
		Amount:       req.Amount,
		DepositDate:  date,
		InterestRate: req.InterestRate,
		Actor:        actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.depositService.Project(deposit))
}

// @Summary Update Deposit
// @Description Only ACTIVE deposits can be edited
// @Tags Deposits
// @Accept json
// @Produce json
// @Param deposit_id path string true "Deposit ID"
// @Param deposit body DepositRequest true "Deposit"
// @Success 200 {object} models.DepositResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /deposits/{deposit_id} [put]
func (h *DepositHandler) Update(c *gin.Context) {
	id, err := parseUUIDParam(c, "deposit_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req DepositRequest
	if err := BindNestedOrFlat(c, "deposit", &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	memberID, err := parseOptionalUUID(req.MemberID, "member_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := parseDate(req.DepositDate, "deposit_date")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	deposit, err := h.depositService.Update(c.Request.Context(), id, services.UpdateDepositInput{
		Amount:      req.Amount,
		DepositDate: date,
		MemberID:    memberID,
		Actor:       actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.depositService.Project(deposit))
}

// @Summary Return Deposit
// @Description Fixes interest at the return date and closes the deposit
// @Tags Deposits
// @Accept json
// @Produce json
// @Param deposit_id path string true "Deposit ID"
// @Param body body CloseDepositRequest false "Return date"
// @Success 200 {object} models.DepositResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /deposits/{deposit_id}/close [post]
func (h *DepositHandler) Close(c *gin.Context) {
	id, err := parseUUIDParam(c, "deposit_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req CloseDepositRequest
	if err := BindNestedOrFlat(c, "deposit", &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	returnDate, err := parseDate(req.ReturnDate, "return_date")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	deposit, err := h.depositService.Close(c.Request.Context(), id, returnDate, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.depositService.Project(deposit))
}
