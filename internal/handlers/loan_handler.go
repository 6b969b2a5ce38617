package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/gramin-ledger/internal/services"
)

type LoanHandler struct {
	loanService *services.LoanService
}

func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// LoanRequest is the body for creating or updating a loan
type LoanRequest struct {
	MemberID     string           `json:"member_id"`
	Amount       decimal.Decimal  `json:"loan_amount" swaggertype:"string" example:"10000.00"`
	LoanDate     string           `json:"loan_date" example:"2024-04-01"`
	InterestRate *decimal.Decimal `json:"interest_rate" swaggertype:"string" example:"5.0"`
	Notes        *string          `json:"notes"`
}

// PaymentRequest is the body for a loan repayment
type PaymentRequest struct {
	Amount      decimal.Decimal  `json:"payment_amount" swaggertype:"string" example:"500.00"`
	PaymentDate string           `json:"payment_date" example:"2024-05-01"`
	Discount    *decimal.Decimal `json:"discount_amount" swaggertype:"string" example:"0"`
	Notes       *string          `json:"notes"`
}

// CloseLoanRequest is the body for closing a loan by hand
type CloseLoanRequest struct {
	ReturnDate   string           `json:"return_date" example:"2024-06-01"`
	FinalPayment *decimal.Decimal `json:"final_payment" swaggertype:"string"`
	Discount     *decimal.Decimal `json:"discount_amount" swaggertype:"string"`
	Notes        *string          `json:"notes"`
}

// @Summary List Loans
// @Tags Loans
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "ACTIVE, CLOSED, SETTLED or CARRIED_FORWARD"
// @Param financial_year query string false "Financial year, e.g. 2024-25"
// @Param member_id query string false "Member ID"
// @Success 200 {object} map[string]interface{}
// @Router /loans [get]
func (h *LoanHandler) Index(c *gin.Context) {
	query := listQuery(c, "status", "financial_year", "member_id")

	loans, total, err := h.loanService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loans":      loans,
		"pagination": pagination(query, total),
	})
}

// @Summary Get Loan
// @Description Fixed values plus, while ACTIVE, interest and remaining balance as of today
// @Tags Loans
// @Produce json
// @Param loan_id path string true "Loan ID"
// @Success 200 {object} models.LoanResponse
// @Failure 404 {object} map[string]string
// @Router /loans/{loan_id} [get]
func (h *LoanHandler) Show(c *gin.Context) {
	id, err := parseUUIDParam(c, "loan_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	loan, err := h.loanService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

// @Summary Create Loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan body LoanRequest true "Loan"
// @Success 201 {object} models.LoanResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var req LoanRequest
	if err := BindNestedOrFlat(c, "loan", &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		badRequest(c, "invalid member_id")
		return
	}
	date, err := parseDate(req.LoanDate, "loan_date")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	loan, err := h.loanService.Create(c.Request.Context(), services.CreateLoanInput{
		MemberID:     memberID,
		Amount:       req.Amount,
		LoanDate:     date,
		InterestRate: req.InterestRate,
		Notes:        req.Notes,
		Actor:        actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.loanService.Project(loan))
}

// @Summary Update Loan
// @Description Only ACTIVE loans can be edited
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path string true "Loan ID"
// @Param loan body LoanRequest true "Loan"
// @Success 200 {object} models.LoanResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /loans/{loan_id} [put]
func (h *LoanHandler) Update(c *gin.Context) {
	id, err := parseUUIDParam(c, "loan_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req LoanRequest
	if err := BindNestedOrFlat(c, "loan", &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	memberID, err := parseOptionalUUID(req.MemberID, "member_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := parseDate(req.LoanDate, "loan_date")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	loan, err := h.loanService.Update(c.Request.Context(), id, services.UpdateLoanInput{
		Amount:   req.Amount,
		LoanDate: date,
		MemberID: memberID,
		Actor:    actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.loanService.Project(loan))
}

// @Summary Add Loan Payment
// @Description Applies a payment and optional discount; the loan closes once nothing remains
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path string true "Loan ID"
// @Param payment body PaymentRequest true "Payment"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /loans/{loan_id}/payments [post]
func (h *LoanHandler) AddPayment(c *gin.Context) {
	id, err := parseUUIDParam(c, "loan_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req PaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	date, err := parseDate(req.PaymentDate, "payment_date")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	discount := decimal.Zero
	if req.Discount != nil {
		discount = *req.Discount
	}

	result, err := h.loanService.AddPayment(c.Request.Context(), id, services.PaymentInput{
		Amount:      req.Amount,
		PaymentDate: date,
		Discount:    discount,
		Notes:       req.Notes,
		Actor:       actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"loan":    h.loanService.Project(result.Loan),
		"payment": result.Payment.ToResponse(),
	})
}

// @Summary Close Loan
// @Description Fixes interest at the return date, records an optional final payment and closes the loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path string true "Loan ID"
// @Param body body CloseLoanRequest false "Close details"
// @Success 200 {object} models.LoanResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /loans/{loan_id}/close [post]
func (h *LoanHandler) Close(c *gin.Context) {
	id, err := parseUUIDParam(c, "loan_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req CloseLoanRequest
	if err := BindNestedOrFlat(c, "loan", &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	date, err := parseDate(req.ReturnDate, "return_date")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	loan, err := h.loanService.Close(c.Request.Context(), id, services.CloseLoanInput{
		ReturnDate:   date,
		FinalPayment: req.FinalPayment,
		Discount:     req.Discount,
		Notes:        req.Notes,
		Actor:        actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.loanService.Project(loan))
}

// @Summary Loan Payment History
// @Description Payments newest first
// @Tags Loans
// @Produce json
// @Param loan_id path string true "Loan ID"
// @Success 200 {array} models.LoanPaymentResponse
// @Failure 404 {object} map[string]string
// @Router /loans/{loan_id}/payments [get]
func (h *LoanHandler) Payments(c *gin.Context) {
	id, err := parseUUIDParam(c, "loan_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	payments, err := h.loanService.PaymentHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
