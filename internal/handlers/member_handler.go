package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/gramin-ledger/internal/services"
)

type MemberHandler struct {
	memberService *services.MemberService
}

func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// CreateMemberRequest is the body for POST /members
type CreateMemberRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	JoiningDate string  `json:"joining_date"`
}

// @Summary List Members
// @Tags Members
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Name or phone"
// @Param active query bool false "Filter by active flag"
// @Success 200 {object} map[string]interface{}
// @Router /members [get]
func (h *MemberHandler) Index(c *gin.Context) {
	query := listQuery(c, "active")

	members, total, err := h.memberService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members":    members,
		"pagination": pagination(query, total),
	})
}

// @Summary Get Member
// @Tags Members
// @Produce json
// @Param member_id path string true "Member ID"
// @Success 200 {object} models.Member
// @Failure 404 {object} map[string]string
// @Router /members/{member_id} [get]
func (h *MemberHandler) Show(c *gin.Context) {
	id, err := parseUUIDParam(c, "member_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	member, err := h.memberService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// @Summary Create Member
// @Tags Members
// @Accept json
// @Produce json
// @Param member body CreateMemberRequest true "Member"
// @Success 201 {object} models.Member
// @Failure 422 {object} map[string]string
// @Router /members [post]
func (h *MemberHandler) Create(c *gin.Context) {
	var req CreateMemberRequest
	if err := BindNestedOrFlat(c, "member", &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	joining, err := parseDate(req.JoiningDate, "joining_date")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	member, err := h.memberService.Create(c.Request.Context(), services.CreateMemberInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Address:     req.Address,
		JoiningDate: joining,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}
