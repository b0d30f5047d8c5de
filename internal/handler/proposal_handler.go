package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/capstone-api/internal/models"
	"github.com/noah-isme/capstone-api/internal/service"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
	"github.com/noah-isme/capstone-api/pkg/response"
)

// ProposalHandler wires the proposal lifecycle to HTTP routes.
type ProposalHandler struct {
	proposals *service.ProposalService
	reviews   *service.ReviewService
	board     *service.BoardService
	councils  *service.CouncilService
}

// NewProposalHandler constructs a new ProposalHandler.
func NewProposalHandler(proposals *service.ProposalService, reviews *service.ReviewService, board *service.BoardService, councils *service.CouncilService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, reviews: reviews, board: board, councils: councils}
}

func proposalID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "proposal id must be a positive integer")
	}
	return id, nil
}

// List godoc
// @Summary List proposals
// @Tags Proposals
// @Produce json
// @Param semester_id query string false "Filter by semester"
// @Param status query string false "Filter by lifecycle status"
// @Param mentor query string false "Filter by mentor code"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	filter := models.ProposalFilter{
		SemesterID: strings.TrimSpace(c.Query("semester_id")),
		MentorCode: strings.TrimSpace(c.Query("mentor")),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
			return
		}
		filter.Status = string(status)
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	proposals, pagination, err := h.proposals.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposals, pagination)
}

// Get godoc
// @Summary Get proposal detail
// @Tags Proposals
// @Produce json
// @Param id path int true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id} [get]
func (h *ProposalHandler) Get(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	proposal, err := h.proposals.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Create godoc
// @Summary Submit a proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param payload body service.CreateProposalRequest true "Proposal payload"
// @Success 201 {object} response.Envelope
// @Router /proposals [post]
func (h *ProposalHandler) Create(c *gin.Context) {
	var req service.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid proposal payload"))
		return
	}
	proposal, err := h.proposals.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, proposal)
}

// Screen godoc
// @Summary Run duplicate screening via the external service
// @Tags Proposals
// @Produce json
// @Param id path int true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/screen [post]
func (h *ProposalHandler) Screen(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	proposal, err := h.proposals.Screen(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// DuplicateOutcome godoc
// @Summary Record a duplicate screening outcome
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path int true "Proposal ID"
// @Param payload body service.DuplicateOutcomeRequest true "Screening outcome"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/duplicate-outcome [post]
func (h *ProposalHandler) DuplicateOutcome(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.DuplicateOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid outcome payload"))
		return
	}
	proposal, err := h.proposals.RecordDuplicateOutcome(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Reject godoc
// @Summary Force-reject a proposal before its defense
// @Tags Proposals
// @Produce json
// @Param id path int true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/reject [post]
func (h *ProposalHandler) Reject(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	proposal, err := h.proposals.RejectByAdmin(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// BoardDecisions godoc
// @Summary List board decisions and quorum outcome
// @Tags Board
// @Produce json
// @Param id path int true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/board-decisions [get]
func (h *ProposalHandler) BoardDecisions(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	state, err := h.board.Decisions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// RecordBoardDecision godoc
// @Summary Record a board seat's verdict
// @Tags Board
// @Accept json
// @Produce json
// @Param id path int true "Proposal ID"
// @Param payload body service.BoardDecisionRequest true "Verdict"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/board-decisions [post]
func (h *ProposalHandler) RecordBoardDecision(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil || claims.LecturerCode == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "board decisions require a lecturer account"))
		return
	}
	var req service.BoardDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	state, err := h.board.RecordDecision(c.Request.Context(), id, claims.LecturerCode, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// AssignReviewers godoc
// @Summary Assign both reviewers of a review round
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path int true "Proposal ID"
// @Param payload body service.AssignReviewersRequest true "Round assignment"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/reviews [post]
func (h *ProposalHandler) AssignReviewers(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AssignReviewersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	proposal, err := h.reviews.AssignReviewers(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// EligibleReviewers godoc
// @Summary List lecturers eligible to review a round
// @Tags Reviews
// @Produce json
// @Param id path int true "Proposal ID"
// @Param round query int true "Review round (1-3)"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/eligible-reviewers [get]
func (h *ProposalHandler) EligibleReviewers(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	round, err := strconv.Atoi(c.Query("round"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "round must be an integer between 1 and 3"))
		return
	}
	codes, err := h.reviews.EligibleReviewers(c.Request.Context(), id, round)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, codes, nil)
}

// EligibleCouncils godoc
// @Summary List councils eligible to host the proposal's defense
// @Tags Councils
// @Produce json
// @Param id path int true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/eligible-councils [get]
func (h *ProposalHandler) EligibleCouncils(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	proposal, err := h.proposals.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	councils, err := h.councils.EligibleForProposal(c.Request.Context(), proposal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, councils, nil)
}
