package projects

import (
	"encoding/json"
	"strconv"

	projectsvc "liyantis-backend/internal/application/projects"
	"liyantis-backend/internal/domain"
	"liyantis-backend/internal/finance"
	"liyantis-backend/internal/middleware"
	"liyantis-backend/internal/pkg/response"
	"liyantis-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// DraftHandlers serves the creation wizard.
type DraftHandlers struct {
	Service *projectsvc.DraftService
}

// stepResponse answers 422 with the saved draft when the step has problems, 200 otherwise.
func stepResponse(c *fiber.Ctx, res *projectsvc.StepResult) error {
	if !res.Valid() {
		return response.ValidationFailed(c, res.Errors, res.Draft)
	}
	return response.Success(c, "Draft saved", res.Draft, nil)
}

// Get GET /api/v1/drafts
func (h *DraftHandlers) Get(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	d, err := h.Service.Get(c.UserContext(), agentID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Draft retrieved", d, nil)
}

// Discard DELETE /api/v1/drafts
func (h *DraftHandlers) Discard(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Service.Discard(c.UserContext(), agentID); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Draft discarded", nil, nil)
}

// SaveDetails PUT /api/v1/drafts/details
func (h *DraftHandlers) SaveDetails(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	var in projectsvc.Details
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.SaveDetails(c.UserContext(), agentID, in)
	if err != nil {
		return respondError(c, err)
	}
	return stepResponse(c, res)
}

// SavePaymentPlan PUT /api/v1/drafts/payment-plan
func (h *DraftHandlers) SavePaymentPlan(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	body := c.Body()
	var plan domain.PaymentPlan
	if err := json.Unmarshal(body, &plan); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.SavePaymentPlan(c.UserContext(), agentID, plan, validation.NonNumericPercents(body))
	if err != nil {
		return respondError(c, err)
	}
	return stepResponse(c, res)
}

// SaveProjections PUT /api/v1/drafts/projections
func (h *DraftHandlers) SaveProjections(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	var in projectsvc.ProjectionsInput
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.SaveProjections(c.UserContext(), agentID, in)
	if err != nil {
		return respondError(c, err)
	}
	return stepResponse(c, res)
}

// AddInstallment POST /api/v1/drafts/installments
// Installment edits happen mid-step, so problems come back with 200 for the form to show.
func (h *DraftHandlers) AddInstallment(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.Service.AddInstallment(c.UserContext(), agentID)
	if err != nil {
		return respondError(c, err)
	}
	return response.SuccessCreated(c, "Installment added", res, nil)
}

// UpdateInstallment PATCH /api/v1/drafts/installments/:ordinal
func (h *DraftHandlers) UpdateInstallment(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	ordinal, err := strconv.Atoi(c.Params("ordinal"))
	if err != nil {
		return response.Error(c, "ordinal must be a number", fiber.StatusBadRequest, nil)
	}
	body := c.Body()
	var raw struct {
		Percent json.RawMessage `json:"percent"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if len(raw.Percent) > 0 && string(raw.Percent) != "null" && !domain.IsNumeric(raw.Percent) {
		return response.ValidationFailed(c, map[string]string{"percent": "Must be a number"}, nil)
	}
	var patch finance.InstallmentPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.UpdateInstallment(c.UserContext(), agentID, ordinal, patch)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Installment updated", res, nil)
}

// RemoveInstallment DELETE /api/v1/drafts/installments/:ordinal
func (h *DraftHandlers) RemoveInstallment(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	ordinal, err := strconv.Atoi(c.Params("ordinal"))
	if err != nil {
		return response.Error(c, "ordinal must be a number", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.RemoveInstallment(c.UserContext(), agentID, ordinal)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Installment removed", res, nil)
}

type commitRequest struct {
	Ratings domain.Ratings `json:"ratings"`
}

// Commit POST /api/v1/drafts/commit
func (h *DraftHandlers) Commit(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req commitRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
		}
	}
	committed, errs, err := h.Service.Commit(c.UserContext(), agentID, req.Ratings)
	if err != nil {
		return respondError(c, err)
	}
	if len(errs) > 0 {
		return response.ValidationFailed(c, errs, nil)
	}
	return response.SuccessCreated(c, "Project created", committed.Project, nil)
}

// Analytics GET /api/v1/drafts/analytics previews the analysis of the draft.
func (h *DraftHandlers) Analytics(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	e, err := h.Service.Lookup(c.UserContext(), agentID, "draft")
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.Service.Analyze(c.UserContext(), e)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Analytics retrieved", a, nil)
}
