package projects

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	projectsvc "liyantis-backend/internal/application/projects"
	"liyantis-backend/internal/application/reports"
	"liyantis-backend/internal/middleware"
	"liyantis-backend/internal/pkg/response"
	"liyantis-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the committed project collection and its reports.
type Handlers struct {
	Service *projectsvc.Service
	Reports *reports.Service
}

// List GET /api/v1/projects?filter=&q=&sort=
func (h *Handlers) List(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Service.List(c.UserContext(), agentID, projectsvc.ListQuery{
		Filter: projectsvc.Filter(strings.ToLower(c.Query("filter"))),
		Search: c.Query("q"),
		Sort:   projectsvc.Sort(strings.ToLower(c.Query("sort"))),
	})
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Projects retrieved", items, fiber.Map{"count": len(items)})
}

// Get GET /api/v1/projects/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.Service.Get(c.UserContext(), agentID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Project retrieved", p, nil)
}

// Update PATCH /api/v1/projects/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	var raw struct {
		PaymentPlan json.RawMessage `json:"paymentPlan"`
	}
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if len(raw.PaymentPlan) > 0 && string(raw.PaymentPlan) != "null" {
		if errs := validation.NonNumericPercents(raw.PaymentPlan); len(errs) > 0 {
			return response.ValidationFailed(c, prefix("paymentPlan.", errs), nil)
		}
	}
	var patch projectsvc.Patch
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.Update(c.UserContext(), agentID, c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Project updated", p, nil)
}

func prefix(p string, errs validation.FieldErrors) validation.FieldErrors {
	out := validation.FieldErrors{}
	for k, v := range errs {
		out[p+k] = v
	}
	return out
}

// Delete DELETE /api/v1/projects/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Service.Delete(c.UserContext(), agentID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Project deleted", nil, nil)
}

// ToggleLike PATCH /api/v1/projects/:id/like
func (h *Handlers) ToggleLike(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.Service.ToggleLike(c.UserContext(), agentID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Project updated", p, nil)
}

// ToggleSold PATCH /api/v1/projects/:id/sold
func (h *Handlers) ToggleSold(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.Service.ToggleSold(c.UserContext(), agentID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Project updated", p, nil)
}

// Analytics GET /api/v1/projects/:id/analytics
func (h *Handlers) Analytics(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.Service.Analytics(c.UserContext(), agentID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Analytics retrieved", a, nil)
}

// Timeline GET /api/v1/projects/:id/timeline?position=0.5
func (h *Handlers) Timeline(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	position := 0.0
	if q := c.Query("position"); q != "" {
		position, err = strconv.ParseFloat(q, 64)
		if err != nil {
			return response.Error(c, "position must be a number between 0 and 1", fiber.StatusBadRequest, nil)
		}
	}
	snap, err := h.Service.TimelineAt(c.UserContext(), agentID, c.Params("id"), position)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Timeline position", snap, nil)
}

// Events GET /api/v1/projects/:id/events
func (h *Handlers) Events(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	events, err := h.Service.Events(c.UserContext(), agentID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Events retrieved", events, fiber.Map{"count": len(events)})
}

// ReportPDF GET /api/v1/projects/:id/report.pdf
func (h *Handlers) ReportPDF(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.Service.Get(c.UserContext(), agentID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.Service.Analytics(c.UserContext(), agentID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	pdf, err := h.Reports.RenderPDF(*p, *a)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.pdf"`, fileName(p.ProjectName)))
	return c.Send(pdf)
}

// ReportHTML GET /api/v1/projects/:id/report.html
func (h *Handlers) ReportHTML(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.Service.Get(c.UserContext(), agentID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.Service.Analytics(c.UserContext(), agentID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	page, err := h.Reports.RenderHTML(*p, *a)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(page)
}

type shareRequest struct {
	Email string `json:"email"`
}

// ShareReport POST /api/v1/projects/:id/report/share
func (h *Handlers) ShareReport(c *fiber.Ctx) error {
	agentID, err := middleware.AgentID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req shareRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
		}
	}
	if req.Email != "" && !validation.IsValidEmail(strings.TrimSpace(req.Email)) {
		return response.Error(c, "Invalid email format", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.Get(c.UserContext(), agentID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.Service.Analytics(c.UserContext(), agentID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.Reports.Share(c.UserContext(), *p, *a, req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return response.SuccessCreated(c, "Report shared", res, nil)
}

func fileName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "report"
	}
	return b.String()
}
