package projects

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"liyantis-backend/internal/domain"
	"liyantis-backend/internal/finance"
	"liyantis-backend/internal/infrastructure/kvstore"
	"liyantis-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrNoDraft = errors.New("No draft in progress")

const draftKeyPrefix = "draft_project:"

// Entry is either a Draft still in the wizard or a Committed project.
type Entry interface {
	Record() domain.Project
	entry()
}

// Draft is the agent's single in-progress wizard record. It may be invalid.
type Draft struct {
	Project domain.Project `json:"project"`
	SavedAt time.Time      `json:"savedAt"`
}

func (d *Draft) Record() domain.Project { return d.Project }
func (*Draft) entry()                    {}

// Committed is a project that passed every step and lives in the collection.
type Committed struct {
	Project domain.Project `json:"project"`
}

func (c *Committed) Record() domain.Project { return c.Project }
func (*Committed) entry()                    {}

// StepResult is what every wizard step returns: the saved draft plus the
// problems that keep the agent from moving on.
type StepResult struct {
	Draft  *Draft                 `json:"draft"`
	Errors validation.FieldErrors `json:"errors,omitempty"`
}

// Valid reports whether the step may be left.
func (r StepResult) Valid() bool { return len(r.Errors) == 0 }

// DraftService drives the creation wizard. Every step saves before it
// validates, so entered data is never lost.
type DraftService struct {
	Store              kvstore.Store
	Projects           *Service
	DownPaymentPercent float64
	Now                func() time.Time
}

func draftKey(agentID uuid.UUID) string {
	return draftKeyPrefix + agentID.String()
}

func (s *DraftService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DraftService) downPayment(plan domain.PaymentPlan) float64 {
	def := s.DownPaymentPercent
	if def <= 0 {
		def = domain.DefaultDownPaymentPercent
	}
	return plan.DownPayment(def)
}

// Get returns the agent's draft or ErrNoDraft.
func (s *DraftService) Get(ctx context.Context, agentID uuid.UUID) (*Draft, error) {
	blob, ok, err := s.Store.Load(ctx, draftKey(agentID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoDraft
	}
	var d Draft
	if err := json.Unmarshal(blob, &d); err != nil {
		// An unreadable blob is treated as no draft so the wizard can start over.
		log.Warn().Err(err).Str("agent_id", agentID.String()).Msg("discarding unreadable draft")
		return nil, ErrNoDraft
	}
	d.Project.AgentID = agentID
	return &d, nil
}

// load returns the existing draft or a fresh one with the form defaults.
func (s *DraftService) load(ctx context.Context, agentID uuid.UUID) (*Draft, error) {
	d, err := s.Get(ctx, agentID)
	if errors.Is(err, ErrNoDraft) {
		return newDraft(agentID), nil
	}
	return d, err
}

func newDraft(agentID uuid.UUID) *Draft {
	return &Draft{Project: domain.Project{
		AgentID:  agentID,
		Currency: domain.DefaultCurrency,
		Status:   domain.StatusOffPlan,
		PaymentPlan: domain.PaymentPlan{
			DuringConstructionPercent: 40,
			OnHandoverPercent:         60,
			PostHandoverPercent:       0,
			FlipAtPercent:             35,
			HandoverAtPercent:         70,
		},
		Ratings: domain.Ratings{},
	}}
}

func (s *DraftService) save(ctx context.Context, d *Draft) error {
	d.SavedAt = s.now().UTC()
	blob, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.Store.Save(ctx, draftKey(d.Project.AgentID), blob)
}

// Discard drops the draft. Discarding a missing draft is not an error.
func (s *DraftService) Discard(ctx context.Context, agentID uuid.UUID) error {
	return s.Store.Remove(ctx, draftKey(agentID))
}

// Details is the first wizard step.
type Details struct {
	ProjectName          string                `json:"projectName"`
	Developer            string                `json:"developer"`
	Location             string                `json:"location"`
	Type                 string                `json:"type"`
	Bedrooms             int                   `json:"bedrooms"`
	Status               domain.PropertyStatus `json:"status"`
	Currency             string                `json:"currency"`
	Price                float64               `json:"price"`
	AreaSqFt             float64               `json:"areaSqFt"`
	AreaSqM              float64               `json:"areaSqM"`
	DLDPercent           *float64              `json:"dldPercent"`
	ServiceChargePerSqFt float64               `json:"serviceChargePerSqFt"`
}

// SaveDetails stores the property details step.
func (s *DraftService) SaveDetails(ctx context.Context, agentID uuid.UUID, in Details) (*StepResult, error) {
	d, err := s.load(ctx, agentID)
	if err != nil {
		return nil, err
	}
	p := &d.Project
	p.ProjectName = strings.TrimSpace(in.ProjectName)
	p.Developer = strings.TrimSpace(in.Developer)
	p.Location = strings.TrimSpace(in.Location)
	p.Type = strings.TrimSpace(in.Type)
	p.Bedrooms = in.Bedrooms
	if in.Status != "" {
		p.Status = in.Status
	}
	if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
		p.Currency = c
	}
	p.Price = in.Price
	p.AreaSqFt = in.AreaSqFt
	p.AreaSqM = in.AreaSqM
	p.DLDPercent = in.DLDPercent
	p.ServiceChargePerSqFt = in.ServiceChargePerSqFt

	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return &StepResult{Draft: d, Errors: validation.ValidatePropertyDetails(*p)}, nil
}

// SavePaymentPlan stores the payment plan step. extra carries problems found
// while decoding, such as percent fields that were not numbers.
func (s *DraftService) SavePaymentPlan(ctx context.Context, agentID uuid.UUID, plan domain.PaymentPlan, extra validation.FieldErrors) (*StepResult, error) {
	d, err := s.load(ctx, agentID)
	if err != nil {
		return nil, err
	}
	d.Project.PaymentPlan = plan
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	errs := validation.FieldErrors{}.Merge(extra).Merge(validation.ValidatePaymentPlan(plan))
	return &StepResult{Draft: d, Errors: errs}, nil
}

// ProjectionsInput is the projections step. ExitStrategies optionally carries an authored table.
type ProjectionsInput struct {
	domain.Projections
	ExitStrategies *domain.ExitStrategyTable `json:"exitStrategies"`
}

// SaveProjections stores the growth, yield and exit adjustment step.
func (s *DraftService) SaveProjections(ctx context.Context, agentID uuid.UUID, in ProjectionsInput) (*StepResult, error) {
	d, err := s.load(ctx, agentID)
	if err != nil {
		return nil, err
	}
	d.Project.Projections = in.Projections
	if in.ExitStrategies != nil {
		d.Project.ExitStrategies = *in.ExitStrategies
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return &StepResult{Draft: d, Errors: validation.ValidateProjections(in.Projections)}, nil
}

// AddInstallment appends a row to the draft's installment list.
func (s *DraftService) AddInstallment(ctx context.Context, agentID uuid.UUID) (*StepResult, error) {
	return s.editInstallments(ctx, agentID, func(plan domain.PaymentPlan) ([]domain.Installment, error) {
		return finance.AddInstallment(plan.Installments, s.downPayment(plan), s.now()), nil
	})
}

// UpdateInstallment edits one row by ordinal.
func (s *DraftService) UpdateInstallment(ctx context.Context, agentID uuid.UUID, ordinal int, patch finance.InstallmentPatch) (*StepResult, error) {
	return s.editInstallments(ctx, agentID, func(plan domain.PaymentPlan) ([]domain.Installment, error) {
		return finance.UpdateInstallment(plan.Installments, ordinal, patch, s.downPayment(plan))
	})
}

// RemoveInstallment drops one row by ordinal.
func (s *DraftService) RemoveInstallment(ctx context.Context, agentID uuid.UUID, ordinal int) (*StepResult, error) {
	return s.editInstallments(ctx, agentID, func(plan domain.PaymentPlan) ([]domain.Installment, error) {
		return finance.RemoveInstallment(plan.Installments, ordinal, s.downPayment(plan))
	})
}

func (s *DraftService) editInstallments(ctx context.Context, agentID uuid.UUID, edit func(domain.PaymentPlan) ([]domain.Installment, error)) (*StepResult, error) {
	d, err := s.load(ctx, agentID)
	if err != nil {
		return nil, err
	}
	list, err := edit(d.Project.PaymentPlan)
	if err != nil {
		return nil, err
	}
	d.Project.PaymentPlan.Installments = list
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return &StepResult{Draft: d, Errors: validation.ValidatePaymentPlan(d.Project.PaymentPlan)}, nil
}

// Commit stores the ratings, validates the whole record and promotes it into
// the collection. On failure the draft is kept and the problems are returned.
func (s *DraftService) Commit(ctx context.Context, agentID uuid.UUID, ratings domain.Ratings) (*Committed, validation.FieldErrors, error) {
	d, err := s.Get(ctx, agentID)
	if err != nil {
		return nil, nil, err
	}
	if ratings != nil {
		d.Project.Ratings = ratings
	}
	if err := s.save(ctx, d); err != nil {
		return nil, nil, err
	}
	if errs := ValidateRecord(d.Project); len(errs) > 0 {
		return nil, errs, nil
	}

	p := d.Project
	p.ProjectID = uuid.Nil
	p.AgentID = agentID
	if err := s.Projects.create(ctx, &p); err != nil {
		return nil, nil, err
	}
	if err := s.Discard(ctx, agentID); err != nil {
		log.Warn().Err(err).Str("agent_id", agentID.String()).Msg("draft not removed after commit")
	}
	return &Committed{Project: p}, nil, nil
}

// Analyze computes the analysis of any entry. Committed entries go through the cache.
func (s *DraftService) Analyze(ctx context.Context, e Entry) (*finance.Analysis, error) {
	switch v := e.(type) {
	case *Committed:
		return s.Projects.analyze(ctx, &v.Project)
	default:
		a, err := finance.Analyze(e.Record(), s.Projects.Options)
		if err != nil {
			return nil, err
		}
		return &a, nil
	}
}

// Lookup resolves "draft" to the agent's draft and anything else to a committed project.
func (s *DraftService) Lookup(ctx context.Context, agentID uuid.UUID, id string) (Entry, error) {
	if id == "draft" {
		d, err := s.Get(ctx, agentID)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	p, err := s.Projects.Get(ctx, agentID, id)
	if err != nil {
		return nil, err
	}
	return &Committed{Project: *p}, nil
}
