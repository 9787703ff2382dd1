package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"liyantis-backend/internal/domain"
	"liyantis-backend/internal/finance"
	"liyantis-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProjectNotFound  = errors.New("Project not found")
	ErrInvalidProjectID = errors.New("Invalid project ID")
	ErrInvalidFilter    = errors.New("Filter must be one of all, sold, favourites")
	ErrInvalidSort      = errors.New("Sort must be one of recent, a-z, z-a, price-asc, price-desc")
	ErrNothingToUpdate  = errors.New("No valid update fields provided")
)

type Filter string

const (
	FilterAll        Filter = "all"
	FilterSold       Filter = "sold"
	FilterFavourites Filter = "favourites"
)

type Sort string

const (
	SortRecent    Sort = "recent"
	SortNameAsc   Sort = "a-z"
	SortNameDesc  Sort = "z-a"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
)

// ListQuery mirrors the home screen controls.
type ListQuery struct {
	Filter Filter
	Search string
	Sort   Sort
}

const (
	analyticsPrefix = "analytics:"
	defaultCacheTTL = 10 * time.Minute
)

// Service owns the committed project collection of each agent.
// Rdb is optional; without it analytics are computed on every call.
type Service struct {
	DB       *gorm.DB
	Rdb      *redis.Client
	Options  finance.Options
	CacheTTL time.Duration
}

func parseID(id string) (uuid.UUID, error) {
	pid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil || pid == uuid.Nil {
		return uuid.Nil, ErrInvalidProjectID
	}
	return pid, nil
}

func (s *Service) scoped(ctx context.Context, agentID uuid.UUID) *gorm.DB {
	return s.DB.WithContext(ctx).Model(&domain.Project{}).
		Where("agent_id = ? AND is_deleted = ?", agentID, false)
}

// List returns the agent's projects filtered, searched (name or developer) and sorted.
func (s *Service) List(ctx context.Context, agentID uuid.UUID, q ListQuery) ([]domain.Project, error) {
	tx := s.scoped(ctx, agentID)

	switch q.Filter {
	case "", FilterAll:
	case FilterSold:
		tx = tx.Where("is_sold = ?", true)
	case FilterFavourites:
		tx = tx.Where("is_liked = ?", true)
	default:
		return nil, ErrInvalidFilter
	}

	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		like := "%" + escapeLike(term) + "%"
		tx = tx.Where("(LOWER(project_name) LIKE ? ESCAPE '\\' OR LOWER(developer) LIKE ? ESCAPE '\\')", like, like)
	}

	switch q.Sort {
	case "", SortRecent:
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}, Desc: true})
	case SortNameAsc:
		tx = tx.Order("LOWER(project_name) ASC")
	case SortNameDesc:
		tx = tx.Order("LOWER(project_name) DESC")
	case SortPriceAsc:
		tx = tx.Order("price ASC")
	case SortPriceDesc:
		tx = tx.Order("price DESC")
	default:
		return nil, ErrInvalidSort
	}

	var out []domain.Project
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Get loads one committed project owned by the agent.
func (s *Service) Get(ctx context.Context, agentID uuid.UUID, id string) (*domain.Project, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var p domain.Project
	if err := s.scoped(ctx, agentID).Where("project_id = ?", pid).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

// create inserts a committed project and its CREATED event in one transaction.
func (s *Service) create(ctx context.Context, p *domain.Project) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return recordEvent(tx, p, domain.ProjectEventCreated, map[string]interface{}{
			"projectName": p.ProjectName,
			"price":       p.Price,
		})
	})
}

// Patch is a partial update of a committed project. Nil fields are left unchanged.
type Patch struct {
	ProjectName          *string                   `json:"projectName"`
	Developer            *string                   `json:"developer"`
	Location             *string                   `json:"location"`
	Type                 *string                   `json:"type"`
	Bedrooms             *int                      `json:"bedrooms"`
	Status               *domain.PropertyStatus    `json:"status"`
	Currency             *string                   `json:"currency"`
	Price                *float64                  `json:"price"`
	AreaSqFt             *float64                  `json:"areaSqFt"`
	AreaSqM              *float64                  `json:"areaSqM"`
	DLDPercent           *float64                  `json:"dldPercent"`
	ServiceChargePerSqFt *float64                  `json:"serviceChargePerSqFt"`
	PaymentPlan          *domain.PaymentPlan       `json:"paymentPlan"`
	Projections          *domain.Projections       `json:"projections"`
	Ratings              domain.Ratings            `json:"ratings"`
	ExitStrategies       *domain.ExitStrategyTable `json:"exitStrategies"`
}

// apply copies set fields onto p and returns the names of the fields touched.
func (pt Patch) apply(p *domain.Project) []string {
	var changed []string
	set := func(name string, ok bool, fn func()) {
		if ok {
			fn()
			changed = append(changed, name)
		}
	}
	set("projectName", pt.ProjectName != nil, func() { p.ProjectName = strings.TrimSpace(*pt.ProjectName) })
	set("developer", pt.Developer != nil, func() { p.Developer = strings.TrimSpace(*pt.Developer) })
	set("location", pt.Location != nil, func() { p.Location = strings.TrimSpace(*pt.Location) })
	set("type", pt.Type != nil, func() { p.Type = strings.TrimSpace(*pt.Type) })
	set("bedrooms", pt.Bedrooms != nil, func() { p.Bedrooms = *pt.Bedrooms })
	set("status", pt.Status != nil, func() { p.Status = *pt.Status })
	set("currency", pt.Currency != nil, func() { p.Currency = strings.ToUpper(strings.TrimSpace(*pt.Currency)) })
	set("price", pt.Price != nil, func() { p.Price = *pt.Price })
	set("areaSqFt", pt.AreaSqFt != nil, func() { p.AreaSqFt = *pt.AreaSqFt })
	set("areaSqM", pt.AreaSqM != nil, func() { p.AreaSqM = *pt.AreaSqM })
	set("dldPercent", pt.DLDPercent != nil, func() { v := *pt.DLDPercent; p.DLDPercent = &v })
	set("serviceChargePerSqFt", pt.ServiceChargePerSqFt != nil, func() { p.ServiceChargePerSqFt = *pt.ServiceChargePerSqFt })
	set("paymentPlan", pt.PaymentPlan != nil, func() { p.PaymentPlan = *pt.PaymentPlan })
	set("projections", pt.Projections != nil, func() { p.Projections = *pt.Projections })
	set("ratings", pt.Ratings != nil, func() { p.Ratings = pt.Ratings })
	set("exitStrategies", pt.ExitStrategies != nil, func() { p.ExitStrategies = *pt.ExitStrategies })
	return changed
}

// ValidateRecord runs every wizard-step check over a full record.
func ValidateRecord(p domain.Project) validation.FieldErrors {
	errs := validation.ValidatePropertyDetails(p)
	errs.Merge(prefixed("paymentPlan.", validation.ValidatePaymentPlan(p.PaymentPlan)))
	errs.Merge(prefixed("projections.", validation.ValidateProjections(p.Projections)))
	errs.Merge(validation.ValidateRatings(p.Ratings))
	return errs
}

func prefixed(prefix string, errs validation.FieldErrors) validation.FieldErrors {
	out := validation.FieldErrors{}
	for k, v := range errs {
		out[prefix+k] = v
	}
	return out
}

// Update edits a committed project. An edit that leaves the record invalid is
// rejected with validation.FieldErrors and nothing is written.
func (s *Service) Update(ctx context.Context, agentID uuid.UUID, id string, patch Patch) (*domain.Project, error) {
	p, err := s.Get(ctx, agentID, id)
	if err != nil {
		return nil, err
	}
	changed := patch.apply(p)
	if len(changed) == 0 {
		return nil, ErrNothingToUpdate
	}
	if errs := ValidateRecord(*p); len(errs) > 0 {
		return nil, errs
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		return recordEvent(tx, p, domain.ProjectEventUpdated, map[string]interface{}{"fields": changed})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ToggleLike flips isLiked.
func (s *Service) ToggleLike(ctx context.Context, agentID uuid.UUID, id string) (*domain.Project, error) {
	return s.toggle(ctx, agentID, id, "is_liked", domain.ProjectEventLiked, func(p *domain.Project) bool {
		p.IsLiked = !p.IsLiked
		return p.IsLiked
	})
}

// ToggleSold flips isSold.
func (s *Service) ToggleSold(ctx context.Context, agentID uuid.UUID, id string) (*domain.Project, error) {
	return s.toggle(ctx, agentID, id, "is_sold", domain.ProjectEventSold, func(p *domain.Project) bool {
		p.IsSold = !p.IsSold
		return p.IsSold
	})
}

func (s *Service) toggle(ctx context.Context, agentID uuid.UUID, id, column, event string, flip func(*domain.Project) bool) (*domain.Project, error) {
	p, err := s.Get(ctx, agentID, id)
	if err != nil {
		return nil, err
	}
	value := flip(p)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(p).Update(column, value)
		if res.Error != nil {
			return res.Error
		}
		return recordEvent(tx, p, event, map[string]interface{}{"value": value})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the project row. Events are kept as the audit trail.
func (s *Service) Delete(ctx context.Context, agentID uuid.UUID, id string) error {
	p, err := s.Get(ctx, agentID, id)
	if err != nil {
		return err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", p.ProjectID).Delete(&domain.Project{}).Error; err != nil {
			return err
		}
		return recordEvent(tx, p, domain.ProjectEventDeleted, map[string]interface{}{"projectName": p.ProjectName})
	})
	if err != nil {
		return err
	}
	s.forgetAnalytics(ctx, p)
	return nil
}

// Events returns the audit trail of one project, oldest first. It outlives the project.
func (s *Service) Events(ctx context.Context, agentID uuid.UUID, id string) ([]domain.ProjectEvent, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var events []domain.ProjectEvent
	if err := s.DB.WithContext(ctx).
		Where("project_id = ? AND agent_id = ?", pid, agentID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrProjectNotFound
	}
	return events, nil
}

func recordEvent(tx *gorm.DB, p *domain.Project, eventType string, data map[string]interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return tx.Create(&domain.ProjectEvent{
		ProjectID: p.ProjectID,
		AgentID:   p.AgentID,
		EventType: eventType,
		EventData: datatypes.JSON(b),
	}).Error
}

func (s *Service) cacheTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return defaultCacheTTL
}

// analyticsKey changes whenever the record does, so stale entries are never read.
func analyticsKey(p *domain.Project) string {
	return fmt.Sprintf("%s%s:%d", analyticsPrefix, p.ProjectID, p.UpdatedAt.UnixNano())
}

// Analytics returns the derived analysis of a committed project, cached in Redis by record version.
func (s *Service) Analytics(ctx context.Context, agentID uuid.UUID, id string) (*finance.Analysis, error) {
	p, err := s.Get(ctx, agentID, id)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, p)
}

func (s *Service) analyze(ctx context.Context, p *domain.Project) (*finance.Analysis, error) {
	key := analyticsKey(p)
	if s.Rdb != nil {
		if b, err := s.Rdb.Get(ctx, key).Bytes(); err == nil {
			var cached finance.Analysis
			if json.Unmarshal(b, &cached) == nil {
				return &cached, nil
			}
		}
	}
	a, err := finance.Analyze(*p, s.Options)
	if err != nil {
		return nil, err
	}
	if s.Rdb != nil {
		if b, err := json.Marshal(a); err == nil {
			if err := s.Rdb.Set(ctx, key, b, s.cacheTTL()).Err(); err != nil {
				log.Warn().Err(err).Str("project_id", p.ProjectID.String()).Msg("analytics cache write failed")
			}
		}
	}
	return &a, nil
}

func (s *Service) forgetAnalytics(ctx context.Context, p *domain.Project) {
	if s.Rdb == nil {
		return
	}
	_ = s.Rdb.Del(ctx, analyticsKey(p)).Err()
}

// TimelineSnap is the installment a scrub position lands on.
type TimelineSnap struct {
	Position float64                `json:"position"`
	Index    int                    `json:"index"`
	Count    int                    `json:"count"`
	Point    *finance.TimelinePoint `json:"point"`
}

// TimelineAt snaps position in [0,1] to a discrete installment of the project's timeline.
func (s *Service) TimelineAt(ctx context.Context, agentID uuid.UUID, id string, position float64) (*TimelineSnap, error) {
	a, err := s.Analytics(ctx, agentID, id)
	if err != nil {
		return nil, err
	}
	snap := &TimelineSnap{Position: position, Count: len(a.Timeline)}
	snap.Index = finance.InterpolatePosition(a.Timeline, position)
	if pt, ok := finance.ValueAtIndex(a.Timeline, snap.Index); ok {
		snap.Point = &pt
	}
	return snap, nil
}
