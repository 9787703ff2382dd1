package projects

import (
	"context"
	"testing"
	"time"

	"liyantis-backend/internal/domain"
	"liyantis-backend/internal/finance"
	"liyantis-backend/internal/infrastructure/kvstore"
	"liyantis-backend/internal/pkg/validation"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	svc    *Service
	drafts *DraftService
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Project{}, &domain.ProjectEvent{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := &Service{DB: db, Rdb: rdb, Options: finance.DefaultOptions()}
	drafts := &DraftService{
		Store:              &kvstore.RedisStore{Rdb: rdb},
		Projects:           svc,
		DownPaymentPercent: 10,
		Now:                func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) },
	}
	return &fixture{db: db, mr: mr, rdb: rdb, svc: svc, drafts: drafts}
}

func seed(t *testing.T, f *fixture, agent uuid.UUID, name, developer string, price float64, created time.Time) *domain.Project {
	t.Helper()
	p := &domain.Project{
		AgentID:     agent,
		ProjectName: name,
		Developer:   developer,
		Type:        "Apartment",
		Status:      domain.StatusOffPlan,
		Price:       price,
		AreaSqFt:    775,
		AreaSqM:     72,
		PaymentPlan: domain.PaymentPlan{DuringConstructionPercent: 40, OnHandoverPercent: 60, FlipAtPercent: 35, HandoverAtPercent: 70},
		Ratings:     domain.Ratings{},
		CreatedAt:   created,
	}
	require.NoError(t, f.svc.create(context.Background(), p))
	return p
}

func names(ps []domain.Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ProjectName
	}
	return out
}

func TestList_FilterSearchSort(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	agent := uuid.New()
	other := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	weave := seed(t, f, agent, "The Weave", "Al Ghurair", 1225000, base)
	seed(t, f, agent, "azure Bay", "Emaar", 2400000, base.Add(time.Hour))
	creek := seed(t, f, agent, "Creek Vista", "Sobha", 900000, base.Add(2*time.Hour))
	seed(t, f, other, "Not Mine", "Emaar", 100, base)

	all, err := f.svc.List(ctx, agent, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Creek Vista", "azure Bay", "The Weave"}, names(all))

	az, err := f.svc.List(ctx, agent, ListQuery{Sort: SortNameAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"azure Bay", "Creek Vista", "The Weave"}, names(az))

	za, err := f.svc.List(ctx, agent, ListQuery{Sort: SortNameDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"The Weave", "Creek Vista", "azure Bay"}, names(za))

	cheap, err := f.svc.List(ctx, agent, ListQuery{Sort: SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Creek Vista", "The Weave", "azure Bay"}, names(cheap))

	dear, err := f.svc.List(ctx, agent, ListQuery{Sort: SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, "azure Bay", dear[0].ProjectName)

	byDev, err := f.svc.List(ctx, agent, ListQuery{Search: "EMAAR"})
	require.NoError(t, err)
	assert.Equal(t, []string{"azure Bay"}, names(byDev))

	byName, err := f.svc.List(ctx, agent, ListQuery{Search: "weave"})
	require.NoError(t, err)
	assert.Equal(t, []string{"The Weave"}, names(byName))

	pct, err := f.svc.List(ctx, agent, ListQuery{Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, pct)

	_, err = f.svc.ToggleLike(ctx, agent, weave.ProjectID.String())
	require.NoError(t, err)
	_, err = f.svc.ToggleSold(ctx, agent, creek.ProjectID.String())
	require.NoError(t, err)

	fav, err := f.svc.List(ctx, agent, ListQuery{Filter: FilterFavourites})
	require.NoError(t, err)
	assert.Equal(t, []string{"The Weave"}, names(fav))

	sold, err := f.svc.List(ctx, agent, ListQuery{Filter: FilterSold})
	require.NoError(t, err)
	assert.Equal(t, []string{"Creek Vista"}, names(sold))

	_, err = f.svc.List(ctx, agent, ListQuery{Filter: "archived"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
	_, err = f.svc.List(ctx, agent, ListQuery{Sort: "rating"})
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestGet_ScopedToAgent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	agent := uuid.New()
	p := seed(t, f, agent, "The Weave", "Al Ghurair", 1225000, time.Now())

	got, err := f.svc.Get(ctx, agent, p.ProjectID.String())
	require.NoError(t, err)
	assert.Equal(t, "The Weave", got.ProjectName)

	_, err = f.svc.Get(ctx, uuid.New(), p.ProjectID.String())
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = f.svc.Get(ctx, agent, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidProjectID)
}

func TestToggle_FlipsBackAndRecordsEvents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	agent := uuid.New()
	p := seed(t, f, agent, "The Weave", "Al Ghurair", 1225000, time.Now())
	id := p.ProjectID.String()

	liked, err := f.svc.ToggleLike(ctx, agent, id)
	require.NoError(t, err)
	assert.True(t, liked.IsLiked)
	unliked, err := f.svc.ToggleLike(ctx, agent, id)
	require.NoError(t, err)
	assert.False(t, unliked.IsLiked)

	events, err := f.svc.Events(ctx, agent, id)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.ProjectEventCreated, events[0].EventType)
	assert.Equal(t, domain.ProjectEventLiked, events[1].EventType)
	assert.JSONEq(t, `{"value":true}`, string(events[1].EventData))
	assert.JSONEq(t, `{"value":false}`, string(events[2].EventData))
}

func TestUpdate_ValidatesBeforeWriting(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	agent := uuid.New()
	p := seed(t, f, agent, "The Weave", "Al Ghurair", 1225000, time.Now())
	id := p.ProjectID.String()

	_, err := f.svc.Update(ctx, agent, id, Patch{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	badFlip := domain.PaymentPlan{DuringConstructionPercent: 40, OnHandoverPercent: 60, FlipAtPercent: 80, HandoverAtPercent: 70}
	_, err = f.svc.Update(ctx, agent, id, Patch{PaymentPlan: &badFlip})
	var fe validation.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "paymentPlan.flipAtPercent")

	stored, err := f.svc.Get(ctx, agent, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Percent(35), stored.PaymentPlan.FlipAtPercent)

	name := "  The Weave II "
	price := 1300000.0
	updated, err := f.svc.Update(ctx, agent, id, Patch{ProjectName: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "The Weave II", updated.ProjectName)
	assert.Equal(t, 1300000.0, updated.Price)

	events, err := f.svc.Events(ctx, agent, id)
	require.NoError(t, err)
	last := events[len(events)-1]
	assert.Equal(t, domain.ProjectEventUpdated, last.EventType)
	assert.JSONEq(t, `{"fields":["projectName","price"]}`, string(last.EventData))
}

func TestDelete_KeepsEvents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	agent := uuid.New()
	p := seed(t, f, agent, "The Weave", "Al Ghurair", 1225000, time.Now())
	id := p.ProjectID.String()

	require.NoError(t, f.svc.Delete(ctx, agent, id))
	_, err := f.svc.Get(ctx, agent, id)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, agent, id), ErrProjectNotFound)

	events, err := f.svc.Events(ctx, agent, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectEventDeleted, events[len(events)-1].EventType)

	_, err = f.svc.Events(ctx, agent, uuid.NewString())
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestAnalytics_CachedByVersion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	agent := uuid.New()
	p := seed(t, f, agent, "The Weave", "Al Ghurair", 1225000, time.Now())
	id := p.ProjectID.String()

	a, err := f.svc.Analytics(ctx, agent, id)
	require.NoError(t, err)
	assert.Equal(t, int64(49000), a.Financials.DLDFeeAmount)
	assert.Equal(t, "40/60", a.PaymentPlanSummary)
	assert.Equal(t, "5.0", a.Rating)

	stored, err := f.svc.Get(ctx, agent, id)
	require.NoError(t, err)
	key := analyticsKey(stored)
	assert.True(t, f.mr.Exists(key))
	assert.Equal(t, defaultCacheTTL, f.mr.TTL(key))

	again, err := f.svc.Analytics(ctx, agent, id)
	require.NoError(t, err)
	assert.Equal(t, a.Financials.NetAcquisitionCost.String(), again.Financials.NetAcquisitionCost.String())
}

func TestAnalytics_WithoutRedis(t *testing.T) {
	f := setup(t)
	f.svc.Rdb = nil
	agent := uuid.New()
	p := seed(t, f, agent, "The Weave", "Al Ghurair", 1225000, time.Now())

	a, err := f.svc.Analytics(context.Background(), agent, p.ProjectID.String())
	require.NoError(t, err)
	assert.Equal(t, "1.225mn", a.PriceDisplay)
}

func TestTimelineAt_Snaps(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	agent := uuid.New()
	p := seed(t, f, agent, "The Weave", "Al Ghurair", 1000000, time.Now())
	plan := p.PaymentPlan
	plan.Installments = []domain.Installment{
		{Ordinal: 1, Date: "2026-01", Percent: 10, Stage: domain.StageDownPayment},
		{Ordinal: 2, Date: "2026-06", Percent: 40, Stage: domain.StageDuringConstruction},
		{Ordinal: 3, Date: "2027-06", Percent: 100, Stage: domain.StageOnHandover},
	}
	_, err := f.svc.Update(ctx, agent, p.ProjectID.String(), Patch{PaymentPlan: &plan})
	require.NoError(t, err)

	snap, err := f.svc.TimelineAt(ctx, agent, p.ProjectID.String(), 0.5)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Count)
	assert.Equal(t, 1, snap.Index)
	require.NotNil(t, snap.Point)
	assert.Equal(t, 2, snap.Point.Ordinal)

	end, err := f.svc.TimelineAt(ctx, agent, p.ProjectID.String(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, end.Index)
}

func TestTimelineAt_EmptyPlan(t *testing.T) {
	f := setup(t)
	agent := uuid.New()
	p := seed(t, f, agent, "The Weave", "Al Ghurair", 1000000, time.Now())

	snap, err := f.svc.TimelineAt(context.Background(), agent, p.ProjectID.String(), 0.5)
	require.NoError(t, err)
	assert.Equal(t, -1, snap.Index)
	assert.Nil(t, snap.Point)
}
