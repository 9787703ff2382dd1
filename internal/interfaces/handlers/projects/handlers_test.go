package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	projectsvc "liyantis-backend/internal/application/projects"
	"liyantis-backend/internal/application/reports"
	"liyantis-backend/internal/domain"
	"liyantis-backend/internal/finance"
	"liyantis-backend/internal/infrastructure/kvstore"
	"liyantis-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memStorage struct{ objects map[string][]byte }

func (m *memStorage) Upload(ctx context.Context, bucket, path, contentType string, body []byte) error {
	m.objects[bucket+"/"+path] = body
	return nil
}

func (m *memStorage) SignedURL(ctx context.Context, bucket, path string, expiresIn time.Duration) (string, error) {
	return "https://files.example.com/" + bucket + "/" + path, nil
}

// setupApp wires the handlers behind a stub session that logs in agent.
func setupApp(t *testing.T, agent uuid.UUID, storage reports.Storage) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Project{}, &domain.ProjectEvent{}))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := &projectsvc.Service{DB: db, Rdb: rdb, Options: finance.DefaultOptions()}
	drafts := &projectsvc.DraftService{Store: &kvstore.RedisStore{Rdb: rdb}, Projects: svc}
	ph := &Handlers{Service: svc, Reports: &reports.Service{Storage: storage}}
	dh := &DraftHandlers{Service: drafts}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.NewErrorHandler(rdb)})
	app.Use(func(c *fiber.Ctx) error {
		if agent != uuid.Nil {
			c.Locals("user", map[string]interface{}{"user_id": agent.String()})
		}
		return c.Next()
	})
	api := app.Group("/api/v1", middleware.RequireAuth())
	api.Get("/projects", ph.List)
	api.Get("/projects/:id", ph.Get)
	api.Patch("/projects/:id", ph.Update)
	api.Delete("/projects/:id", ph.Delete)
	api.Patch("/projects/:id/like", ph.ToggleLike)
	api.Patch("/projects/:id/sold", ph.ToggleSold)
	api.Get("/projects/:id/analytics", ph.Analytics)
	api.Get("/projects/:id/timeline", ph.Timeline)
	api.Get("/projects/:id/events", ph.Events)
	api.Get("/projects/:id/report.pdf", ph.ReportPDF)
	api.Get("/projects/:id/report.html", ph.ReportHTML)
	api.Post("/projects/:id/report/share", ph.ShareReport)
	api.Get("/drafts", dh.Get)
	api.Delete("/drafts", dh.Discard)
	api.Get("/drafts/analytics", dh.Analytics)
	api.Put("/drafts/details", dh.SaveDetails)
	api.Put("/drafts/payment-plan", dh.SavePaymentPlan)
	api.Put("/drafts/projections", dh.SaveProjections)
	api.Post("/drafts/installments", dh.AddInstallment)
	api.Patch("/drafts/installments/:ordinal", dh.UpdateInstallment)
	api.Delete("/drafts/installments/:ordinal", dh.RemoveInstallment)
	api.Post("/drafts/commit", dh.Commit)
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewReader([]byte(b))
		default:
			raw, _ := json.Marshal(b)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func errorFields(out map[string]interface{}) map[string]interface{} {
	e, _ := out["error"].(map[string]interface{})
	d, _ := e["details"].(map[string]interface{})
	f, _ := d["fields"].(map[string]interface{})
	return f
}

var details = map[string]interface{}{
	"projectName": "The Weave",
	"developer":   "Al Ghurair",
	"location":    "JVC",
	"type":        "Apartment",
	"bedrooms":    1,
	"status":      "Off-Plan",
	"price":       1225000,
	"areaSqFt":    776,
	"areaSqM":     72.09,
}

// commitWeave runs the wizard to the end and returns the new project id.
func commitWeave(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, _ := call(t, app, "PUT", "/api/v1/drafts/details", details)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = call(t, app, "PUT", "/api/v1/drafts/payment-plan", map[string]interface{}{
		"duringConstructionPercent": 40,
		"onHandoverPercent":         60,
		"flipAtPercent":             "35%",
		"handoverAtPercent":         70,
		"installments": []map[string]interface{}{
			{"ordinal": 1, "date": "2026-01", "percent": 10, "stage": "Down Payment"},
			{"ordinal": 2, "date": "2026-06", "percent": 40, "stage": "During Construction"},
			{"ordinal": 3, "date": "2027-06", "percent": 100, "stage": "On Handover"},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = call(t, app, "PUT", "/api/v1/drafts/projections", map[string]interface{}{
		"yoyGrowthBeforeHandover": 8, "yoyGrowthAfterHandover": 5, "rentalYieldPercent": 6,
		"exitStrategy": map[string]interface{}{"conservativePercent": -10, "optimisticPercent": 15},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, out := call(t, app, "POST", "/api/v1/drafts/commit", map[string]interface{}{
		"ratings": map[string]int{"quality": 4, "amenities": 5},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data, _ := out["data"].(map[string]interface{})
	id, _ := data["_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestRequiresAuth(t *testing.T) {
	app := setupApp(t, uuid.Nil, nil)
	resp, _ := call(t, app, "GET", "/api/v1/projects", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWizard_StepValidationKeepsDraft(t *testing.T) {
	app := setupApp(t, uuid.New(), nil)

	resp, _ := call(t, app, "GET", "/api/v1/drafts", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, out := call(t, app, "PUT", "/api/v1/drafts/details", map[string]interface{}{"projectName": "Draft only"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, errorFields(out), "developer")

	resp, out = call(t, app, "GET", "/api/v1/drafts", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data, _ := out["data"].(map[string]interface{})
	project, _ := data["project"].(map[string]interface{})
	assert.Equal(t, "Draft only", project["projectName"])

	resp, out = call(t, app, "PUT", "/api/v1/drafts/payment-plan", `{"flipAtPercent":"abc","handoverAtPercent":70}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Must be a number", errorFields(out)["flipAtPercent"])

	resp, _ = call(t, app, "PUT", "/api/v1/drafts/payment-plan", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, "POST", "/api/v1/drafts/commit", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = call(t, app, "DELETE", "/api/v1/drafts", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = call(t, app, "GET", "/api/v1/drafts", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestWizard_Installments(t *testing.T) {
	app := setupApp(t, uuid.New(), nil)

	resp, _ := call(t, app, "POST", "/api/v1/drafts/installments", nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, out := call(t, app, "POST", "/api/v1/drafts/installments", nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data, _ := out["data"].(map[string]interface{})
	assert.Contains(t, data["errors"], "installments")

	resp, _ = call(t, app, "PATCH", "/api/v1/drafts/installments/2", map[string]interface{}{"percent": "x"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	resp, _ = call(t, app, "PATCH", "/api/v1/drafts/installments/2", map[string]interface{}{"stage": "Down Payment"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	resp, _ = call(t, app, "PATCH", "/api/v1/drafts/installments/1", map[string]interface{}{"percent": 30})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	resp, out = call(t, app, "PATCH", "/api/v1/drafts/installments/2", map[string]interface{}{"percent": 100})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data, _ = out["data"].(map[string]interface{})
	assert.Nil(t, data["errors"])

	resp, _ = call(t, app, "DELETE", "/api/v1/drafts/installments/7", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = call(t, app, "DELETE", "/api/v1/drafts/installments/two", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, _ = call(t, app, "DELETE", "/api/v1/drafts/installments/1", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProjects_Lifecycle(t *testing.T) {
	app := setupApp(t, uuid.New(), nil)
	id := commitWeave(t, app)
	base := "/api/v1/projects/" + id

	resp, _ := call(t, app, "GET", "/api/v1/drafts", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, out := call(t, app, "GET", "/api/v1/projects?filter=all&sort=a-z&q=weave", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	meta, _ := out["metadata"].(map[string]interface{})
	assert.EqualValues(t, 1, meta["count"])

	resp, _ = call(t, app, "GET", "/api/v1/projects?sort=rating", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, out = call(t, app, "PATCH", base+"/like", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data, _ := out["data"].(map[string]interface{})
	assert.Equal(t, true, data["isLiked"])

	resp, out = call(t, app, "GET", base+"/analytics", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data, _ = out["data"].(map[string]interface{})
	assert.Equal(t, "40/60", data["paymentPlanSummary"])
	assert.Equal(t, "9.0", data["rating"])

	resp, out = call(t, app, "GET", base+"/timeline?position=1", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data, _ = out["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["index"])
	resp, _ = call(t, app, "GET", base+"/timeline?position=half", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, out = call(t, app, "PATCH", base, map[string]interface{}{"paymentPlan": map[string]interface{}{"flipAtPercent": "abc"}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, errorFields(out), "paymentPlan.flipAtPercent")

	resp, _ = call(t, app, "PATCH", base, map[string]interface{}{"price": -5})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, out = call(t, app, "PATCH", base, map[string]interface{}{"developer": "Ghurair"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data, _ = out["data"].(map[string]interface{})
	assert.Equal(t, "Ghurair", data["developer"])

	resp, out = call(t, app, "GET", base+"/events", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	meta, _ = out["metadata"].(map[string]interface{})
	assert.EqualValues(t, 3, meta["count"])

	resp, _ = call(t, app, "DELETE", base, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = call(t, app, "GET", base, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = call(t, app, "GET", "/api/v1/projects/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReports(t *testing.T) {
	store := &memStorage{objects: map[string][]byte{}}
	app := setupApp(t, uuid.New(), store)
	id := commitWeave(t, app)
	base := "/api/v1/projects/" + id

	resp, err := app.Test(httptest.NewRequest("GET", base+"/report.pdf", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="The-Weave.pdf"`)
	pdf, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	resp, err = app.Test(httptest.NewRequest("GET", base+"/report.html", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "The Weave")

	r, out := call(t, app, "POST", base+"/report/share", map[string]string{"email": "bad"})
	assert.Equal(t, fiber.StatusBadRequest, r.StatusCode)

	r, out = call(t, app, "POST", base+"/report/share", nil)
	assert.Equal(t, fiber.StatusCreated, r.StatusCode)
	data, _ := out["data"].(map[string]interface{})
	assert.Contains(t, data["url"], "https://files.example.com/reports/")
	assert.Len(t, store.objects, 1)
}

func TestReports_ShareWithoutStorage(t *testing.T) {
	app := setupApp(t, uuid.New(), nil)
	id := commitWeave(t, app)
	resp, _ := call(t, app, "POST", "/api/v1/projects/"+id+"/report/share", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestDraftAnalytics(t *testing.T) {
	app := setupApp(t, uuid.New(), nil)
	resp, _ := call(t, app, "GET", "/api/v1/drafts/analytics", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, app, "PUT", "/api/v1/drafts/details", map[string]interface{}{"projectName": "No area", "areaSqFt": 0})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	resp, _ = call(t, app, "GET", "/api/v1/drafts/analytics", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = call(t, app, "PUT", "/api/v1/drafts/details", details)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, out := call(t, app, "GET", "/api/v1/drafts/analytics", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data, _ := out["data"].(map[string]interface{})
	assert.Equal(t, "1.225mn", data["priceDisplay"])
}
