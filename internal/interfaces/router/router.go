package router

import (
	"net/http"

	authsvc "liyantis-backend/internal/application/auth"
	emailsvc "liyantis-backend/internal/application/emails"
	projectsvc "liyantis-backend/internal/application/projects"
	"liyantis-backend/internal/application/reports"
	"liyantis-backend/internal/config"
	"liyantis-backend/internal/infrastructure/database"
	"liyantis-backend/internal/infrastructure/kvstore"
	authhandler "liyantis-backend/internal/interfaces/handlers/auth"
	healthhandler "liyantis-backend/internal/interfaces/handlers/health"
	projecthandler "liyantis-backend/internal/interfaces/handlers/projects"
	"liyantis-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CreateApp wires middleware, services and routes. The database is optional so
// the health endpoints still answer when Postgres is not configured.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.NewErrorHandler(rdb),
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{Rdb: rdb, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, nil, err
		}
		hh.DB = sqlDB
	} else {
		log.Warn().Msg("DATABASE_URL not set; only health routes are served")
	}

	if db == nil {
		return app, nil, rdb, nil
	}

	var emailSender emailsvc.Sender
	if cfg.SendinblueAPIKey != "" {
		emailSender = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
	}

	// Auth
	ah := &authhandler.Handlers{
		Service:    &authsvc.Service{DB: db, EmailSender: emailSender},
		UserFinder: &authsvc.GormUserFinder{DB: db},
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/register", ah.Register)
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)
	authGroup.Delete("/sessions", middleware.RequireAuth(), ah.LogoutAll)

	// Projects and reports
	ps := &projectsvc.Service{DB: db, Rdb: rdb, Options: cfg.FinanceOptions()}
	rs := &reports.Service{Bucket: cfg.ReportsBucket, Mailer: emailSender}
	if cfg.SupabaseURL != "" {
		rs.Storage = &reports.SupabaseStorage{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey}
	}
	ph := &projecthandler.Handlers{Service: ps, Reports: rs}
	pg := app.Group("/api/v1/projects", middleware.RequireAuth())
	pg.Get("", ph.List)
	pg.Get("/:id", ph.Get)
	pg.Patch("/:id", ph.Update)
	pg.Delete("/:id", ph.Delete)
	pg.Patch("/:id/like", ph.ToggleLike)
	pg.Patch("/:id/sold", ph.ToggleSold)
	pg.Get("/:id/analytics", ph.Analytics)
	pg.Get("/:id/timeline", ph.Timeline)
	pg.Get("/:id/events", ph.Events)
	pg.Get("/:id/report.pdf", ph.ReportPDF)
	pg.Get("/:id/report.html", ph.ReportHTML)
	pg.Post("/:id/report/share", ph.ShareReport)

	// Creation wizard
	ds := &projectsvc.DraftService{
		Store:              &kvstore.RedisStore{Rdb: rdb},
		Projects:           ps,
		DownPaymentPercent: cfg.DownPaymentPercent,
	}
	dh := &projecthandler.DraftHandlers{Service: ds}
	dg := app.Group("/api/v1/drafts", middleware.RequireAuth())
	dg.Get("", dh.Get)
	dg.Delete("", dh.Discard)
	dg.Put("/details", dh.SaveDetails)
	dg.Put("/payment-plan", dh.SavePaymentPlan)
	dg.Put("/projections", dh.SaveProjections)
	dg.Post("/installments", dh.AddInstallment)
	dg.Patch("/installments/:ordinal", dh.UpdateInstallment)
	dg.Delete("/installments/:ordinal", dh.RemoveInstallment)
	dg.Post("/commit", dh.Commit)
	dg.Get("/analytics", dh.Analytics)

	return app, db, rdb, nil
}

// Handler adapts the Fiber app to net/http for serverless runtimes.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
