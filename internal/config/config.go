package config

import (
	"errors"
	"os"
	"strings"

	"liyantis-backend/internal/domain"
	"liyantis-backend/internal/finance"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var ErrInvalidFinanceSetting = errors.New("invalid finance setting")

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	SupabaseURL         string // storage endpoint for shared reports
	SupabaseSecretKey   string // service_role key, not the anon key
	ReportsBucket       string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	SendinblueAPIKey    string // Brevo key for the welcome email
	MailFrom            string

	// Financial model constants.
	LegalFee               decimal.Decimal
	AgentCommissionPercent decimal.Decimal
	DownPaymentPercent     float64
	LongTermHoldYears      int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("LEGAL_FEE", "5000")
	viper.SetDefault("AGENT_COMMISSION_PERCENT", "2")
	viper.SetDefault("DOWN_PAYMENT_PERCENT", domain.DefaultDownPaymentPercent)
	viper.SetDefault("LONG_TERM_HOLD_YEARS", finance.DefaultLongTermHoldYears)
	viper.SetDefault("REPORTS_BUCKET", "reports")
	viper.SetDefault("MAIL_FROM", "noreply@liyantis.com")

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL_DEV")
	}

	legalFee, err := decimal.NewFromString(viper.GetString("LEGAL_FEE"))
	if err != nil || legalFee.IsNegative() {
		return nil, errors.Join(ErrInvalidFinanceSetting, errors.New("LEGAL_FEE"))
	}
	commission, err := decimal.NewFromString(viper.GetString("AGENT_COMMISSION_PERCENT"))
	if err != nil || commission.IsNegative() {
		return nil, errors.Join(ErrInvalidFinanceSetting, errors.New("AGENT_COMMISSION_PERCENT"))
	}
	downPayment := viper.GetFloat64("DOWN_PAYMENT_PERCENT")
	if downPayment < 0 || downPayment > 100 {
		return nil, errors.Join(ErrInvalidFinanceSetting, errors.New("DOWN_PAYMENT_PERCENT"))
	}

	return &Config{
		Env:                    env,
		Port:                   port,
		SessionSecret:          viper.GetString("SESSION_SECRET"),
		DatabaseURL:            dbURL,
		RedisURL:               viper.GetString("REDIS_URL"),
		SupabaseURL:            viper.GetString("SUPABASE_URL"),
		SupabaseSecretKey:      viper.GetString("SUPABASE_SECRET_KEY"),
		ReportsBucket:          viper.GetString("REPORTS_BUCKET"),
		FrontendURLEndsWith:    viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:            viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:      strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:         viper.GetString("HEALTH_ADMIN_KEY"),
		SendinblueAPIKey:       viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:               viper.GetString("MAIL_FROM"),
		LegalFee:               legalFee,
		AgentCommissionPercent: commission,
		DownPaymentPercent:     downPayment,
		LongTermHoldYears:      viper.GetInt("LONG_TERM_HOLD_YEARS"),
	}, nil
}

// FinanceOptions builds the model options from configuration.
func (c *Config) FinanceOptions() finance.Options {
	return finance.Options{
		Fees: finance.FeeSchedule{
			LegalFee:               c.LegalFee,
			AgentCommissionPercent: c.AgentCommissionPercent,
		},
		LongTermHoldYears: c.LongTermHoldYears,
	}
}
