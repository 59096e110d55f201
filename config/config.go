package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration. It is loaded once at startup into
// AppConfig and read from there by handlers and middleware.
type Config struct {
	Port     string `mapstructure:"port"`
	AppEnv   string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	DatabaseURL string `mapstructure:"database_url"`

	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`

	StripeSecretKey     string `mapstructure:"stripe_secret_key"`
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret"`
	StripePricePro      string `mapstructure:"stripe_price_pro"`
	StripePriceProPlus  string `mapstructure:"stripe_price_pro_plus"`
	CheckoutSuccessURL  string `mapstructure:"checkout_success_url"`
	CheckoutCancelURL   string `mapstructure:"checkout_cancel_url"`

	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`

	// MaxUploadMB caps any single upload regardless of plan.
	MaxUploadMB int `mapstructure:"max_upload_mb"`
	// CostRatioBaseline overrides the profitability baseline when > 0.
	CostRatioBaseline float64 `mapstructure:"cost_ratio_baseline"`

	UsageResetSchedule string `mapstructure:"usage_reset_schedule"`
	CORSOrigins        string `mapstructure:"cors_origins"`
}

// AppConfig holds the application-wide configuration
var AppConfig Config

var keys = []string{
	"port", "app_env", "log_level", "database_url",
	"jwt_secret", "jwt_issuer",
	"stripe_secret_key", "stripe_webhook_secret", "stripe_price_pro", "stripe_price_pro_plus",
	"checkout_success_url", "checkout_cancel_url",
	"gemini_api_key", "gemini_model",
	"max_upload_mb", "cost_ratio_baseline", "usage_reset_schedule", "cors_origins",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_issuer", "")
	v.SetDefault("gemini_model", "gemini-2.5-flash-lite")
	v.SetDefault("max_upload_mb", 50)
	v.SetDefault("cost_ratio_baseline", 0)
	v.SetDefault("usage_reset_schedule", "0 0 1 * *")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("checkout_success_url", "http://localhost:5173/billing/success")
	v.SetDefault("checkout_cancel_url", "http://localhost:5173/billing/cancel")
}

// Load reads an optional .env file and the process environment into
// AppConfig. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return &AppConfig, nil
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.CostRatioBaseline < 0 || c.CostRatioBaseline >= 1 {
		return fmt.Errorf("COST_RATIO_BASELINE must be in [0, 1), got %v", c.CostRatioBaseline)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// StripeEnabled reports whether billing endpoints can talk to Stripe.
func (c Config) StripeEnabled() bool {
	return c.StripeSecretKey != ""
}

// PriceFor maps a paid plan tier to its Stripe price id.
func (c Config) PriceFor(tier string) (string, bool) {
	var price string
	switch tier {
	case "pro":
		price = c.StripePricePro
	case "pro_plus":
		price = c.StripePriceProPlus
	}
	return price, price != ""
}
