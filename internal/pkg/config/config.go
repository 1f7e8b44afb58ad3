package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, rate windows, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	OTP     OTPConfig
	Stripe  StripeConfig
	SMTP    SMTPConfig
	SNS     SNSConfig
	Pricing PricingConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type JWTConfig struct {
	Secret        string        `envconfig:"JWT_SECRET" required:"true"`
	Duration      time.Duration `envconfig:"JWT_DURATION" default:"24h"`
	GuestDuration time.Duration `envconfig:"JWT_GUEST_DURATION" default:"30m"`
}

type OTPConfig struct {
	// Secret keys the HMAC over candidate codes; rotating it invalidates
	// every outstanding code.
	Secret           string        `envconfig:"OTP_SECRET" required:"true"`
	TTL              time.Duration `envconfig:"OTP_TTL" default:"10m"`
	MaxAttempts      int           `envconfig:"OTP_MAX_ATTEMPTS" default:"5"`
	RateLimitWindow  time.Duration `envconfig:"OTP_RATE_WINDOW" default:"15m"`
	RateLimitPerKey  int           `envconfig:"OTP_RATE_PER_BOOKING" default:"10"`
	RateLimitPerAddr int           `envconfig:"OTP_RATE_PER_ADDR" default:"20"`
}

type StripeConfig struct {
	SecretKey      string        `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	RequestTimeout time.Duration `envconfig:"STRIPE_REQUEST_TIMEOUT" default:"20s"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST" default:"localhost"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME" default:""`
	Password string `envconfig:"SMTP_PASSWORD" default:""`
	From     string `envconfig:"SMTP_FROM" default:"bookings@fleetbook.example"`
}

type SNSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// PricingConfig carries every rate that is not sourced from the store.
// It is injected into the pricing engine so rate regimes can change
// without recompilation.
type PricingConfig struct {
	WeekendSurchargeRate  float64 `envconfig:"PRICING_WEEKEND_SURCHARGE_RATE" default:"0.15"`
	WeeklyDiscountRate    float64 `envconfig:"PRICING_WEEKLY_DISCOUNT_RATE" default:"0.10"`
	WeeklyDiscountDays    int     `envconfig:"PRICING_WEEKLY_DISCOUNT_DAYS" default:"7"`
	MonthlyDiscountRate   float64 `envconfig:"PRICING_MONTHLY_DISCOUNT_RATE" default:"0.20"`
	MonthlyDiscountDays   int     `envconfig:"PRICING_MONTHLY_DISCOUNT_DAYS" default:"21"`
	YoungDriverDailyCents int64   `envconfig:"PRICING_YOUNG_DRIVER_DAILY_CENTS" default:"2500"`
	RoadSafetyFeeCents    int64   `envconfig:"PRICING_ROAD_SAFETY_FEE_CENTS" default:"150"`
	EnvironmentalFeeCents int64   `envconfig:"PRICING_ENVIRONMENTAL_FEE_CENTS" default:"100"`
	TaxRatePrimary        float64 `envconfig:"PRICING_TAX_RATE_PRIMARY" default:"0.05"`
	TaxRateSecondary      float64 `envconfig:"PRICING_TAX_RATE_SECONDARY" default:"0.07"`
	DepositMinimumCents   int64   `envconfig:"PRICING_DEPOSIT_MINIMUM_CENTS" default:"20000"`
	PriceToleranceCents   int64   `envconfig:"PRICING_TOLERANCE_CENTS" default:"50"`
	AdditionalDriverDaily int64   `envconfig:"PRICING_ADDITIONAL_DRIVER_DAILY_CENTS" default:"1000"`
	AdditionalDriverYoung int64   `envconfig:"PRICING_ADDITIONAL_DRIVER_YOUNG_DAILY_CENTS" default:"1800"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Level: "error",
		},
		JWT: JWTConfig{
			Secret:        "test-secret",
			Duration:      time.Hour,
			GuestDuration: 30 * time.Minute,
		},
		OTP: OTPConfig{
			Secret:           "test-otp-secret",
			TTL:              10 * time.Minute,
			MaxAttempts:      5,
			RateLimitWindow:  15 * time.Minute,
			RateLimitPerKey:  10,
			RateLimitPerAddr: 20,
		},
		Pricing: NewTestPricingConfig(),
	}
}

// NewTestPricingConfig mirrors the envconfig defaults so pricing tests do not
// depend on the environment.
func NewTestPricingConfig() PricingConfig {
	return PricingConfig{
		WeekendSurchargeRate:  0.15,
		WeeklyDiscountRate:    0.10,
		WeeklyDiscountDays:    7,
		MonthlyDiscountRate:   0.20,
		MonthlyDiscountDays:   21,
		YoungDriverDailyCents: 2500,
		RoadSafetyFeeCents:    150,
		EnvironmentalFeeCents: 100,
		TaxRatePrimary:        0.05,
		TaxRateSecondary:      0.07,
		DepositMinimumCents:   20000,
		PriceToleranceCents:   50,
		AdditionalDriverDaily: 1000,
		AdditionalDriverYoung: 1800,
	}
}
