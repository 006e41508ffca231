package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"rentsphere"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	JWTSecret          string   `envconfig:"JWT_SECRET"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173,http://localhost:8080"`

	LogDir   string `envconfig:"LOG_DIR" default:"logs"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Payments      PaymentConfig
	Notifications NotificationConfig

	SweeperSchedule string `envconfig:"SWEEPER_SCHEDULE" default:"@every 15m"`
	SeedDemoData    bool   `envconfig:"SEED_DEMO_DATA" default:"false"`
}

// PaymentConfig holds payment provider credentials and behaviour
type PaymentConfig struct {
	DefaultProvider string        `envconfig:"PAYMENT_DEFAULT_PROVIDER" default:"STRIPE"`
	Currency        string        `envconfig:"PAYMENT_CURRENCY" default:"INR"`
	ProviderTimeout time.Duration `envconfig:"PAYMENT_PROVIDER_TIMEOUT" default:"10s"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	RazorpayKey           string `envconfig:"RAZORPAY_KEY"`
	RazorpaySecret        string `envconfig:"RAZORPAY_SECRET"`
	RazorpayWebhookSecret string `envconfig:"RAZORPAY_WEBHOOK_SECRET"`

	// Used when a provider has no credentials, so development webhooks are still signed.
	PlaceholderWebhookSecret string `envconfig:"PLACEHOLDER_WEBHOOK_SECRET" default:"dev-webhook-secret"`
}

// NotificationConfig holds the best-effort notification sinks. Empty values disable a sink.
type NotificationConfig struct {
	Timeout    time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`
	WebhookURL string        `envconfig:"BOOKING_WEBHOOK_URL"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"rentsphere.bookings"`
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// DSN builds the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// LoadConfig loads configuration from the environment, reading .env first when present
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %v", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error reading environment: %v", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() {
		missing := []string{}
		if c.JWTSecret == "" {
			missing = append(missing, "JWT_SECRET")
		}
		if c.DBPassword == "" {
			missing = append(missing, "DB_PASSWORD")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
		}
	}

	switch strings.ToUpper(c.Payments.DefaultProvider) {
	case "STRIPE", "RAZORPAY":
		c.Payments.DefaultProvider = strings.ToUpper(c.Payments.DefaultProvider)
	default:
		return fmt.Errorf("PAYMENT_DEFAULT_PROVIDER must be STRIPE or RAZORPAY, got %q", c.Payments.DefaultProvider)
	}
	if c.Payments.ProviderTimeout <= 0 {
		return fmt.Errorf("PAYMENT_PROVIDER_TIMEOUT must be positive")
	}
	return nil
}
