package config

import (
	"github.com/fusaf/fusaf-service/internal/logger"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Email providers.
const (
	EmailLog    = "log"
	EmailSES    = "ses"
	EmailResend = "resend"
)

type Config struct {
	App      App                 `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger" validate:"-"`
	Postgres Postgres            `mapstructure:"postgres"`
	Storage  Storage             `mapstructure:"storage"`
	Athletes Athletes            `mapstructure:"athletes"`
	Auth     Auth                `mapstructure:"auth"`
	Email    Email               `mapstructure:"email"`
	S3       S3                  `mapstructure:"s3"`
	Backup   Backup              `mapstructure:"backup"`
	LiqPay   LiqPay              `mapstructure:"liqpay"`
	Sheets   Sheets              `mapstructure:"sheets"`
}

type App struct {
	Name            string `mapstructure:"name"`
	Version         string `mapstructure:"version"`
	Env             string `mapstructure:"env"`
	Port            int    `mapstructure:"port" validate:"min=1,max=65535"`
	PublicURL       string `mapstructure:"public_url" validate:"omitempty,url"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" validate:"min=1"` // seconds
}

type Postgres struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	DBName            string `mapstructure:"db"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`   // seconds
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`  // seconds
	HealthCheckPeriod int    `mapstructure:"health_check_period"` // seconds
	Migrate           bool   `mapstructure:"migrate"`
}

type Storage struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres memory"`
}

type Athletes struct {
	SeedDemo bool `mapstructure:"seed_demo"`
}

type Auth struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=16"`
	Issuer    string `mapstructure:"issuer"`
	TokenTTL  int    `mapstructure:"token_ttl_hours" validate:"min=1"`
}

type Email struct {
	Provider     string `mapstructure:"provider" validate:"oneof=log ses resend"`
	From         string `mapstructure:"from" validate:"required"`
	AdminAddress string `mapstructure:"admin_address" validate:"omitempty,email"`
	ResendAPIKey string `mapstructure:"resend_api_key" validate:"required_if=Provider resend"`
	SESRegion    string `mapstructure:"ses_region" validate:"required_if=Provider ses"`
}

type S3 struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
}

// Enabled reports whether backups should be uploaded.
func (s S3) Enabled() bool { return s.Bucket != "" }

type Backup struct {
	Enabled  bool   `mapstructure:"enabled"`
	Dir      string `mapstructure:"dir" validate:"required"`
	Interval int    `mapstructure:"interval_minutes" validate:"min=1"`
}

type LiqPay struct {
	PublicKey         string `mapstructure:"public_key"`
	PrivateKey        string `mapstructure:"private_key"`
	Sandbox           bool   `mapstructure:"sandbox"`
	CheckoutURL       string `mapstructure:"checkout_url" validate:"url"`
	APIURL            string `mapstructure:"api_url" validate:"url"`
	ResultURL         string `mapstructure:"result_url" validate:"omitempty,url"`
	ServerURL         string `mapstructure:"server_url" validate:"omitempty,url"`
	PaymentTTL        int    `mapstructure:"payment_ttl_minutes" validate:"min=1"`
	ReconcileInterval int    `mapstructure:"reconcile_interval_seconds" validate:"min=1"`
}

type Sheets struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Range           string `mapstructure:"range"`
}

// Enabled reports whether the Google Sheets export is configured.
func (s Sheets) Enabled() bool { return s.CredentialsFile != "" && s.SpreadsheetID != "" }
