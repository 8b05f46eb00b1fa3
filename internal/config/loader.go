package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// secrets are never expected in config.yaml; they are bound to APP_* env
// names explicitly so AutomaticEnv sees them even when the key is absent.
var secrets = []string{
	"postgres.user",
	"postgres.password",
	"postgres.db",
	"auth.jwt_secret",
	"email.resend_api_key",
	"s3.access_key_id",
	"s3.secret_access_key",
	"liqpay.public_key",
	"liqpay.private_key",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fusaf-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.shutdown_timeout", 10)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 300)
	v.SetDefault("postgres.health_check_period", 30)
	v.SetDefault("postgres.migrate", true)

	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("athletes.seed_demo", false)

	v.SetDefault("auth.issuer", "fusaf")
	v.SetDefault("auth.token_ttl_hours", 24)

	v.SetDefault("email.provider", EmailLog)
	v.SetDefault("email.from", "ФУСАФ <noreply@fusaf.org.ua>")
	v.SetDefault("email.admin_address", "")
	v.SetDefault("email.ses_region", "")

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "auto")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.prefix", "backups/")

	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.interval_minutes", 24*60)

	v.SetDefault("liqpay.sandbox", true)
	v.SetDefault("liqpay.checkout_url", "https://www.liqpay.ua/api/3/checkout")
	v.SetDefault("liqpay.api_url", "https://www.liqpay.ua/api/request")
	v.SetDefault("liqpay.result_url", "")
	v.SetDefault("liqpay.server_url", "")
	v.SetDefault("liqpay.payment_ttl_minutes", 10)
	v.SetDefault("liqpay.reconcile_interval_seconds", 60)

	v.SetDefault("sheets.credentials_file", "")
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.range", "Athletes!A1")
}

// Load reads the YAML file at path, applies APP_* environment overrides
// (APP_POSTGRES_USER for postgres.user and so on) and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	setDefaults(v)
	for _, key := range secrets {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags plus the cross-section rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	var errs []error
	if c.Storage.Driver == DriverPostgres {
		if c.Postgres.User == "" {
			errs = append(errs, errors.New("postgres.user is required (APP_POSTGRES_USER)"))
		}
		if c.Postgres.Password == "" {
			errs = append(errs, errors.New("postgres.password is required (APP_POSTGRES_PASSWORD)"))
		}
		if c.Postgres.DBName == "" {
			errs = append(errs, errors.New("postgres.db is required (APP_POSTGRES_DB)"))
		}
	}
	if c.App.Env == "prod" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required in prod (APP_AUTH_JWT_SECRET)"))
	}
	if c.S3.Enabled() && (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		errs = append(errs, errors.New("s3 access key id and secret must be set together"))
	}
	return errors.Join(errs...)
}
