package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PAREJA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "PAREJA_APP_ENV"
	EnvFrontendURL  = "PAREJA_FRONTEND_URL"
	EnvOpsPort      = "PAREJA_OPS_PORT"
	EnvDBDSN        = "PAREJA_DB_DSN"
	EnvDBDriver     = "PAREJA_DB_DRIVER"
	EnvDBHost       = "PAREJA_DB_HOST"
	EnvDBUser       = "PAREJA_DB_USER"
	EnvDBName       = "PAREJA_DB_NAME"
	EnvNotifyPoll   = "PAREJA_DISPATCH_NOTIFICATION_POLL"
	EnvCatchUp      = "PAREJA_DISPATCH_CATCH_UP_WINDOW"
	EnvReminderPoll = "PAREJA_DISPATCH_REMINDER_POLL"
	EnvSMSProvider  = "PAREJA_SMS_PROVIDER"
	EnvSMTPHost     = "PAREJA_SMTP_HOST"
	EnvSMTPFrom     = "PAREJA_SMTP_FROM_EMAIL"

	SMSProviderTwilio    = "twilio"
	SMSProviderKavenegar = "kavenegar"
	SMSProviderNone      = "none"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Ops          OpsConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
	Dispatch     DispatchConfig
	Firebase     FirebaseConfig
	SMTP         SMTPConfig
	SMS          SMSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.SMS.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PAREJA_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"PAREJA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PAREJA_LOG_WARN_STACK" default:"false"`
	FrontendURL  string `envconfig:"PAREJA_FRONTEND_URL" required:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// FrontendBase returns the frontend URL without a trailing slash.
func (a AppConfig) FrontendBase() string {
	return strings.TrimRight(strings.TrimSpace(a.FrontendURL), "/")
}

type OpsConfig struct {
	Port string `envconfig:"PAREJA_OPS_PORT" default:"9090"`
}

type DBConfig struct {
	DSN    string `envconfig:"PAREJA_DB_DSN"`
	Driver string `envconfig:"PAREJA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PAREJA_DB_HOST"`
	LegacyPort     int    `envconfig:"PAREJA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PAREJA_DB_USER"`
	LegacyPassword string `envconfig:"PAREJA_DB_PASSWORD"`
	LegacyName     string `envconfig:"PAREJA_DB_NAME"`
	LegacySSLMode  string `envconfig:"PAREJA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PAREJA_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"PAREJA_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"PAREJA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PAREJA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the local sqlite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), "sqlite")
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PAREJA_AUTO_MIGRATE" default:"false"`
}

type DispatchConfig struct {
	NotificationPollInterval time.Duration `envconfig:"PAREJA_DISPATCH_NOTIFICATION_POLL" default:"30s"`
	CatchUpWindow            time.Duration `envconfig:"PAREJA_DISPATCH_CATCH_UP_WINDOW" default:"1m"`
	ReminderPollInterval     time.Duration `envconfig:"PAREJA_DISPATCH_REMINDER_POLL" default:"30s"`
}

type FirebaseConfig struct {
	ProjectID         string `envconfig:"PAREJA_FIREBASE_PROJECT_ID"`
	CredentialsBase64 string `envconfig:"PAREJA_FIREBASE_CREDENTIALS"`
	CredentialsFile   string `envconfig:"PAREJA_GOOGLE_APPLICATION_CREDENTIALS"`
}

// Enabled reports whether any credential source has been configured.
func (f FirebaseConfig) Enabled() bool {
	return strings.TrimSpace(f.CredentialsBase64) != "" || strings.TrimSpace(f.CredentialsFile) != ""
}

type SMTPConfig struct {
	Host      string `envconfig:"PAREJA_SMTP_HOST"`
	Port      int    `envconfig:"PAREJA_SMTP_PORT" default:"587"`
	Username  string `envconfig:"PAREJA_SMTP_USERNAME"`
	Password  string `envconfig:"PAREJA_SMTP_PASSWORD"`
	FromEmail string `envconfig:"PAREJA_SMTP_FROM_EMAIL"`
	FromName  string `envconfig:"PAREJA_SMTP_FROM_NAME" default:"Pareja App"`
}

// Enabled reports whether an SMTP relay has been configured.
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
}

// Sender returns the envelope sender, falling back to the SMTP username.
func (s SMTPConfig) Sender() string {
	if from := strings.TrimSpace(s.FromEmail); from != "" {
		return from
	}
	return strings.TrimSpace(s.Username)
}

type SMSConfig struct {
	Provider         string `envconfig:"PAREJA_SMS_PROVIDER" default:"twilio"`
	TwilioAccountSID string `envconfig:"PAREJA_SMS_TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `envconfig:"PAREJA_SMS_TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `envconfig:"PAREJA_SMS_TWILIO_FROM"`
	KavenegarAPIKey  string `envconfig:"PAREJA_SMS_KAVENEGAR_API_KEY"`
	KavenegarSender  string `envconfig:"PAREJA_SMS_KAVENEGAR_SENDER"`
}

// NormalizedProvider returns the lower-cased provider name.
func (s SMSConfig) NormalizedProvider() string {
	return strings.ToLower(strings.TrimSpace(s.Provider))
}

func (s SMSConfig) validate() error {
	switch s.NormalizedProvider() {
	case SMSProviderTwilio, SMSProviderKavenegar, SMSProviderNone:
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvSMSProvider, s.Provider)
	}
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
