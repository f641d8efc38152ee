package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort string

	DBDriver  string // mysql | postgres
	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	DBMaxOpenConns int
	DBMaxIdleConns int

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	LogLevel  string
	LogFormat string // json | text

	SequenceBackend string // database | redis
	RefcodeTimezone string // IANA zone whose calendar date goes into reference codes

	NotifyWebhookURL     string
	NotifyWebhookTimeout time.Duration
	NotifyNATSURL        string
	NotifyNATSSubject    string

	EnforceBudget bool
}

// env names are bound explicitly so the existing deployment variables keep working
var bindings = map[string]string{
	"app.port":                "APP_PORT",
	"db.driver":               "DB_DRIVER",
	"mysql.host":              "MYSQL_HOST",
	"mysql.port":              "MYSQL_PORT",
	"mysql.db":                "MYSQL_DB",
	"mysql.user":              "MYSQL_USER",
	"mysql.pass":              "MYSQL_PASS",
	"db.max_open_conns":       "DB_MAX_OPEN_CONNS",
	"db.max_idle_conns":       "DB_MAX_IDLE_CONNS",
	"redis.addr":              "REDIS_ADDR",
	"redis.db":                "REDIS_DB",
	"idempotency.ttl_secs":    "IDEMPOTENCY_TTL_SECONDS",
	"log.level":               "LOG_LEVEL",
	"log.format":              "LOG_FORMAT",
	"sequence.backend":        "SEQUENCE_BACKEND",
	"refcode.timezone":        "REFCODE_TIMEZONE",
	"notify.webhook_url":      "NOTIFY_WEBHOOK_URL",
	"notify.webhook_timeout":  "NOTIFY_WEBHOOK_TIMEOUT",
	"notify.nats_url":         "NOTIFY_NATS_URL",
	"notify.nats_subject":     "NOTIFY_NATS_SUBJECT",
	"workflow.enforce_budget": "WORKFLOW_ENFORCE_BUDGET",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("db.driver", "mysql")
	v.SetDefault("mysql.host", "mysql")
	v.SetDefault("mysql.port", "3306")
	v.SetDefault("mysql.db", "procurement")
	v.SetDefault("mysql.user", "procurement")
	v.SetDefault("mysql.pass", "procurement")
	v.SetDefault("db.max_open_conns", 30)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("idempotency.ttl_secs", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("sequence.backend", "database")
	v.SetDefault("refcode.timezone", "UTC")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.webhook_timeout", "5s")
	v.SetDefault("notify.nats_url", "")
	v.SetDefault("notify.nats_subject", "procurement.documents")
	v.SetDefault("workflow.enforce_budget", true)
}

// Load reads defaults, then the optional YAML file at path, then the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	c := &Config{
		AppPort:              v.GetString("app.port"),
		DBDriver:             strings.ToLower(v.GetString("db.driver")),
		MySQLHost:            v.GetString("mysql.host"),
		MySQLPort:            v.GetString("mysql.port"),
		MySQLDB:              v.GetString("mysql.db"),
		MySQLUser:            v.GetString("mysql.user"),
		MySQLPass:            v.GetString("mysql.pass"),
		DBMaxOpenConns:       v.GetInt("db.max_open_conns"),
		DBMaxIdleConns:       v.GetInt("db.max_idle_conns"),
		RedisAddr:            v.GetString("redis.addr"),
		RedisDB:              v.GetInt("redis.db"),
		IdempTTLSecs:         v.GetInt("idempotency.ttl_secs"),
		LogLevel:             v.GetString("log.level"),
		LogFormat:            v.GetString("log.format"),
		SequenceBackend:      strings.ToLower(v.GetString("sequence.backend")),
		RefcodeTimezone:      v.GetString("refcode.timezone"),
		NotifyWebhookURL:     v.GetString("notify.webhook_url"),
		NotifyWebhookTimeout: v.GetDuration("notify.webhook_timeout"),
		NotifyNATSURL:        v.GetString("notify.nats_url"),
		NotifyNATSSubject:    v.GetString("notify.nats_subject"),
		EnforceBudget:        v.GetBool("workflow.enforce_budget"),
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing database config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.SequenceBackend {
	case "database", "redis":
	default:
		return fmt.Errorf("unsupported SEQUENCE_BACKEND %q", c.SequenceBackend)
	}
	if _, err := time.LoadLocation(c.RefcodeTimezone); err != nil {
		return fmt.Errorf("invalid REFCODE_TIMEZONE %q: %w", c.RefcodeTimezone, err)
	}
	if c.IdempTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	return nil
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

// RefcodeLocation is the zone reference-code dates are taken in. Validate
// rejects unknown zones, so the UTC fallback only covers an unvalidated Config.
func (c *Config) RefcodeLocation() *time.Location {
	loc, err := time.LoadLocation(c.RefcodeTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) dbAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.dbAddr(), c.MySQLDB)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.MySQLHost, c.MySQLPort, c.MySQLUser, c.MySQLPass, c.MySQLDB)
}
