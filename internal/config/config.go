package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is read from defaults, then the optional CONFIG_FILE YAML overlay,
// then environment variables. Later sources win.
type Config struct {
	AppPort string `yaml:"app_port"`

	DBDriver string `yaml:"db_driver"`

	MySQLHost string `yaml:"mysql_host"`
	MySQLPort string `yaml:"mysql_port"`
	MySQLDB   string `yaml:"mysql_db"`
	MySQLUser string `yaml:"mysql_user"`
	MySQLPass string `yaml:"mysql_pass"`

	SQLitePath string `yaml:"sqlite_path"`

	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`

	IdempEnabled bool `yaml:"idempotency_enabled"`
	IdempTTLSecs int  `yaml:"idempotency_ttl_seconds"`

	OperationTimeoutMS int `yaml:"operation_timeout_ms"`
	ExpirySweepSecs    int `yaml:"expiry_sweep_interval_seconds"`
	SweepConcurrency   int `yaml:"expiry_sweep_concurrency"`

	ValuationBaseURL     string  `yaml:"valuation_base_url"`
	ValuationTimeoutSecs int     `yaml:"valuation_timeout_seconds"`
	TitleBaseURL         string  `yaml:"title_registry_base_url"`
	TitleTimeoutSecs     int     `yaml:"title_registry_timeout_seconds"`
	ProviderRPS          float64 `yaml:"provider_rps"`

	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	LogFile       string `yaml:"log_file"`
	TracingStdout bool   `yaml:"tracing_stdout"`
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func defaults() *Config {
	return &Config{
		AppPort:   "8080",
		DBDriver:  DriverMySQL,
		MySQLHost: "mysql",
		MySQLPort: "3306",
		MySQLDB:   "collateral",
		MySQLUser: "collateral",
		MySQLPass: "collateral",

		SQLitePath: "collateral.db",

		RedisAddr:    "redis:6379",
		IdempEnabled: true,
		IdempTTLSecs: 300,

		OperationTimeoutMS: 5000,
		ExpirySweepSecs:    3600,
		SweepConcurrency:   8,

		ValuationTimeoutSecs: 10,
		TitleTimeoutSecs:     10,
		ProviderRPS:          20,

		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load builds the configuration. Malformed numeric or boolean variables and
// an unreadable CONFIG_FILE are errors.
func Load() (*Config, error) {
	c := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read CONFIG_FILE: %w", err)
		}
		if err := yaml.Unmarshal(raw, c); err != nil {
			return nil, fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
		}
	}

	c.AppPort = getenv("APP_PORT", c.AppPort)
	c.DBDriver = strings.ToLower(getenv("DB_DRIVER", c.DBDriver))
	c.MySQLHost = getenv("MYSQL_HOST", c.MySQLHost)
	c.MySQLPort = getenv("MYSQL_PORT", c.MySQLPort)
	c.MySQLDB = getenv("MYSQL_DB", c.MySQLDB)
	c.MySQLUser = getenv("MYSQL_USER", c.MySQLUser)
	c.MySQLPass = getenv("MYSQL_PASS", c.MySQLPass)
	c.SQLitePath = getenv("SQLITE_PATH", c.SQLitePath)
	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	c.ValuationBaseURL = getenv("VALUATION_BASE_URL", c.ValuationBaseURL)
	c.TitleBaseURL = getenv("TITLE_REGISTRY_BASE_URL", c.TitleBaseURL)
	c.LogLevel = strings.ToLower(getenv("LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(getenv("LOG_FORMAT", c.LogFormat))
	c.LogFile = getenv("LOG_FILE", c.LogFile)

	var errs []error
	for _, v := range []struct {
		key string
		dst *int
	}{
		{"REDIS_DB", &c.RedisDB},
		{"IDEMPOTENCY_TTL_SECONDS", &c.IdempTTLSecs},
		{"OPERATION_TIMEOUT_MS", &c.OperationTimeoutMS},
		{"EXPIRY_SWEEP_INTERVAL_SECONDS", &c.ExpirySweepSecs},
		{"EXPIRY_SWEEP_CONCURRENCY", &c.SweepConcurrency},
		{"VALUATION_TIMEOUT_SECONDS", &c.ValuationTimeoutSecs},
		{"TITLE_REGISTRY_TIMEOUT_SECONDS", &c.TitleTimeoutSecs},
	} {
		if raw := os.Getenv(v.key); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s %q: %w", v.key, raw, err))
				continue
			}
			*v.dst = n
		}
	}
	for _, v := range []struct {
		key string
		dst *bool
	}{
		{"IDEMPOTENCY_ENABLED", &c.IdempEnabled},
		{"TRACING_STDOUT", &c.TracingStdout},
	} {
		if raw := os.Getenv(v.key); raw != "" {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s %q: %w", v.key, raw, err))
				continue
			}
			*v.dst = b
		}
	}
	if raw := os.Getenv("PROVIDER_RPS"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid PROVIDER_RPS %q: %w", raw, err))
		} else {
			c.ProviderRPS = f
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (mysql, sqlite or memory)", c.DBDriver)
	}
	if c.IdempEnabled && c.RedisAddr == "" {
		return errors.New("IDEMPOTENCY_ENABLED requires REDIS_ADDR")
	}
	if c.OperationTimeoutMS <= 0 {
		return errors.New("OPERATION_TIMEOUT_MS must be positive")
	}
	if c.ExpirySweepSecs < 0 {
		return errors.New("EXPIRY_SWEEP_INTERVAL_SECONDS must not be negative")
	}
	if c.ProviderRPS < 0 {
		return errors.New("PROVIDER_RPS must not be negative")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q (json or text)", c.LogFormat)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// OperationTimeout bounds one collateral critical section.
func (c *Config) OperationTimeout() time.Duration {
	return time.Duration(c.OperationTimeoutMS) * time.Millisecond
}

// ExpirySweepInterval is zero when the background sweep is disabled.
func (c *Config) ExpirySweepInterval() time.Duration {
	return time.Duration(c.ExpirySweepSecs) * time.Second
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}
