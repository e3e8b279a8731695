package globals

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Context keys
type ContextKey string

const RoleKey ContextKey = "role"
const UserIDKey ContextKey = "userId"
const RequestIDKey ContextKey = "requestId"

var Ctx = context.Background()

// defaultJwtSecret is only good for development; Load refuses it in production.
const defaultJwtSecret = "your_secret_key"

// JwtSecret signs and verifies access tokens. main sets it from Config.
var JwtSecret = []byte(defaultJwtSecret)

// Config is the process configuration. Values come from CONFIG_FILE (yaml)
// first and are then overridden by the environment.
type Config struct {
	Port        string  `yaml:"port"`
	Env         string  `yaml:"env"`
	Store       string  `yaml:"store"`
	MongoURI    string  `yaml:"mongo_uri"`
	MongoDB     string  `yaml:"mongo_db"`
	RedisAddr   string  `yaml:"redis_addr"`
	JwtSecret   string  `yaml:"jwt_secret"`
	DeliveryFee float64 `yaml:"delivery_fee"`
	Tracing     string  `yaml:"tracing"`

	Mail      MailConfig      `yaml:"mail"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type MailConfig struct {
	Sender          string `yaml:"sender"`
	AWSRegion       string `yaml:"aws_region"`
	AWSAccessKeyID  string `yaml:"aws_access_key_id"`
	AWSSecretAccess string `yaml:"aws_secret_access_key"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Production reports whether the service runs with APP_ENV=production.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func defaults() *Config {
	return &Config{
		Port:      ":8080",
		Env:       "development",
		Store:     "mongo",
		MongoURI:  "mongodb://localhost:27017",
		MongoDB:   "homecook",
		RedisAddr: "localhost:6379",
		JwtSecret: defaultJwtSecret,
		RateLimit: RateLimitConfig{RPS: 5, Burst: 10},
	}
}

// Load reads .env (if present), the optional yaml file named by CONFIG_FILE
// and finally the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if cfg.Port == "" {
		cfg.Port = ":8080"
	} else if cfg.Port[0] != ':' {
		cfg.Port = ":" + cfg.Port
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Production() && (c.JwtSecret == "" || c.JwtSecret == defaultJwtSecret) {
		return fmt.Errorf("JWT_SECRET must be set when APP_ENV=production")
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("APP_ENV", &c.Env)
	str("STORE", &c.Store)
	str("MONGO_URI", &c.MongoURI)
	str("MONGO_DB", &c.MongoDB)
	str("REDIS_ADDR", &c.RedisAddr)
	str("JWT_SECRET", &c.JwtSecret)
	str("TRACING", &c.Tracing)
	str("MAIL_SENDER", &c.Mail.Sender)
	str("AWS_REGION", &c.Mail.AWSRegion)
	str("AWS_ACCESS_KEY_ID", &c.Mail.AWSAccessKeyID)
	str("AWS_SECRET_ACCESS_KEY", &c.Mail.AWSSecretAccess)

	if v, ok := lookup("DELIVERY_FEE"); ok && v != "" {
		fee, err := strconv.ParseFloat(v, 64)
		if err != nil || fee < 0 {
			return fmt.Errorf("invalid DELIVERY_FEE %q", v)
		}
		c.DeliveryFee = fee
	}
	if v, ok := lookup("RATE_LIMIT_RPS"); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
		c.RateLimit.RPS = rps
	}
	if v, ok := lookup("RATE_LIMIT_BURST"); ok && v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_BURST %q: %w", v, err)
		}
		c.RateLimit.Burst = burst
	}
	return nil
}
