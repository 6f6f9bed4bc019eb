package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Store backends understood by db.NewStore.
const (
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds everything the server reads from the environment.
type Config struct {
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:"0.0.0.0:8000"`
	ReleaseMode bool   `envconfig:"RELEASE_MODE" default:"false"`

	StoreBackend string `envconfig:"STORE_BACKEND" default:"mongo"`
	MongoURL     string `envconfig:"MONGODB_URL" default:"mongodb://localhost:27017/test_database"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// ListLimit caps GET /students and GET /groups; 0 means no cap.
	ListLimit int64 `envconfig:"LIST_LIMIT" default:"0"`
	// GroupListLimit caps GET /groups/:id/students.
	GroupListLimit int64 `envconfig:"GROUP_LIST_LIMIT" default:"100"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	conf := &Config{}
	if err := envconfig.Process("", conf); err != nil {
		return nil, errors.Wrap(err, "failed to process config env vars")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate normalises the backend name and rejects values the server cannot use.
func (c *Config) Validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendMongo, BackendRedis, BackendMemory:
	default:
		return errors.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.ListLimit < 0 || c.GroupListLimit < 0 {
		return errors.New("list limits cannot be negative")
	}
	return nil
}
