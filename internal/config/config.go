package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const EnvConfigFile = "GT06_CONFIG"

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	GatewayID string
	TCPPort   int
	HTTPPort  int

	Storage       string
	MongoURI      string
	MongoDatabase string
	PostgresDSN   string
	RedisURL      string
	NATSURL       string
	JWTSecret     string

	QueueSize    int
	ReadTimeout  time.Duration
	SinkTimeout  time.Duration
	MaxFrameSize int
	AckKeepalive bool
}

type fileConfig struct {
	GatewayID     string `toml:"gateway_id"`
	TCPPort       int    `toml:"tcp_port"`
	HTTPPort      int    `toml:"http_port"`
	Storage       string `toml:"storage"`
	MongoURI      string `toml:"mongodb_uri"`
	MongoDatabase string `toml:"mongodb_database"`
	PostgresDSN   string `toml:"postgres_dsn"`
	RedisURL      string `toml:"redis_url"`
	NATSURL       string `toml:"nats_url"`
	JWTSecret     string `toml:"jwt_secret"`
	QueueSize     int    `toml:"queue_size"`
	ReadTimeout   string `toml:"read_timeout"`
	SinkTimeout   string `toml:"sink_timeout"`
	MaxFrameSize  int    `toml:"max_frame"`
	AckKeepalive  bool   `toml:"ack_keepalive"`
}

func Default() *Config {
	return &Config{
		GatewayID:     "node-01",
		TCPPort:       5023,
		HTTPPort:      8000,
		Storage:       StorageMongo,
		MongoDatabase: "tracking",
		QueueSize:     256,
		ReadTimeout:   300 * time.Second,
		SinkTimeout:   5 * time.Second,
		MaxFrameSize:  1024,
		AckKeepalive:  true,
	}
}

// LoadConfig builds the configuration from defaults, the optional TOML file
// named by GT06_CONFIG and the environment, in that order of precedence.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := getEnv(EnvConfigFile, ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	if meta.IsDefined("gateway_id") {
		c.GatewayID = strings.TrimSpace(raw.GatewayID)
	}
	if meta.IsDefined("tcp_port") {
		c.TCPPort = raw.TCPPort
	}
	if meta.IsDefined("http_port") {
		c.HTTPPort = raw.HTTPPort
	}
	if meta.IsDefined("storage") {
		c.Storage = strings.TrimSpace(raw.Storage)
	}
	if meta.IsDefined("mongodb_uri") {
		c.MongoURI = strings.TrimSpace(raw.MongoURI)
	}
	if meta.IsDefined("mongodb_database") {
		c.MongoDatabase = strings.TrimSpace(raw.MongoDatabase)
	}
	if meta.IsDefined("postgres_dsn") {
		c.PostgresDSN = strings.TrimSpace(raw.PostgresDSN)
	}
	if meta.IsDefined("redis_url") {
		c.RedisURL = strings.TrimSpace(raw.RedisURL)
	}
	if meta.IsDefined("nats_url") {
		c.NATSURL = strings.TrimSpace(raw.NATSURL)
	}
	if meta.IsDefined("jwt_secret") {
		c.JWTSecret = raw.JWTSecret
	}
	if meta.IsDefined("queue_size") {
		c.QueueSize = raw.QueueSize
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return fmt.Errorf("parse read_timeout: %w", err)
		}
		c.ReadTimeout = d
	}
	if meta.IsDefined("sink_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SinkTimeout))
		if err != nil {
			return fmt.Errorf("parse sink_timeout: %w", err)
		}
		c.SinkTimeout = d
	}
	if meta.IsDefined("max_frame") {
		c.MaxFrameSize = raw.MaxFrameSize
	}
	if meta.IsDefined("ack_keepalive") {
		c.AckKeepalive = raw.AckKeepalive
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error

	c.GatewayID = getEnv("GATEWAY_ID", c.GatewayID)
	c.Storage = getEnv("STORAGE_DRIVER", c.Storage)
	c.MongoURI = getEnv("MONGODB_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGODB_DATABASE", c.MongoDatabase)
	c.PostgresDSN = getEnv("DATABASE_URL", c.PostgresDSN)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)

	if c.TCPPort, err = getEnvInt("GT06_PORT", c.TCPPort); err != nil {
		return err
	}
	if c.HTTPPort, err = getEnvInt("HTTP_PORT", c.HTTPPort); err != nil {
		return err
	}
	if c.QueueSize, err = getEnvInt("FORWARD_QUEUE_SIZE", c.QueueSize); err != nil {
		return err
	}
	if c.MaxFrameSize, err = getEnvInt("MAX_FRAME_SIZE", c.MaxFrameSize); err != nil {
		return err
	}
	if c.ReadTimeout, err = getEnvDuration("READ_TIMEOUT", c.ReadTimeout); err != nil {
		return err
	}
	if c.SinkTimeout, err = getEnvDuration("SINK_TIMEOUT", c.SinkTimeout); err != nil {
		return err
	}
	if c.AckKeepalive, err = getEnvBool("ACK_KEEPALIVE", c.AckKeepalive); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.GatewayID == "" {
		errs = append(errs, errors.New("gateway_id is required"))
	}
	if c.TCPPort < 0 || c.TCPPort > 65535 {
		errs = append(errs, fmt.Errorf("tcp_port %d out of range", c.TCPPort))
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http_port %d out of range", c.HTTPPort))
	}
	switch c.Storage {
	case StorageMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo storage driver"))
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres storage driver"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue_size must be positive, got %d", c.QueueSize))
	}
	if c.ReadTimeout <= 0 {
		errs = append(errs, errors.New("read_timeout must be positive"))
	}
	if c.SinkTimeout <= 0 {
		errs = append(errs, errors.New("sink_timeout must be positive"))
	}
	if c.MaxFrameSize < 10 || c.MaxFrameSize > 0xFFFF+6 {
		errs = append(errs, fmt.Errorf("max_frame %d out of range", c.MaxFrameSize))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
