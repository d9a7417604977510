package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Ошибки валидации конфигурации
var (
	ErrShortPhishingPassword = errors.New("phishing password must be at least 16 characters")
	ErrZeroCacheSize         = errors.New("max cache size must be positive")
	ErrZeroClickCount        = errors.New("suspicious click count must be positive")
)

// Config содержит настройки приложения
type Config struct {
	RunAddr         string `yaml:"run_addr"`
	GRPCAddr        string `yaml:"grpc_addr"`
	BaseURL         string `yaml:"base_url"`
	FileStoragePath string `yaml:"file_storage_path"`
	DatabaseDSN     string `yaml:"database_dsn"`
	PolicyListPath  string `yaml:"policy_list_path"`
	JWTSecret       string `yaml:"jwt_secret"`
	TrustedSubnet   string `yaml:"trusted_subnet"`
	LogLevel        string `yaml:"log_level"`

	// SessionTTL - время жизни сессии, выданной перед созданием ссылки
	SessionTTL time.Duration `yaml:"session_ttl"`

	MaxCacheSize             int  `yaml:"max_cache_size"`
	SuspiciousClickCount     int  `yaml:"suspicious_click_count"`
	SuspiciousClickTimeframe int  `yaml:"suspicious_click_timeframe"` // часы
	VerboseConsole           bool `yaml:"verbose_console"`
	VerboseSuspicious        bool `yaml:"verbose_suspicious"`

	PhishingPassword string `yaml:"phishing_password"`
}

// SuspiciousWindow возвращает ширину окна наблюдения
func (c *Config) SuspiciousWindow() time.Duration {
	return time.Duration(c.SuspiciousClickTimeframe) * time.Hour
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		RunAddr:                  ":8080",
		GRPCAddr:                 ":3200",
		BaseURL:                  "http://localhost:8080",
		PolicyListPath:           "lists.toml",
		JWTSecret:                "default_jwt_secret",
		LogLevel:                 "info",
		SessionTTL:               30 * time.Minute,
		MaxCacheSize:             100,
		SuspiciousClickCount:     25,
		SuspiciousClickTimeframe: 12,
		VerboseConsole:           true,
		VerboseSuspicious:        true,
		PhishingPassword:         "change_me_phishing_password",
	}
}

// NewConfig создаёт конфигурацию из аргументов командной строки и окружения
func NewConfig() (*Config, error) {
	return Parse(os.Args[1:])
}

// Parse собирает конфигурацию: значения по умолчанию, затем YAML-файл,
// затем флаги, затем переменные окружения (имеют наивысший приоритет).
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("linkward", flag.ContinueOnError)

	flagConfigFile := fs.String("c", "", "path to YAML config file")
	flagRunAddr := fs.String("a", "", "address and port to run server")
	flagGRPCAddr := fs.String("g", "", "address and port to run gRPC server")
	flagBaseURL := fs.String("b", "", "base URL for shortened links")
	flagFilePath := fs.String("f", "", "path to file for storing links")
	flagDatabaseDSN := fs.String("d", "", "database DSN for PostgreSQL")
	flagPolicyList := fs.String("l", "", "path to policy list file")
	flagJWTSecret := fs.String("j", "", "JWT secret key")
	flagTrustedSubnet := fs.String("t", "", "trusted subnet in CIDR notation")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()

	configFile := *flagConfigFile
	if path := os.Getenv("CONFIG"); path != "" {
		configFile = path
	}
	if configFile != "" {
		if err := cfg.loadFile(configFile); err != nil {
			return nil, err
		}
	}

	// Флаги перекрывают файл
	setString(&cfg.RunAddr, *flagRunAddr)
	setString(&cfg.GRPCAddr, *flagGRPCAddr)
	setString(&cfg.BaseURL, *flagBaseURL)
	setString(&cfg.FileStoragePath, *flagFilePath)
	setString(&cfg.DatabaseDSN, *flagDatabaseDSN)
	setString(&cfg.PolicyListPath, *flagPolicyList)
	setString(&cfg.JWTSecret, *flagJWTSecret)
	setString(&cfg.TrustedSubnet, *flagTrustedSubnet)

	// Переменные окружения перекрывают всё
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile читает YAML-файл конфигурации поверх текущих значений
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// loadEnv применяет переменные окружения
func (c *Config) loadEnv() error {
	setString(&c.RunAddr, os.Getenv("SERVER_ADDRESS"))
	setString(&c.GRPCAddr, os.Getenv("GRPC_ADDRESS"))
	setString(&c.BaseURL, os.Getenv("BASE_URL"))
	setString(&c.FileStoragePath, os.Getenv("FILE_STORAGE_PATH"))
	setString(&c.DatabaseDSN, os.Getenv("DATABASE_DSN"))
	setString(&c.PolicyListPath, os.Getenv("POLICY_LIST_PATH"))
	setString(&c.JWTSecret, os.Getenv("JWT_SECRET"))
	setString(&c.TrustedSubnet, os.Getenv("TRUSTED_SUBNET"))
	setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&c.PhishingPassword, os.Getenv("PHISHING_PASSWORD"))

	ints := []struct {
		env string
		dst *int
	}{
		{"MAX_CACHE_SIZE", &c.MaxCacheSize},
		{"SUSPICIOUS_CLICK_COUNT", &c.SuspiciousClickCount},
		{"SUSPICIOUS_CLICK_TIMEFRAME", &c.SuspiciousClickTimeframe},
	}
	for _, v := range ints {
		raw := os.Getenv(v.env)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseUint(raw, 10, 31)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", v.env, err)
		}
		*v.dst = int(n)
	}

	bools := []struct {
		env string
		dst *bool
	}{
		{"VERBOSE_CONSOLE", &c.VerboseConsole},
		{"VERBOSE_SUSPICIOUS", &c.VerboseSuspicious},
	}
	for _, v := range bools {
		raw := os.Getenv(v.env)
		if raw == "" {
			continue
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", v.env, err)
		}
		*v.dst = b
	}

	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	return nil
}

// validate нормализует и проверяет значения
func (c *Config) validate() error {
	if !strings.Contains(c.RunAddr, ":") {
		c.RunAddr = ":" + c.RunAddr
	}
	if c.GRPCAddr != "" && !strings.Contains(c.GRPCAddr, ":") {
		c.GRPCAddr = ":" + c.GRPCAddr
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		c.BaseURL = "http://" + c.BaseURL
	}
	if c.MaxCacheSize <= 0 {
		return ErrZeroCacheSize
	}
	if c.SuspiciousClickCount <= 0 {
		return ErrZeroClickCount
	}
	if len(c.PhishingPassword) < 16 {
		return ErrShortPhishingPassword
	}
	if c.FileStoragePath != "" {
		// Создаём директорию для файла, если она не существует
		dir := filepath.Dir(c.FileStoragePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
