package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:3001"
	DefaultDBFileName = "portrait.db"
	DefaultLogLevel   = "info"
	DefaultCORSOrigin = "*"

	DefaultImageMaxDimension         = 600
	DefaultImageJPEGQuality          = 70
	DefaultImageMaxUploadBytes int64 = 10 * 1024 * 1024

	configFileName           = ".portrait.toml"
	dotEnvFileName           = ".env"
	configDirEnvKey          = "PORTRAIT_CONFIG_DIR"
	trustProjectConfigEnvKey = "PORTRAIT_TRUST_PROJECT_CONFIG"
	portEnvKey               = "PORT"
)

// ImageConfig defines how uploaded images are normalized and bounded.
type ImageConfig struct {
	MaxDimension   int   `toml:"max_dimension" yaml:"max_dimension"`
	JPEGQuality    int   `toml:"jpeg_quality" yaml:"jpeg_quality"`
	MaxUploadBytes int64 `toml:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// Config defines runtime configuration for portrait.
type Config struct {
	APIURL                   string      `toml:"api_url" yaml:"api_url"`
	DBPath                   string      `toml:"db_path" yaml:"db_path"`
	CachePath                string      `toml:"cache_path" yaml:"cache_path"`
	StaticDir                string      `toml:"static_dir" yaml:"static_dir"`
	LogLevel                 string      `toml:"log_level" yaml:"log_level"`
	CORSOrigin               string      `toml:"cors_origin" yaml:"cors_origin"`
	Image                    ImageConfig `toml:"image" yaml:"image"`
	TrustedProjectConfigPath string      `toml:"-" yaml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:     DefaultAPIURL,
		DBPath:     "",
		LogLevel:   DefaultLogLevel,
		CORSOrigin: DefaultCORSOrigin,
		Image: ImageConfig{
			MaxDimension:   DefaultImageMaxDimension,
			JPEGQuality:    DefaultImageJPEGQuality,
			MaxUploadBytes: DefaultImageMaxUploadBytes,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

// loadDotEnv reads KEY=value pairs from path into the process environment.
// Variables that are already set win over the file.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"cache_path",
	"static_dir",
	"log_level",
	"cors_origin",
	"image.max_dimension",
	"image.jpeg_quality",
	"image.max_upload_bytes",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "cache_path":
		return c.CachePath, nil
	case "static_dir":
		return c.StaticDir, nil
	case "log_level":
		return c.LogLevel, nil
	case "cors_origin":
		return c.CORSOrigin, nil
	case "image.max_dimension":
		return strconv.Itoa(c.Image.MaxDimension), nil
	case "image.jpeg_quality":
		return strconv.Itoa(c.Image.JPEGQuality), nil
	case "image.max_upload_bytes":
		return strconv.FormatInt(c.Image.MaxUploadBytes, 10), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads .env and trusted config files, then applies env overrides.
func Load() (*Config, error) {
	if err := loadDotEnv(dotEnvFileName); err != nil {
		return nil, err
	}

	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if apiURL := os.Getenv("PORTRAIT_API_URL"); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if port := strings.TrimSpace(os.Getenv(portEnvKey)); port != "" {
		rewritten, err := withPort(cfg.APIURL, port)
		if err != nil {
			return nil, err
		}
		cfg.APIURL = rewritten
	}
	if dbPath := os.Getenv("PORTRAIT_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if cachePath := os.Getenv("PORTRAIT_CACHE_PATH"); cachePath != "" {
		cfg.CachePath = cachePath
	}
	if staticDir := os.Getenv("PORTRAIT_STATIC_DIR"); staticDir != "" {
		cfg.StaticDir = staticDir
	}
	if origin := os.Getenv("PORTRAIT_CORS_ORIGIN"); origin != "" {
		cfg.CORSOrigin = origin
	}

	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	cfg.normalizeImageDefaults()

	return &cfg, nil
}

// withPort replaces the port of apiURL, keeping scheme and host.
func withPort(apiURL, port string) (string, error) {
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("invalid %s=%q", portEnvKey, port)
	}
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("cannot apply %s to api_url %q", portEnvKey, apiURL)
	}
	u.Host = net.JoinHostPort(u.Hostname(), port)
	return u.String(), nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "image.max_upload_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "image.max_dimension":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "image.jpeg_quality":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 || parsed > 100 {
			return nil, fmt.Errorf("%s must be between 1 and 100", key)
		}
		return parsed, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalizeImageDefaults() {
	if c.Image.MaxDimension <= 0 {
		c.Image.MaxDimension = DefaultImageMaxDimension
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		c.Image.JPEGQuality = DefaultImageJPEGQuality
	}
	if c.Image.MaxUploadBytes <= 0 {
		c.Image.MaxUploadBytes = DefaultImageMaxUploadBytes
	}
}
