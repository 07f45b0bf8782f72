package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"dolicat/internal/condition"
	"dolicat/internal/product"
)

type Config struct {
	DBPath    string
	OutputDir string

	ERPAPIBaseURL   string
	ERPAPIKey       string
	ERPRateLimitRPS int
	ERPTimeoutMs    int
	ERPPageSize     int

	WatchIntervalSec int
	WatchAutoExport  bool

	ProfilePath string
	Profile     product.Profile
}

// profileFile is the on-disk catalog profile:
//
//	locale: fr
//	features: [condition, rakuten, ef_auteur]
type profileFile struct {
	Locale   string   `yaml:"locale"`
	Features []string `yaml:"features"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		ERPAPIBaseURL:   strings.TrimRight(getEnv("ERP_API_BASE_URL", "http://localhost/api/index.php"), "/"),
		ERPAPIKey:       getEnv("ERP_API_KEY", ""),
		ERPRateLimitRPS: getEnvInt("ERP_RATE_LIMIT_RPS", 5),
		ERPTimeoutMs:    getEnvInt("ERP_TIMEOUT_MS", 30000),
		ERPPageSize:     getEnvInt("ERP_PAGE_SIZE", 100),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 300),
		WatchAutoExport:  getEnvBool("WATCH_AUTO_EXPORT", true),

		ProfilePath: getEnv("PROFILE_PATH", ""),
	}

	profile, err := loadProfile(cfg.ProfilePath, getEnv("CATALOG_LOCALE", ""), getEnv("CATALOG_FEATURES", ""))
	if err != nil {
		return Config{}, err
	}
	cfg.Profile = profile

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// loadProfile reads the profile file when path is set, otherwise the
// CATALOG_LOCALE and CATALOG_FEATURES values.
func loadProfile(path, locale, features string) (product.Profile, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return product.Profile{}, fmt.Errorf("profile: %w", err)
		}
		defer f.Close()

		var pf profileFile
		if err := yaml.NewDecoder(f).Decode(&pf); err != nil {
			return product.Profile{}, fmt.Errorf("profile %s: %w", path, err)
		}
		locale = pf.Locale
		features = strings.Join(pf.Features, ",")
	}

	loc, err := condition.ParseLocale(locale)
	if err != nil {
		return product.Profile{}, err
	}
	list, err := product.ParseFeatures(features)
	if err != nil {
		return product.Profile{}, err
	}
	return product.NewProfile(loc, list...), nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
