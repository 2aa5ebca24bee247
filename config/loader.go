package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads, overlays and validates the application configuration.
// Search order for the file: the explicit path argument, then config.yml
// in the working directory. A .env file, if present, is loaded into the
// environment first; RAILLIVE_* variables override file values.
func Load(path string) (AppConfig, error) {
	_ = godotenv.Load()

	paths := []string{"config.yml"}
	if path != "" {
		paths = []string{path}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return AppConfig{}, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 16181
	}
	if cfg.API.TimeoutMS == 0 {
		cfg.API.TimeoutMS = 10000
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = ".rail-live-cache"
	}
	if cfg.Cache.TTLSecs == 0 {
		cfg.Cache.TTLSecs = 300
	}
	if cfg.Poll.RealtimeIntervalSecs == 0 {
		cfg.Poll.RealtimeIntervalSecs = 30
	}
	if cfg.Poll.StaticIntervalSecs == 0 {
		cfg.Poll.StaticIntervalSecs = 86400
	}
	if cfg.Poll.StaticRetries == 0 {
		cfg.Poll.StaticRetries = 3
	}
	if cfg.Poll.StaticBackoffMS == 0 {
		cfg.Poll.StaticBackoffMS = 2000
	}
	if cfg.Indexer.MaxTripsPerRoute == 0 {
		cfg.Indexer.MaxTripsPerRoute = 5
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("RAILLIVE_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("RAILLIVE_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v, ok := envInt("RAILLIVE_SERVER_PORT"); ok {
		cfg.Server.Port = v
	}
	if v, ok := envInt("RAILLIVE_CACHE_TTL_SECS"); ok {
		cfg.Cache.TTLSecs = v
	}
	if v, ok := envInt("RAILLIVE_MAX_PAGES"); ok {
		cfg.API.MaxPages = v
	}
	if v, ok := envInt("RAILLIVE_REALTIME_INTERVAL_SECS"); ok {
		cfg.Poll.RealtimeIntervalSecs = v
	}
	if v, ok := envInt("RAILLIVE_STATIC_INTERVAL_SECS"); ok {
		cfg.Poll.StaticIntervalSecs = v
	}
	if v, ok := envInt("RAILLIVE_MAX_TRIPS_PER_ROUTE"); ok {
		cfg.Indexer.MaxTripsPerRoute = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
