package config

// ServerConfig contains the HTTP hand-off surface configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// APIConfig describes the remote NMBS data relay
type APIConfig struct {
	BaseURL   string `yaml:"baseURL" validate:"required,url"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
	MaxPages  int    `yaml:"maxPages" validate:"gte=0"` // 0 = unlimited
}

// CacheConfig controls the disk-backed response cache
type CacheConfig struct {
	Dir         string `yaml:"dir"`
	TTLSecs     int    `yaml:"ttlSecs" validate:"gte=0"`
	JanitorSecs int    `yaml:"janitorSecs" validate:"gte=0"` // 0 disables the background sweep
}

// PollConfig controls the background pollers
type PollConfig struct {
	RealtimeIntervalSecs int `yaml:"realtimeIntervalSecs" validate:"gte=0"`
	StaticIntervalSecs   int `yaml:"staticIntervalSecs" validate:"gte=0"`
	StaticRetries        int `yaml:"staticRetries" validate:"gte=0"`
	StaticBackoffMS      int `yaml:"staticBackoffMS" validate:"gte=0"`
}

// IndexerConfig bounds the schedule index build
type IndexerConfig struct {
	MaxTripsPerRoute int `yaml:"maxTripsPerRoute" validate:"gte=0"` // 0 = unbounded
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server" validate:"required"`
	API     APIConfig     `yaml:"api" validate:"required"`
	Cache   CacheConfig   `yaml:"cache"`
	Poll    PollConfig    `yaml:"poll"`
	Indexer IndexerConfig `yaml:"indexer"`
}
