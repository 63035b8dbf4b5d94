package config

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Map    MapConfig    `yaml:"map" mapstructure:"map"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitRPS    float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	MapCacheEntries int      `yaml:"map_cache_entries" mapstructure:"map_cache_entries"`
	MapCacheTTLMins int      `yaml:"map_cache_ttl_mins" mapstructure:"map_cache_ttl_mins"`
}

// DataConfig locates the input data files.
type DataConfig struct {
	Dir                string  `yaml:"dir" mapstructure:"dir"`
	MunicipalitiesCSV  string  `yaml:"municipalities_csv" mapstructure:"municipalities_csv"`
	IncomeCSV          string  `yaml:"income_csv" mapstructure:"income_csv"`
	HotspotsGeoJSON    string  `yaml:"hotspots_geojson" mapstructure:"hotspots_geojson"`
	PublicityGeoJSON   string  `yaml:"publicity_geojson" mapstructure:"publicity_geojson"`
	CompetitorsJSON    string  `yaml:"competitors_json" mapstructure:"competitors_json"`
	BoundariesShapeDir string  `yaml:"boundaries_shape_dir" mapstructure:"boundaries_shape_dir"`
	SegmentsYAML       string  `yaml:"segments_yaml" mapstructure:"segments_yaml"`
	MatchThreshold     float64 `yaml:"match_threshold" mapstructure:"match_threshold"`
}

// Path resolves a data file name against the data directory. Absolute
// names and empty names pass through unchanged.
func (d DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// MapConfig configures the base map.
type MapConfig struct {
	CenterLat   float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLng   float64 `yaml:"center_lng" mapstructure:"center_lng"`
	Zoom        int     `yaml:"zoom" mapstructure:"zoom"`
	TileURL     string  `yaml:"tile_url" mapstructure:"tile_url"`
	Attribution string  `yaml:"attribution" mapstructure:"attribution"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "geomarket.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.map_cache_entries", 32)
	v.SetDefault("server.map_cache_ttl_mins", 60)
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.municipalities_csv", "alle_deutschschweiz_gemeinden.csv")
	v.SetDefault("data.income_csv", "income_by_municipality.csv")
	v.SetDefault("data.hotspots_geojson", "public_hotspots.geojson")
	v.SetDefault("data.publicity_geojson", "publicity_locations.geojson")
	v.SetDefault("data.competitors_json", "competitors.json")
	v.SetDefault("data.boundaries_shape_dir", "swissboundaries")
	v.SetDefault("data.segments_yaml", "segments.yaml")
	v.SetDefault("data.match_threshold", 0.6)
	v.SetDefault("map.center_lat", 46.8)
	v.SetDefault("map.center_lng", 8.2)
	v.SetDefault("map.zoom", 8)
	v.SetDefault("map.tile_url", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("map.attribution", "&copy; OpenStreetMap contributors")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
