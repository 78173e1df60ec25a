package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/census-choropleth/internal/artifact"
	"github.com/sells-group/census-choropleth/internal/source"
)

// AppName tags every log entry.
const AppName = "censusmap"

// Config holds the full application configuration.
type Config struct {
	WorkDir     string              `yaml:"work_dir" mapstructure:"work_dir"`
	ColumnsFile string              `yaml:"columns_file" mapstructure:"columns_file"`
	Source      SourceConfig        `yaml:"source" mapstructure:"source"`
	Data        DataConfig          `yaml:"data" mapstructure:"data"`
	Vocabulary  artifact.Vocabulary `yaml:"vocabulary" mapstructure:"vocabulary"`
	Figure      FigureConfig        `yaml:"figure" mapstructure:"figure"`
	Batch       BatchConfig         `yaml:"batch" mapstructure:"batch"`
	Server      ServerConfig        `yaml:"server" mapstructure:"server"`
	PostGIS     PostGISConfig       `yaml:"postgis" mapstructure:"postgis"`
	Log         LogConfig           `yaml:"log" mapstructure:"log"`
}

// SourceConfig selects the local vector format.
type SourceConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	// LocationColumn overrides the boundary-name column; empty uses the
	// format's default (SA4_NAME_2021 for gpkg, SA4_NAME21 for shp).
	LocationColumn string `yaml:"location_column" mapstructure:"location_column"`
}

// DataConfig identifies the dataset to process.
type DataConfig struct {
	ConnStr   string `yaml:"conn_str" mapstructure:"conn_str"`
	DataYear  int    `yaml:"data_year" mapstructure:"data_year"`
	DataTopic string `yaml:"data_topic" mapstructure:"data_topic"`
	GeoArea   string `yaml:"geo_area" mapstructure:"geo_area"`
	GDASpec   string `yaml:"gda_spec" mapstructure:"gda_spec"`
	GDAType   string `yaml:"gda_type" mapstructure:"gda_type"`
}

// Key returns the artifact key the data config addresses.
func (d DataConfig) Key() artifact.Key {
	return artifact.Key{
		Year:         d.DataYear,
		Topic:        d.DataTopic,
		Area:         d.GeoArea,
		DatumSpec:    d.GDASpec,
		BoundaryType: d.GDAType,
	}
}

// FigureConfig configures figure output.
type FigureConfig struct {
	Encodings []string `yaml:"encodings" mapstructure:"encodings"`
	Overwrite bool     `yaml:"overwrite" mapstructure:"overwrite"`
}

// ParsedEncodings returns Encodings as typed values.
func (f FigureConfig) ParsedEncodings() ([]artifact.Encoding, error) {
	encs := make([]artifact.Encoding, 0, len(f.Encodings))
	for _, s := range f.Encodings {
		enc, err := artifact.ParseEncoding(s)
		if err != nil {
			return nil, err
		}
		encs = append(encs, enc)
	}
	return encs, nil
}

// BatchConfig configures multi-topic builds.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the figure viewer.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst          int      `yaml:"burst" mapstructure:"burst"`
}

// PostGISConfig configures normalized table export.
type PostGISConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Schema      string `yaml:"schema" mapstructure:"schema"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path
// searches for config.yaml in the working directory. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("CENSUSMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("work_dir", ".")
	v.SetDefault("columns_file", "columns.yaml")
	v.SetDefault("source.format", source.FormatGeoPackage)
	v.SetDefault("source.location_column", "")
	v.SetDefault("data.conn_str", "")
	v.SetDefault("data.data_year", 2021)
	v.SetDefault("data.data_topic", "G01")
	v.SetDefault("data.geo_area", "AUST")
	v.SetDefault("data.gda_spec", "GDA2020")
	v.SetDefault("data.gda_type", "SA4")
	v.SetDefault("figure.encodings", []string{"json", "html"})
	v.SetDefault("figure.overwrite", false)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 0.0)
	v.SetDefault("server.burst", 20)
	v.SetDefault("postgis.database_url", "")
	v.SetDefault("postgis.schema", "census")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless a path was given)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects missing or out-of-vocabulary settings before any work
// starts.
func (c *Config) Validate() error {
	if c.WorkDir == "" {
		return eris.New("config: work_dir is required")
	}
	if _, err := source.NewLoader(c.Source.Format); err != nil {
		return eris.Wrap(err, "config: source.format")
	}
	if c.Source.Format == source.FormatShapefile && len(c.Source.LocationColumn) > source.MaxFieldName {
		return eris.Errorf("config: source.location_column %q exceeds the %d-character DBF field limit", c.Source.LocationColumn, source.MaxFieldName)
	}
	if err := c.Data.Key().Validate(c.Vocabulary); err != nil {
		return eris.Wrap(err, "config: data")
	}
	if _, err := c.Figure.ParsedEncodings(); err != nil {
		return eris.Wrap(err, "config: figure.encodings")
	}
	if c.Batch.Concurrency < 1 {
		return eris.Errorf("config: batch.concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	return nil
}

// NewLogger builds a zap logger for the given level and format. Console
// output uses the development encoder; json uses the production one.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	case "json", "":
		zapCfg = zap.NewProductionConfig()
	default:
		return nil, eris.Errorf("config: log.format must be json or console, got %q", cfg.Format)
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build(zap.Fields(zap.String("app", AppName)))
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	return logger, nil
}

// InitLogger replaces the global zap logger.
func InitLogger(cfg LogConfig) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}
