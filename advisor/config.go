package advisor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigName = "config"
	envPrefix         = "ADVISOR"
)

// Config aggregates runtime settings read from config.yaml and ADVISOR_* env.
type Config struct {
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Model    ModelConfig    `json:"model" yaml:"model" mapstructure:"model"`
	Resolver ResolverConfig `json:"resolver" yaml:"resolver" mapstructure:"resolver"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
}

// CatalogConfig describes the delimited reference table.
type CatalogConfig struct {
	Path         string        `json:"path" yaml:"path" mapstructure:"path"`
	Delimiter    string        `json:"delimiter" yaml:"delimiter" mapstructure:"delimiter"`
	Encoding     string        `json:"encoding" yaml:"encoding" mapstructure:"encoding"`
	LazyQuotes   bool          `json:"lazyQuotes" yaml:"lazy_quotes" mapstructure:"lazy_quotes"`
	PercentScale string        `json:"percentScale" yaml:"percent_scale" mapstructure:"percent_scale"`
	Aliases      ColumnAliases `json:"aliases" yaml:"aliases" mapstructure:"aliases"`
}

// ModelConfig locates the exported classifier and pins its input contract.
type ModelConfig struct {
	Path          string   `json:"path" yaml:"path" mapstructure:"path"`
	ORTLibrary    string   `json:"ortLibrary" yaml:"ort_library" mapstructure:"ort_library"`
	InputName     string   `json:"inputName" yaml:"input_name" mapstructure:"input_name"`
	OutputName    string   `json:"outputName" yaml:"output_name" mapstructure:"output_name"`
	SchemaVersion string   `json:"schemaVersion" yaml:"schema_version" mapstructure:"schema_version"`
	Features      []string `json:"features" yaml:"features" mapstructure:"features"`
}

// ResolverConfig selects the similarity scorer.
type ResolverConfig struct {
	Scorer string `json:"scorer" yaml:"scorer" mapstructure:"scorer"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Catalog: CatalogConfig{
			Path:         "data_ciudades.csv",
			Delimiter:    ",",
			Encoding:     "utf-8",
			PercentScale: "percent",
		},
		Model: ModelConfig{
			Path:          "modelo_entrenado.onnx",
			InputName:     "float_input",
			OutputName:    "variable",
			SchemaVersion: FeatureSchemaVersion,
			Features:      FeatureNames(),
		},
		Resolver: ResolverConfig{Scorer: "weighted"},
		Log:      LogConfig{Level: "info", Format: "json"},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// LoadConfig reads configuration from path, or from ./config.yaml when path
// is empty. A missing default file is not an error. Values from a .env file
// and ADVISOR_* variables override the file.
func LoadConfig(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("catalog.path", def.Catalog.Path)
	v.SetDefault("catalog.delimiter", def.Catalog.Delimiter)
	v.SetDefault("catalog.encoding", def.Catalog.Encoding)
	v.SetDefault("catalog.lazy_quotes", def.Catalog.LazyQuotes)
	v.SetDefault("catalog.percent_scale", def.Catalog.PercentScale)
	v.SetDefault("model.path", def.Model.Path)
	v.SetDefault("model.ort_library", def.Model.ORTLibrary)
	v.SetDefault("model.input_name", def.Model.InputName)
	v.SetDefault("model.output_name", def.Model.OutputName)
	v.SetDefault("model.schema_version", def.Model.SchemaVersion)
	v.SetDefault("model.features", def.Model.Features)
	v.SetDefault("resolver.scorer", def.Resolver.Scorer)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("server.addr", def.Server.Addr)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "config: unmarshal")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults populates zero values with defaults.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.Catalog.Path == "" {
		c.Catalog.Path = def.Catalog.Path
	}
	if c.Catalog.Delimiter == "" {
		c.Catalog.Delimiter = def.Catalog.Delimiter
	}
	if c.Catalog.Encoding == "" {
		c.Catalog.Encoding = def.Catalog.Encoding
	}
	if c.Catalog.PercentScale == "" {
		c.Catalog.PercentScale = def.Catalog.PercentScale
	}
	if c.Model.InputName == "" {
		c.Model.InputName = def.Model.InputName
	}
	if c.Model.OutputName == "" {
		c.Model.OutputName = def.Model.OutputName
	}
	if c.Model.SchemaVersion == "" {
		c.Model.SchemaVersion = def.Model.SchemaVersion
	}
	if len(c.Model.Features) == 0 {
		c.Model.Features = def.Model.Features
	}
	if c.Resolver.Scorer == "" {
		c.Resolver.Scorer = def.Resolver.Scorer
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
}

// Validate checks the settings that would otherwise fail late or silently.
func (c Config) Validate() error {
	if _, err := c.Catalog.DelimiterRune(); err != nil {
		return err
	}
	if _, err := c.Catalog.Scale(); err != nil {
		return err
	}
	if _, err := ScorerByName(c.Resolver.Scorer); err != nil {
		return eris.Wrap(err, "config: resolver.scorer")
	}
	if err := CheckFeatureContract(c.Model.SchemaVersion, c.Model.Features); err != nil {
		return eris.Wrap(err, "config: model.features")
	}
	return nil
}

// DelimiterRune parses the configured delimiter. "\t" and "tab" select a
// tab; otherwise the value must be a single character.
func (c CatalogConfig) DelimiterRune() (rune, error) {
	switch d := c.Delimiter; strings.ToLower(d) {
	case "":
		return ',', nil
	case `\t`, "tab", "\t":
		return '\t', nil
	default:
		r, size := utf8.DecodeRuneInString(d)
		if size != len(d) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
			return 0, eris.Errorf("config: invalid catalog.delimiter %q", d)
		}
		return r, nil
	}
}

// Scale returns the multiplier that converts the source partial-payment
// unit to a 0-100 percentage.
func (c CatalogConfig) Scale() (float64, error) {
	switch strings.ToLower(strings.TrimSpace(c.PercentScale)) {
	case "", "percent":
		return 1, nil
	case "fraction":
		return 100, nil
	default:
		return 0, eris.Errorf("config: invalid catalog.percent_scale %q", c.PercentScale)
	}
}

// SaveConfig writes cfg as YAML, replacing path atomically.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigName + ".yaml"
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "config: create dir")
	}
	cfg.ApplyDefaults()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return eris.Wrap(err, "config: encode")
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "config: write temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrap(err, "config: rename")
	}
	return nil
}
