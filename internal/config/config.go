package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/regresslab/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Dataset; an empty path uses the embedded student measurements.
	DatasetPath  string `mapstructure:"dataset_path" yaml:"dataset_path"`
	DatasetSheet string `mapstructure:"dataset_sheet" yaml:"dataset_sheet"`
	MaxRows      int    `mapstructure:"max_rows" yaml:"max_rows"`
	MaxVariables int    `mapstructure:"max_variables" yaml:"max_variables"`
	DefaultX     string `mapstructure:"default_x" yaml:"default_x"`
	DefaultY     string `mapstructure:"default_y" yaml:"default_y"`

	// Quiz
	GradeTolerance    float64 `mapstructure:"grade_tolerance" yaml:"grade_tolerance"`
	QuizSeed          int64   `mapstructure:"quiz_seed" yaml:"quiz_seed"`
	SignedCorrelation bool    `mapstructure:"signed_correlation" yaml:"signed_correlation"`

	// HTTP server
	ListenAddr     string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	SessionTTLMin  int      `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	PlotFormat     string   `mapstructure:"plot_format" yaml:"plot_format"`
	LogLevel       string   `mapstructure:"log_level" yaml:"log_level"`
}

// SessionTTL returns the idle lifetime of a quiz session.
func (c *Global) SessionTTL() time.Duration {
	if c.SessionTTLMin <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.SessionTTLMin) * time.Minute
}

// Dir returns ~/.regresslab.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".regresslab"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.regresslab/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("REGRESSLAB")
	v.AutomaticEnv()

	v.SetDefault("dataset_path", "")
	v.SetDefault("dataset_sheet", "")
	v.SetDefault("max_rows", 100000)
	v.SetDefault("max_variables", 7)
	v.SetDefault("default_x", "Height")
	v.SetDefault("default_y", "Weight")
	v.SetDefault("grade_tolerance", 0.0)
	v.SetDefault("quiz_seed", 0)
	v.SetDefault("signed_correlation", true)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("session_ttl_min", 30)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("plot_format", "svg")
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
