package config

import (
	"os"

	"github.com/cilforge/cilforge/pkg"
	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// Config is the daemon's YAML configuration.
type Config struct {
	// Listen is the host:port the HTTP/websocket server binds.
	Listen string `yaml:"listen"`
	// MetadataPath is the metadata blob loaded at startup.
	MetadataPath string `yaml:"metadata_path"`
	// OutputPath is where the committed blob is written.
	OutputPath string `yaml:"output_path"`
	// LogLevel is one of none, error, debug.
	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Listen:     ":7335",
		OutputPath: "metadata.out.bin",
		LogLevel:   "error",
	}
}

// Load reads the YAML config at path; a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			pkg.InfoLog("config file not found, using defaults:", path)
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

func (c Config) PkgLogLevel() pkg.LogLevel {
	switch c.LogLevel {
	case "none":
		return pkg.LogLevelNone
	case "debug":
		return pkg.LogLevelDebug
	default:
		return pkg.LogLevelErrOnly
	}
}
