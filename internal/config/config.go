package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
	"os"
)

const EnvPrefix = "JELLYLOG"

const (
	OutputKey             = "output"
	MaxErrorsKey          = "max_errors"
	WorkersKey            = "workers"
	LogPathsKey           = "log_paths"
	VerboseKey            = "verbose"
	ElasticsearchURLKey   = "es_url"
	ElasticsearchIndexKey = "es_index"
	GrpcAddressKey        = "grpc_address"
	HttpAddressKey        = "http_address"
	BufferSizeKey         = "buffer_size"
)

const DefaultRecordIndex = "jellylog_records"

type Config struct {
	Output             string
	MaxErrors          int
	Workers            int
	LogPaths           []string
	Verbose            bool
	ElasticsearchURL   string
	ElasticsearchIndex string
	GrpcAddress        string
	HttpAddress        string
	BufferSize         int
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(OutputKey, "jellyfin_errors.txt")
	v.SetDefault(MaxErrorsKey, 2)
	v.SetDefault(WorkersKey, 4)
	v.SetDefault(VerboseKey, false)
	v.SetDefault(ElasticsearchIndexKey, DefaultRecordIndex)
	v.SetDefault(GrpcAddressKey, ":4317")
	v.SetDefault(HttpAddressKey, ":8081")
	v.SetDefault(BufferSizeKey, 50000)
}

// Load reads configuration from defaults, an optional YAML file and JELLYLOG_ prefixed
// environment variables, in increasing precedence. Flags bound to v win over all of them.
// Without an explicit file, .jellylog.yaml is looked up in the home and working directories.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".jellylog")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := Config{
		Output:             v.GetString(OutputKey),
		MaxErrors:          v.GetInt(MaxErrorsKey),
		Workers:            v.GetInt(WorkersKey),
		LogPaths:           v.GetStringSlice(LogPathsKey),
		Verbose:            v.GetBool(VerboseKey),
		ElasticsearchURL:   v.GetString(ElasticsearchURLKey),
		ElasticsearchIndex: v.GetString(ElasticsearchIndexKey),
		GrpcAddress:        v.GetString(GrpcAddressKey),
		HttpAddress:        v.GetString(HttpAddressKey),
		BufferSize:         v.GetInt(BufferSizeKey),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("failed to validate config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MaxErrors < 0 {
		return fmt.Errorf("%s must not be negative, got %d", MaxErrorsKey, c.MaxErrors)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", WorkersKey, c.Workers)
	}
	if c.BufferSize < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", BufferSizeKey, c.BufferSize)
	}
	if c.Output == "" {
		return errors.New("output path must not be empty")
	}
	return nil
}
