// clipwebapi/config/config.go
package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	AllowedOrigin      string        `mapstructure:"ALLOWED_ORIGIN"`
	BaseURL            string        `mapstructure:"BASE"`
	YtDlpBin           string        `mapstructure:"YTDLP_BIN"`
	YtDlpExtraArgs     string        `mapstructure:"YTDLP_EXTRA_ARGS"`
	FFBin              string        `mapstructure:"FF_BIN"`
	FFProbeBin         string        `mapstructure:"FFPROBE_BIN"`
	WorkDir            string        `mapstructure:"WORK_DIR"`
	MinDownloadSize    int64         `mapstructure:"MIN_DOWNLOAD_SIZE"`
	JobTimeout         time.Duration `mapstructure:"JOB_TIMEOUT"`
	EventsPollInterval time.Duration `mapstructure:"EVENTS_POLL_INTERVAL"`
	LogCommands        bool          `mapstructure:"LOG_COMMANDS"`

	StoreDriver      string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DatabaseMaxConns int           `mapstructure:"DATABASE_MAX_CONNS"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	JobTTL           time.Duration `mapstructure:"JOB_TTL"`

	StorageDriver    string `mapstructure:"STORAGE_DRIVER"`
	LocalStorageDir  string `mapstructure:"LOCAL_STORAGE_DIR"`
	StorageEndpoint  string `mapstructure:"STORAGE_ENDPOINT"`
	StorageAccessKey string `mapstructure:"STORAGE_ACCESS_KEY"`
	StorageSecretKey string `mapstructure:"STORAGE_SECRET_KEY"`
	StorageRegion    string `mapstructure:"STORAGE_REGION"`
	StorageBucket    string `mapstructure:"STORAGE_BUCKET"`
	StorageUseSSL    bool   `mapstructure:"STORAGE_USE_SSL"`
	StoragePublicURL string `mapstructure:"STORAGE_PUBLIC_URL"`

	ThrottleCPU      float64 `mapstructure:"THROTTLE_CPU"`
	ThrottleFreeMem  int64   `mapstructure:"THROTTLE_FREEMEM"`
	ThrottleFreeDisk int64   `mapstructure:"THROTTLE_FREEDISK"`
}

// stringToDurationHookFunc is a custom Viper hook for parsing Go's duration strings.
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return time.ParseDuration(data.(string))
	}
}

// stringToByteSizeHookFunc is a custom Viper hook for parsing human-readable size strings.
func stringToByteSizeHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Int64 {
			return data, nil
		}

		var size datasize.ByteSize
		err := size.UnmarshalText([]byte(data.(string)))
		if err != nil {
			// Not a valid size string, let other parsers handle it.
			return data, nil
		}

		return int64(size.Bytes()), nil
	}
}

func Load() (*Config, error) {
	vp := viper.New()

	// Set default values as strings, the hooks will handle them.
	vp.SetDefault("PORT", "3001")
	vp.SetDefault("ALLOWED_ORIGIN", "http://localhost:5173")
	vp.SetDefault("BASE", "")
	vp.SetDefault("YTDLP_BIN", "yt-dlp")
	vp.SetDefault("YTDLP_EXTRA_ARGS", "")
	vp.SetDefault("FF_BIN", "ffmpeg")
	vp.SetDefault("FFPROBE_BIN", "ffprobe")
	vp.SetDefault("WORK_DIR", "")
	vp.SetDefault("MIN_DOWNLOAD_SIZE", "1KB")
	vp.SetDefault("JOB_TIMEOUT", "0s")
	vp.SetDefault("EVENTS_POLL_INTERVAL", "1s")
	vp.SetDefault("LOG_COMMANDS", true)

	vp.SetDefault("STORE_DRIVER", "memory")
	vp.SetDefault("DATABASE_URL", "")
	vp.SetDefault("DATABASE_MAX_CONNS", 10)
	vp.SetDefault("REDIS_URL", "")
	vp.SetDefault("JOB_TTL", "168h")

	vp.SetDefault("STORAGE_DRIVER", "local")
	vp.SetDefault("LOCAL_STORAGE_DIR", "uploads")
	vp.SetDefault("STORAGE_ENDPOINT", "")
	vp.SetDefault("STORAGE_ACCESS_KEY", "")
	vp.SetDefault("STORAGE_SECRET_KEY", "")
	vp.SetDefault("STORAGE_REGION", "")
	vp.SetDefault("STORAGE_BUCKET", "videos")
	vp.SetDefault("STORAGE_USE_SSL", true)
	vp.SetDefault("STORAGE_PUBLIC_URL", "")

	vp.SetDefault("THROTTLE_CPU", 10.0)
	vp.SetDefault("THROTTLE_FREEMEM", "200MB")
	vp.SetDefault("THROTTLE_FREEDISK", "500MB")

	// Load from config file
	vp.SetConfigName("clipwebapi_config")
	vp.SetConfigType("yaml")
	vp.AddConfigPath(".")
	vp.AddConfigPath("/etc/clipwebapi/")

	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Load from environment variables
	vp.SetEnvPrefix("CLIPWEBAPI")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	var cfg Config
	// The order matters: durations must be claimed before the int64 size hook sees them.
	err := vp.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			stringToDurationHookFunc(),
			stringToByteSizeHookFunc(),
		),
	))
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the options each selected driver depends on.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_DRIVER is redis")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, postgres, redis; got %q", c.StoreDriver)
	}

	switch c.StorageDriver {
	case "local":
		if c.LocalStorageDir == "" {
			return fmt.Errorf("LOCAL_STORAGE_DIR is required when STORAGE_DRIVER is local")
		}
	case "s3":
		if c.StorageEndpoint == "" || c.StorageAccessKey == "" || c.StorageSecretKey == "" {
			return fmt.Errorf("STORAGE_ENDPOINT, STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required when STORAGE_DRIVER is s3")
		}
		if c.StorageBucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required when STORAGE_DRIVER is s3")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of local, s3; got %q", c.StorageDriver)
	}

	if c.JobTimeout < 0 {
		return fmt.Errorf("JOB_TIMEOUT must not be negative")
	}
	if c.EventsPollInterval <= 0 {
		return fmt.Errorf("EVENTS_POLL_INTERVAL must be positive")
	}
	return nil
}
