package config

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/andresuchdata/salesvelocity/internal/pipeline/sales_velocity"
	"github.com/andresuchdata/salesvelocity/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Report   ReportConfig
	Pipeline PipelineConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MaxUploadMB    int64
}

// ReportConfig mirrors the tunables of a single report build.
type ReportConfig struct {
	SalesSheet        string
	ProfitSheet       string
	InventorySheet    string
	VelocityWindow    int
	TrendWindow       int
	UrgentRestockDays float64
	RestockSoonDays   float64
	MonitorDays       float64
}

type PipelineConfig struct {
	Workers int
}

type AppConfig struct {
	DataDir string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ReportTTLSeconds int
}

// StorageConfig points at an S3-compatible bucket. An empty endpoint disables storage.
type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	InputPrefix  string
	OutputPrefix string
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads configuration from the environment (and an optional .env file) once.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.New()
		setDefaults(v)

		// Read from environment variables
		v.AutomaticEnv()

		instance = fromViper(v)
		ensureDir(instance.App.DataDir)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	d := sales_velocity.DefaultConfig()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", "*")
	v.SetDefault("SERVER_MAX_UPLOAD_MB", 32)

	v.SetDefault("SALES_SHEET", d.SalesSheet)
	v.SetDefault("PROFIT_SHEET", d.ProfitSheet)
	v.SetDefault("INVENTORY_SHEET", d.InventorySheet)
	v.SetDefault("VELOCITY_WINDOW", d.VelocityWindow)
	v.SetDefault("TREND_WINDOW", d.TrendWindow)
	v.SetDefault("URGENT_RESTOCK_DAYS", d.Thresholds.UrgentDays)
	v.SetDefault("RESTOCK_SOON_DAYS", d.Thresholds.RestockSoonDays)
	v.SetDefault("MONITOR_DAYS", d.Thresholds.MonitorDays)

	v.SetDefault("PIPELINE_WORKERS", runtime.NumCPU())
	v.SetDefault("APP_DATA_DIR", "./data/output")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_REPORT_TTL_SECONDS", 600)

	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_REGION", "")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_INPUT_PREFIX", "incoming/")
	v.SetDefault("STORAGE_OUTPUT_PREFIX", "reports/")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetString("SERVER_ALLOWED_ORIGINS")),
			MaxUploadMB:    v.GetInt64("SERVER_MAX_UPLOAD_MB"),
		},
		Report: ReportConfig{
			SalesSheet:        v.GetString("SALES_SHEET"),
			ProfitSheet:       v.GetString("PROFIT_SHEET"),
			InventorySheet:    v.GetString("INVENTORY_SHEET"),
			VelocityWindow:    v.GetInt("VELOCITY_WINDOW"),
			TrendWindow:       v.GetInt("TREND_WINDOW"),
			UrgentRestockDays: v.GetFloat64("URGENT_RESTOCK_DAYS"),
			RestockSoonDays:   v.GetFloat64("RESTOCK_SOON_DAYS"),
			MonitorDays:       v.GetFloat64("MONITOR_DAYS"),
		},
		Pipeline: PipelineConfig{
			Workers: v.GetInt("PIPELINE_WORKERS"),
		},
		App: AppConfig{
			DataDir: v.GetString("APP_DATA_DIR"),
		},
		Cache: CacheConfig{
			Enabled:          v.GetBool("CACHE_ENABLED"),
			RedisURL:         v.GetString("REDIS_URL"),
			RedisHost:        v.GetString("REDIS_HOST"),
			RedisPort:        v.GetString("REDIS_PORT"),
			RedisPassword:    v.GetString("REDIS_PASSWORD"),
			RedisDB:          v.GetInt("REDIS_DB"),
			ReportTTLSeconds: v.GetInt("CACHE_REPORT_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:     v.GetString("STORAGE_ENDPOINT"),
			AccessKey:    v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:    v.GetString("STORAGE_SECRET_KEY"),
			Bucket:       v.GetString("STORAGE_BUCKET"),
			Region:       v.GetString("STORAGE_REGION"),
			UseSSL:       v.GetBool("STORAGE_USE_SSL"),
			InputPrefix:  v.GetString("STORAGE_INPUT_PREFIX"),
			OutputPrefix: v.GetString("STORAGE_OUTPUT_PREFIX"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// SalesVelocity converts the report settings into a pipeline config.
func (c *Config) SalesVelocity() sales_velocity.Config {
	cfg := sales_velocity.DefaultConfig()
	cfg.SalesSheet = c.Report.SalesSheet
	cfg.ProfitSheet = c.Report.ProfitSheet
	cfg.InventorySheet = c.Report.InventorySheet
	cfg.VelocityWindow = c.Report.VelocityWindow
	cfg.TrendWindow = c.Report.TrendWindow
	cfg.Thresholds = sales_velocity.Thresholds{
		UrgentDays:      c.Report.UrgentRestockDays,
		RestockSoonDays: c.Report.RestockSoonDays,
		MonitorDays:     c.Report.MonitorDays,
	}
	return cfg
}

// StorageEnabled reports whether an object storage endpoint is configured.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != "" && c.Storage.Bucket != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Log.Fatal().Err(err).Str("dir", dir).Msg("failed to create directory")
		}
	}
}
