package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided
// via config/config.json or the environment.
type AppConfig struct {
	AppPort   string
	JWTSecret string
	GinMode   string

	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	// S3-compatible blob storage (Cloudflare R2 in production)
	BlobEndpoint        string
	BlobRegion          string
	BlobBucket          string
	BlobAccessKeyID     string
	BlobSecretAccessKey string
	BlobPublicBaseURL   string
	BlobTimeoutSec      int

	// Bin cache tuning
	CacheMetaTTLSec    int
	CacheContentTTLSec int

	// Hash pool tuning
	PoolLowWatermark int
	PoolBatchSize    int
	PoolIntervalSec  int

	// Expiry reaper sweep interval
	ReaperIntervalSec int

	RateLimitPerMinute int
	AllowedOrigins     []string
	AdminUsernames     []string

	LogLevel      string
	LogPath       string
	GinPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// CacheMetaTTL returns the metadata cache entry TTL.
func (c AppConfig) CacheMetaTTL() time.Duration {
	return time.Duration(c.CacheMetaTTLSec) * time.Second
}

// CacheContentTTL returns the content cache entry TTL.
func (c AppConfig) CacheContentTTL() time.Duration {
	return time.Duration(c.CacheContentTTLSec) * time.Second
}

// BlobTimeout returns the per-operation blob store timeout.
func (c AppConfig) BlobTimeout() time.Duration {
	return time.Duration(c.BlobTimeoutSec) * time.Second
}

// PoolInterval returns the hash pool replenish interval.
func (c AppConfig) PoolInterval() time.Duration {
	return time.Duration(c.PoolIntervalSec) * time.Second
}

// ReaperInterval returns the expiry reaper sweep interval.
func (c AppConfig) ReaperInterval() time.Duration {
	return time.Duration(c.ReaperIntervalSec) * time.Second
}

// loadJSONConfig reads the JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			case json.Number:
				i, _ := t.Int64()
				return int(i)
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.GinMode = getString(app, "GinMode")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		if list := getStringSlice(app, "AdminUsernames"); len(list) > 0 {
			out.AdminUsernames = list
		}
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if bl, ok := raw["blob"].(map[string]any); ok {
		out.BlobEndpoint = getString(bl, "Endpoint")
		out.BlobRegion = getString(bl, "Region")
		out.BlobBucket = getString(bl, "Bucket")
		out.BlobAccessKeyID = getString(bl, "AccessKeyID")
		out.BlobSecretAccessKey = getString(bl, "SecretAccessKey")
		out.BlobPublicBaseURL = getString(bl, "PublicBaseURL")
		if v := getInt(bl, "TimeoutSec"); v != 0 {
			out.BlobTimeoutSec = v
		}
	}

	if ch, ok := raw["cache"].(map[string]any); ok {
		if v := getInt(ch, "MetaTTLSec"); v != 0 {
			out.CacheMetaTTLSec = v
		}
		if v := getInt(ch, "ContentTTLSec"); v != 0 {
			out.CacheContentTTLSec = v
		}
	}

	if hp, ok := raw["hashpool"].(map[string]any); ok {
		if v := getInt(hp, "LowWatermark"); v != 0 {
			out.PoolLowWatermark = v
		}
		if v := getInt(hp, "BatchSize"); v != 0 {
			out.PoolBatchSize = v
		}
		if v := getInt(hp, "IntervalSec"); v != 0 {
			out.PoolIntervalSec = v
		}
	}

	if rp, ok := raw["reaper"].(map[string]any); ok {
		if v := getInt(rp, "IntervalSec"); v != 0 {
			out.ReaperIntervalSec = v
		}
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		if v := getString(lg, "GinPath"); v != "" {
			out.GinPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "binify"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.BlobRegion == "" {
		c.BlobRegion = "auto"
	}
	if c.BlobBucket == "" {
		c.BlobBucket = "binify"
	}
	if c.BlobTimeoutSec == 0 {
		c.BlobTimeoutSec = 5
	}
	if c.CacheMetaTTLSec == 0 {
		c.CacheMetaTTLSec = 3600
	}
	if c.CacheContentTTLSec == 0 {
		c.CacheContentTTLSec = 3600
	}
	if c.PoolLowWatermark == 0 {
		c.PoolLowWatermark = 100
	}
	if c.PoolBatchSize == 0 {
		c.PoolBatchSize = 100
	}
	if c.PoolIntervalSec == 0 {
		c.PoolIntervalSec = 1
	}
	if c.ReaperIntervalSec == 0 {
		c.ReaperIntervalSec = 60
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	setStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			*dst = mustParseInt(v)
		}
	}

	setStr("APP_PORT", &c.AppPort)
	setStr("JWT_SECRET", &c.JWTSecret)
	setStr("GIN_MODE", &c.GinMode)

	setStr("DATABASE_URI", &c.DatabaseURI)
	setStr("DB_HOST", &c.DBHost)
	setStr("DB_PORT", &c.DBPort)
	setStr("DB_USER", &c.DBUser)
	setStr("DB_PASSWORD", &c.DBPassword)
	setStr("DB_NAME", &c.DBName)

	setStr("REDIS_HOST", &c.RedisHost)
	setInt("REDIS_PORT", &c.RedisPort)
	setInt("REDIS_DB", &c.RedisDB)
	setStr("REDIS_PASSWORD", &c.RedisPassword)

	setStr("BLOB_ENDPOINT", &c.BlobEndpoint)
	setStr("BLOB_REGION", &c.BlobRegion)
	setStr("BLOB_BUCKET", &c.BlobBucket)
	setStr("BLOB_ACCESS_KEY_ID", &c.BlobAccessKeyID)
	setStr("BLOB_SECRET_ACCESS_KEY", &c.BlobSecretAccessKey)
	setStr("BLOB_PUBLIC_BASE_URL", &c.BlobPublicBaseURL)
	setInt("BLOB_TIMEOUT_SEC", &c.BlobTimeoutSec)

	setInt("CACHE_META_TTL_SEC", &c.CacheMetaTTLSec)
	setInt("CACHE_CONTENT_TTL_SEC", &c.CacheContentTTLSec)

	setInt("POOL_LOW_WATERMARK", &c.PoolLowWatermark)
	setInt("POOL_BATCH_SIZE", &c.PoolBatchSize)
	setInt("POOL_INTERVAL_SEC", &c.PoolIntervalSec)
	setInt("REAPER_INTERVAL_SEC", &c.ReaperIntervalSec)

	setInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("ADMIN_USERNAMES"); v != "" {
		c.AdminUsernames = splitAndTrim(v)
	}

	setStr("LOG_LEVEL", &c.LogLevel)
	setStr("LOG_PATH", &c.LogPath)
	setStr("GIN_PATH", &c.GinPath)
	setInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	setInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	setInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress = v == "true"
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
