package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted by the configuration.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SessionMemory = "memory"
	SessionRedis  = "redis"

	StorageLocal    = "local"
	StorageS3       = "s3"
	StorageSupabase = "supabase"
)

const devSecretKey = "your-secret-key-change-in-production"

// AppConfig is the immutable runtime configuration. It is built once at
// startup and passed by value to the components that need it.
type AppConfig struct {
	Host        string
	ServerPort  string
	LogLevel    string
	SecretKey   string
	SessionTTL  time.Duration
	MaxFileSize int64

	// SecureCookie marks the session cookie HTTPS-only.
	SecureCookie bool

	SessionBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	DBDriver   string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	MongoHost       string
	MongoPort       int
	MongoDatabase   string
	MongoCollection string

	UploadPath        string
	StagingPath       string
	ConverterBinary   string
	ConversionTimeout time.Duration

	StorageBackend string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	AllowedOrigins []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SECRET_KEY", devSecretKey)
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_SECURE_COOKIE", false)
	v.SetDefault("MAX_FILE_SIZE", 50*1024*1024) // 50MB default

	v.SetDefault("SESSION_BACKEND", SessionMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "converter_db")
	v.SetDefault("SQLITE_PATH", "converter.db")

	v.SetDefault("MONGO_HOST", "localhost")
	v.SetDefault("MONGO_PORT", 27017)
	v.SetDefault("MONGO_DATABASE", "converter")
	v.SetDefault("MONGO_COLLECTION", "documents")

	v.SetDefault("UPLOAD_PATH", "uploads")
	v.SetDefault("STAGING_PATH", "staging")
	v.SetDefault("CONVERTER_BINARY", "libreoffice")
	v.SetDefault("CONVERSION_TIMEOUT", "2m")

	v.SetDefault("STORAGE_BACKEND", StorageLocal)
	v.SetDefault("S3_BUCKET", "converted")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("SUPABASE_URL", "")
	v.SetDefault("SUPABASE_ANON_KEY", "")
	v.SetDefault("SUPABASE_BUCKET", "converted")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5000,http://localhost:3000")
}

// Load builds the configuration from defaults, an optional config file and
// the environment, in increasing order of precedence.
func Load(configFile string) (AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) AppConfig {
	// Cloud Run (and many PaaS) provide the listening port via PORT.
	// Keep SERVER_PORT for local/dev compatibility.
	port := v.GetString("PORT")
	if port == "" {
		port = v.GetString("SERVER_PORT")
	}

	maxFileSize := v.GetInt64("MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 50 * 1024 * 1024
	}

	return AppConfig{
		Host:         v.GetString("HOST"),
		ServerPort:   port,
		LogLevel:     v.GetString("LOG_LEVEL"),
		SecretKey:    v.GetString("SECRET_KEY"),
		SessionTTL:   durationOr(v.GetString("SESSION_TTL"), 24*time.Hour),
		MaxFileSize:  maxFileSize,
		SecureCookie: v.GetBool("SESSION_SECURE_COOKIE"),

		SessionBackend: strings.ToLower(v.GetString("SESSION_BACKEND")),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetInt("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		SQLitePath: v.GetString("SQLITE_PATH"),

		MongoHost:       v.GetString("MONGO_HOST"),
		MongoPort:       v.GetInt("MONGO_PORT"),
		MongoDatabase:   v.GetString("MONGO_DATABASE"),
		MongoCollection: v.GetString("MONGO_COLLECTION"),

		UploadPath:        v.GetString("UPLOAD_PATH"),
		StagingPath:       v.GetString("STAGING_PATH"),
		ConverterBinary:   v.GetString("CONVERTER_BINARY"),
		ConversionTimeout: durationOr(v.GetString("CONVERSION_TIMEOUT"), 2*time.Minute),

		StorageBackend: strings.ToLower(v.GetString("STORAGE_BACKEND")),
		S3Bucket:       v.GetString("S3_BUCKET"),
		S3Region:       v.GetString("S3_REGION"),
		S3Endpoint:     v.GetString("S3_ENDPOINT"),
		S3AccessKey:    v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:    v.GetString("S3_SECRET_KEY"),
		SupabaseURL:    v.GetString("SUPABASE_URL"),
		SupabaseKey:    v.GetString("SUPABASE_ANON_KEY"),
		SupabaseBucket: v.GetString("SUPABASE_BUCKET"),

		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}
}

// Validate rejects unknown backends and incomplete backend settings.
func (c AppConfig) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.SessionBackend {
	case SessionMemory, SessionRedis:
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND %q", c.SessionBackend)
	}
	switch c.StorageBackend {
	case StorageLocal, StorageS3:
	case StorageSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required for the supabase storage backend")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY must not be empty")
	}
	if c.ConversionTimeout <= 0 {
		return fmt.Errorf("CONVERSION_TIMEOUT must be positive")
	}
	return nil
}

// UsesDevSecret reports whether the built-in development secret is in use.
func (c AppConfig) UsesDevSecret() bool {
	return c.SecretKey == devSecretKey
}

// Addr returns the listen address of the HTTP server.
func (c AppConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.ServerPort)
}

// DatabaseDSN returns the data source name for the configured driver.
func (c AppConfig) DatabaseDSN() string {
	if c.DBDriver == DriverSQLite {
		return "file:" + c.SQLitePath + "?_foreign_keys=on&_journal_mode=WAL"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// MongoURI returns the connection string of the document store.
func (c AppConfig) MongoURI() string {
	return "mongodb://" + net.JoinHostPort(c.MongoHost, strconv.Itoa(c.MongoPort)) + "/"
}

func durationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
