package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"doc-converter/internal/converter"
	"doc-converter/internal/domain"
	"doc-converter/internal/repository"
	"doc-converter/internal/service"
	"doc-converter/internal/session"
	"doc-converter/internal/storage"
	"doc-converter/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const sessionSweepInterval = 10 * time.Minute

// Container holds all application dependencies
type Container struct {
	Config AppConfig
	Logger domain.Logger

	DB    *sql.DB
	Mongo *mongo.Client
	Redis *redis.Client

	UserRepository     domain.UserRepository
	DocumentRepository domain.DocumentRepository
	SessionStore       domain.SessionStore
	Sessions           *session.Manager
	BlobStore          domain.BlobStore
	Converter          *converter.LibreOffice

	AuthService     domain.AuthService
	DocumentService domain.DocumentService

	cancel context.CancelFunc
}

// NewContainer connects every backing service named by cfg and wires the
// application. Whatever was opened is released if a later step fails.
func NewContainer(ctx context.Context, cfg AppConfig) (_ *Container, err error) {
	appLogger := logger.NewLogger(cfg.LogLevel)
	bg, cancel := context.WithCancel(context.Background())
	c := &Container{Config: cfg, Logger: appLogger, cancel: cancel}
	defer func() {
		if err != nil {
			c.Close(context.Background())
		}
	}()

	if cfg.UsesDevSecret() {
		appLogger.Warn("SECRET_KEY is the development default; set it before deploying")
	}

	for _, dir := range []string{cfg.UploadPath, cfg.StagingPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	c.DB, err = OpenUserDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.UserRepository = repository.NewSQLUserRepository(c.DB)

	c.Mongo, err = repository.ConnectMongo(ctx, cfg.MongoURI())
	if err != nil {
		return nil, err
	}
	docRepo := repository.NewMongoDocumentRepository(c.Mongo.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection))
	if err := docRepo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	c.DocumentRepository = docRepo

	c.SessionStore, c.Redis, err = newSessionStore(ctx, bg, cfg, appLogger)
	if err != nil {
		return nil, err
	}
	c.Sessions = session.NewManager(c.SessionStore, cfg.SecretKey, cfg.SessionTTL, cfg.SecureCookie)

	c.BlobStore, err = newBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c.Converter = converter.NewLibreOffice(cfg.ConverterBinary, cfg.ConversionTimeout)
	if err := c.Converter.Available(); err != nil {
		appLogger.Warn("Converter binary not found; uploads will fail until it is installed", "binary", c.Converter.Name())
	}

	c.AuthService = service.NewAuthService(c.UserRepository, appLogger)
	c.DocumentService = service.NewDocumentService(
		c.DocumentRepository,
		c.BlobStore,
		c.Converter,
		service.NewPDFProcessor(appLogger),
		service.DocumentServiceOptions{StagingDir: cfg.StagingPath, MaxFileSize: cfg.MaxFileSize},
		appLogger,
	)

	appLogger.Info("Container initialized",
		"db_driver", cfg.DBDriver,
		"session_backend", cfg.SessionBackend,
		"storage_backend", cfg.StorageBackend,
	)
	return c, nil
}

// OpenUserDatabase opens the credential store and applies its migrations.
func OpenUserDatabase(ctx context.Context, cfg AppConfig) (*sql.DB, error) {
	db, err := repository.OpenDatabase(ctx, cfg.DBDriver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	if err := repository.RunMigrations(ctx, db, cfg.DBDriver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newSessionStore(ctx, bg context.Context, cfg AppConfig, log domain.Logger) (domain.SessionStore, *redis.Client, error) {
	switch cfg.SessionBackend {
	case SessionRedis:
		client, err := session.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client), client, nil
	case SessionMemory:
		store := session.NewMemoryStore()
		go store.RunSweeper(bg, sessionSweepInterval, log)
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported SESSION_BACKEND %q", cfg.SessionBackend)
	}
}

func newBlobStore(ctx context.Context, cfg AppConfig) (domain.BlobStore, error) {
	switch cfg.StorageBackend {
	case StorageLocal:
		return storage.NewLocalStore(cfg.UploadPath)
	case StorageS3:
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case StorageSupabase:
		return storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

// Close releases every connection the container opened.
func (c *Container) Close(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.Mongo != nil {
		errs = append(errs, c.Mongo.Disconnect(ctx))
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
