package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"portfolio/internal/cache"
	"portfolio/internal/config"
	"portfolio/internal/database"
	"portfolio/internal/handlers"
	"portfolio/internal/imageref"
	"portfolio/internal/models"
	"portfolio/internal/repository"
	"portfolio/internal/repository/mongostore"
	"portfolio/internal/service"
	"portfolio/internal/storage"
)

// Backend holds the process-wide clients and the services built on them.
// cmd/api and cmd/worker share it so both resolve image references the same
// way.
type Backend struct {
	Config *config.AppConfig
	Log    zerolog.Logger

	Pool   *pgxpool.Pool
	Redis  *redis.Client
	Bucket storage.Bucket
	Mongo  *mongo.Client

	Operators *repository.OperatorRepository
	Sessions  *repository.SessionRepository

	Services   handlers.Services
	Reconciler *service.Reconciler
}

func Open(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*Backend, error) {
	if cfg.Postgres.MigrateOnStart {
		if err := database.Migrate(cfg.Postgres.DSN, log); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	bucket, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := bucket.Ensure(ctx); err != nil {
		log.Warn().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("ensure bucket failed")
	}

	b := &Backend{
		Config:    cfg,
		Log:       log,
		Pool:      pool,
		Redis:     redisClient,
		Bucket:    bucket,
		Operators: repository.NewOperatorRepository(pool),
		Sessions:  repository.NewSessionRepository(pool),
	}
	stores, err := b.openStores(ctx)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.wire(stores)
	return b, nil
}

type recordStores struct {
	projects       service.RecordStore[models.Project]
	blog           service.RecordStore[models.BlogPost]
	certifications service.RecordStore[models.Certification]
	messages       service.RecordStore[models.Message]
	skills         service.RecordStore[models.Skill]
}

func (b *Backend) openStores(ctx context.Context) (recordStores, error) {
	if b.Config.Records.Driver != "mongo" {
		return recordStores{
			projects:       repository.NewProjectRepository(b.Pool),
			blog:           repository.NewBlogRepository(b.Pool),
			certifications: repository.NewCertificationRepository(b.Pool),
			messages:       repository.NewMessageRepository(b.Pool),
			skills:         repository.NewSkillRepository(b.Pool),
		}, nil
	}

	client, err := mongostore.Connect(ctx, b.Config.Mongo)
	if err != nil {
		return recordStores{}, err
	}
	b.Mongo = client
	db := client.Database(b.Config.Mongo.Database)

	projects := mongostore.New[models.Project, *models.Project](db, "projects")
	blog := mongostore.New[models.BlogPost, *models.BlogPost](db, "blog_posts")
	for _, idx := range []interface{ EnsureIndexes(context.Context) error }{projects, blog} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			return recordStores{}, err
		}
	}
	return recordStores{
		projects:       projects,
		blog:           blog,
		certifications: mongostore.New[models.Certification, *models.Certification](db, "certifications"),
		messages:       mongostore.New[models.Message, *models.Message](db, "messages"),
		skills:         mongostore.New[models.Skill, *models.Skill](db, "skills"),
	}, nil
}

func (b *Backend) wire(stores recordStores) {
	resolver := imageref.New(b.Config.Storage.Bucket, b.Bucket.BaseURL(), b.Config.Storage.PublicBaseURL)
	media := service.NewMediaService(b.Bucket, resolver, b.Log.With().Str("component", "media").Logger())

	projects := service.NewRecordService[models.Project]("project", stores.projects, media, b.Log)
	blog := service.NewRecordService[models.BlogPost]("blog post", stores.blog, media, b.Log)
	certs := service.NewRecordService[models.Certification]("certification", stores.certifications, media, b.Log)
	messages := service.NewRecordService[models.Message]("message", stores.messages, media, b.Log)
	skills := service.NewRecordService[models.Skill]("skill", stores.skills, media, b.Log)

	b.Services = handlers.Services{
		Projects:       projects,
		Blog:           blog,
		Certifications: certs,
		Messages:       messages,
		Skills:         skills,
		Media:          media,
		Auth:           service.NewAuthService(b.Operators, b.Sessions, b.Config.Security, b.Log.With().Str("component", "auth").Logger()),
	}

	b.Reconciler = service.NewReconciler(
		b.Bucket,
		resolver,
		[]service.KeySource{projects, blog, certs},
		b.Config.Reconcile.GracePeriod,
		b.Config.Reconcile.Prefix,
		b.Log.With().Str("component", "reconcile").Logger(),
	)
}

// Checks are the probes served by the health endpoint.
func (b *Backend) Checks() map[string]handlers.Check {
	checks := map[string]handlers.Check{
		"postgres": func(ctx context.Context) error { return b.Pool.Ping(ctx) },
		"redis":    func(ctx context.Context) error { return b.Redis.Ping(ctx).Err() },
		"storage": func(ctx context.Context) error {
			_, err := b.Bucket.List(ctx, service.UploadPrefix+"/.health")
			return err
		},
	}
	if b.Mongo != nil {
		checks["mongo"] = func(ctx context.Context) error { return b.Mongo.Ping(ctx, nil) }
	}
	return checks
}

func (b *Backend) Close() {
	if b.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.Mongo.Disconnect(ctx); err != nil {
			b.Log.Error().Err(err).Msg("mongo disconnect error")
		}
	}
	b.Pool.Close()
	if err := b.Redis.Close(); err != nil {
		b.Log.Error().Err(err).Msg("redis close error")
	}
}
