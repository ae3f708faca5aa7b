// Package services wires the pipeline components from configuration.
// Construction happens once at process start; components receive their
// dependencies explicitly instead of reading the environment at call time.
package services

import (
	"context"
	"fmt"

	"github.com/isabela-labs/tortoisefind/pkg/api/config"
	"github.com/isabela-labs/tortoisefind/pkg/blob"
	"github.com/isabela-labs/tortoisefind/pkg/jobs"
	"github.com/isabela-labs/tortoisefind/pkg/kv"
	"github.com/isabela-labs/tortoisefind/pkg/model"
	"github.com/isabela-labs/tortoisefind/pkg/pipeline"
	"github.com/isabela-labs/tortoisefind/pkg/queue"
	"github.com/isabela-labs/tortoisefind/pkg/tlog"
	"github.com/isabela-labs/tortoisefind/pkg/worker"
)

// Services holds the constructed pipeline components.
type Services struct {
	Cfg      *config.EnvConfig
	Blob     blob.Store
	KV       kv.Store
	Queue    queue.Queue
	Jobs     *jobs.Store
	Registry *model.Registry
	Reader   *pipeline.Reader
	Exporter *pipeline.Exporter
	Sink     *pipeline.ConfirmationSink
	Log      *tlog.Logger

	embedded bool
}

// NewServices constructs all components from the validated config.
func NewServices(ctx context.Context, cfg *config.EnvConfig, log *tlog.Logger) (*Services, error) {
	if log == nil {
		log = tlog.NewNop()
	}

	var blobStore blob.Store
	if cfg.S3Endpoint != "" {
		s3, err := blob.NewS3Store(blob.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.ArtifactBucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3Secure,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize blob store: %w", err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", cfg.ArtifactBucket, err)
		}
		blobStore = s3
	} else {
		log.Warn("S3_ENDPOINT not set, using in-memory blob store")
		blobStore = blob.NewMemStore(cfg.ArtifactBucket)
	}

	var (
		kvStore  kv.Store
		runQueue queue.Queue
		embedded bool
	)
	if cfg.RedisAddr != "" {
		valkey, err := kv.NewValkeyStore(kv.ValkeyConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect metadata store: %w", err)
		}
		kvStore = valkey

		rq, err := queue.NewRedisQueue(queue.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Name:     cfg.QueueName,
		})
		if err != nil {
			return nil, fmt.Errorf("connect queue: %w", err)
		}
		runQueue = rq
	} else {
		log.Warn("REDIS_ADDR not set, using in-memory queue with embedded worker")
		kvStore = kv.NewMemStore()
		runQueue = queue.NewMemQueue(0)
		embedded = true
	}

	jobStore := jobs.NewStore(kvStore, cfg.JobTTL())
	reader := &pipeline.Reader{Store: blobStore}

	return &Services{
		Cfg:      cfg,
		Blob:     blobStore,
		KV:       kvStore,
		Queue:    runQueue,
		Jobs:     jobStore,
		Registry: model.NewRegistry(blobStore),
		Reader:   reader,
		Exporter: &pipeline.Exporter{
			Reader:     reader,
			Store:      blobStore,
			PresignTTL: cfg.PresignTTL(),
		},
		Sink:     &pipeline.ConfirmationSink{Store: blobStore},
		Log:      log,
		embedded: embedded,
	}, nil
}

// EmbeddedWorker reports whether the API process must host its own
// worker (no external queue configured).
func (s *Services) EmbeddedWorker() bool {
	return s.embedded
}

// NewWorker builds a worker over the same stores this process uses.
func (s *Services) NewWorker() *worker.Worker {
	return &worker.Worker{
		Queue:       s.Queue,
		Jobs:        s.Jobs,
		Store:       s.Blob,
		Registry:    s.Registry,
		Tiler:       &model.SyntheticTiler{Count: s.Cfg.TileCount},
		Thumbs:      &model.ScoreThumbnailer{},
		PresignTTL:  s.Cfg.PresignTTL(),
		Concurrency: s.Cfg.WorkerConcurrency,
		Log:         s.Log,
	}
}

// Close releases queue and store connections.
func (s *Services) Close() error {
	if err := s.Queue.Close(); err != nil {
		return err
	}
	return s.KV.Close()
}
