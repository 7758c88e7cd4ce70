// clipwebapi/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clipwebapi/api"
	"clipwebapi/cmdexec"
	"clipwebapi/config"
	"clipwebapi/ffmpeg"
	"clipwebapi/job"
	"clipwebapi/storage"
	"clipwebapi/store"
	"clipwebapi/ytdlp"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Check the external tools before accepting work
	for _, bin := range []string{cfg.YtDlpBin, cfg.FFBin, cfg.FFProbeBin} {
		if err := ffmpeg.CheckBinary(bin); err != nil {
			log.Fatalf("Failed to find required tool: %v", err)
		}
	}
	extraArgs, err := cmdexec.ParseExtraArgs(cfg.YtDlpExtraArgs)
	if err != nil {
		log.Fatalf("Invalid YTDLP_EXTRA_ARGS: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Initialize dependencies
	jobStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize job store: %v", err)
	}
	defer jobStore.Close()

	objects, files, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	runner := &cmdexec.ExecRunner{Verbose: cfg.LogCommands}
	ytdlpClient := ytdlp.NewClient(cfg.YtDlpBin, extraArgs, runner)

	jobManager, err := job.NewManager(cfg, job.Deps{
		Downloader: ytdlpClient,
		Prober:     ffmpeg.NewProber(cfg.FFProbeBin, runner),
		Transcoder: ffmpeg.NewTranscoder(cfg.FFBin, runner),
		Store:      jobStore,
		Objects:    objects,
	})
	if err != nil {
		log.Fatalf("Failed to initialize job manager: %v", err)
	}
	log.Printf("Working directory: %s", jobManager.WorkDir())

	// 4. Set up router and server
	router := api.SetupRouter(jobManager, ytdlpClient, files, cfg)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 5. Wait for interrupt signal for graceful shutdown
	<-ctx.Done()

	stop()
	log.Println("Shutting down gracefully, press Ctrl+C again to force")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Pipelines have no cancellation; give them a bounded window to record their result.
	waitCtx, cancelWait := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelWait()
	if err := jobManager.Wait(waitCtx); err != nil {
		log.Printf("Exiting with jobs still running: %v", err)
	}

	log.Println("Server exiting")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		pool, err := store.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
		if err != nil {
			return nil, err
		}
		log.Println("Using postgres job store")
		return store.NewPostgresStore(pool), nil
	case "redis":
		s, err := store.NewRedisStore(cfg.RedisURL, cfg.JobTTL)
		if err != nil {
			return nil, err
		}
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		log.Println("Using redis job store")
		return s, nil
	default:
		log.Println("Using in-memory job store")
		return store.NewMemoryStore(), nil
	}
}

// openStorage returns the object store and, for the local driver, the file
// resolver backing /files.
func openStorage(cfg *config.Config) (storage.ObjectStore, api.LocalFiles, error) {
	if cfg.StorageDriver == "s3" {
		s, err := storage.NewS3Store(storage.S3Config{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Region:    cfg.StorageRegion,
			Bucket:    cfg.StorageBucket,
			UseSSL:    cfg.StorageUseSSL,
			PublicURL: cfg.StoragePublicURL,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using S3 storage at %s, bucket %s", cfg.StorageEndpoint, cfg.StorageBucket)
		return s, nil, nil
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port
	}
	s, err := storage.NewLocalStore(cfg.LocalStorageDir, baseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Using local storage in %s", cfg.LocalStorageDir)
	return s, s, nil
}
