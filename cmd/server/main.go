package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/media"
	"github.com/anonto42/snapfeed/internal/navigation"
	"github.com/anonto42/snapfeed/internal/repositories"
	"github.com/anonto42/snapfeed/internal/router"
	"github.com/anonto42/snapfeed/internal/session"
	"github.com/anonto42/snapfeed/internal/social"
	"github.com/anonto42/snapfeed/pkg/config"
	"github.com/anonto42/snapfeed/pkg/firebase"
	"github.com/anonto42/snapfeed/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Initialize database connections
	db, err := config.InitDB(cfg, zlog)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Firebase when anything needs it
	var fb *firebase.App
	if cfg.FirebaseCredentialsPath != "" || cfg.DocStore == config.DocStoreFirestore || cfg.MediaStore == config.MediaStoreBucket {
		fb, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		defer fb.Close()
		zlog.Info("firebase initialized", zap.Bool("bucket", fb.Bucket != nil))
	}

	docs := openDocumentStore(cfg, db, fb)
	mediaStore := openMediaStore(cfg, fb)

	var credentials repositories.CredentialRepository = repositories.NewMemoryCredentialRepository()
	if db.Postgres != nil {
		credentials = repositories.NewPostgresCredentialRepository(db.Postgres)
	}
	var federated gateway.FederatedVerifier
	if fb != nil {
		federated = fb.AuthClient
	}
	auth := gateway.NewAuthenticator(credentials, federated, cfg.JWTSecret, cfg.TokenTTL)

	var stacks navigation.StackStore = navigation.NewMemoryStackStore()
	if db.Redis != nil {
		stacks = navigation.NewRedisStackStore(db.Redis, cfg.StackTTL)
	}

	validate := validator.New()
	graph := social.NewGraph(docs, zlog)
	sessions := session.NewManager(session.Config{
		Auth:     auth,
		Graph:    graph,
		Media:    mediaStore,
		Stacks:   stacks,
		Validate: validate,
		Logger:   zlog,
		IdleTTL:  cfg.SessionIdleTTL,
	})
	defer sessions.Shutdown()
	go sessions.Reap(ctx, time.Minute)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	router.SetupMiddleware(e, zlog)
	router.SetupRoutes(e, router.Deps{
		Auth:     auth,
		Graph:    graph,
		Media:    mediaStore,
		Sessions: sessions,
		Validate: validate,
		Logger:   zlog,
	})

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("doc_store", cfg.DocStore), zap.String("media_store", cfg.MediaStore))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
	zlog.Info("server stopped")
}

func openDocumentStore(cfg *config.Config, db *config.DB, fb *firebase.App) gateway.DocumentStore {
	switch cfg.DocStore {
	case config.DocStoreFirestore:
		return gateway.NewFirestoreStore(fb.Firestore)
	case config.DocStoreMongo:
		return gateway.NewMongoStore(db.Mongo.Database(cfg.MongoDatabase))
	case config.DocStoreMemory:
		return gateway.NewMemoryStore()
	}
	log.Fatalf("Unknown DOC_STORE %q", cfg.DocStore)
	return nil
}

func openMediaStore(cfg *config.Config, fb *firebase.App) media.Store {
	switch cfg.MediaStore {
	case config.MediaStoreBucket:
		if fb.Bucket == nil {
			log.Fatalf("MEDIA_STORE=bucket needs FIREBASE_STORAGE_BUCKET")
		}
		return media.NewBucketStore(fb.Bucket)
	case config.MediaStoreLocal:
		store, err := media.NewLocalStore(cfg.MediaRoot)
		if err != nil {
			log.Fatalf("Failed to open media root %s: %v", cfg.MediaRoot, err)
		}
		return store
	}
	log.Fatalf("Unknown MEDIA_STORE %q", cfg.MediaStore)
	return nil
}
