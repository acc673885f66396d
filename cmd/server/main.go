package main

import (
	"StroyTrack/internal/config"
	"StroyTrack/internal/handlers"
	"StroyTrack/internal/middleware"
	"StroyTrack/internal/repo"
	"StroyTrack/internal/service"
	"StroyTrack/internal/storage"
	"context"
	"net/http"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	//context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	// хранилище файлов: S3, если задан bucket, иначе локальный каталог с раздачей через /files/*
	var (
		fileStorage storage.FileStorage
		files       http.Handler
	)
	if cfg.UseS3() {
		fileStorage, err = storage.NewS3Storage(ctx, cfg)
		if err != nil {
			sugar.Fatalw("failed to initialize S3 storage", "bucket", cfg.S3Bucket, "error", err)
		}
	} else {
		local, err := storage.NewLocalStorage(cfg.StorageDir, "/files")
		if err != nil {
			sugar.Fatalw("failed to initialize local storage", "dir", cfg.StorageDir, "error", err)
		}
		fileStorage = local
		files = local.Handler()
	}

	txRepo := repo.NewTransactionRepository(gormDB)
	attRepo := repo.NewAttachmentRepository(gormDB)
	txService := service.NewTransactionService(txRepo, attRepo, fileStorage, sugar, service.Limits{
		MaxBytes:     cfg.AttachmentMaxBytes(),
		AllowedTypes: cfg.AttachmentTypes,
	})

	h := handlers.NewHandler(txService, files, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DatabaseDSN", cfg.DatabaseDSN,
		"S3Bucket", cfg.S3Bucket,
		"StorageDir", cfg.StorageDir,
		"AttachmentMaxMB", cfg.AttachmentMaxSizeMB,
	)

	if err := http.ListenAndServe(addr, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}
