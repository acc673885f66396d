package handlers

import (
	"StroyTrack/internal/config"
	"StroyTrack/internal/middleware"
	"StroyTrack/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров.
// files — обработчик /files/* для локального хранилища; nil, если файлы отдаёт S3.
func NewHandler(
	txService *service.TransactionService,
	files http.Handler,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)

	// Handlers
	txHandler := NewTransactionHandler(txService, logger, config)

	// Transaction routes
	r.Route("/api/materials/transactions", func(r chi.Router) {
		r.Post("/", txHandler.Create)
		r.Get("/{id}", txHandler.Get)
		r.Put("/{id}", txHandler.Update)

		r.Get("/{id}/attachments", txHandler.ListAttachments)
		r.Post("/{id}/attachments", txHandler.UploadAttachments)
		r.Delete("/attachments/{attachmentId}", txHandler.DeleteAttachment)

		// устаревший формат: имена файлов хранятся списком в самой транзакции
		r.Post("/files", txHandler.UploadLegacyFiles)
		r.Delete("/files/{filename}", txHandler.DeleteLegacyFile)
	})

	r.Post("/api/admin/attachments/cleanup", txHandler.CleanupOrphans)

	if files != nil {
		r.Handle("/files/*", files)
	}

	return &Handler{Router: r}
}
