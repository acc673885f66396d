package handlers

import (
	"StroyTrack/internal/config"
	"StroyTrack/internal/model"
	"StroyTrack/internal/service"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxFilesPerRequest ограничивает число файлов в одном multipart-запросе.
const maxFilesPerRequest = 20

// TransactionHandler обрабатывает транзакции материалов и их вложения.
type TransactionHandler struct {
	Service *service.TransactionService
	Logger  *zap.SugaredLogger
	Config  *config.Config
}

// NewTransactionHandler создаёт хендлер транзакций
func NewTransactionHandler(svc *service.TransactionService, logger *zap.SugaredLogger, cfg *config.Config) *TransactionHandler {
	return &TransactionHandler{Service: svc, Logger: logger, Config: cfg}
}

// TransactionRequest — поля транзакции без вложений.
type TransactionRequest struct {
	MaterialID string                `json:"materialId"`
	Type       model.TransactionType `json:"type"`
	Quantity   float64               `json:"quantity"`
	Reason     string                `json:"reason"`
	ProjectID  *string               `json:"projectId,omitempty"`
	Version    *int64                `json:"version,omitempty"`
}

// TransactionDTO — представление транзакции в ответах API.
type TransactionDTO struct {
	ID         string                `json:"id"`
	MaterialID string                `json:"materialId"`
	Type       model.TransactionType `json:"type"`
	Quantity   float64               `json:"quantity"`
	Reason     string                `json:"reason"`
	ProjectID  *string               `json:"projectId,omitempty"`
	Files      []string              `json:"files,omitempty"`
	Version    int64                 `json:"version"`
	CreatedAt  string                `json:"createdAt"`
	UpdatedAt  string                `json:"updatedAt"`
}

// AttachmentDTO — представление вложения в ответах API.
type AttachmentDTO struct {
	ID               string `json:"id"`
	TransactionID    string `json:"transactionId"`
	FileURL          string `json:"fileUrl"`
	OriginalFilename string `json:"originalFilename"`
	FileType         string `json:"fileType"`
	FileSize         int64  `json:"fileSize"`
	ClientRef        string `json:"clientRef,omitempty"`
	CreatedAt        string `json:"createdAt"`
}

// LegacyFileDTO — файл устаревшего формата: имя служит идентификатором.
type LegacyFileDTO struct {
	Filename string `json:"filename"`
	FileURL  string `json:"fileUrl"`
}

// CleanupDTO — отчёт об очистке файлов-сирот.
type CleanupDTO struct {
	Scanned int      `json:"scanned"`
	Removed []string `json:"removed"`
	Failed  []string `json:"failed"`
}

func toTransactionDTO(tx *model.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:         tx.ID,
		MaterialID: tx.MaterialID,
		Type:       tx.Type,
		Quantity:   tx.Quantity,
		Reason:     tx.Reason,
		ProjectID:  tx.ProjectID,
		Files:      tx.Files,
		Version:    tx.Version,
		CreatedAt:  tx.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  tx.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toAttachmentDTOs(atts []model.Attachment) []AttachmentDTO {
	out := make([]AttachmentDTO, 0, len(atts))
	for _, a := range atts {
		var ref string
		if a.ClientRef != nil {
			ref = *a.ClientRef
		}
		out = append(out, AttachmentDTO{
			ID:               a.ID,
			TransactionID:    a.TransactionID,
			FileURL:          a.FileURL,
			OriginalFilename: a.OriginalFilename,
			FileType:         a.FileType,
			FileSize:         a.FileSize,
			ClientRef:        ref,
			CreatedAt:        a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func (r TransactionRequest) toInput() service.TransactionInput {
	return service.TransactionInput{
		MaterialID: r.MaterialID,
		Type:       r.Type,
		Quantity:   r.Quantity,
		Reason:     r.Reason,
		ProjectID:  r.ProjectID,
		Version:    r.Version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError переводит ошибку сервиса в HTTP-статус.
func (h *TransactionHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, service.ErrVersionConflict):
		http.Error(w, "version conflict", http.StatusConflict)
	case errors.Is(err, service.ErrTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, service.ErrUnsupportedType):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
	default:
		h.Logger.Errorw(op+": service error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *TransactionHandler) decodeRequest(w http.ResponseWriter, r *http.Request, op string) (TransactionRequest, bool) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw(op+": invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// Create создание транзакции
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r, "Create")
	if !ok {
		return
	}
	tx, err := h.Service.Create(r.Context(), req.toInput())
	if err != nil {
		h.writeServiceError(w, "Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// Get чтение транзакции
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Get", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// Update обновление полей транзакции
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r, "Update")
	if !ok {
		return
	}
	tx, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.writeServiceError(w, "Update", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// ListAttachments список вложений транзакции
func (h *TransactionHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	atts, err := h.Service.ListAttachments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "ListAttachments", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttachmentDTOs(atts))
}

// readUploadFiles разбирает multipart/form-data и читает все файлы поля "files".
// Поле "clientRef" (по одному на файл, в том же порядке) задаёт ключи идемпотентности.
// Возвращает false, если ответ с ошибкой уже записан.
func (h *TransactionHandler) readUploadFiles(w http.ResponseWriter, r *http.Request, op string) ([]service.UploadFile, bool) {
	// Лимит общего тела запроса
	maxBody := h.Config.AttachmentMaxBytes()*maxFilesPerRequest + 1*1024*1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Logger.Warnw(op+": request too large", "limit", maxBody)
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		h.Logger.Warnw(op+": invalid multipart form", "error", err)
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return nil, false
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		h.Logger.Warnw(op + ": missing files")
		http.Error(w, "missing files", http.StatusBadRequest)
		return nil, false
	}
	if len(headers) > maxFilesPerRequest {
		http.Error(w, fmt.Sprintf("too many files (max %d)", maxFilesPerRequest), http.StatusBadRequest)
		return nil, false
	}
	refs := r.MultipartForm.Value["clientRef"]
	if len(refs) > 0 && len(refs) != len(headers) {
		h.Logger.Warnw(op+": clientRef count mismatch", "files", len(headers), "refs", len(refs))
		http.Error(w, "clientRef count must match files", http.StatusBadRequest)
		return nil, false
	}
	files := make([]service.UploadFile, 0, len(headers))
	for i, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			h.Logger.Warnw(op+": failed to read file", "filename", fh.Filename, "error", err)
			http.Error(w, "failed to read file", http.StatusBadRequest)
			return nil, false
		}
		f := service.UploadFile{Filename: fh.Filename, Data: data}
		if len(refs) > 0 {
			f.ClientRef = refs[i]
		}
		files = append(files, f)
	}
	return files, true
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// UploadAttachments загрузка файлов, привязанных к существующей транзакции
func (h *TransactionHandler) UploadAttachments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	files, ok := h.readUploadFiles(w, r, "UploadAttachments")
	if !ok {
		return
	}
	atts, err := h.Service.UploadAttachments(r.Context(), id, files)
	if err != nil {
		h.writeServiceError(w, "UploadAttachments", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttachmentDTOs(atts))
}

// DeleteAttachment удаление вложения по id
func (h *TransactionHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteAttachment(r.Context(), chi.URLParam(r, "attachmentId")); err != nil {
		h.writeServiceError(w, "DeleteAttachment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadLegacyFiles загрузка файлов в устаревшем формате (список имён в транзакции)
func (h *TransactionHandler) UploadLegacyFiles(w http.ResponseWriter, r *http.Request) {
	files, ok := h.readUploadFiles(w, r, "UploadLegacyFiles")
	if !ok {
		return
	}
	txID := r.FormValue("transactionId")
	if txID == "" {
		h.Logger.Warnw("UploadLegacyFiles: missing transactionId")
		http.Error(w, "missing transactionId", http.StatusBadRequest)
		return
	}
	names, err := h.Service.UploadLegacyFiles(r.Context(), txID, files)
	if err != nil {
		h.writeServiceError(w, "UploadLegacyFiles", err)
		return
	}
	out := make([]LegacyFileDTO, 0, len(names))
	for _, n := range names {
		out = append(out, LegacyFileDTO{Filename: n, FileURL: h.Service.LegacyFileURL(n)})
	}
	writeJSON(w, http.StatusCreated, out)
}

// DeleteLegacyFile удаление файла устаревшего формата по имени
func (h *TransactionHandler) DeleteLegacyFile(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteLegacyFile(r.Context(), chi.URLParam(r, "filename")); err != nil {
		h.writeServiceError(w, "DeleteLegacyFile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CleanupOrphans удаление файлов хранилища, не привязанных ни к одной транзакции
func (h *TransactionHandler) CleanupOrphans(w http.ResponseWriter, r *http.Request) {
	grace := h.Config.OrphanGracePeriod
	if v := r.URL.Query().Get("grace"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			http.Error(w, "invalid grace duration", http.StatusBadRequest)
			return
		}
		grace = d
	}
	report, err := h.Service.CleanupOrphans(r.Context(), grace)
	if err != nil {
		h.writeServiceError(w, "CleanupOrphans", err)
		return
	}
	writeJSON(w, http.StatusOK, CleanupDTO{
		Scanned: report.Scanned,
		Removed: nonNil(report.Removed),
		Failed:  nonNil(report.Failed),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
