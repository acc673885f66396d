package service

import (
	"StroyTrack/internal/model"
	"StroyTrack/internal/storage"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// UploadFile — один файл из multipart-запроса.
type UploadFile struct {
	Filename  string
	Data      []byte
	ClientRef string // ключ идемпотентности, пусто — без проверки повтора
}

type checkedFile struct {
	UploadFile
	mime string
	ext  string
}

// checkFiles проверяет размер и тип содержимого всех файлов до записи в хранилище.
func (s *TransactionService) checkFiles(files []UploadFile) ([]checkedFile, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", ErrValidation)
	}
	out := make([]checkedFile, 0, len(files))
	for _, f := range files {
		if strings.TrimSpace(f.Filename) == "" {
			return nil, fmt.Errorf("%w: empty filename", ErrValidation)
		}
		if s.limits.MaxBytes > 0 && int64(len(f.Data)) > s.limits.MaxBytes {
			return nil, fmt.Errorf("%w: %s (%d bytes, limit %d)", ErrTooLarge, f.Filename, len(f.Data), s.limits.MaxBytes)
		}
		m := mimetype.Detect(f.Data)
		if !s.typeAllowed(m) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, f.Filename, m.String())
		}
		ext := m.Extension()
		if ext == "" {
			ext = strings.ToLower(filepath.Ext(f.Filename))
		}
		out = append(out, checkedFile{UploadFile: f, mime: m.String(), ext: ext})
	}
	return out, nil
}

// typeAllowed разрешает тип, если он сам или один из его родителей есть в списке
// (например, docx определяется как потомок application/zip).
func (s *TransactionService) typeAllowed(m *mimetype.MIME) bool {
	if len(s.limits.AllowedTypes) == 0 {
		return true
	}
	for cur := m; cur != nil; cur = cur.Parent() {
		for _, allowed := range s.limits.AllowedTypes {
			if cur.Is(allowed) {
				return true
			}
		}
	}
	return false
}

// putAll пишет файлы в хранилище; при ошибке удаляет уже записанные в этом вызове.
func (s *TransactionService) putAll(ctx context.Context, keys []string, files []checkedFile) error {
	for i, f := range files {
		if err := s.storage.Put(ctx, keys[i], f.mime, f.Data); err != nil {
			s.rollbackObjects(ctx, keys[:i])
			return fmt.Errorf("store %s: %w", f.Filename, err)
		}
	}
	return nil
}

func (s *TransactionService) rollbackObjects(ctx context.Context, keys []string) {
	// удаляем даже если контекст запроса уже отменён
	ctx = context.WithoutCancel(ctx)
	for _, k := range keys {
		if err := s.storage.Delete(ctx, k); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Errorw("rollback: failed to remove stored object", "key", k, "error", err)
		}
	}
}

// UploadAttachments сохраняет файлы как вложения существующей транзакции.
// Загрузка атомарна: либо созданы все записи, либо ни одной, и в хранилище ничего не остаётся.
// Файл с ClientRef, уже загруженным в эту транзакцию, повторно не сохраняется:
// в ответ попадает существующая запись.
func (s *TransactionService) UploadAttachments(ctx context.Context, transactionID string, files []UploadFile) ([]model.Attachment, error) {
	// вложение никогда не создаётся для несуществующей транзакции
	if _, err := s.txRepo.GetByID(ctx, transactionID); err != nil {
		return nil, mapRepoErr(err)
	}
	checked, err := s.checkFiles(files)
	if err != nil {
		return nil, err
	}
	existing, err := s.uploadedByClientRef(ctx, transactionID, checked)
	if err != nil {
		return nil, err
	}

	result := make([]model.Attachment, 0, len(checked))
	var (
		atts  []model.Attachment
		keys  []string
		fresh []checkedFile
	)
	for _, f := range checked {
		if a, ok := existing[f.ClientRef]; ok {
			result = append(result, a)
			continue
		}
		id := uuid.NewString()
		key := path.Join("transactions", transactionID, id+f.ext)
		att := model.Attachment{
			ID:               id,
			TransactionID:    transactionID,
			StorageKey:       key,
			FileURL:          s.storage.URL(key),
			OriginalFilename: filepath.Base(f.Filename),
			FileType:         f.mime,
			FileSize:         int64(len(f.Data)),
		}
		if f.ClientRef != "" {
			ref := f.ClientRef
			att.ClientRef = &ref
		}
		keys = append(keys, key)
		fresh = append(fresh, f)
		atts = append(atts, att)
		result = append(result, att)
	}
	if len(atts) == 0 {
		s.logger.Infow("attachments already uploaded", "transaction_id", transactionID, "count", len(result))
		return result, nil
	}

	if err := s.putAll(ctx, keys, fresh); err != nil {
		s.logger.Errorw("upload: storage error", "transaction_id", transactionID, "error", err)
		return nil, err
	}
	if err := s.attRepo.CreateBatch(ctx, atts); err != nil {
		s.logger.Errorw("upload: failed to save attachment records", "transaction_id", transactionID, "error", err)
		s.rollbackObjects(ctx, keys)
		return nil, fmt.Errorf("save attachments: %w", err)
	}
	s.logger.Infow("attachments uploaded", "transaction_id", transactionID, "count", len(atts), "reused", len(result)-len(atts))
	return result, nil
}

// uploadedByClientRef находит уже загруженные в транзакцию файлы по ключам клиента.
func (s *TransactionService) uploadedByClientRef(ctx context.Context, transactionID string, files []checkedFile) (map[string]model.Attachment, error) {
	var refs []string
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if f.ClientRef == "" {
			continue
		}
		if seen[f.ClientRef] {
			return nil, fmt.Errorf("%w: duplicate client ref %s", ErrValidation, f.ClientRef)
		}
		seen[f.ClientRef] = true
		refs = append(refs, f.ClientRef)
	}
	out := make(map[string]model.Attachment, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	found, err := s.attRepo.FindByClientRefs(ctx, transactionID, refs)
	if err != nil {
		return nil, fmt.Errorf("find uploaded attachments: %w", err)
	}
	for _, a := range found {
		if a.ClientRef != nil {
			out[*a.ClientRef] = a
		}
	}
	return out, nil
}

// ListAttachments возвращает вложения транзакции.
func (s *TransactionService) ListAttachments(ctx context.Context, transactionID string) ([]model.Attachment, error) {
	if _, err := s.txRepo.GetByID(ctx, transactionID); err != nil {
		return nil, mapRepoErr(err)
	}
	atts, err := s.attRepo.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return atts, nil
}

// DeleteAttachment удаляет запись вложения, затем объект в хранилище.
// Если объект удалить не удалось, он остаётся сиротой до очистки CleanupOrphans.
func (s *TransactionService) DeleteAttachment(ctx context.Context, id string) error {
	att, err := s.attRepo.GetByID(ctx, id)
	if err != nil {
		return mapRepoErr(err)
	}
	if err := s.attRepo.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	if err := s.storage.Delete(ctx, att.StorageKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warnw("attachment record removed, stored object left behind", "id", id, "key", att.StorageKey, "error", err)
	}
	s.logger.Infow("attachment deleted", "id", id, "transaction_id", att.TransactionID)
	return nil
}

// legacyKey — ключ объекта для файлов устаревшего формата (список имён в транзакции).
func legacyKey(filename string) string {
	return path.Join("legacy", filename)
}

// UploadLegacyFiles сохраняет файлы и дописывает их имена в список Files транзакции.
// Имена получают уникальный префикс, так как в устаревшем формате имя файла — это его идентификатор.
func (s *TransactionService) UploadLegacyFiles(ctx context.Context, transactionID string, files []UploadFile) ([]string, error) {
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	checked, err := s.checkFiles(files)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(checked))
	keys := make([]string, 0, len(checked))
	for _, f := range checked {
		name := uuid.NewString()[:8] + "_" + sanitizeFilename(f.Filename)
		names = append(names, name)
		keys = append(keys, legacyKey(name))
	}
	if err := s.putAll(ctx, keys, checked); err != nil {
		return nil, err
	}
	if err := s.txRepo.SetLegacyFiles(ctx, transactionID, append(slices.Clone(tx.Files), names...)); err != nil {
		s.rollbackObjects(ctx, keys)
		return nil, mapRepoErr(err)
	}
	s.logger.Infow("legacy files uploaded", "transaction_id", transactionID, "count", len(names))
	return names, nil
}

// DeleteLegacyFile убирает имя файла из списка транзакции и удаляет объект.
func (s *TransactionService) DeleteLegacyFile(ctx context.Context, filename string) error {
	tx, err := s.txRepo.FindByLegacyFile(ctx, filename)
	if err != nil {
		return mapRepoErr(err)
	}
	rest := slices.DeleteFunc(slices.Clone(tx.Files), func(f string) bool { return f == filename })
	if err := s.txRepo.SetLegacyFiles(ctx, tx.ID, rest); err != nil {
		return mapRepoErr(err)
	}
	if err := s.storage.Delete(ctx, legacyKey(filename)); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warnw("legacy file unlinked, stored object left behind", "filename", filename, "error", err)
	}
	s.logger.Infow("legacy file deleted", "filename", filename, "transaction_id", tx.ID)
	return nil
}

// LegacyFileURL адрес файла устаревшего формата.
func (s *TransactionService) LegacyFileURL(filename string) string {
	return s.storage.URL(legacyKey(filename))
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '%':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, base)
	if base == "." || base == ".." || base == "" {
		return "file"
	}
	return base
}
