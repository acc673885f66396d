package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StroyTrack/internal/storage"
)

// CleanupReport — итог очистки файлов-сирот.
type CleanupReport struct {
	Scanned int
	Removed []string
	Failed  []string
}

// CleanupOrphans удаляет из хранилища объекты, на которые не ссылается ни одно вложение
// и ни один устаревший список файлов. Объекты моложе grace не трогаются: они могут
// принадлежать загрузке, запись о которой ещё не сохранена.
func (s *TransactionService) CleanupOrphans(ctx context.Context, grace time.Duration) (CleanupReport, error) {
	var report CleanupReport

	referenced, err := s.attRepo.StorageKeys(ctx)
	if err != nil {
		return report, fmt.Errorf("load attachment keys: %w", err)
	}
	legacy, err := s.txRepo.AllLegacyFiles(ctx)
	if err != nil {
		return report, fmt.Errorf("load legacy files: %w", err)
	}
	for _, name := range legacy {
		referenced[legacyKey(name)] = struct{}{}
	}

	objects, err := s.storage.List(ctx, "")
	if err != nil {
		return report, fmt.Errorf("list storage: %w", err)
	}
	cutoff := s.now().Add(-grace)
	for _, obj := range objects {
		report.Scanned++
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if obj.ModifiedAt.After(cutoff) {
			continue
		}
		if err := s.storage.Delete(ctx, obj.Key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Warnw("cleanup: failed to remove orphan", "key", obj.Key, "error", err)
			report.Failed = append(report.Failed, obj.Key)
			continue
		}
		report.Removed = append(report.Removed, obj.Key)
	}
	s.logger.Infow("orphan cleanup finished", "scanned", report.Scanned, "removed", len(report.Removed), "failed", len(report.Failed))
	return report, nil
}
