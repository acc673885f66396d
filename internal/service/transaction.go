package service

import (
	"StroyTrack/internal/model"
	"StroyTrack/internal/repo"
	"StroyTrack/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Limits — ограничения на загружаемые вложения.
type Limits struct {
	MaxBytes     int64
	AllowedTypes []string
}

// TransactionService инкапсулирует бизнес-логику транзакций материалов и их вложений.
type TransactionService struct {
	txRepo  repo.TransactionRepository
	attRepo repo.AttachmentRepository
	storage storage.FileStorage
	logger  *zap.SugaredLogger
	limits  Limits
	now     func() time.Time
}

func NewTransactionService(
	tr repo.TransactionRepository,
	ar repo.AttachmentRepository,
	st storage.FileStorage,
	logger *zap.SugaredLogger,
	limits Limits,
) *TransactionService {
	return &TransactionService{
		txRepo:  tr,
		attRepo: ar,
		storage: st,
		logger:  logger,
		limits:  limits,
		now:     time.Now,
	}
}

// TransactionInput — поля транзакции без вложений.
// Version используется только при обновлении: nil означает «последняя запись побеждает».
type TransactionInput struct {
	MaterialID string
	Type       model.TransactionType
	Quantity   float64
	Reason     string
	ProjectID  *string
	Version    *int64
}

func (in TransactionInput) validate() error {
	var problems []string
	if strings.TrimSpace(in.MaterialID) == "" {
		problems = append(problems, "materialId is required")
	}
	if !in.Type.Valid() {
		problems = append(problems, fmt.Sprintf("type must be %q or %q", model.TransactionImport, model.TransactionExport))
	}
	if in.Quantity <= 0 {
		problems = append(problems, "quantity must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// Create сохраняет новую транзакцию и возвращает её вместе с присвоенным id.
func (s *TransactionService) Create(ctx context.Context, in TransactionInput) (*model.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	tx := &model.Transaction{
		ID:         uuid.NewString(),
		MaterialID: in.MaterialID,
		Type:       in.Type,
		Quantity:   in.Quantity,
		Reason:     in.Reason,
		ProjectID:  in.ProjectID,
		Version:    1,
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	s.logger.Infow("transaction created", "id", tx.ID, "material_id", tx.MaterialID, "type", tx.Type)
	return tx, nil
}

// Get возвращает транзакцию по id.
func (s *TransactionService) Get(ctx context.Context, id string) (*model.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return tx, nil
}

// Update перезаписывает поля транзакции. Вложения не затрагиваются.
func (s *TransactionService) Update(ctx context.Context, id string, in TransactionInput) (*model.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"material_id": in.MaterialID,
		"type":        in.Type,
		"quantity":    in.Quantity,
		"reason":      in.Reason,
		"project_id":  in.ProjectID,
	}
	newVersion, err := s.txRepo.UpdateWithVersion(ctx, id, in.Version, updates)
	if err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			s.logger.Warnw("transaction update conflict", "id", id, "expected_version", *in.Version)
		}
		return nil, mapRepoErr(err)
	}
	s.logger.Infow("transaction updated", "id", id, "version", newVersion)
	return s.Get(ctx, id)
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrVersionConflict):
		return ErrVersionConflict
	default:
		return err
	}
}
