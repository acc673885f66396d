package repo

import (
	"StroyTrack/internal/model"
	"context"

	"gorm.io/gorm"
)

// AttachmentRepository минимальный контракт доступа к вложениям транзакций.
type AttachmentRepository interface {
	// CreateBatch сохраняет все записи атомарно: либо все, либо ни одной.
	CreateBatch(ctx context.Context, atts []model.Attachment) error

	// ListByTransaction возвращает вложения транзакции в порядке создания.
	ListByTransaction(ctx context.Context, transactionID string) ([]model.Attachment, error)

	// FindByClientRefs возвращает вложения транзакции с указанными ключами клиента.
	FindByClientRefs(ctx context.Context, transactionID string, refs []string) ([]model.Attachment, error)

	// GetByID возвращает вложение; gorm.ErrRecordNotFound если его нет.
	GetByID(ctx context.Context, id string) (*model.Attachment, error)

	// Delete удаляет запись вложения по id.
	Delete(ctx context.Context, id string) error

	// StorageKeys возвращает множество ключей хранилища, на которые ссылаются записи.
	StorageKeys(ctx context.Context) (map[string]struct{}, error)
}

type attachmentRepo struct {
	db *gorm.DB
}

// NewAttachmentRepository создаёт реализацию репозитория для Attachment.
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepo{db: db}
}

func (r *attachmentRepo) CreateBatch(ctx context.Context, atts []model.Attachment) error {
	if len(atts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&atts).Error
	})
}

func (r *attachmentRepo) ListByTransaction(ctx context.Context, transactionID string) ([]model.Attachment, error) {
	var out []model.Attachment
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *attachmentRepo) FindByClientRefs(ctx context.Context, transactionID string, refs []string) ([]model.Attachment, error) {
	var out []model.Attachment
	if len(refs) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Where("transaction_id = ? AND client_ref IN ?", transactionID, refs).
		Find(&out).Error
	return out, err
}

func (r *attachmentRepo) GetByID(ctx context.Context, id string) (*model.Attachment, error) {
	var a model.Attachment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attachmentRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Attachment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *attachmentRepo) StorageKeys(ctx context.Context) (map[string]struct{}, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(&model.Attachment{}).Pluck("storage_key", &keys).Error; err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out, nil
}
