package repo

import (
	"StroyTrack/internal/model"
	"context"
	"encoding/json"
	"errors"
	"slices"

	"gorm.io/gorm"
)

// ErrVersionConflict — запись существует, но её версия не совпала с ожидаемой.
var ErrVersionConflict = errors.New("version conflict")

// TransactionRepository определяет контракт доступа к транзакциям материалов для слоя сервиса.
type TransactionRepository interface {
	// Create сохраняет новую транзакцию.
	Create(ctx context.Context, tx *model.Transaction) error

	// GetByID возвращает транзакцию; gorm.ErrRecordNotFound если её нет.
	GetByID(ctx context.Context, id string) (*model.Transaction, error)

	// UpdateWithVersion применяет изменения и увеличивает версию.
	// Если expectedVersion задан и не совпал с текущим — ErrVersionConflict.
	UpdateWithVersion(ctx context.Context, id string, expectedVersion *int64, updates map[string]any) (int64, error)

	// FindByLegacyFile ищет транзакцию, в списке Files которой есть указанное имя файла.
	FindByLegacyFile(ctx context.Context, filename string) (*model.Transaction, error)

	// SetLegacyFiles перезаписывает устаревший список имён файлов транзакции.
	SetLegacyFiles(ctx context.Context, id string, files []string) error

	// AllLegacyFiles возвращает имена файлов из устаревших списков всех транзакций.
	AllLegacyFiles(ctx context.Context) ([]string, error)
}

type transactionRepo struct {
	db *gorm.DB
}

// NewTransactionRepository создаёт реализацию репозитория для Transaction.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	var tx model.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepo) UpdateWithVersion(ctx context.Context, id string, expectedVersion *int64, updates map[string]any) (int64, error) {
	changes := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		changes[k] = v
	}
	changes["version"] = gorm.Expr("version + 1")

	var newVersion int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.Transaction{}).Where("id = ?", id)
		if expectedVersion != nil {
			q = q.Where("version = ?", *expectedVersion)
		}
		res := q.Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var cnt int64
			if err := tx.Model(&model.Transaction{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
				return err
			}
			if cnt == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrVersionConflict
		}
		return tx.Model(&model.Transaction{}).Where("id = ?", id).Select("version").Scan(&newVersion).Error
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

func (r *transactionRepo) FindByLegacyFile(ctx context.Context, filename string) (*model.Transaction, error) {
	// Files хранится как JSON-массив: ищем кандидатов по подстроке и проверяем точное совпадение.
	quoted, err := json.Marshal(filename)
	if err != nil {
		return nil, err
	}
	var candidates []model.Transaction
	if err := r.db.WithContext(ctx).Where("files LIKE ?", "%"+string(quoted)+"%").Find(&candidates).Error; err != nil {
		return nil, err
	}
	for i := range candidates {
		if slices.Contains(candidates[i].Files, filename) {
			return &candidates[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *transactionRepo) SetLegacyFiles(ctx context.Context, id string, files []string) error {
	res := r.db.WithContext(ctx).Model(&model.Transaction{ID: id}).Select("Files").Updates(&model.Transaction{Files: files})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *transactionRepo) AllLegacyFiles(ctx context.Context) ([]string, error) {
	var rows []model.Transaction
	if err := r.db.WithContext(ctx).Select("id", "files").Where("files IS NOT NULL").Find(&rows).Error; err != nil {
		return nil, err
	}
	var out []string
	for _, t := range rows {
		out = append(out, t.Files...)
	}
	return out, nil
}
