package service

import (
	"StroyTrack/internal/model"
	"StroyTrack/internal/repo"
	"StroyTrack/internal/storage"
	"context"

	"github.com/stretchr/testify/mock"
)

// Моки для TransactionRepository, AttachmentRepository и FileStorage
type mockTxRepo struct{ mock.Mock }

func (m *mockTxRepo) Create(ctx context.Context, tx *model.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *mockTxRepo) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*model.Transaction); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTxRepo) UpdateWithVersion(ctx context.Context, id string, expectedVersion *int64, updates map[string]any) (int64, error) {
	args := m.Called(ctx, id, expectedVersion, updates)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockTxRepo) FindByLegacyFile(ctx context.Context, filename string) (*model.Transaction, error) {
	args := m.Called(ctx, filename)
	if v, ok := args.Get(0).(*model.Transaction); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTxRepo) SetLegacyFiles(ctx context.Context, id string, files []string) error {
	args := m.Called(ctx, id, files)
	return args.Error(0)
}
func (m *mockTxRepo) AllLegacyFiles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).([]string); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.TransactionRepository = (*mockTxRepo)(nil)

type mockAttRepo struct{ mock.Mock }

func (m *mockAttRepo) CreateBatch(ctx context.Context, atts []model.Attachment) error {
	args := m.Called(ctx, atts)
	return args.Error(0)
}
func (m *mockAttRepo) ListByTransaction(ctx context.Context, transactionID string) ([]model.Attachment, error) {
	args := m.Called(ctx, transactionID)
	if v, ok := args.Get(0).([]model.Attachment); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAttRepo) FindByClientRefs(ctx context.Context, transactionID string, refs []string) ([]model.Attachment, error) {
	args := m.Called(ctx, transactionID, refs)
	if v, ok := args.Get(0).([]model.Attachment); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAttRepo) GetByID(ctx context.Context, id string) (*model.Attachment, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*model.Attachment); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAttRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *mockAttRepo) StorageKeys(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).(map[string]struct{}); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.AttachmentRepository = (*mockAttRepo)(nil)

type mockStorage struct{ mock.Mock }

func (m *mockStorage) Put(ctx context.Context, key, contentType string, data []byte) error {
	args := m.Called(ctx, key, contentType, data)
	return args.Error(0)
}
func (m *mockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
func (m *mockStorage) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	if v, ok := args.Get(0).([]storage.ObjectInfo); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStorage) URL(key string) string {
	return "/files/" + key
}

var _ storage.FileStorage = (*mockStorage)(nil)
