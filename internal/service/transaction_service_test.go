package service

import (
	"StroyTrack/internal/model"
	"StroyTrack/internal/repo"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// хелперы
func ptrInt64(v int64) *int64 { return &v }
func ptrStr(s string) *string { return &s }

var testLimits = Limits{MaxBytes: 1024, AllowedTypes: []string{"application/pdf", "image/png", "text/plain"}}

func newTestService() (*TransactionService, *mockTxRepo, *mockAttRepo, *mockStorage) {
	tr, ar, st := new(mockTxRepo), new(mockAttRepo), new(mockStorage)
	return NewTransactionService(tr, ar, st, zap.NewNop().Sugar(), testLimits), tr, ar, st
}

func validInput() TransactionInput {
	return TransactionInput{MaterialID: "M", Type: model.TransactionImport, Quantity: 10, Reason: "поставка"}
}

func TestTransactionService_Create(t *testing.T) {
	svc, tr, _, _ := newTestService()
	ctx := context.Background()

	tr.On("Create", mock.Anything, mock.MatchedBy(func(tx *model.Transaction) bool {
		return tx.ID != "" && tx.MaterialID == "M" && tx.Version == 1
	})).Return(nil).Once()

	tx, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, 10.0, tx.Quantity)
	tr.AssertExpectations(t)
}

func TestTransactionService_Create_Validation(t *testing.T) {
	svc, tr, _, _ := newTestService()

	cases := map[string]TransactionInput{
		"no material":   {Type: model.TransactionImport, Quantity: 1},
		"bad type":      {MaterialID: "M", Type: "move", Quantity: 1},
		"zero quantity": {MaterialID: "M", Type: model.TransactionExport},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	tr.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTransactionService_Create_RepoError(t *testing.T) {
	svc, tr, _, _ := newTestService()
	tr.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	_, err := svc.Create(context.Background(), validInput())
	assert.Error(t, err)
}

func TestTransactionService_Update(t *testing.T) {
	logger := zap.NewNop().Sugar()
	t.Run("success returns fresh record", func(t *testing.T) {
		tr := new(mockTxRepo)
		svc := NewTransactionService(tr, new(mockAttRepo), new(mockStorage), logger, testLimits)
		in := validInput()
		in.Version = ptrInt64(3)
		in.ProjectID = ptrStr("P1")

		tr.On("UpdateWithVersion", mock.Anything, "T2", in.Version, mock.MatchedBy(func(u map[string]any) bool {
			return u["quantity"] == 10.0 && u["project_id"] == in.ProjectID
		})).Return(int64(4), nil).Once()
		tr.On("GetByID", mock.Anything, "T2").Return(&model.Transaction{ID: "T2", Version: 4}, nil).Once()

		tx, err := svc.Update(context.Background(), "T2", in)
		require.NoError(t, err)
		assert.Equal(t, int64(4), tx.Version)
		tr.AssertExpectations(t)
	})

	t.Run("conflict", func(t *testing.T) {
		tr := new(mockTxRepo)
		svc := NewTransactionService(tr, new(mockAttRepo), new(mockStorage), logger, testLimits)
		in := validInput()
		in.Version = ptrInt64(1)
		tr.On("UpdateWithVersion", mock.Anything, "T2", mock.Anything, mock.Anything).Return(int64(0), repo.ErrVersionConflict).Once()

		_, err := svc.Update(context.Background(), "T2", in)
		assert.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("not found", func(t *testing.T) {
		tr := new(mockTxRepo)
		svc := NewTransactionService(tr, new(mockAttRepo), new(mockStorage), logger, testLimits)
		tr.On("UpdateWithVersion", mock.Anything, "T9", mock.Anything, mock.Anything).Return(int64(0), gorm.ErrRecordNotFound).Once()

		_, err := svc.Update(context.Background(), "T9", validInput())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTransactionService_Get_NotFound(t *testing.T) {
	svc, tr, _, _ := newTestService()
	tr.On("GetByID", mock.Anything, "x").Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := svc.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}
