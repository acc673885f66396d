package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"StroyTrack/internal/cli/api"
	"StroyTrack/internal/cli/attach"
	"StroyTrack/internal/cli/model"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// TransactionAPI — серверные операции, нужные для отправки формы.
type TransactionAPI interface {
	CreateTransaction(ctx context.Context, fields model.TransactionFields) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, fields model.TransactionFields, version *int64) (*model.Transaction, error)
	UploadAttachments(ctx context.Context, txID string, files []model.StagedFile) ([]model.AttachmentRecord, error)
	DeleteAttachment(ctx context.Context, id string) error
	DeleteLegacyFile(ctx context.Context, filename string) error
}

var _ TransactionAPI = (*api.Client)(nil)

// DeletionOutcome — результат удаления одного вложения; Err == nil — удалено.
type DeletionOutcome struct {
	ID     string
	Legacy bool
	Err    error
}

// SubmitResult — итог отправки формы.
type SubmitResult struct {
	Outcome     Outcome
	Transaction *model.Transaction
	Uploaded    []model.CommittedAttachment
	Deletions   []DeletionOutcome
}

// FailedDeletions возвращает неудачные удаления.
func (r SubmitResult) FailedDeletions() []DeletionOutcome {
	var out []DeletionOutcome
	for _, d := range r.Deletions {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// Message — сообщение пользователю; у каждого исхода своё.
func (r SubmitResult) Message() string {
	switch r.Outcome {
	case Committed:
		msg := "Транзакция сохранена"
		if n := len(r.Uploaded); n > 0 {
			msg += fmt.Sprintf(", загружено файлов: %d", n)
		}
		if n := len(r.FailedDeletions()); n > 0 {
			msg += fmt.Sprintf(" (не удалось удалить вложений: %d, они останутся на сервере)", n)
		}
		return msg
	case UploadFailed:
		return "Транзакция сохранена, но вложения не загружены. Повторите отправку: выбранные файлы сохранены"
	case PersistFailed:
		return "Транзакция не сохранена. Изменения и выбранные файлы сохранены, повторите отправку"
	default:
		return "Проверьте поля транзакции"
	}
}

// Coordinator выполняет отправку формы: сохранение полей, загрузка новых файлов,
// удаление помеченных вложений. Фазы идут строго по порядку.
type Coordinator struct {
	api      TransactionAPI
	staging  *attach.Staging
	logger   *zap.SugaredLogger
	validate *validator.Validate
	baseURL  string

	inProgress atomic.Bool

	mu      sync.Mutex
	txID    string
	version *int64
}

// Option настраивает Coordinator.
type Option func(*Coordinator)

// WithExisting — форма редактирует уже сохранённую транзакцию.
func WithExisting(txID string, version *int64) Option {
	return func(c *Coordinator) {
		c.txID = txID
		c.version = version
	}
}

// WithBaseURL задаёт адрес сервера для абсолютных ссылок на загруженные файлы.
func WithBaseURL(u string) Option {
	return func(c *Coordinator) { c.baseURL = u }
}

func NewCoordinator(txAPI TransactionAPI, staging *attach.Staging, logger *zap.SugaredLogger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	c := &Coordinator{
		api:      txAPI,
		staging:  staging,
		logger:   logger,
		validate: validator.New(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TransactionID id транзакции, известный форме; пусто до первого успешного сохранения.
func (c *Coordinator) TransactionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txID
}

// Version последняя известная версия записи.
func (c *Coordinator) Version() *int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version == nil {
		return nil
	}
	v := *c.version
	return &v
}

// Validate проверяет поля транзакции без обращения к сети.
func (c *Coordinator) Validate(fields model.TransactionFields) error {
	err := c.validate.Struct(fields)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"_": err.Error()}}
	}
	ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[jsonFieldName(fe.Field())] = describeRule(fe)
	}
	return ve
}

func jsonFieldName(f string) string {
	switch f {
	case "MaterialID":
		return "materialId"
	case "Type":
		return "type"
	case "Quantity":
		return "quantity"
	default:
		return f
	}
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "oneof":
		return "допустимо: " + fe.Param()
	case "gt":
		return "должно быть больше " + fe.Param()
	default:
		return fe.Tag()
	}
}

// Submit отправляет форму. Одновременная отправка на том же Coordinator сразу
// получает ErrSubmitInProgress. Ошибки: *ValidationError, *PersistError, *UploadError.
// Ошибки удаления не возвращаются, они в SubmitResult.Deletions.
func (c *Coordinator) Submit(ctx context.Context, fields model.TransactionFields) (SubmitResult, error) {
	if !c.inProgress.CompareAndSwap(false, true) {
		return SubmitResult{}, ErrSubmitInProgress
	}
	defer c.inProgress.Store(false)

	if err := c.Validate(fields); err != nil {
		c.apply(ctx, Reconcile(Invalid), nil)
		return SubmitResult{Outcome: Invalid}, err
	}

	// Фаза 1: поля транзакции
	tx, err := c.persist(ctx, fields)
	if err != nil {
		c.logger.Warnw("transaction persist failed", "tx_id", c.TransactionID(), "error", err)
		c.apply(ctx, Reconcile(PersistFailed), nil)
		return SubmitResult{Outcome: PersistFailed}, &PersistError{Err: err}
	}

	// Фаза 2: только файлы, оставшиеся в наборе на момент отправки
	staged := c.staging.Staged()
	var uploaded []model.CommittedAttachment
	if len(staged) > 0 {
		records, err := c.api.UploadAttachments(ctx, tx.ID, staged)
		if err != nil {
			names := make([]string, 0, len(staged))
			for _, f := range staged {
				names = append(names, f.DisplayName)
			}
			c.logger.Warnw("attachment upload failed", "tx_id", tx.ID, "files", len(staged), "error", err)
			c.apply(ctx, Reconcile(UploadFailed), nil)
			return SubmitResult{Outcome: UploadFailed, Transaction: tx}, &UploadError{TransactionID: tx.ID, Files: names, Err: err}
		}
		uploaded = attach.FromRecords(tx.ID, records, c.baseURL)
	}

	// Фаза 3: удаление, best effort
	res := SubmitResult{Outcome: Committed, Transaction: tx, Uploaded: uploaded}
	res.Deletions = c.apply(ctx, Reconcile(Committed), uploaded)
	c.logger.Infow("transaction submitted",
		"tx_id", tx.ID,
		"version", tx.Version,
		"uploaded", len(uploaded),
		"deleted", len(res.Deletions)-len(res.FailedDeletions()),
		"delete_failed", len(res.FailedDeletions()),
	)
	return res, nil
}

// apply применяет решение к набору вложений формы и возвращает итоги фазы удаления.
// Сброс пометок на удаление сбрасывает и новые файлы: по отдельности Staging их не возвращает.
func (c *Coordinator) apply(ctx context.Context, d Decision, uploaded []model.CommittedAttachment) []DeletionOutcome {
	var deletions []DeletionOutcome
	if d.RunDeletions {
		deletions = c.deletePending(ctx, c.staging.PendingDeletions())
	}
	switch {
	case d.ReleasePreviews:
		var deleted []string
		for _, o := range deletions {
			if o.Err == nil {
				deleted = append(deleted, o.ID)
			}
		}
		c.staging.MarkUploaded(uploaded, deleted)
	case !d.KeepDeletions:
		c.staging.Reset()
	case !d.KeepStaged:
		for _, f := range c.staging.Staged() {
			_ = c.staging.Unstage(f.LocalID)
		}
	}
	return deletions
}

// persist создаёт транзакцию или обновляет известную. После создания id запоминается,
// так что повтор в той же сессии обновит эту же запись.
func (c *Coordinator) persist(ctx context.Context, fields model.TransactionFields) (*model.Transaction, error) {
	c.mu.Lock()
	id, version := c.txID, c.version
	c.mu.Unlock()

	var (
		tx  *model.Transaction
		err error
	)
	if id == "" {
		tx, err = c.api.CreateTransaction(ctx, fields)
	} else {
		tx, err = c.api.UpdateTransaction(ctx, id, fields, version)
	}
	if err != nil {
		return nil, err
	}
	if tx == nil || tx.ID == "" {
		return nil, errors.New("server returned transaction without id")
	}

	c.mu.Lock()
	c.txID = tx.ID
	v := tx.Version
	c.version = &v
	c.mu.Unlock()
	return tx, nil
}

// deletePending удаляет вложения по одному; ошибка одного не останавливает остальные.
func (c *Coordinator) deletePending(ctx context.Context, pending []model.CommittedAttachment) []DeletionOutcome {
	out := make([]DeletionOutcome, 0, len(pending))
	for _, a := range pending {
		var err error
		if a.Legacy {
			err = c.api.DeleteLegacyFile(ctx, a.ID)
		} else {
			err = c.api.DeleteAttachment(ctx, a.ID)
		}
		// уже удалено кем-то другим: цель достигнута
		if api.IsStatus(err, http.StatusNotFound) {
			err = nil
		}
		if err != nil {
			c.logger.Warnw("attachment delete failed", "attachment_id", a.ID, "legacy", a.Legacy, "error", err)
		}
		out = append(out, DeletionOutcome{ID: a.ID, Legacy: a.Legacy, Err: err})
	}
	return out
}
