package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSubmitInProgress — повторная отправка той же формы до завершения предыдущей.
var ErrSubmitInProgress = errors.New("submit already in progress")

// ValidationError — поля транзакции не прошли проверку; сеть не вызывалась.
type ValidationError struct {
	Fields map[string]string // поле -> причина
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid transaction: " + strings.Join(parts, "; ")
}

// PersistError — не удалось создать или обновить транзакцию. Вложения не трогались.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string { return fmt.Sprintf("transaction not saved: %v", e.Err) }
func (e *PersistError) Unwrap() error { return e.Err }

// UploadError — транзакция сохранена, но файлы не загружены.
type UploadError struct {
	TransactionID string
	Files         []string
	Err           error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("transaction %s saved, but %d attachment(s) were not uploaded: %v", e.TransactionID, len(e.Files), e.Err)
}
func (e *UploadError) Unwrap() error { return e.Err }
