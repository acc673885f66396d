package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound объект с таким ключом отсутствует в хранилище.
var ErrObjectNotFound = errors.New("object not found in storage")

// ErrInvalidKey ключ объекта пуст или выходит за пределы хранилища.
var ErrInvalidKey = errors.New("invalid object key")

// ObjectInfo — сведения об объекте, нужные для поиска файлов-сирот.
type ObjectInfo struct {
	Key        string
	Size       int64
	ModifiedAt time.Time
}

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// Put сохраняет объект под ключом, перезаписывая существующий.
	Put(ctx context.Context, key, contentType string, data []byte) error

	// Delete удаляет объект; ErrObjectNotFound если его нет.
	Delete(ctx context.Context, key string) error

	// List возвращает все объекты с указанным префиксом ключа.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// URL — постоянный (не истекающий) адрес объекта.
	URL(key string) string
}
