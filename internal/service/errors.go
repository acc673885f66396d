package service

import "errors"

var (
	// ErrNotFound транзакция или вложение не существует.
	ErrNotFound = errors.New("not found")
	// ErrValidation входные данные не прошли проверку.
	ErrValidation = errors.New("validation failed")
	// ErrVersionConflict запись изменена другим клиентом после того, как её прочитали.
	ErrVersionConflict = errors.New("version conflict")
	// ErrTooLarge файл превышает допустимый размер.
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupportedType тип содержимого файла не разрешён.
	ErrUnsupportedType = errors.New("unsupported file type")
)
