package model

import "time"

// Attachment — файл, сохранённый в хранилище и принадлежащий ровно одной транзакции.
type Attachment struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	TransactionID string `gorm:"not null;index;uniqueIndex:idx_attachments_client_ref"` // ссылка на transactions.id

	// ClientRef — ключ идемпотентности от клиента (локальный id файла); повторная загрузка
	// с тем же ключом в ту же транзакцию возвращает уже созданную запись.
	ClientRef *string `gorm:"uniqueIndex:idx_attachments_client_ref"`

	StorageKey       string `gorm:"not null;uniqueIndex"` // ключ объекта в хранилище, наружу не отдаётся
	FileURL          string `gorm:"not null"`
	OriginalFilename string `gorm:"not null"`
	FileType         string `gorm:"not null"`
	FileSize         int64  `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
