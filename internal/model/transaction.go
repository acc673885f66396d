package model

import "time"

// TransactionType — направление движения материала.
type TransactionType string

const (
	TransactionImport TransactionType = "import"
	TransactionExport TransactionType = "export"
)

// Valid проверяет, что тип входит в допустимый набор.
func (t TransactionType) Valid() bool {
	return t == TransactionImport || t == TransactionExport
}

// Transaction — серверная модель движения материала (приход/расход).
type Transaction struct {
	ID         string          `gorm:"primaryKey;type:uuid"`
	MaterialID string          `gorm:"not null;index"`
	Type       TransactionType `gorm:"not null;size:16"`
	Quantity   float64         `gorm:"not null"`
	Reason     string
	ProjectID  *string `gorm:"index"` // опциональная ссылка на проект

	// Files — устаревший формат вложений: список имён файлов прямо в строке транзакции.
	Files []string `gorm:"serializer:json;type:text"`

	// Attachments — вложения в виде отдельных записей, удаляются вместе с транзакцией.
	Attachments []Attachment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Version int64 `gorm:"not null;default:1"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
