package model

// TransactionFields — поля транзакции материала, которые редактирует пользователь (без вложений).
type TransactionFields struct {
	MaterialID string  `json:"materialId" validate:"required"`
	Type       string  `json:"type" validate:"required,oneof=import export"`
	Quantity   float64 `json:"quantity" validate:"gt=0"`
	Reason     string  `json:"reason"`
	ProjectID  *string `json:"projectId,omitempty"`
}

// Transaction — запись транзакции в ответах сервера.
type Transaction struct {
	ID         string   `json:"id"`
	MaterialID string   `json:"materialId"`
	Type       string   `json:"type"`
	Quantity   float64  `json:"quantity"`
	Reason     string   `json:"reason"`
	ProjectID  *string  `json:"projectId,omitempty"`
	Files      []string `json:"files,omitempty"` // устаревший список имён файлов
	Version    int64    `json:"version"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

// Fields возвращает редактируемые поля записи.
func (t *Transaction) Fields() TransactionFields {
	return TransactionFields{
		MaterialID: t.MaterialID,
		Type:       t.Type,
		Quantity:   t.Quantity,
		Reason:     t.Reason,
		ProjectID:  t.ProjectID,
	}
}
