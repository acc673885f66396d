package model

// Draft — незавершённая отправка транзакции, сохранённая локально для tx-retry.
type Draft struct {
	ID               string
	TransactionID    string // пусто, если запись на сервере ещё не создана
	Version          *int64
	Fields           TransactionFields
	StagedFiles      []DraftFile
	PendingDeletions []CommittedAttachment
	LastError        string
	CreatedAt        int64
	UpdatedAt        int64
}

// DraftFile — новый файл черновика: путь на диске и его локальный id.
// Тот же id при повторе служит ключом идемпотентности загрузки.
type DraftFile struct {
	LocalID string `json:"localId"`
	Path    string `json:"path"`
}
