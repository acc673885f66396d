package model

// AttachmentRecord - attachment as returned by the server.
type AttachmentRecord struct {
	ID               string `json:"id"`
	TransactionID    string `json:"transactionId"`
	FileURL          string `json:"fileUrl"`
	OriginalFilename string `json:"originalFilename"`
	FileType         string `json:"fileType"`
	FileSize         int64  `json:"fileSize"`
	ClientRef        string `json:"clientRef,omitempty"`
	CreatedAt        string `json:"createdAt"`
}

// CommittedAttachment — файл, уже сохранённый на сервере и привязанный к транзакции.
// Для устаревшего формата ID совпадает с именем файла, а удаление идёт по имени.
type CommittedAttachment struct {
	ID               string `json:"id"`
	TransactionID    string `json:"transactionId"`
	FileURI          string `json:"fileUri"`
	OriginalFilename string `json:"originalFilename"`
	FileType         string `json:"fileType,omitempty"`
	FileSize         int64  `json:"fileSize,omitempty"`
	Legacy           bool   `json:"legacy,omitempty"`
}

// StagedFile — выбранный локально файл, ещё не загруженный на сервер.
type StagedFile struct {
	LocalID     string // сгенерированный идентификатор, не зависит от превью
	PreviewURI  string // действителен только в текущем процессе
	DisplayName string
	MimeType    string
	Size        int64
	Content     []byte
	SourcePath  string // пусто, если файл пришёл не с диска
}
