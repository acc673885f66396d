package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StroyTrack/internal/cli/model"
	"StroyTrack/internal/config"
)

const transactionsPath = "/api/materials/transactions"

// StatusError — сервер ответил неожиданным статусом.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: server returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: server returned status %d: %s", e.Op, e.StatusCode, body)
}

// IsStatus сообщает, что err — StatusError с указанным кодом.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// CleanupReport — ответ административной очистки файлов-сирот.
type CleanupReport struct {
	Scanned int      `json:"scanned"`
	Removed []string `json:"removed"`
	Failed  []string `json:"failed"`
}

// Client — HTTP-клиент API транзакций и вложений.
type Client struct {
	baseURL string
	http    *http.Client
}

// New создаёт клиент для сервера baseURL (со схемой).
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewFromConfig создаёт клиент по адресу и таймауту из конфига.
func NewFromConfig(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.RequestTimeoutSecond) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return New(cfg.ServerURL, timeout)
}

// BaseURL адрес сервера; нужен для превращения относительных ссылок на файлы в абсолютные.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload any, want int, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	return c.do(ctx, op, method, path, body, "application/json", want, out)
}

type transactionPayload struct {
	model.TransactionFields
	Version *int64 `json:"version,omitempty"`
}

// CreateTransaction создаёт транзакцию и возвращает запись с новым id.
func (c *Client) CreateTransaction(ctx context.Context, fields model.TransactionFields) (*model.Transaction, error) {
	var tx model.Transaction
	if err := c.doJSON(ctx, "create transaction", http.MethodPost, transactionsPath, transactionPayload{TransactionFields: fields}, http.StatusCreated, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// UpdateTransaction обновляет поля транзакции. version == nil — без проверки версии.
func (c *Client) UpdateTransaction(ctx context.Context, id string, fields model.TransactionFields, version *int64) (*model.Transaction, error) {
	var tx model.Transaction
	payload := transactionPayload{TransactionFields: fields, Version: version}
	if err := c.doJSON(ctx, "update transaction", http.MethodPut, transactionsPath+"/"+url.PathEscape(id), payload, http.StatusOK, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTransaction читает транзакцию по id.
func (c *Client) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	var tx model.Transaction
	if err := c.doJSON(ctx, "get transaction", http.MethodGet, transactionsPath+"/"+url.PathEscape(id), nil, http.StatusOK, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListAttachments возвращает вложения транзакции.
func (c *Client) ListAttachments(ctx context.Context, txID string) ([]model.AttachmentRecord, error) {
	var out []model.AttachmentRecord
	if err := c.doJSON(ctx, "list attachments", http.MethodGet, transactionsPath+"/"+url.PathEscape(txID)+"/attachments", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadAttachments загружает все файлы одним multipart-запросом (поле "files").
// LocalID каждого файла уходит в поле "clientRef": повтор после потерянного ответа
// не создаёт на сервере второе вложение.
func (c *Client) UploadAttachments(ctx context.Context, txID string, files []model.StagedFile) ([]model.AttachmentRecord, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range files {
		fw, err := w.CreateFormFile("files", f.DisplayName)
		if err != nil {
			return nil, fmt.Errorf("upload attachments: %w", err)
		}
		if _, err := fw.Write(f.Content); err != nil {
			return nil, fmt.Errorf("upload attachments: %w", err)
		}
		if err := w.WriteField("clientRef", f.LocalID); err != nil {
			return nil, fmt.Errorf("upload attachments: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("upload attachments: %w", err)
	}
	var out []model.AttachmentRecord
	path := transactionsPath + "/" + url.PathEscape(txID) + "/attachments"
	if err := c.do(ctx, "upload attachments", http.MethodPost, path, body, w.FormDataContentType(), http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAttachment удаляет вложение по id.
func (c *Client) DeleteAttachment(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete attachment", http.MethodDelete, transactionsPath+"/attachments/"+url.PathEscape(id), nil, http.StatusNoContent, nil)
}

// DeleteLegacyFile удаляет файл устаревшего формата по имени.
func (c *Client) DeleteLegacyFile(ctx context.Context, filename string) error {
	return c.doJSON(ctx, "delete legacy file", http.MethodDelete, transactionsPath+"/files/"+url.PathEscape(filename), nil, http.StatusNoContent, nil)
}

// CleanupOrphans запускает очистку хранилища; grace == 0 — значение сервера по умолчанию.
func (c *Client) CleanupOrphans(ctx context.Context, grace time.Duration) (*CleanupReport, error) {
	path := "/api/admin/attachments/cleanup"
	if grace > 0 {
		path += "?grace=" + url.QueryEscape(grace.String())
	}
	var report CleanupReport
	if err := c.doJSON(ctx, "cleanup orphans", http.MethodPost, path, nil, http.StatusOK, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
