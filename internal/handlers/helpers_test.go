package handlers_test

import (
	"StroyTrack/internal/config"
	"StroyTrack/internal/handlers"
	"StroyTrack/internal/repo"
	"StroyTrack/internal/service"
	"StroyTrack/internal/storage"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

type testEnv struct {
	router  http.Handler
	cfg     *config.Config
	storage *storage.LocalStorage
	db      *gorm.DB
}

// newTestEnv поднимает полный стек: SQLite в памяти, локальное хранилище во временном каталоге.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	st, err := storage.NewLocalStorage(t.TempDir(), "/files")
	require.NoError(t, err)

	cfg := &config.Config{
		AttachmentMaxSizeMB: 1,
		AttachmentTypes:     []string{"application/pdf", "image/png", "text/plain"},
		OrphanGracePeriod:   time.Hour,
	}
	logger := zap.NewNop().Sugar()
	svc := service.NewTransactionService(
		repo.NewTransactionRepository(db),
		repo.NewAttachmentRepository(db),
		st,
		logger,
		service.Limits{MaxBytes: cfg.AttachmentMaxBytes(), AllowedTypes: cfg.AttachmentTypes},
	)
	h := handlers.NewHandler(svc, st.Handler(), logger, cfg)
	return &testEnv{router: h.Router, cfg: cfg, storage: st, db: db}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) doJSON(t *testing.T, method, url string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if s, ok := payload.(string); ok {
		body = strings.NewReader(s)
	} else if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

// createTx создаёт транзакцию через API и возвращает её DTO.
func (e *testEnv) createTx(t *testing.T) handlers.TransactionDTO {
	t.Helper()
	rr := e.doJSON(t, http.MethodPost, "/api/materials/transactions", map[string]any{
		"materialId": "M", "type": "import", "quantity": 10, "reason": "поставка",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var dto handlers.TransactionDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	return dto
}

type part struct {
	name string
	data []byte
}

// makeMultipart helper to build multipart body
func makeMultipart(t *testing.T, fields map[string]string, files []part) (string, *bytes.Buffer) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for _, f := range files {
		fw, _ := w.CreateFormFile("files", f.name)
		_, _ = fw.Write(f.data)
	}
	_ = w.Close()
	return w.FormDataContentType(), body
}

func (e *testEnv) upload(t *testing.T, url string, fields map[string]string, files ...part) *httptest.ResponseRecorder {
	t.Helper()
	ct, body := makeMultipart(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, url, body)
	req.Header.Set("Content-Type", ct)
	return e.do(t, req)
}

var (
	pdfData = []byte("%PDF-1.4\n%test document\n")
	pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
)
