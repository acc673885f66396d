package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"StroyTrack/internal/cli/model"
	"StroyTrack/internal/config"
)

// fakeServer — упрощённый сервер транзакций в памяти.
type fakeServer struct {
	mu          sync.Mutex
	txs         map[string]*model.Transaction
	atts        map[string][]model.AttachmentRecord
	calls       []string
	failUpload  bool
	failPersist bool
	// loseUploadReply сохраняет файлы, но отвечает ошибкой, как при обрыве ответа
	loseUploadReply bool
	// putVersions — версии из тел PUT-запросов (nil — без версии)
	putVersions []*int64
	nextID      int
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	fs := &fakeServer{txs: map[string]*model.Transaction{}, atts: map[string][]model.AttachmentRecord{}}
	ts := httptest.NewServer(fs)
	t.Cleanup(ts.Close)
	return fs, ts
}

func (f *fakeServer) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeServer) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	const base = "/api/materials/transactions"
	path := strings.TrimPrefix(r.URL.Path, base)

	switch {
	case r.URL.Path == "/api/admin/attachments/cleanup" && r.Method == http.MethodPost:
		f.calls = append(f.calls, "cleanup:"+r.URL.Query().Get("grace"))
		writeJSON(w, http.StatusOK, map[string]any{"scanned": 2, "removed": []string{"transactions/x/orphan.pdf"}, "failed": []string{}})

	case path == "" && r.Method == http.MethodPost:
		f.calls = append(f.calls, "create")
		if f.failPersist {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		var tx model.Transaction
		_ = json.NewDecoder(r.Body).Decode(&tx)
		tx.ID = f.id("T")
		tx.Version = 1
		f.txs[tx.ID] = &tx
		writeJSON(w, http.StatusCreated, tx)

	case strings.HasPrefix(path, "/attachments/") && r.Method == http.MethodDelete:
		id := strings.TrimPrefix(path, "/attachments/")
		f.calls = append(f.calls, "delete:"+id)
		for txID, list := range f.atts {
			for i, a := range list {
				if a.ID == id {
					f.atts[txID] = append(list[:i], list[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
		}
		http.NotFound(w, r)

	case strings.HasPrefix(path, "/files/") && r.Method == http.MethodDelete:
		name := strings.TrimPrefix(path, "/files/")
		f.calls = append(f.calls, "delete-legacy:"+name)
		w.WriteHeader(http.StatusNoContent)

	case strings.HasSuffix(path, "/attachments"):
		txID := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/attachments")
		if _, ok := f.txs[txID]; !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, append([]model.AttachmentRecord{}, f.atts[txID]...))
			return
		}
		f.calls = append(f.calls, "upload:"+txID)
		if f.failUpload {
			http.Error(w, "storage down", http.StatusInternalServerError)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var out []model.AttachmentRecord
		refs := r.MultipartForm.Value["clientRef"]
	files:
		for i, fh := range r.MultipartForm.File["files"] {
			var ref string
			if i < len(refs) {
				ref = refs[i]
			}
			for _, a := range f.atts[txID] {
				if ref != "" && a.ClientRef == ref {
					out = append(out, a)
					continue files
				}
			}
			file, _ := fh.Open()
			data, _ := io.ReadAll(file)
			_ = file.Close()
			rec := model.AttachmentRecord{
				ID:               f.id("A"),
				TransactionID:    txID,
				FileURL:          "/files/transactions/" + txID + "/" + fh.Filename,
				OriginalFilename: fh.Filename,
				FileSize:         int64(len(data)),
				ClientRef:        ref,
			}
			out = append(out, rec)
			f.atts[txID] = append(f.atts[txID], rec)
		}
		if f.loseUploadReply {
			http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
			return
		}
		writeJSON(w, http.StatusCreated, out)

	default:
		txID := strings.TrimPrefix(path, "/")
		tx, ok := f.txs[txID]
		if !ok {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, tx)
		case http.MethodPut:
			f.calls = append(f.calls, "update:"+txID)
			if f.failPersist {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			var req struct {
				model.TransactionFields
				Version *int64 `json:"version"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.putVersions = append(f.putVersions, req.Version)
			if req.Version != nil && *req.Version != tx.Version {
				http.Error(w, "version conflict", http.StatusConflict)
				return
			}
			upd := *tx
			upd.MaterialID, upd.Type, upd.Quantity, upd.Reason, upd.ProjectID =
				req.MaterialID, req.Type, req.Quantity, req.Reason, req.ProjectID
			upd.Version++
			f.txs[txID] = &upd
			writeJSON(w, http.StatusOK, upd)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// testConfig — конфиг клиента с сервером ts и локальной БД во временном каталоге.
func testConfig(t *testing.T, ts *httptest.Server) *config.Config {
	t.Helper()
	return &config.Config{
		ServerURL:            ts.URL,
		ClientDBPath:         filepath.Join(t.TempDir(), "db"),
		RequestTimeoutSecond: 5,
	}
}
