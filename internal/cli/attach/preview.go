package attach

import "github.com/google/uuid"

const previewScheme = "preview:"

// PreviewMeta — данные для отображения файла до загрузки.
type PreviewMeta struct {
	LocalID     string
	DisplayName string
	MimeType    string
	Size        int64
}

// PreviewRegistry выдаёт превью-ссылки, действительные только внутри процесса,
// и хранит по ним метаданные для отображения.
type PreviewRegistry struct {
	entries map[string]PreviewMeta
}

func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{entries: make(map[string]PreviewMeta)}
}

// Create регистрирует новую превью-ссылку.
func (r *PreviewRegistry) Create(meta PreviewMeta) string {
	uri := previewScheme + uuid.NewString()
	r.entries[uri] = meta
	return uri
}

// Lookup возвращает метаданные по ссылке; после Release ссылка недействительна.
func (r *PreviewRegistry) Lookup(uri string) (PreviewMeta, bool) {
	m, ok := r.entries[uri]
	return m, ok
}

// Release освобождает ссылку. Повторный вызов безопасен.
func (r *PreviewRegistry) Release(uri string) bool {
	if _, ok := r.entries[uri]; !ok {
		return false
	}
	delete(r.entries, uri)
	return true
}

// ReleaseAll освобождает все ссылки и возвращает их число.
func (r *PreviewRegistry) ReleaseAll() int {
	n := len(r.entries)
	r.entries = make(map[string]PreviewMeta)
	return n
}

// Active число неосвобождённых ссылок.
func (r *PreviewRegistry) Active() int {
	return len(r.entries)
}
