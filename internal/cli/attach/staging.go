package attach

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"StroyTrack/internal/cli/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrUnknownRef — ссылка не соответствует ни одному видимому вложению.
var ErrUnknownRef = errors.New("attachment not found in editor")

// Selection — файл, выбранный пользователем; содержимое уже в памяти.
type Selection struct {
	Name       string
	LocalID    string // пусто — сгенерировать
	MimeType   string // пусто — определить по содержимому
	Content    []byte
	SourcePath string
}

// EntryKind различает вложения в редакторе.
type EntryKind int

const (
	EntryStaged EntryKind = iota
	EntryCommitted
)

func (k EntryKind) String() string {
	if k == EntryStaged {
		return "new"
	}
	return "saved"
}

// Entry — строка списка вложений в редакторе.
type Entry struct {
	Kind EntryKind
	Ref  string // LocalID для новых файлов, id для сохранённых
	URI  string // превью-ссылка или постоянный адрес файла
	Name string
	Type string
	Size int64
}

// Staging — рабочий набор вложений одной формы: сохранённые на сервере,
// новые (ещё не загруженные) и помеченные на удаление.
// Изменяется только через Stage, Unstage, MarkUploaded и Reset.
type Staging struct {
	mu        sync.Mutex
	previews  *PreviewRegistry
	committed []model.CommittedAttachment
	staged    []model.StagedFile
	removed   []model.CommittedAttachment
}

// NewStaging создаёт рабочий набор поверх уже сохранённых вложений.
func NewStaging(committed []model.CommittedAttachment) *Staging {
	return &Staging{
		previews:  NewPreviewRegistry(),
		committed: slices.Clone(committed),
	}
}

// Stage добавляет файл в набор. Сетевых вызовов нет, ошибок тоже.
func (s *Staging) Stage(sel Selection) model.StagedFile {
	mimeType := sel.MimeType
	if mimeType == "" {
		mimeType = mimetype.Detect(sel.Content).String()
	}
	localID := sel.LocalID
	if localID == "" {
		localID = uuid.NewString()
	}
	f := model.StagedFile{
		LocalID:     localID,
		DisplayName: sel.Name,
		MimeType:    mimeType,
		Size:        int64(len(sel.Content)),
		Content:     sel.Content,
		SourcePath:  sel.SourcePath,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f.PreviewURI = s.previews.Create(PreviewMeta{
		LocalID:     f.LocalID,
		DisplayName: f.DisplayName,
		MimeType:    f.MimeType,
		Size:        f.Size,
	})
	s.staged = append(s.staged, f)
	return f
}

// StagePath читает файл с диска и добавляет его в набор.
func (s *Staging) StagePath(path string) (model.StagedFile, error) {
	return s.RestorePath("", path)
}

// RestorePath как StagePath, но с заранее известным LocalID (файл из черновика).
func (s *Staging) RestorePath(localID, path string) (model.StagedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.StagedFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return s.Stage(Selection{Name: filepath.Base(path), LocalID: localID, Content: data, SourcePath: abs}), nil
}

// Unstage убирает вложение из видимого списка. ref — LocalID или превью-ссылка нового файла,
// id или адрес сохранённого. Новый файл отбрасывается сразу вместе с превью,
// сохранённый только помечается на удаление: сервер не трогается до отправки.
func (s *Staging) Unstage(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.staged {
		if f.LocalID == ref || f.PreviewURI == ref {
			s.previews.Release(f.PreviewURI)
			s.staged = slices.Delete(s.staged, i, i+1)
			return nil
		}
	}
	for i, a := range s.committed {
		if a.ID == ref || a.FileURI == ref {
			s.removed = append(s.removed, a)
			s.committed = slices.Delete(s.committed, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownRef, ref)
}

// MarkUploaded фиксирует успешную отправку: загруженные файлы становятся сохранёнными,
// удалённые на сервере исчезают, набор новых файлов и пометки очищаются,
// все превью-ссылки освобождаются.
func (s *Staging) MarkUploaded(uploaded []model.CommittedAttachment, deletedIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// не удалённые на сервере вложения по-прежнему существуют
	for _, a := range s.removed {
		if !slices.Contains(deletedIDs, a.ID) {
			s.committed = append(s.committed, a)
		}
	}
	s.committed = append(s.committed, uploaded...)
	s.staged = nil
	s.removed = nil
	s.previews.ReleaseAll()
}

// Reset отбрасывает новые файлы и пометки на удаление, освобождает превью.
func (s *Staging) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, s.removed...)
	s.staged = nil
	s.removed = nil
	s.previews.ReleaseAll()
}

// Visible — (сохранённые без помеченных на удаление) ∪ новые.
func (s *Staging) Visible() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.committed)+len(s.staged))
	for _, a := range s.committed {
		out = append(out, Entry{Kind: EntryCommitted, Ref: a.ID, URI: a.FileURI, Name: a.OriginalFilename, Type: a.FileType, Size: a.FileSize})
	}
	for _, f := range s.staged {
		out = append(out, Entry{Kind: EntryStaged, Ref: f.LocalID, URI: f.PreviewURI, Name: f.DisplayName, Type: f.MimeType, Size: f.Size})
	}
	return out
}

// Staged копия списка новых файлов.
func (s *Staging) Staged() []model.StagedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.staged)
}

// PendingDeletions копия списка помеченных на удаление.
func (s *Staging) PendingDeletions() []model.CommittedAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.removed)
}

// Committed копия списка сохранённых вложений, которые остаются видимыми.
func (s *Staging) Committed() []model.CommittedAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.committed)
}

// Preview метаданные по превью-ссылке.
func (s *Staging) Preview(uri string) (PreviewMeta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previews.Lookup(uri)
}

// ActivePreviews число неосвобождённых превью-ссылок.
func (s *Staging) ActivePreviews() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previews.Active()
}

// IsPreviewURI отличает превью-ссылку от постоянного адреса файла.
func IsPreviewURI(uri string) bool {
	return strings.HasPrefix(uri, previewScheme)
}
