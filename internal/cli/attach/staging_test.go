package attach

import (
	"os"
	"path/filepath"
	"testing"

	"StroyTrack/internal/cli/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func committedFixture() []model.CommittedAttachment {
	return []model.CommittedAttachment{
		{ID: "A1", TransactionID: "T1", FileURI: "http://srv/files/a1.pdf", OriginalFilename: "a1.pdf"},
		{ID: "A2", TransactionID: "T1", FileURI: "http://srv/files/a2.png", OriginalFilename: "a2.png"},
	}
}

func TestStage_AssignsIdentityAndPreview(t *testing.T) {
	s := NewStaging(nil)
	f := s.Stage(Selection{Name: "invoice.pdf", Content: []byte("%PDF-1.4\n")})

	assert.NotEmpty(t, f.LocalID)
	assert.True(t, IsPreviewURI(f.PreviewURI))
	assert.NotEqual(t, f.LocalID, f.PreviewURI)
	assert.Equal(t, "application/pdf", f.MimeType)
	assert.Equal(t, int64(9), f.Size)

	meta, ok := s.Preview(f.PreviewURI)
	require.True(t, ok)
	assert.Equal(t, "invoice.pdf", meta.DisplayName)
	assert.Equal(t, f.LocalID, meta.LocalID)
	assert.Equal(t, 1, s.ActivePreviews())

	// явный тип не переопределяется
	g := s.Stage(Selection{Name: "x.bin", MimeType: "application/octet-stream", Content: []byte("%PDF-1.4\n")})
	assert.Equal(t, "application/octet-stream", g.MimeType)
	assert.NotEqual(t, f.LocalID, g.LocalID)
}

func TestStagePath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o600))

	s := NewStaging(nil)
	f, err := s.StagePath(p)
	require.NoError(t, err)
	assert.Equal(t, "note.txt", f.DisplayName)
	assert.Equal(t, p, f.SourcePath)
	assert.Contains(t, f.MimeType, "text/plain")

	_, err = s.StagePath(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
	assert.Len(t, s.Staged(), 1)
}

func TestUnstage_StagedReleasesPreviewImmediately(t *testing.T) {
	s := NewStaging(nil)
	a := s.Stage(Selection{Name: "a.txt", Content: []byte("a")})
	b := s.Stage(Selection{Name: "b.txt", Content: []byte("b")})

	require.NoError(t, s.Unstage(a.LocalID))
	require.NoError(t, s.Unstage(b.PreviewURI))

	assert.Empty(t, s.Staged())
	assert.Empty(t, s.PendingDeletions())
	assert.Equal(t, 0, s.ActivePreviews())
	_, ok := s.Preview(a.PreviewURI)
	assert.False(t, ok)
}

func TestUnstage_CommittedIsDeferred(t *testing.T) {
	s := NewStaging(committedFixture())

	require.NoError(t, s.Unstage("A1"))
	require.NoError(t, s.Unstage("http://srv/files/a2.png"))

	pending := s.PendingDeletions()
	require.Len(t, pending, 2)
	assert.Equal(t, "A1", pending[0].ID)
	assert.Equal(t, "A2", pending[1].ID)
	assert.Empty(t, s.Visible())

	err := s.Unstage("A1")
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestVisible_IsCommittedMinusRemovedPlusStaged(t *testing.T) {
	s := NewStaging(committedFixture())
	f := s.Stage(Selection{Name: "new.txt", Content: []byte("n")})
	require.NoError(t, s.Unstage("A2"))

	v := s.Visible()
	require.Len(t, v, 2)
	assert.Equal(t, EntryCommitted, v[0].Kind)
	assert.Equal(t, "A1", v[0].Ref)
	assert.Equal(t, EntryStaged, v[1].Kind)
	assert.Equal(t, f.LocalID, v[1].Ref)
	assert.Equal(t, f.PreviewURI, v[1].URI)
	assert.Equal(t, "new", v[1].Kind.String())
}

func TestReset_RestoresCommittedAndReleasesAll(t *testing.T) {
	s := NewStaging(committedFixture())
	s.Stage(Selection{Name: "x", Content: []byte("x")})
	s.Stage(Selection{Name: "y", Content: []byte("y")})
	require.NoError(t, s.Unstage("A1"))

	s.Reset()

	assert.Empty(t, s.Staged())
	assert.Empty(t, s.PendingDeletions())
	assert.Equal(t, 0, s.ActivePreviews())
	assert.Len(t, s.Committed(), 2)
}

func TestMarkUploaded(t *testing.T) {
	s := NewStaging(committedFixture())
	s.Stage(Selection{Name: "new.pdf", Content: []byte("%PDF-1.4\n")})
	require.NoError(t, s.Unstage("A1"))
	require.NoError(t, s.Unstage("A2"))

	// A1 удалить не удалось: вложение остаётся сохранённым
	s.MarkUploaded([]model.CommittedAttachment{{ID: "A3", TransactionID: "T1"}}, []string{"A2"})

	assert.Empty(t, s.Staged())
	assert.Empty(t, s.PendingDeletions())
	assert.Equal(t, 0, s.ActivePreviews())
	ids := []string{}
	for _, a := range s.Committed() {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"A1", "A3"}, ids)
}

func TestPreviewRegistry(t *testing.T) {
	r := NewPreviewRegistry()
	u1 := r.Create(PreviewMeta{DisplayName: "a"})
	u2 := r.Create(PreviewMeta{DisplayName: "b"})
	assert.NotEqual(t, u1, u2)
	assert.Equal(t, 2, r.Active())

	assert.True(t, r.Release(u1))
	assert.False(t, r.Release(u1))
	assert.Equal(t, 1, r.ReleaseAll())
	assert.Equal(t, 0, r.Active())
	_, ok := r.Lookup(u2)
	assert.False(t, ok)
}
