package draft

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/provenpro/internal/domain/collection"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
)

func experience(id, company, position string) collection.Item {
	return collection.NewItem(id, map[string]any{
		"company":          company,
		"position":         position,
		"start_date":       "2020-01-01",
		"end_date":         "2021-01-01",
		"responsibilities": "Built stuff",
	})
}

func newExperienceStore(items ...collection.Item) *Store {
	s := NewStore(collection.MustLookup(collection.KindExperience), NewValidator())
	s.Load(items)
	return s
}

func TestCommitEditRejectsCaseInsensitiveDuplicate(t *testing.T) {
	s := newExperienceStore(experience("", "Acme", "Dev"))
	before := s.Working()

	s.BeginEdit(nil)
	_, err := s.CommitEdit(experience("", "ACME", "DEV"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrDuplicate))
	assert.Equal(t, before, s.Working())
}

func TestCommitEditAllRequiredEmpty(t *testing.T) {
	s := newExperienceStore(experience("1", "Acme", "Dev"))
	before := s.Working()

	buf := s.BeginEdit(nil)
	_, err := s.CommitEdit(buf)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "company", appErr.Field)
	assert.Equal(t, before, s.Working())
}

func TestCommitEditNamesFirstMissingField(t *testing.T) {
	s := newExperienceStore()
	item := experience("", "Acme", "   ")

	_, err := s.CommitEdit(item)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "position", appErr.Field)
}

func TestCommitEditRejectsBadDate(t *testing.T) {
	s := newExperienceStore()
	item := experience("", "Acme", "Dev")
	item.Fields["start_date"] = "01/02/2020"

	_, err := s.CommitEdit(item)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "start_date", appErr.Field)
	assert.Contains(t, appErr.Message, "invalid format")
}

func TestCommitEditAcceptsPresentEndDate(t *testing.T) {
	s := newExperienceStore()
	item := experience("", "Acme", "Dev")
	item.Fields["end_date"] = "Present"

	out, err := s.CommitEdit(item)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestCommitEditAppendsNewItem(t *testing.T) {
	s := newExperienceStore(experience("1", "Acme", "Dev"))
	s.BeginEdit(nil)

	out, err := s.CommitEdit(experience("", "Beta", "Lead"))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Beta", out[1].Get("company"))
	assert.False(t, out[1].HasID())

	_, open := s.Buffer()
	assert.False(t, open)
}

func TestCommitEditReplacesByID(t *testing.T) {
	existing := experience("1", "Acme", "Dev")
	s := newExperienceStore(existing, experience("2", "Beta", "QA"))

	buf := s.BeginEdit(&existing)
	buf.Fields["position"] = "Senior Dev"
	out, err := s.CommitEdit(buf)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Senior Dev", out[0].Get("position"))
	assert.Equal(t, "1", out[0].ID)
}

func TestCommitEditReplacesUnsavedByEquality(t *testing.T) {
	unsaved := experience("", "Acme", "Dev")
	s := newExperienceStore(unsaved)

	buf := s.BeginEdit(&unsaved)
	buf.Fields["company"] = "Acme Corp"
	out, err := s.CommitEdit(buf)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Acme Corp", out[0].Get("company"))
}

func TestCommitEditRejectsEditIntoDuplicate(t *testing.T) {
	first := experience("1", "Acme", "Dev")
	s := newExperienceStore(first, experience("2", "Beta", "Dev"))

	buf := s.BeginEdit(&first)
	buf.Fields["company"] = "beta"
	_, err := s.CommitEdit(buf)

	assert.ErrorIs(t, err, apperror.ErrDuplicate)
}

func TestCommitEditUnknownIDIsNotFound(t *testing.T) {
	s := newExperienceStore(experience("1", "Acme", "Dev"))
	_, err := s.CommitEdit(experience("99", "Zeta", "Dev"))
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCommitEditStripsMarkup(t *testing.T) {
	s := NewStore(collection.MustLookup(collection.KindSkill), NewValidator())
	out, err := s.CommitEdit(collection.NewItem("", map[string]any{"name": "  <b>Go</b> & SQL "}))
	require.NoError(t, err)
	assert.Equal(t, "Go & SQL", out[0].Get("name"))
}

func TestDiscardEditKeepsWorking(t *testing.T) {
	s := newExperienceStore(experience("1", "Acme", "Dev"))
	before := s.Working()

	s.BeginEdit(nil)
	s.DiscardEdit()

	_, open := s.Buffer()
	assert.False(t, open)
	assert.Equal(t, before, s.Working())
}

func TestLoadCopiesCollection(t *testing.T) {
	src := collection.Collection{experience("1", "Acme", "Dev")}
	s := newExperienceStore(src...)
	src[0].Fields["company"] = "Mutated"

	assert.Equal(t, "Acme", s.Working()[0].Get("company"))
}

func TestClosedStoreIgnoresLoadIfOpen(t *testing.T) {
	s := newExperienceStore()
	s.Close()
	assert.False(t, s.LoadIfOpen(collection.Collection{experience("1", "A", "B")}))
	assert.Empty(t, s.Working())
}

func TestRemoveByID(t *testing.T) {
	s := newExperienceStore(experience("1", "Acme", "Dev"), experience("2", "Beta", "QA"))
	assert.True(t, s.RemoveByID("1"))
	assert.False(t, s.RemoveByID("1"))
	assert.Len(t, s.Working(), 1)
}

type staticSource struct{ snap profile.Snapshot }

func (s staticSource) Get() profile.Snapshot { return s.snap.Clone() }

func TestWorkspaceSeedsFromSnapshot(t *testing.T) {
	src := staticSource{snap: profile.Snapshot{Fields: map[string]json.RawMessage{
		"tools": json.RawMessage(`["vim","git"]`),
	}}}
	w := NewWorkspace(src, NewValidator())

	s, err := w.Store(collection.MustLookup(collection.KindTool))
	require.NoError(t, err)
	assert.Len(t, s.Working(), 2)

	again, _ := w.Store(collection.MustLookup(collection.KindTool))
	assert.Same(t, s, again)

	_, err = w.Store(collection.MustLookup(collection.KindVideoIntro))
	assert.Error(t, err)

	w.Reset()
	assert.True(t, s.Closed())
	_, ok := w.Existing(collection.KindTool)
	assert.False(t, ok)
}
