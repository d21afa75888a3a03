package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/provenpro/internal/domain/collection"
)

func TestParseSnapshot(t *testing.T) {
	s, err := ParseSnapshot([]byte(`{"id":17,"subscription_type":"pro","bio":"hi"}`))
	require.NoError(t, err)

	assert.Equal(t, "17", s.ID())
	assert.Equal(t, "pro", s.SubscriptionType())
	assert.JSONEq(t, `"hi"`, string(s.Field("bio")))
	assert.Nil(t, s.Field("missing"))
}

func TestParseSnapshotNullAndGarbage(t *testing.T) {
	s, err := ParseSnapshot([]byte(`null`))
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())

	_, err = ParseSnapshot([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestIDIgnoresNonScalar(t *testing.T) {
	s := Empty()
	s.Fields[FieldID] = json.RawMessage(`{"nested":true}`)
	assert.Empty(t, s.ID())
}

func TestCloneIsDeep(t *testing.T) {
	s := Empty()
	s.Fields["bio"] = json.RawMessage(`"a"`)
	s.Version = 3

	c := s.Clone()
	c.Fields["bio"][1] = 'b'
	c.Fields["extra"] = json.RawMessage(`1`)

	assert.Equal(t, `"a"`, string(s.Field("bio")))
	assert.Nil(t, s.Field("extra"))
	assert.Equal(t, uint64(3), c.Version)
}

func TestMarshalNilSnapshot(t *testing.T) {
	out, err := json.Marshal(Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestCollectionDecodesKindField(t *testing.T) {
	s, err := ParseSnapshot([]byte(`{"tools":[{"id":1,"name":"Docker"}]}`))
	require.NoError(t, err)

	items, err := s.Collection(collection.MustLookup(collection.KindTool))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Docker", items[0].Get("name"))
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(EventFieldSynced, "p-1", "tools", 4, json.RawMessage(`[]`))
	assert.NotEqual(t, [16]byte{}, [16]byte(evt.EventID))
	assert.Equal(t, "p-1", evt.ProfileID)
	assert.False(t, evt.OccurredAt.IsZero())
}
