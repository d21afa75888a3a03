package profileapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
	"github.com/khoahotran/provenpro/pkg/logger"
)

type staticTokens string

func (s staticTokens) Get(context.Context) (string, error) { return string(s), nil }

func (staticTokens) Save(context.Context, string, time.Duration) error { return nil }

func (staticTokens) Clear(context.Context) error { return nil }

func TestFetchSendsTokenAndProfileID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/profile/", r.URL.Path)
		assert.Equal(t, "p-1", r.URL.Query().Get("profile_id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"p-1","subscription_type":"pro","tools":["vim"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", time.Second, staticTokens("tok"), logger.NewNop())
	s, err := c.Fetch(context.Background(), "p-1")

	require.NoError(t, err)
	assert.Equal(t, "p-1", s.ID())
	assert.Equal(t, "pro", s.SubscriptionType())
	assert.JSONEq(t, `["vim"]`, string(s.Field("tools")))
}

func TestNoTokenMeansNoAuthorizationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Authentication credentials were not provided."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, staticTokens(""), logger.NewNop())
	_, err := c.Fetch(context.Background(), "")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.ErrorIs(t, err, apperror.ErrServer)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, apperror.ToHTTPStatus(err))
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
	assert.Equal(t, "Authentication credentials were not provided.", appErr.Message)
}

func TestUpdateSendsMultipartWithJSONArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "pro", r.FormValue("subscription_type"))

		var skills []string
		assert.NoError(t, json.Unmarshal([]byte(r.FormValue("technical_skills")), &skills))
		assert.Equal(t, []string{"Go", "SQL"}, skills)
		assert.JSONEq(t, `[{"id":1,"title":"Site"}]`, r.FormValue("portfolio"))

		w.Write([]byte(`{"technical_skills":[{"id":1,"name":"Go"},{"id":2,"name":"SQL"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil, logger.NewNop())
	s, err := c.Update(context.Background(), profile.Payload{
		"subscription_type": "pro",
		"technical_skills":  []string{"Go", "SQL"},
		"portfolio":         json.RawMessage(`[{"id":1,"title":"Site"}]`),
	})

	require.NoError(t, err)
	assert.Contains(t, string(s.Field("technical_skills")), `"id":2`)
}

func TestCreateUsesPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil, logger.NewNop())
	s, err := c.Create(context.Background(), profile.Payload{"bio": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "7", s.ID())
}

func TestDeleteItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/profile/skill/12/", r.URL.Path)
		w.Write([]byte(`{"success":true,"message":"Skill deleted"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil, logger.NewNop())
	res, err := c.DeleteItem(context.Background(), "skill", "12")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Skill deleted", res.Message)
}

func TestUnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, 200*time.Millisecond, nil, logger.NewNop())
	_, err := c.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrNetwork)
}

func TestCanceledContextIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, time.Second, nil, logger.NewNop())
	_, err := c.Update(ctx, profile.Payload{"bio": "x"})
	assert.ErrorIs(t, err, apperror.ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}
