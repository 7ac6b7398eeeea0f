package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/scribe/internal/notes"
	"github.com/five82/scribe/internal/remote"
)

func newTestServer(t *testing.T, seed ...notes.Note) (*Server, *remote.Memory) {
	t.Helper()
	mem := remote.NewMemory(seed...)
	logger, _ := test.NewNullLogger()
	return New(mem, logger), mem
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestListEmptyReturnsItemsArray(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, http.MethodGet, "/api/notes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestCreateValidation(t *testing.T) {
	s, mem := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"valid", `{"id":"a","name":"Gym","description":"leg day","clientId":"t"}`, http.StatusCreated},
		{"missing id", `{"name":"Gym","description":"leg day"}`, http.StatusBadRequest},
		{"blank name", `{"id":"b","name":"  ","description":"leg day"}`, http.StatusBadRequest},
		{"missing description", `{"id":"c","name":"Gym"}`, http.StatusBadRequest},
		{"unknown field", `{"id":"d","name":"Gym","description":"x","owner":"me"}`, http.StatusBadRequest},
		{"not json", `{`, http.StatusBadRequest},
		{"duplicate", `{"id":"a","name":"Gym","description":"again"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, http.MethodPost, "/api/notes", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}

	items, err := mem.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, notes.OriginTag("t"), items[0].Origin)
}

func TestUpdateAndDelete(t *testing.T) {
	s, mem := newTestServer(t, notes.Note{ID: "a", Name: "Groceries"})

	rec := serve(s, http.MethodPatch, "/api/notes/a", `{"completed":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	items, err := mem.List(context.Background())
	require.NoError(t, err)
	assert.True(t, items[0].Completed)

	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodPatch, "/api/notes/a", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodPatch, "/api/notes/zz", `{"completed":true}`).Code)

	assert.Equal(t, http.StatusNoContent, serve(s, http.MethodDelete, "/api/notes/a", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodDelete, "/api/notes/a", "").Code)
}

func TestStoreFailureIs500(t *testing.T) {
	s, mem := newTestServer(t)
	mem.FailNext(remote.OpList, errors.New("disk on fire"))

	rec := serve(s, http.MethodGet, "/api/notes", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestClientRoundTrip(t *testing.T) {
	s, _ := newTestServer(t, notes.Note{ID: "a", Name: "Groceries", Description: "milk"})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	client, err := remote.NewClient(ts.URL, time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, client.Create(ctx, notes.Note{ID: "b", Name: "Gym", Description: "leg day", Origin: "tag"}))
	require.ErrorIs(t, client.Create(ctx, notes.Note{ID: "b", Name: "Gym", Description: "again"}), remote.ErrConflict)
	require.NoError(t, client.Update(ctx, "a", notes.CompletedPatch(true)))
	require.ErrorIs(t, client.Delete(ctx, "missing"), remote.ErrNotFound)

	items, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, notes.OriginTag("tag"), items[0].Origin)
	assert.True(t, items[1].Completed)
}

func TestEventStreamDeliversCreates(t *testing.T) {
	s, mem := newTestServer(t)
	s.heartbeat = 10 * time.Millisecond
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	client, err := remote.NewClient(ts.URL, time.Second)
	require.NoError(t, err)

	sub, err := client.SubscribeOnCreate(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	require.Eventually(t, func() bool { return mem.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)
	// Let a few heartbeats go by before the first event.
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, client.Create(context.Background(), notes.Note{ID: "a", Name: "Gym", Description: "leg day", Origin: "tag"}))

	select {
	case got := <-sub.Notes():
		assert.Equal(t, "a", got.ID)
		assert.Equal(t, notes.OriginTag("tag"), got.Origin)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	require.NoError(t, sub.Close())
	assert.Eventually(t, func() bool { return mem.Subscribers() == 0 }, 2*time.Second, 5*time.Millisecond,
		"server kept the store subscription after the client left")
}

func TestEventStreamUnavailable(t *testing.T) {
	s, mem := newTestServer(t)
	mem.FailNext(remote.OpSubscribe, errors.New("no pubsub"))

	rec := serve(s, http.MethodGet, "/api/notes/events", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
