package feedclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverfeed/internal/domain/entities"
)

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drivers/active", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", nil)
	require.NoError(t, err)
	return c
}

func TestFetchSnapshot(t *testing.T) {
	c := serve(t, http.StatusOK, `[{"id":"driver-1","name":"Ayse","hasCustomPhoto":true,"latitude":41.01,"longitude":29.01,"postId":"post-a"}]`)

	got, err := c.FetchSnapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []entities.DriverLocation{{
		DriverID:       "driver-1",
		DisplayName:    "Ayse",
		HasCustomPhoto: true,
		Coordinate:     entities.NewCoordinate(41.01, 29.01),
		PostID:         "post-a",
	}}, got)
}

func TestFetchSnapshot_Empty(t *testing.T) {
	got, err := serve(t, http.StatusOK, `[]`).FetchSnapshot(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unavailable", http.StatusServiceUnavailable, `{"error":"unavailable"}`, ErrUnavailable},
		{"internal", http.StatusInternalServerError, `{"error":"internal"}`, ErrUnexpectedStatus},
		{"bad request", http.StatusBadRequest, `{"error":"invalid proximity query"}`, ErrUnexpectedStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := serve(t, tt.status, tt.body).FetchSnapshot(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := serve(t, http.StatusOK, `{"not":"an array"}`).FetchSnapshot(context.Background())
	assert.ErrorContains(t, err, "decode snapshot")
}

func TestFetchSnapshot_ContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.FetchSnapshot(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"localhost:8080", "ftp://example.com", "://"} {
		_, err := New(raw, nil)
		assert.Error(t, err, raw)
	}
}
