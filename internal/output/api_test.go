package output

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchharvest/watchharvest/internal/types"
)

func TestAPIStore(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || user != "harvester" || password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store, err := NewStore(&WriterConfig{Type: API_WRITER_TYPE, Uri: server.URL, User: "harvester", Password: "secret"})
	require.NoError(t, err)
	w := NewIncrementalWriter(store)
	require.NoError(t, w.Append(types.NewActivityRecord("a", "https://www.youtube.com/watch?v=a", nil, "2024-03-05T10:20:00Z")))
	require.NoError(t, w.Append(types.NewActivityRecord("b", "https://www.youtube.com/watch?v=b", nil, "2024-03-05T09:00:00Z")))

	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[1], `"title": "a"`)
	assert.Contains(t, bodies[1], `"title": "b"`)
}

func TestAPIStoreErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("storage offline"))
	}))
	defer server.Close()

	store, err := NewAPIStore(&WriterConfig{Uri: server.URL})
	require.NoError(t, err)
	err = store.WriteAll([]byte("[]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage offline")

	_, err = NewAPIStore(&WriterConfig{})
	assert.Error(t, err)
}
