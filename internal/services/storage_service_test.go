package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineAudioStoreProducesDataURI(t *testing.T) {
	audio := NewInlineAudioStore()

	content, err := audio.StoreAudio(context.Background(), []byte("fake clip"), "msg-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(content, "data:"), "content: %s", content)
	assert.Contains(t, content, ";base64,")

	_, err = audio.StoreAudio(context.Background(), nil, "msg-2")
	assert.Error(t, err)
}

func TestSupabaseAudioStoreUploadsAndReturnsPublicURL(t *testing.T) {
	var path, auth, upsert string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		upsert = r.Header.Get("x-upsert")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	audio := NewSupabaseAudioStore(server.URL, "voice", "service-key")
	content, err := audio.StoreAudio(context.Background(), []byte("fake clip"), "msg-1")
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/voice/voice-notes/msg-1.webm", path)
	assert.Equal(t, "Bearer service-key", auth)
	assert.Equal(t, "true", upsert)
	assert.Equal(t, server.URL+"/storage/v1/object/public/voice/voice-notes/msg-1.webm", content)
}

func TestSupabaseAudioStoreSurfacesUploadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bucket not found", http.StatusNotFound)
	}))
	defer server.Close()

	audio := NewSupabaseAudioStore(server.URL, "voice", "service-key")
	_, err := audio.StoreAudio(context.Background(), []byte("fake clip"), "msg-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
