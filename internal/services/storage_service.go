package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
)

// AudioStore turns captured audio bytes into the content string stored on an
// audio message. The two implementations cover the inline (base64 data URI)
// and object (uploaded file URL) content modes.
type AudioStore interface {
	StoreAudio(ctx context.Context, data []byte, messageID string) (string, error)
}

// InlineAudioStore embeds the clip in the message itself as a data URI.
type InlineAudioStore struct{}

func NewInlineAudioStore() *InlineAudioStore { return &InlineAudioStore{} }

func (s *InlineAudioStore) StoreAudio(_ context.Context, data []byte, _ string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty audio payload")
	}

	mimeType := http.DetectContentType(data)
	if mimeType == "application/octet-stream" {
		mimeType = "audio/webm"
	}

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// SupabaseAudioStore uploads clips to a Supabase storage bucket and stores the
// public object URL as the message content.
type SupabaseAudioStore struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseAudioStore(baseURL, bucket, serviceKey string) *SupabaseAudioStore {
	return &SupabaseAudioStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: http.DefaultClient,
	}
}

func (s *SupabaseAudioStore) StoreAudio(ctx context.Context, data []byte, messageID string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty audio payload")
	}

	objectPath := path.Join("voice-notes", messageID+".webm")
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("x-upsert", "true")
	req.Header.Set("Content-Type", http.DetectContentType(data))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("upload audio: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath), nil
}
