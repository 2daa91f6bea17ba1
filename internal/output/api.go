package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// APIStore sends the complete result set to an http endpoint with a PUT
// request. The endpoint is expected to replace what it stored before.
type APIStore struct {
	*WriterConfig
	client *http.Client
	logger *slog.Logger
}

// NewAPIStore returns a new APIStore
func NewAPIStore(wc *WriterConfig) (*APIStore, error) {
	if wc.Uri == "" {
		return nil, errors.New("uri needs to be specified for the APIStore")
	}
	return &APIStore{
		WriterConfig: wc,
		client: &http.Client{
			Timeout: time.Second * 60,
		},
		logger: slog.With(slog.String("writer", string(API_WRITER_TYPE))),
	}, nil
}

func (s *APIStore) WriteAll(data []byte) error {
	req, err := http.NewRequest(http.MethodPut, s.Uri, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("error while creating put request: %w", err)
	}
	req.Header = map[string][]string{
		"Content-Type": {"application/json"},
	}
	if s.User != "" {
		req.SetBasicAuth(s.User, s.Password)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error while sending put request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("error while reading put request response: %w", err)
		}
		return fmt.Errorf("error while writing records. Status Code: %d Response: %s", resp.StatusCode, body)
	}
	s.logger.Debug(fmt.Sprintf("wrote %d bytes to %s", len(data), s.Uri))
	return nil
}
