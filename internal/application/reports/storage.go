package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrStorageNotConfigured = errors.New("report storage is not configured")

// Storage is the object store reports are shared through.
type Storage interface {
	Upload(ctx context.Context, bucket, path, contentType string, body []byte) error
	SignedURL(ctx context.Context, bucket, path string, expiresIn time.Duration) (string, error)
}

// SupabaseStorage talks to the Supabase Storage HTTP API with the service role key.
type SupabaseStorage struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type supabaseSignResponse struct {
	SignedURL      string `json:"signedURL"`
	SignedURLCamel string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
}

func (s *SupabaseStorage) do(ctx context.Context, method, url, contentType string, body []byte, upsert bool) ([]byte, error) {
	if s.BaseURL == "" || s.SecretKey == "" {
		return nil, ErrStorageNotConfigured
	}
	if s.Client == nil {
		s.Client = &http.Client{Timeout: 20 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.SecretKey)
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)
	req.Header.Set("Content-Type", contentType)
	if upsert {
		req.Header.Set("x-upsert", "true")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(respBody)
		if (resp.StatusCode == 400 || resp.StatusCode == 403) &&
			(strings.Contains(bodyStr, "Invalid Compact JWS") || strings.Contains(bodyStr, "Unauthorized")) {
			return nil, fmt.Errorf("supabase storage requires the service_role key, check SUPABASE_SECRET_KEY (raw body: %s)", bodyStr)
		}
		return nil, fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, bodyStr)
	}
	return respBody, nil
}

func (s *SupabaseStorage) base() string {
	return strings.TrimRight(s.BaseURL, "/")
}

// Upload writes body at bucket/path, replacing any existing object.
func (s *SupabaseStorage) Upload(ctx context.Context, bucket, path, contentType string, body []byte) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.base(), bucket, path)
	_, err := s.do(ctx, http.MethodPost, url, contentType, body, true)
	return err
}

// SignedURL returns a time-limited download link for bucket/path.
func (s *SupabaseStorage) SignedURL(ctx context.Context, bucket, path string, expiresIn time.Duration) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.base(), bucket, path)
	body, _ := json.Marshal(map[string]interface{}{"expiresIn": int(expiresIn.Seconds())})

	respBody, err := s.do(ctx, http.MethodPost, url, "application/json", body, false)
	if err != nil {
		return "", err
	}
	var data supabaseSignResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	for _, u := range []string{data.SignedURL, data.SignedURLCamel, data.SignedURLSnake} {
		if u == "" {
			continue
		}
		if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
			return u, nil
		}
		// Relative links are rooted at /storage/v1.
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		if !strings.HasPrefix(u, "/storage/v1") {
			u = "/storage/v1" + u
		}
		return s.base() + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
}
