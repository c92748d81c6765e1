package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dairy/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Endpoint:          endpoint,
		Region:            "us-east-1",
		Bucket:            "reports",
		AccessKey:         "test-key",
		SecretKey:         "test-secret",
		UsePathStyle:      true,
		PresignExpiration: 10 * time.Minute,
	}
}

func TestNewS3ReportArchive_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, "bucket is required"},
		{"missing credentials", &config.StorageConfig{Bucket: "reports", AccessKey: "k"}, "secret key are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3ReportArchive(ctx, tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("defaults", func(t *testing.T) {
		cfg := testConfig("localhost:9000")
		cfg.PresignExpiration = 0
		archive, err := NewS3ReportArchive(ctx, cfg)
		require.NoError(t, err)
		assert.Equal(t, "reports", archive.Bucket())
		assert.Equal(t, 15*time.Minute, archive.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"", false, ""},
		{"minio:9000", false, "http://minio:9000"},
		{"minio:9000", true, "https://minio:9000"},
		{"https://s3.example.com", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		got, err := normalizeEndpoint(tt.endpoint, tt.useSSL)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

// fakeS3 answers the handful of path-style requests the archive makes
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	buckets map[string]bool
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{objects: make(map[string]string), buckets: make(map[string]bool)}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case key == "" && r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case key == "" && r.Method == http.MethodPut:
		f.buckets[bucket] = true
	case r.Method == http.MethodHead:
		if _, ok := f.objects[bucket+"/"+key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[bucket+"/"+key] = string(body)
		w.Header().Set("ETag", `"etag"`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func TestS3ReportArchive_RoundTrip(t *testing.T) {
	fake, srv := newFakeS3(t)
	ctx := context.Background()
	archive, err := NewS3ReportArchive(ctx, testConfig(srv.URL), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	require.NoError(t, archive.EnsureBucket(ctx))
	assert.True(t, fake.buckets["reports"])
	require.NoError(t, archive.EnsureBucket(ctx), "existing bucket")

	key := "reconciliations/2026-03-14.json"
	exists, err := archive.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, archive.Upload(ctx, key, []byte(`{"status":"finalized"}`), "application/json"))
	assert.Contains(t, fake.objects["reports/"+key], `{"status":"finalized"}`)

	exists, err = archive.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = archive.ObjectExists(ctx, "")
	assert.Error(t, err)
	assert.Error(t, archive.Upload(ctx, "", nil, "application/json"))
}

func TestS3ReportArchive_GenerateDownloadURL(t *testing.T) {
	ctx := context.Background()
	archive, err := NewS3ReportArchive(ctx, testConfig("http://localhost:9000"))
	require.NoError(t, err)

	before := time.Now()
	link, expiresAt, err := archive.GenerateDownloadURL(ctx, "reconciliations/2026-03-14.json", 0)
	require.NoError(t, err)
	assert.Contains(t, link, "http://localhost:9000/reports/reconciliations/2026-03-14.json")
	assert.Contains(t, link, "X-Amz-Signature=")
	assert.Contains(t, link, "X-Amz-Expires=600")
	assert.WithinDuration(t, before.Add(10*time.Minute), expiresAt, 5*time.Second)

	link, _, err = archive.GenerateDownloadURL(ctx, "reconciliations/2026-03-14.json", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, link, "X-Amz-Expires=60")

	_, _, err = archive.GenerateDownloadURL(ctx, "", 0)
	assert.Error(t, err)
}
