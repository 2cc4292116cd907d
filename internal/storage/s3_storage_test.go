package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestNewS3StoreValidation(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{AccessKey: "k", SecretKey: "s"})
	require.ErrorContains(t, err, "bucket is required")

	_, err = NewS3Store(context.Background(), S3Config{Bucket: "b"})
	require.ErrorContains(t, err, "access key")
}

func TestS3StoreSaveAndDelete(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewS3Store(context.Background(), S3Config{
		Endpoint:      server.URL,
		Region:        "us-east-1",
		Bucket:        "presensi",
		AccessKey:     "test-key",
		SecretKey:     "test-secret",
		UsePathStyle:  true,
		PublicBaseURL: "https://cdn.example.com/presensi/",
	})
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), "2024/01/abc.jpg", "image/jpeg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/presensi/2024/01/abc.jpg", ref)

	fake.mu.Lock()
	assert.Equal(t, []byte("jpeg-bytes"), fake.objects["/presensi/2024/01/abc.jpg"])
	assert.Equal(t, "image/jpeg", fake.types["/presensi/2024/01/abc.jpg"])
	fake.mu.Unlock()

	require.NoError(t, store.Delete(context.Background(), ref))

	fake.mu.Lock()
	assert.Empty(t, fake.objects)
	fake.mu.Unlock()

	require.Error(t, store.Delete(context.Background(), "/uploads/other.jpg"))
}
