package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noSuchKeyBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

func setupS3Test(t *testing.T, objects map[string]string) *S3CatalogStore {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, ok := objects[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(noSuchKeyBody))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewS3CatalogStore(S3Options{
		Region:          "ap-northeast-2",
		Bucket:          "catalogs",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Prefix:          "products/",
		Endpoint:        server.URL,
	})
}

func TestS3CatalogStore_FetchJSON(t *testing.T) {
	store := setupS3Test(t, map[string]string{
		"catalogs/products/phone-1.json": `{"product_id":"phone-1"}`,
	})

	body, format, err := store.Fetch(context.Background(), "phone-1")
	require.NoError(t, err)
	assert.Equal(t, "json", format)
	assert.JSONEq(t, `{"product_id":"phone-1"}`, string(body))
}

func TestS3CatalogStore_FallsBackToYAML(t *testing.T) {
	store := setupS3Test(t, map[string]string{
		"catalogs/products/shirt.yml": "product_id: shirt\n",
	})

	body, format, err := store.Fetch(context.Background(), "shirt")
	require.NoError(t, err)
	assert.Equal(t, "yaml", format)
	assert.Equal(t, "product_id: shirt\n", string(body))
}

func TestS3CatalogStore_NotFound(t *testing.T) {
	store := setupS3Test(t, nil)

	_, _, err := store.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
