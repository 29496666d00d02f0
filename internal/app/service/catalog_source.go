package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ikkim/udonggeum-checkout/internal/app/model"
	"github.com/ikkim/udonggeum-checkout/internal/app/repository"
	"github.com/ikkim/udonggeum-checkout/internal/storage"
	"gorm.io/gorm"
)

var ErrCatalogNotFound = errors.New("catalog not found")

// CatalogRecord is a raw catalog document together with the identifiers stored beside it.
type CatalogRecord struct {
	ProductID string
	StoreID   string
	Format    string
	Body      []byte
}

// CatalogSource fetches and stores raw catalog documents. Fetch returns ErrCatalogNotFound for
// unknown products.
type CatalogSource interface {
	Fetch(ctx context.Context, productID string) ([]byte, string, error)
	Put(ctx context.Context, record CatalogRecord) error
}

type dbCatalogSource struct {
	repo repository.CatalogRepository
}

func NewDBCatalogSource(repo repository.CatalogRepository) CatalogSource {
	return &dbCatalogSource{repo: repo}
}

func (s *dbCatalogSource) Fetch(_ context.Context, productID string) ([]byte, string, error) {
	doc, err := s.repo.FindByProductID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: %s", ErrCatalogNotFound, productID)
		}
		return nil, "", err
	}
	return []byte(doc.Body), string(doc.Format), nil
}

func (s *dbCatalogSource) Put(_ context.Context, record CatalogRecord) error {
	sum := sha256.Sum256(record.Body)
	return s.repo.Upsert(&model.CatalogDocument{
		ProductID: record.ProductID,
		StoreID:   record.StoreID,
		Format:    model.CatalogFormat(record.Format),
		Body:      string(record.Body),
		Checksum:  hex.EncodeToString(sum[:]),
	})
}

type s3CatalogSource struct {
	store *storage.S3CatalogStore
}

func NewS3CatalogSource(store *storage.S3CatalogStore) CatalogSource {
	return &s3CatalogSource{store: store}
}

func (s *s3CatalogSource) Fetch(ctx context.Context, productID string) ([]byte, string, error) {
	body, format, err := s.store.Fetch(ctx, productID)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, "", fmt.Errorf("%w: %s", ErrCatalogNotFound, productID)
	}
	return body, format, err
}

func (s *s3CatalogSource) Put(ctx context.Context, record CatalogRecord) error {
	return s.store.Put(ctx, record.ProductID, record.Format, record.Body)
}

// dirCatalogSource reads <dir>/<productID>.json, .yaml or .yml.
type dirCatalogSource struct {
	dir string
}

func NewDirCatalogSource(dir string) CatalogSource {
	return &dirCatalogSource{dir: dir}
}

func (s *dirCatalogSource) Fetch(_ context.Context, productID string) ([]byte, string, error) {
	if productID == "" || filepath.Base(productID) != productID {
		return nil, "", fmt.Errorf("%w: %q", ErrCatalogNotFound, productID)
	}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		body, err := os.ReadFile(filepath.Join(s.dir, productID+ext))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		format, _ := NormalizeCatalogFormat(ext)
		return body, format, nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrCatalogNotFound, productID)
}

func (s *dirCatalogSource) Put(_ context.Context, record CatalogRecord) error {
	if record.ProductID == "" || filepath.Base(record.ProductID) != record.ProductID {
		return fmt.Errorf("invalid product id %q", record.ProductID)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	ext := ".json"
	if record.Format == "yaml" {
		ext = ".yaml"
	}
	return os.WriteFile(filepath.Join(s.dir, record.ProductID+ext), record.Body, 0o644)
}
