// Package files is the file-owning collaborator. Storage mechanics live
// behind the BlobStore port; this service's job is binding each operation to
// its declared permission kind.
package files

import (
	"context"
	"io"

	"github.com/meridian-saas/meridian/internal/authz"
)

// BlobStore abstracts the actual byte storage.
type BlobStore interface {
	Put(ctx context.Context, tenantID int64, key string, r io.Reader) error
	Get(ctx context.Context, tenantID int64, key string) (io.ReadCloser, error)
	MarkDeleted(ctx context.Context, tenantID int64, key string) error
	Purge(ctx context.Context, tenantID int64, key string) error
	Share(ctx context.Context, tenantID int64, key string) (string, error)
}

// Service exposes guarded file operations. The permission kind each operation
// requires is declared once, here, at the binding site.
type Service struct {
	store BlobStore
	guard *authz.Guard

	deleteOp authz.FileOp
	purgeOp  authz.FileOp
}

// NewService builds a Service bound to the guard.
func NewService(store BlobStore, guard *authz.Guard) *Service {
	s := &Service{store: store}
	s.deleteOp = guard.File(authz.FileDelete, func(ctx context.Context, tenantID int64, key string) error {
		return s.store.MarkDeleted(ctx, tenantID, key)
	})
	s.purgeOp = guard.File(authz.FilePermanentDelete, func(ctx context.Context, tenantID int64, key string) error {
		return s.store.Purge(ctx, tenantID, key)
	})
	s.guard = guard
	return s
}

// Upload stores a file in the tenant. Requires UPLOAD.
func (s *Service) Upload(ctx context.Context, tenantID int64, key string, r io.Reader) error {
	if err := s.guard.RequireFile(ctx, authz.FileUpload, tenantID); err != nil {
		return err
	}
	return s.store.Put(ctx, tenantID, key, r)
}

// Download fetches a file. Requires DOWNLOAD (tenant view access).
func (s *Service) Download(ctx context.Context, tenantID int64, key string) (io.ReadCloser, error) {
	if err := s.guard.RequireFile(ctx, authz.FileDownload, tenantID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, tenantID, key)
}

// Delete soft-deletes a file. Requires DELETE.
func (s *Service) Delete(ctx context.Context, tenantID int64, key string) error {
	return s.deleteOp(ctx, tenantID, key)
}

// PermanentlyDelete purges a file beyond recovery. Requires PERMANENT_DELETE.
func (s *Service) PermanentlyDelete(ctx context.Context, tenantID int64, key string) error {
	return s.purgeOp(ctx, tenantID, key)
}

// Share produces a sharing reference for a file. Requires SHARE.
func (s *Service) Share(ctx context.Context, tenantID int64, key string) (string, error) {
	if err := s.guard.RequireFile(ctx, authz.FileShare, tenantID); err != nil {
		return "", err
	}
	return s.store.Share(ctx, tenantID, key)
}
