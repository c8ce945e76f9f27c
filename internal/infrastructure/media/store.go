package media

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sanitation-complaints/internal/config"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const keyPrefix = "complaints"

// store keeps attachments on an afero filesystem and serves them under PublicBaseURL
type store struct {
	fs       afero.Fs
	baseURL  string
	maxBytes int
	logger   *zap.Logger
}

// NewStore roots the store at cfg.RootDir on the OS filesystem
func NewStore(cfg *config.MediaConfig, logger *zap.Logger) repository.MediaStore {
	return NewStoreWithFs(afero.NewBasePathFs(afero.NewOsFs(), cfg.RootDir), cfg, logger)
}

func NewStoreWithFs(fs afero.Fs, cfg *config.MediaConfig, logger *zap.Logger) repository.MediaStore {
	return &store{
		fs:       fs,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes: cfg.MaxBytes,
		logger:   logger,
	}
}

func (s *store) storageError(operation string, err error, fields ...zap.Field) error {
	s.logger.Error("Media storage operation failed",
		append(fields, zap.String("operation", operation), zap.Error(err))...)
	return errors.ErrStorageError.WithDetails(map[string]interface{}{
		"operation": operation,
	})
}

// extension prefers the sniffed type and falls back to the client's filename
func extension(data []byte, filename string) string {
	if ext := mimetype.Detect(data).Extension(); ext != "" {
		return ext
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	return ".bin"
}

func (s *store) Store(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", errors.Validation("media.store", "media file is empty", nil)
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		return "", errors.Validation("media.store", "media file is too large", map[string]interface{}{
			"max_bytes": s.maxBytes,
			"size":      len(data),
		})
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := path.Join(keyPrefix, uuid.NewString()+extension(data, filename))

	if err := s.fs.MkdirAll(keyPrefix, 0o755); err != nil {
		return "", s.storageError("media.mkdir", err)
	}
	if err := afero.WriteFile(s.fs, key, data, 0o644); err != nil {
		return "", s.storageError("media.write", err, zap.String("key", key))
	}

	s.logger.Debug("Media stored",
		zap.String("key", key),
		zap.Int("size", len(data)),
		zap.String("filename", filename))

	return s.baseURL + "/" + key, nil
}

// Delete accepts the URL returned by Store; unknown objects are ignored
func (s *store) Delete(ctx context.Context, ref string) error {
	key, ok := s.keyFromRef(ref)
	if !ok {
		return errors.Validation("media.delete", "media reference does not belong to this store", map[string]interface{}{
			"ref": ref,
		})
	}

	if err := s.fs.Remove(key); err != nil {
		exists, _ := afero.Exists(s.fs, key)
		if !exists {
			return nil
		}
		return s.storageError("media.delete", err, zap.String("key", key))
	}

	s.logger.Debug("Media deleted", zap.String("key", key))
	return nil
}

func (s *store) keyFromRef(ref string) (string, bool) {
	key := strings.TrimPrefix(ref, s.baseURL+"/")
	if key == ref || !strings.HasPrefix(key, keyPrefix+"/") || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
