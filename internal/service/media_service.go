package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"portfolio/internal/apperr"
	"portfolio/internal/imageref"
	"portfolio/internal/media/sniffer"
	"portfolio/internal/models"
	"portfolio/internal/storage"
)

const (
	MaxUploadBytes = 5 * 1024 * 1024
	UploadPrefix   = "uploads"
	AccessURLTTL   = time.Hour
)

// allowedTypes maps each accepted MIME type to the key extension it gets.
var allowedTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/webp": "webp",
}

type UploadInput struct {
	Body        io.Reader
	ContentType string
	Size        int64
}

type UploadResult struct {
	Key       string
	SignedURL string
	PublicURL string
	Width     int
	Height    int
}

type MediaService struct {
	bucket   storage.Bucket
	resolver imageref.Resolver
	log      zerolog.Logger
}

func NewMediaService(bucket storage.Bucket, resolver imageref.Resolver, log zerolog.Logger) *MediaService {
	return &MediaService{
		bucket:   bucket,
		resolver: resolver,
		log:      log,
	}
}

// Upload enforces the type allow-list, then the size ceiling, then checks
// the leading bytes against the declared type before writing the blob under
// a fresh key. Nothing is stored when any check fails.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	declared := sniffer.NormalizeMIME(in.ContentType)
	ext, ok := allowedTypes[declared]
	if !ok {
		return UploadResult{}, apperr.UnsupportedType("Unsupported file type")
	}
	if in.Size > MaxUploadBytes {
		return UploadResult{}, apperr.TooLarge("File exceeds 5 MB limit")
	}
	if in.Body == nil {
		return UploadResult{}, apperr.Validation("File is required")
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, MaxUploadBytes+1))
	if err != nil {
		return UploadResult{}, apperr.Validation("Could not read upload")
	}
	if len(data) > MaxUploadBytes {
		return UploadResult{}, apperr.TooLarge("File exceeds 5 MB limit")
	}
	if len(data) == 0 {
		return UploadResult{}, apperr.Validation("File is required")
	}

	detected, err := sniffer.DetectHead(data)
	if err != nil || detected.MIME != declared {
		return UploadResult{}, apperr.UnsupportedType("File content does not match its declared type")
	}

	key := path.Join(UploadPrefix, fmt.Sprintf("%s.%s", uuid.NewString(), ext))
	if err := s.bucket.Put(ctx, key, bytes.NewReader(data), int64(len(data)), declared); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("store upload failed")
		return UploadResult{}, apperr.Unavailable(err, "Storage is unavailable, try again later")
	}

	result := UploadResult{
		Key:       key,
		SignedURL: s.IssueAccessURL(ctx, key),
		PublicURL: s.bucket.PublicURL(key),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		result.Width, result.Height = cfg.Width, cfg.Height
	}
	return result, nil
}

// IssueAccessURL returns a one hour signed URL for key. When signing fails
// it returns the permanent public URL instead, so the result is only the
// best available link and may never expire.
func (s *MediaService) IssueAccessURL(ctx context.Context, key string) string {
	signed, err := s.bucket.PresignGet(ctx, key, AccessURLTTL)
	if err != nil || signed == "" {
		s.log.Warn().Err(err).Str("key", key).Msg("presign failed, using public url")
		return s.bucket.PublicURL(key)
	}
	return signed
}

// DisplayURL turns a stored image value into something a browser can load.
// External references are returned untouched.
func (s *MediaService) DisplayURL(ctx context.Context, stored string) *string {
	ref := s.resolver.Resolve(stored)
	switch ref.Kind {
	case imageref.StorageKey:
		u := s.IssueAccessURL(ctx, ref.Value)
		return &u
	case imageref.External:
		v := ref.Value
		return &v
	default:
		return nil
	}
}

func (s *MediaService) Delete(ctx context.Context, key string) error {
	ref := s.resolver.Resolve(key)
	if ref.Kind == imageref.None {
		return apperr.Validation("Missing file path")
	}
	if ref.Kind == imageref.External {
		return apperr.Validation("Not a stored asset")
	}
	if err := s.bucket.Remove(ctx, ref.Value); err != nil {
		s.log.Error().Err(err).Str("key", ref.Value).Msg("delete asset failed")
		return apperr.Unavailable(err, "Storage is unavailable, try again later")
	}
	return nil
}

// List enumerates stored assets under prefix, defaulting to the upload
// directory, each with an access URL.
func (s *MediaService) List(ctx context.Context, prefix string) ([]models.Asset, error) {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = UploadPrefix
	}

	objects, err := s.bucket.List(ctx, prefix)
	if err != nil {
		s.log.Error().Err(err).Str("prefix", prefix).Msg("list assets failed")
		return nil, apperr.Unavailable(err, "Storage is unavailable, try again later")
	}

	assets := make([]models.Asset, 0, len(objects))
	for _, obj := range objects {
		assets = append(assets, models.Asset{
			Name:      path.Base(obj.Key),
			Path:      obj.Key,
			URL:       s.IssueAccessURL(ctx, obj.Key),
			Size:      obj.Size,
			Type:      obj.ContentType,
			CreatedAt: obj.LastModified,
			UpdatedAt: obj.LastModified,
		})
	}
	return assets, nil
}

// Resolver exposes the reference rules the gateway applies, so record
// writes store the same keys the gateway later signs and deletes.
func (s *MediaService) Resolver() imageref.Resolver {
	return s.resolver
}
