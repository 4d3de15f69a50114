package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gallery/internal/apperror"
	"gallery/internal/models"
	"gallery/internal/repositories"
	"gallery/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MsgFileRequired  = "File is required, please upload an image"
	MsgOnlyImages    = "Only images are allowed"
	MsgImageNotFound = "Image not found."
	MsgNotImageOwner = "You are not authorized to make changes."

	// sniffLen is how much of an upload is inspected to detect its type.
	sniffLen = 3072
)

// ImageOptions configures an ImageService.
type ImageOptions struct {
	PageSize int
	MaxBytes int64
	// Publisher and Cache are optional.
	Publisher EventPublisher
	Cache     ListCache
	Logger    *zap.Logger
	Now       func() time.Time
}

// ImageService stores uploaded images and their metadata.
type ImageService struct {
	repo      repositories.ImageRepository
	store     storage.ObjectStore
	publisher EventPublisher
	cache     ListCache
	logger    *zap.Logger

	pageSize int
	maxBytes int64
	now      func() time.Time
}

// NewImageService creates a new ImageService.
func NewImageService(repo repositories.ImageRepository, store storage.ObjectStore, opts ImageOptions) *ImageService {
	s := &ImageService{
		repo:      repo,
		store:     store,
		publisher: opts.Publisher,
		cache:     opts.Cache,
		logger:    opts.Logger,
		pageSize:  opts.PageSize,
		maxBytes:  opts.MaxBytes,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.pageSize < 1 {
		s.pageSize = 2
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// UploadInput is a file received from a client. Size is -1 when unknown;
// it only short-circuits oversized uploads, the stored length comes from Body.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload stores the file in the object store and records its metadata.
func (s *ImageService) Upload(ctx context.Context, in *UploadInput, callerID string) (*models.Image, error) {
	if in == nil || in.Body == nil {
		return nil, apperror.NewBadRequestError(MsgFileRequired, nil)
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, s.tooLarge()
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, apperror.NewBadRequestError(MsgFileRequired, err)
	}
	if n == 0 {
		return nil, apperror.NewBadRequestError(MsgFileRequired, nil)
	}
	head = head[:n]

	mime := mimetype.Detect(head)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, apperror.NewBadRequestError(MsgOnlyImages, nil)
	}

	body, size, err := s.rewind(in.Body, head)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	key := fmt.Sprintf("images/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), mime.Extension())

	obj, err := s.store.Put(ctx, key, mime.String(), body, size)
	if err != nil {
		return nil, apperror.NewInternalError("failed to store image", err)
	}

	image := &models.Image{
		URL:        obj.URL,
		PublicID:   obj.Key,
		UploadedBy: callerID,
	}
	if err := s.repo.Create(ctx, image); err != nil {
		if delErr := s.store.Delete(ctx, obj.Key); delErr != nil {
			s.logger.Error("failed to remove orphaned object", zap.String("key", obj.Key), zap.Error(delErr))
		}
		return nil, apperror.NewInternalError("failed to save image", err)
	}

	s.logger.Info("image uploaded",
		zap.String("imageID", image.ID),
		zap.String("key", image.PublicID),
		zap.String("contentType", mime.String()),
		zap.String("userID", callerID))
	s.invalidate(ctx)
	s.publish(ctx, EventImageUploaded, image, callerID)
	return image, nil
}

// ListParams are the raw listing parameters supplied by a client.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// ImagePage is one page of the image listing.
type ImagePage struct {
	Images      []models.Image `json:"images"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalImages int64          `json:"totalImages"`
}

// List returns one page of images. Pages are 1-indexed; the default order
// is newest first.
func (s *ImageService) List(ctx context.Context, p ListParams) (*ImagePage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = s.pageSize
	}
	if p.SortBy == "" {
		p.SortBy = "createdAt"
	}
	if !repositories.IsImageSortField(p.SortBy) {
		return nil, apperror.NewBadRequestError(fmt.Sprintf("Cannot sort images by %q", p.SortBy), nil)
	}
	desc := !strings.EqualFold(p.SortOrder, "asc")

	cacheKey := fmt.Sprintf("p%d:l%d:%s:%t", p.Page, p.Limit, p.SortBy, desc)
	page, gen, ok := s.cached(ctx, cacheKey)
	if ok {
		return page, nil
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, apperror.NewInternalError("failed to count images", err)
	}
	images, err := s.repo.List(ctx, repositories.ImageListQuery{
		Offset:    (p.Page - 1) * p.Limit,
		Limit:     p.Limit,
		SortField: p.SortBy,
		Desc:      desc,
	})
	if err != nil {
		return nil, apperror.NewInternalError("failed to list images", err)
	}

	page = &ImagePage{
		Images:      images,
		CurrentPage: p.Page,
		TotalPages:  int((total + int64(p.Limit) - 1) / int64(p.Limit)),
		TotalImages: total,
	}
	s.remember(ctx, gen, cacheKey, page)
	return page, nil
}

// Delete removes an image owned by callerID. The binary is removed first;
// if the metadata delete then fails the record is left dangling and logged.
func (s *ImageService) Delete(ctx context.Context, id, callerID string) (*models.Image, error) {
	image, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.NewNotFoundError(MsgImageNotFound, nil)
	}
	if err != nil {
		return nil, apperror.NewInternalError("failed to load image", err)
	}
	if image.UploadedBy != callerID {
		return nil, apperror.NewForbiddenError(MsgNotImageOwner, nil)
	}

	if err := s.store.Delete(ctx, image.PublicID); err != nil {
		return nil, apperror.NewInternalError("failed to delete image from storage", err)
	}
	if err := s.repo.Delete(ctx, image.ID); err != nil {
		s.logger.Error("image record left dangling after its object was deleted",
			zap.String("imageID", image.ID),
			zap.String("key", image.PublicID),
			zap.Error(err))
		return nil, apperror.NewInternalError("failed to delete image", err)
	}

	s.logger.Info("image deleted", zap.String("imageID", image.ID), zap.String("userID", callerID))
	s.invalidate(ctx)
	s.publish(ctx, EventImageDeleted, image, callerID)
	return image, nil
}

// rewind returns the whole upload, head included, as a seekable body with
// its exact length. Object stores that sign or checksum the payload need to
// read it twice. Bodies that cannot seek are buffered up to maxBytes.
func (s *ImageService) rewind(body io.Reader, head []byte) (io.ReadSeeker, int64, error) {
	if rs, ok := body.(io.ReadSeeker); ok {
		size, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, apperror.NewInternalError("failed to measure upload", err)
		}
		if s.maxBytes > 0 && size > s.maxBytes {
			return nil, 0, s.tooLarge()
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, 0, apperror.NewInternalError("failed to rewind upload", err)
		}
		return rs, size, nil
	}

	r := io.MultiReader(bytes.NewReader(head), body)
	if s.maxBytes > 0 {
		r = io.LimitReader(r, s.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, apperror.NewBadRequestError(MsgFileRequired, err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, 0, s.tooLarge()
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

func (s *ImageService) tooLarge() error {
	return apperror.NewBadRequestError(fmt.Sprintf("Image must not exceed %d bytes", s.maxBytes), nil)
}

// cached looks up a listing page. The returned generation must be handed to
// remember; it is -1 when the cache is unusable.
func (s *ImageService) cached(ctx context.Context, key string) (*ImagePage, int64, bool) {
	if s.cache == nil {
		return nil, -1, false
	}
	raw, gen, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("image list cache read failed", zap.Error(err))
		return nil, -1, false
	}
	if !ok {
		return nil, gen, false
	}
	var page ImagePage
	if err := json.Unmarshal(raw, &page); err != nil {
		s.logger.Warn("discarding unreadable image list cache entry", zap.String("key", key), zap.Error(err))
		return nil, gen, false
	}
	return &page, gen, true
}

func (s *ImageService) remember(ctx context.Context, gen int64, key string, page *ImagePage) {
	if s.cache == nil || gen < 0 {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		s.logger.Warn("failed to encode image list page", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, gen, key, raw); err != nil {
		s.logger.Warn("image list cache write failed", zap.Error(err))
	}
}

func (s *ImageService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("image list cache invalidation failed", zap.Error(err))
	}
}

func (s *ImageService) publish(ctx context.Context, routingKey string, image *models.Image, callerID string) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(ImageEvent{
		Type:     routingKey,
		ImageID:  image.ID,
		PublicID: image.PublicID,
		URL:      image.URL,
		UserID:   callerID,
		At:       s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to encode image event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, body); err != nil {
		s.logger.Warn("failed to publish image event", zap.String("routingKey", routingKey), zap.Error(err))
	}
}
