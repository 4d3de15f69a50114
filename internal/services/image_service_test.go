package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gallery/internal/apperror"
	"gallery/internal/models"
	"gallery/internal/repositories"
	"gallery/internal/services"
	"gallery/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough of a PNG file for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type recordingPublisher struct {
	mu     sync.Mutex
	events []services.ImageEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	var ev services.ImageEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type memoryListCache struct {
	entries       map[string][]byte
	gen           int64
	invalidations int
}

func newMemoryListCache() *memoryListCache {
	return &memoryListCache{entries: make(map[string][]byte)}
}

func (c *memoryListCache) Get(_ context.Context, key string) ([]byte, int64, bool, error) {
	v, ok := c.entries[key]
	return v, c.gen, ok, nil
}

func (c *memoryListCache) Set(_ context.Context, gen int64, key string, value []byte) error {
	if gen == c.gen {
		c.entries[key] = value
	}
	return nil
}

func (c *memoryListCache) Invalidate(context.Context) error {
	c.entries = make(map[string][]byte)
	c.gen++
	c.invalidations++
	return nil
}

type failingDeleteRepo struct {
	*repositories.MockImageRepository
}

func (failingDeleteRepo) Delete(context.Context, string) error {
	return errors.New("connection reset")
}

// racingRepo runs afterCount once, right after the first Count, to model a
// write that lands while a listing is being built.
type racingRepo struct {
	*repositories.MockImageRepository
	afterCount func()
}

func (r *racingRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.MockImageRepository.Count(ctx)
	if f := r.afterCount; f != nil {
		r.afterCount = nil
		f()
	}
	return n, err
}

func pngUpload() *services.UploadInput {
	return &services.UploadInput{
		Filename:    "cat.png",
		ContentType: "image/png",
		Size:        int64(len(pngHeader)),
		Body:        bytes.NewReader(pngHeader),
	}
}

func newImageService(repo repositories.ImageRepository, store storage.ObjectStore, opts services.ImageOptions) *services.ImageService {
	if opts.PageSize == 0 {
		opts.PageSize = 2
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 1 << 20
	}
	return services.NewImageService(repo, store, opts)
}

func TestImageService_Upload(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockImageRepository()
	store := storage.NewMemoryStore("http://cdn.test")
	publisher := &recordingPublisher{}
	now := time.Date(2024, 5, 9, 10, 0, 0, 0, time.UTC)
	svc := newImageService(repo, store, services.ImageOptions{
		Publisher: publisher,
		Now:       func() time.Time { return now },
	})

	image, err := svc.Upload(ctx, pngUpload(), "admin-1")
	require.NoError(t, err)
	assert.NotEmpty(t, image.ID)
	assert.Equal(t, "admin-1", image.UploadedBy)
	assert.True(t, strings.HasPrefix(image.PublicID, "images/2024/05/"), image.PublicID)
	assert.True(t, strings.HasSuffix(image.PublicID, ".png"), image.PublicID)
	assert.Equal(t, "http://cdn.test/"+image.PublicID, image.URL)

	data, contentType, ok := store.Get(image.PublicID)
	require.True(t, ok)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", contentType)

	stored, err := repo.GetByID(ctx, image.ID)
	require.NoError(t, err)
	assert.Equal(t, image.PublicID, stored.PublicID)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, services.EventImageUploaded, publisher.events[0].Type)
	assert.Equal(t, image.ID, publisher.events[0].ImageID)
}

func TestImageService_UploadWithoutFile(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockImageRepository()
	store := storage.NewMemoryStore("http://cdn.test")
	svc := newImageService(repo, store, services.ImageOptions{})

	_, err := svc.Upload(ctx, nil, "admin-1")
	assert.True(t, apperror.IsBadRequest(err))
	assert.Equal(t, services.MsgFileRequired, err.Error())

	_, err = svc.Upload(ctx, &services.UploadInput{Body: bytes.NewReader(nil)}, "admin-1")
	assert.True(t, apperror.IsBadRequest(err))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, store.Len())
}

func TestImageService_UploadRejectsNonImages(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockImageRepository()
	store := storage.NewMemoryStore("http://cdn.test")
	svc := newImageService(repo, store, services.ImageOptions{MaxBytes: 64})

	_, err := svc.Upload(ctx, &services.UploadInput{
		Filename: "notes.png",
		Size:     11,
		Body:     strings.NewReader("hello world"),
	}, "admin-1")
	assert.True(t, apperror.IsBadRequest(err))
	assert.Equal(t, services.MsgOnlyImages, err.Error())

	_, err = svc.Upload(ctx, &services.UploadInput{
		Filename: "big.png",
		Size:     65,
		Body:     bytes.NewReader(pngHeader),
	}, "admin-1")
	assert.True(t, apperror.IsBadRequest(err))
	assert.Zero(t, store.Len())
}

func TestImageService_UploadUnknownSize(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockImageRepository()
	store := storage.NewMemoryStore("http://cdn.test")
	svc := newImageService(repo, store, services.ImageOptions{MaxBytes: 64})

	padded := append(append([]byte(nil), pngHeader...), bytes.Repeat([]byte{0}, 16)...)
	image, err := svc.Upload(ctx, &services.UploadInput{
		Filename: "cat.png",
		Size:     -1,
		Body:     io.MultiReader(bytes.NewReader(padded[:8]), bytes.NewReader(padded[8:])),
	}, "admin-1")
	require.NoError(t, err)
	data, _, ok := store.Get(image.PublicID)
	require.True(t, ok)
	assert.Equal(t, padded, data)
}

func TestImageService_UploadRejectsOversizedUnknownSize(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockImageRepository()
	store := storage.NewMemoryStore("http://cdn.test")
	svc := newImageService(repo, store, services.ImageOptions{MaxBytes: 64})

	oversized := append(append([]byte(nil), pngHeader...), bytes.Repeat([]byte{0}, 64)...)
	bodies := map[string]io.Reader{
		"stream":   io.MultiReader(bytes.NewReader(oversized)),
		"seekable": bytes.NewReader(oversized),
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Upload(ctx, &services.UploadInput{Filename: "big.png", Size: -1, Body: body}, "admin-1")
			assert.True(t, apperror.IsBadRequest(err))
			assert.Equal(t, "Image must not exceed 64 bytes", err.Error())
		})
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, store.Len())
}

func TestImageService_ListPagination(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockImageRepository()
	store := storage.NewMemoryStore("http://cdn.test")
	svc := newImageService(repo, store, services.ImageOptions{})

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Image{
			URL:        "http://cdn.test/" + string(rune('a'+i)),
			PublicID:   string(rune('a' + i)),
			UploadedBy: "admin-1",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := svc.List(ctx, services.ListParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Images, 2)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.EqualValues(t, 5, page.TotalImages)
	// Newest first by default.
	assert.Equal(t, "e", page.Images[0].PublicID)

	page, err = svc.List(ctx, services.ListParams{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Images, 1)
	assert.Equal(t, "a", page.Images[0].PublicID)

	page, err = svc.List(ctx, services.ListParams{Page: 1, Limit: 2, SortBy: "publicId", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, "a", page.Images[0].PublicID)
	assert.Equal(t, "b", page.Images[1].PublicID)

	// Defaults apply to missing or out of range values.
	page, err = svc.List(ctx, services.ListParams{Page: -4})
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Images, 2)

	_, err = svc.List(ctx, services.ListParams{SortBy: "password"})
	assert.True(t, apperror.IsBadRequest(err))
}

func TestImageService_ListUsesCache(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockImageRepository()
	store := storage.NewMemoryStore("http://cdn.test")
	cache := newMemoryListCache()
	svc := newImageService(repo, store, services.ImageOptions{Cache: cache})

	first, err := svc.List(ctx, services.ListParams{})
	require.NoError(t, err)
	assert.Zero(t, first.TotalImages)
	assert.Len(t, cache.entries, 1)

	// A write behind the service's back is hidden by the cache.
	require.NoError(t, repo.Create(ctx, &models.Image{PublicID: "x", UploadedBy: "admin-1"}))
	cachedPage, err := svc.List(ctx, services.ListParams{})
	require.NoError(t, err)
	assert.Zero(t, cachedPage.TotalImages)

	// Uploads through the service invalidate it.
	_, err = svc.Upload(ctx, pngUpload(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidations)

	fresh, err := svc.List(ctx, services.ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, fresh.TotalImages)
}

func TestImageService_ListDoesNotCacheStalePages(t *testing.T) {
	ctx := context.Background()
	inner := repositories.NewMockImageRepository()
	cache := newMemoryListCache()
	repo := &racingRepo{MockImageRepository: inner}
	svc := newImageService(repo, storage.NewMemoryStore("http://cdn.test"), services.ImageOptions{Cache: cache})

	repo.afterCount = func() {
		require.NoError(t, inner.Create(ctx, &models.Image{PublicID: "x", UploadedBy: "admin-1"}))
		require.NoError(t, cache.Invalidate(ctx))
	}
	racing, err := svc.List(ctx, services.ListParams{})
	require.NoError(t, err)
	assert.Zero(t, racing.TotalImages)
	assert.Empty(t, cache.entries)

	fresh, err := svc.List(ctx, services.ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, fresh.TotalImages)
}

func TestImageService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockImageRepository()
	store := storage.NewMemoryStore("http://cdn.test")
	publisher := &recordingPublisher{err: errors.New("broker down")}
	svc := newImageService(repo, store, services.ImageOptions{Publisher: publisher})

	image, err := svc.Upload(ctx, pngUpload(), "owner")
	require.NoError(t, err)

	// Another admin cannot delete it and nothing is touched.
	_, err = svc.Delete(ctx, image.ID, "intruder")
	assert.True(t, apperror.IsForbidden(err))
	assert.Equal(t, services.MsgNotImageOwner, err.Error())
	_, err = repo.GetByID(ctx, image.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	// The owner can, even when events cannot be published.
	deleted, err := svc.Delete(ctx, image.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, image.ID, deleted.ID)
	_, err = repo.GetByID(ctx, image.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Zero(t, store.Len())
	require.Len(t, publisher.events, 2)
	assert.Equal(t, services.EventImageDeleted, publisher.events[1].Type)

	_, err = svc.Delete(ctx, image.ID, "owner")
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, services.MsgImageNotFound, err.Error())
}

func TestImageService_DeleteLeavesDanglingRecord(t *testing.T) {
	ctx := context.Background()
	inner := repositories.NewMockImageRepository()
	store := storage.NewMemoryStore("http://cdn.test")
	svc := newImageService(failingDeleteRepo{inner}, store, services.ImageOptions{})

	image, err := svc.Upload(ctx, pngUpload(), "owner")
	require.NoError(t, err)

	_, err = svc.Delete(ctx, image.ID, "owner")
	assert.Equal(t, apperror.InternalError, apperror.TypeOf(err))
	assert.Zero(t, store.Len())
	_, err = inner.GetByID(ctx, image.ID)
	assert.NoError(t, err)
}
