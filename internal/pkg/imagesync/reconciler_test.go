package imagesync_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/models"
	"github.com/Walid-EM/restaurantsitev0-sub001/app/repository"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/imagesync"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/storage"
)

// fakeBackend serves a fixed object set from memory and records fetches.
type fakeBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	fetches int
	listErr error
}

func newFakeBackend(objects map[string][]byte) *fakeBackend {
	return &fakeBackend{objects: objects}
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Store(_ context.Context, name string, data []byte, _ string) (*storage.Stored, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[name] = data
	return &storage.Stored{Locator: storage.NewProviderLocator(name), ExternalID: name, Size: int64(len(data))}, nil
}

func (f *fakeBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeBackend) List(_ context.Context) ([]storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var objects []storage.Object
	for key, data := range f.objects {
		objects = append(objects, storage.Object{Key: key, Size: int64(len(data))})
	}
	return objects, nil
}

func (f *fakeBackend) Fetch(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (f *fakeBackend) URLFor(key string) string { return "https://fake.example/" + key }

// fakeImageRepo implements repository.ImageRepository in memory, keyed by
// file name.
type fakeImageRepo struct {
	mu      sync.Mutex
	nextID  uint
	byName  map[string]*models.Image
	updates int
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{byName: map[string]*models.Image{}}
}

func (r *fakeImageRepo) Create(image *models.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[image.FileName]; ok {
		return repository.ErrDuplicate
	}
	r.nextID++
	image.ID = r.nextID
	r.byName[image.FileName] = image
	return nil
}

func (r *fakeImageRepo) GetByID(id uint) (*models.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.byName {
		if img.ID == id {
			return img, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeImageRepo) GetByFileName(fileName string) (*models.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.byName[fileName]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return img, nil
}

func (r *fakeImageRepo) UpdateLocator(id uint, filePath, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	for _, img := range r.byName {
		if img.ID == id {
			img.FilePath = filePath
			img.ExternalID = externalID
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeImageRepo) Delete(id uint) error { return nil }

func (r *fakeImageRepo) List(offset, limit int) ([]models.Image, error) { return nil, nil }

func (r *fakeImageRepo) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byName)), nil
}

func (r *fakeImageRepo) TotalSize() (int64, error) { return 0, nil }

func TestSyncAllDownloadsMissingObjects(t *testing.T) {
	dir := t.TempDir()
	backend := newFakeBackend(map[string][]byte{
		"images/a.jpg": []byte("aaa"),
		"images/b.png": []byte("bbbb"),
	})
	repo := newFakeImageRepo()

	r := imagesync.New(backend, repo, imagesync.Config{LocalDir: dir, Workers: 2})
	report, err := r.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Synced)
	assert.Empty(t, report.Failures)
	assert.False(t, report.RebuildTriggered)

	// Objects land under their base name
	for _, name := range []string{"a.jpg", "b.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	// Records are created pointing at the local copy
	img, err := repo.GetByFileName("a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "local:a.jpg", img.FilePath)
	assert.Equal(t, "images/a.jpg", img.ExternalID)
	assert.Equal(t, int64(3), img.FileSize)
}

func TestSyncAllIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	backend := newFakeBackend(map[string][]byte{"images/a.jpg": []byte("aaa")})
	r := imagesync.New(backend, newFakeImageRepo(), imagesync.Config{LocalDir: dir})

	first, err := r.SyncAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.Synced)

	second, err := r.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Total)
	assert.Equal(t, 0, second.Synced, "a present local file must not be downloaded again")
}

func TestSyncAllCompareSizeRedownloads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("stale"), 0644))

	backend := newFakeBackend(map[string][]byte{"images/a.jpg": []byte("fresh-bytes")})
	r := imagesync.New(backend, nil, imagesync.Config{LocalDir: dir, CompareSize: true})

	report, err := r.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)

	data, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh-bytes"), data)
}

func TestSyncAllCollectsPerItemFailures(t *testing.T) {
	dir := t.TempDir()
	backend := newFakeBackend(map[string][]byte{
		"images/good.jpg": []byte("ok"),
	})
	// ghostBackend lists one extra key the backend cannot fetch
	backendWithGhost := &ghostBackend{fakeBackend: backend}

	r := imagesync.New(backendWithGhost, nil, imagesync.Config{LocalDir: dir})
	report, err := r.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Synced, "one failure must not stop the run")
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "images/gone.jpg", report.Failures[0].Key)
	assert.NotEmpty(t, report.Failures[0].Error)
}

// ghostBackend lists one extra key that Fetch cannot resolve.
type ghostBackend struct {
	*fakeBackend
}

func (g *ghostBackend) List(ctx context.Context) ([]storage.Object, error) {
	objects, err := g.fakeBackend.List(ctx)
	if err != nil {
		return nil, err
	}
	return append(objects, storage.Object{Key: "images/gone.jpg", Size: 3}), nil
}

func TestSyncAllListFailure(t *testing.T) {
	backend := newFakeBackend(nil)
	backend.listErr = errors.New("provider down")

	r := imagesync.New(backend, nil, imagesync.Config{LocalDir: t.TempDir()})
	_, err := r.SyncAll(context.Background())
	assert.Error(t, err)
}

func TestSyncAllTriggersRebuildHook(t *testing.T) {
	var hookCalls int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		atomic.AddInt32(&hookCalls, 1)
	}))
	defer hook.Close()

	dir := t.TempDir()
	backend := newFakeBackend(map[string][]byte{"images/a.jpg": []byte("aaa")})
	r := imagesync.New(backend, nil, imagesync.Config{LocalDir: dir, HookURL: hook.URL})

	report, err := r.SyncAll(context.Background())
	require.NoError(t, err)
	assert.True(t, report.RebuildTriggered)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hookCalls))

	// A run that copied nothing must not redeploy
	report, err = r.SyncAll(context.Background())
	require.NoError(t, err)
	assert.False(t, report.RebuildTriggered)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hookCalls))
}

func TestSyncOne(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("downloaded bytes"))
	}))
	defer src.Close()

	dir := t.TempDir()
	repo := newFakeImageRepo()
	r := imagesync.New(newFakeBackend(nil), repo, imagesync.Config{LocalDir: dir})

	require.NoError(t, r.SyncOne(context.Background(), src.URL+"/foo.png", "foo.png"))

	data, err := os.ReadFile(filepath.Join(dir, "foo.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("downloaded bytes"), data)

	img, err := repo.GetByFileName("foo.png")
	require.NoError(t, err)
	assert.Equal(t, "local:foo.png", img.FilePath)
	assert.Equal(t, "image/png", img.ContentType)
}

func TestSyncOneSurfacesHTTPError(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer src.Close()

	r := imagesync.New(newFakeBackend(nil), nil, imagesync.Config{LocalDir: t.TempDir()})
	err := r.SyncOne(context.Background(), src.URL+"/missing.png", "missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestSyncUpdatesExistingRecordLocator(t *testing.T) {
	dir := t.TempDir()
	repo := newFakeImageRepo()
	require.NoError(t, repo.Create(&models.Image{
		FileName: "a.jpg",
		FilePath: "provider:images/a.jpg",
	}))

	backend := newFakeBackend(map[string][]byte{"images/a.jpg": []byte("aaa")})
	r := imagesync.New(backend, repo, imagesync.Config{LocalDir: dir})

	_, err := r.SyncAll(context.Background())
	require.NoError(t, err)

	img, err := repo.GetByFileName("a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "local:a.jpg", img.FilePath)
	assert.Equal(t, 1, repo.updates)
}
