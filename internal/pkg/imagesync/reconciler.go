package imagesync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/models"
	"github.com/Walid-EM/restaurantsitev0-sub001/app/repository"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/imageprocessor"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/storage"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/upload"
)

// DefaultWorkers bounds how many objects are downloaded concurrently during
// a bulk sync. Kept small to avoid rate-limit bursts against the provider.
const DefaultWorkers = 4

// Config tunes a Reconciler.
type Config struct {
	// Workers is the bulk-sync parallelism; DefaultWorkers when zero.
	Workers int
	// LocalDir is the directory remote objects are downloaded into.
	LocalDir string
	// HookURL, when set, is POSTed after a bulk sync that copied at least
	// one file, typically a redeploy webhook.
	HookURL string
	// CompareSize re-downloads a local file whose size differs from the
	// remote listing. Presence-by-name is the only check when false.
	CompareSize bool
}

// ItemResult is the outcome of syncing a single remote object.
type ItemResult struct {
	Key   string `json:"key"`
	Error string `json:"error,omitempty"`
}

// Report summarizes one bulk reconciliation run.
type Report struct {
	Total            int          `json:"total"`
	Synced           int          `json:"synced"`
	Failures         []ItemResult `json:"failures,omitempty"`
	RebuildTriggered bool         `json:"rebuild_triggered"`
	Duration         time.Duration `json:"-"`
}

// Reconciler compares the remote backend listing against the local image
// store and downloads what is missing. It is triggered by an admin action or
// a provider webhook, never on a schedule.
type Reconciler struct {
	backend    storage.Backend
	images     repository.ImageRepository
	cfg        Config
	httpClient *http.Client
}

// New creates a reconciler over the given backend and image repository.
func New(backend storage.Backend, images repository.ImageRepository, cfg Config) *Reconciler {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.LocalDir == "" {
		cfg.LocalDir = storage.DefaultUploadsDir
	}
	return &Reconciler{
		backend:    backend,
		images:     images,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SyncAll lists every remote object and downloads the ones without a local
// file. Failures on individual objects are collected into the report and do
// not stop the run.
func (r *Reconciler) SyncAll(ctx context.Context) (*Report, error) {
	start := time.Now()

	objects, err := r.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s backend: %w", r.backend.Name(), err)
	}

	report := &Report{Total: len(objects)}
	if len(objects) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, r.cfg.Workers)
	)

	for _, obj := range objects {
		obj := obj
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			synced, err := r.syncObject(ctx, obj)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Errorf("[Sync] Failed to sync %s: %v", obj.Key, err)
				report.Failures = append(report.Failures, ItemResult{Key: obj.Key, Error: err.Error()})
				return
			}
			if synced {
				report.Synced++
			}
		}()
	}
	wg.Wait()

	if report.Synced > 0 && r.cfg.HookURL != "" {
		if err := r.TriggerRebuild(ctx); err != nil {
			log.Errorf("[Sync] Rebuild hook failed: %v", err)
		} else {
			report.RebuildTriggered = true
		}
	}

	report.Duration = time.Since(start)
	log.Infof("[Sync] Completed: %d/%d synced, %d failed in %v",
		report.Synced, report.Total, len(report.Failures), report.Duration)
	return report, nil
}

// syncObject downloads one remote object unless its local copy is already
// present.
func (r *Reconciler) syncObject(ctx context.Context, obj storage.Object) (bool, error) {
	fileName := path.Base(obj.Key)
	localPath := filepath.Join(r.cfg.LocalDir, fileName)

	if info, err := os.Stat(localPath); err == nil {
		if !r.cfg.CompareSize || obj.Size == 0 || info.Size() == obj.Size {
			return false, nil
		}
		log.Infof("[Sync] Size mismatch for %s (local %d, remote %d), re-downloading",
			fileName, info.Size(), obj.Size)
	}

	data, err := r.backend.Fetch(ctx, obj.Key)
	if err != nil {
		return false, fmt.Errorf("fetch failed: %w", err)
	}

	if err := r.writeLocal(localPath, data); err != nil {
		return false, err
	}

	if err := r.recordLocalCopy(fileName, obj.Key, data); err != nil {
		// The file itself landed; a metadata failure should not undo that.
		log.Warnf("[Sync] Failed to record metadata for %s: %v", fileName, err)
	}

	log.Infof("[Sync] Downloaded %s -> %s (%d bytes)", obj.Key, localPath, len(data))
	return true, nil
}

// SyncOne downloads a single image by URL into the local store. Unlike the
// bulk path, the first error is surfaced directly to the caller.
func (r *Reconciler) SyncOne(ctx context.Context, url, fileName string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid image URL: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", url, err)
	}

	localPath := filepath.Join(r.cfg.LocalDir, fileName)
	if err := r.writeLocal(localPath, data); err != nil {
		return err
	}

	if err := r.recordLocalCopy(fileName, "", data); err != nil {
		return err
	}

	log.Infof("[Sync] Downloaded %s -> %s (%d bytes)", url, localPath, len(data))
	return nil
}

// TriggerRebuild POSTs the redeploy hook.
func (r *Reconciler) TriggerRebuild(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.HookURL, nil)
	if err != nil {
		return fmt.Errorf("invalid rebuild hook URL: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rebuild hook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("rebuild hook returned status %d", resp.StatusCode)
	}

	log.Infof("[Sync] Rebuild hook triggered (%d)", resp.StatusCode)
	return nil
}

func (r *Reconciler) writeLocal(localPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create local directory: %w", err)
	}
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	return nil
}

// recordLocalCopy points the image record for fileName at the freshly
// downloaded local file, creating the record when ingestion never saw the
// object (e.g. it was uploaded straight to the provider).
func (r *Reconciler) recordLocalCopy(fileName, externalID string, data []byte) error {
	if r.images == nil {
		return nil
	}

	locator := storage.NewLocalLocator(fileName)

	existing, err := r.images.GetByFileName(fileName)
	if err == nil {
		return r.images.UpdateLocator(existing.ID, locator.String(), externalID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	image := &models.Image{
		FileName:     fileName,
		OriginalName: fileName,
		ContentType:  upload.ContentTypeByExt(fileName),
		FilePath:     locator.String(),
		ExternalID:   externalID,
		FileSize:     int64(len(data)),
	}
	if width, height, err := imageprocessor.Dimensions(data); err == nil {
		image.Width = width
		image.Height = height
	}

	if err := r.images.Create(image); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	return nil
}
