package statistics

import (
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/repository"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/cache"
)

const (
	cacheKeyImageCount = "stats:image_count"
	cacheKeyTotalSize  = "stats:total_size"
	cacheTTL           = 5 * time.Minute
)

// Stats is the admin dashboard summary of the image store.
type Stats struct {
	ImageCount int64 `json:"image_count"`
	TotalBytes int64 `json:"total_bytes"`
}

// UpdateStatisticsCache recomputes the image counters and stores them in the
// cache. Called in the background after uploads and deletes; failures only
// cost cache freshness.
func UpdateStatisticsCache() {
	repo := repository.GetGlobalFactory().GetImageRepository()

	count, err := repo.Count()
	if err != nil {
		log.Errorf("[Statistics] Failed to count images: %v", err)
		return
	}
	totalSize, err := repo.TotalSize()
	if err != nil {
		log.Errorf("[Statistics] Failed to sum image sizes: %v", err)
		return
	}

	if err := cache.Set(cacheKeyImageCount, count, cacheTTL); err != nil {
		log.Warnf("[Statistics] Failed to cache image count: %v", err)
	}
	if err := cache.Set(cacheKeyTotalSize, totalSize, cacheTTL); err != nil {
		log.Warnf("[Statistics] Failed to cache total size: %v", err)
	}
}

// GetStatistics returns the cached counters, falling back to the database on
// a cache miss.
func GetStatistics() (*Stats, error) {
	stats := &Stats{}

	count, err1 := cache.GetInt(cacheKeyImageCount)
	size, err2 := cache.GetInt(cacheKeyTotalSize)
	if err1 == nil && err2 == nil {
		stats.ImageCount = int64(count)
		stats.TotalBytes = int64(size)
		return stats, nil
	}

	repo := repository.GetGlobalFactory().GetImageRepository()
	if stats.ImageCount, err1 = repo.Count(); err1 != nil {
		return nil, err1
	}
	if stats.TotalBytes, err2 = repo.TotalSize(); err2 != nil {
		return nil, err2
	}
	return stats, nil
}
