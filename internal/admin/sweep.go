package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayush/spot-finder/backend/internal/observability"
	"github.com/ayush/spot-finder/backend/internal/store"
)

// DefaultGrace keeps freshly uploaded images that have not been attached to
// a spot or comment yet.
const DefaultGrace = 24 * time.Hour

// ImageIndex reports which images live documents still reference.
type ImageIndex interface {
	ReferencedImageIDs(ctx context.Context) (map[string]struct{}, error)
}

// ImageBucket lists and deletes stored images.
type ImageBucket interface {
	Objects(ctx context.Context) ([]store.StoredObject, error)
	Remove(ctx context.Context, key string) error
}

// SweepResult summarises one sweep.
type SweepResult struct {
	Scanned int      `json:"scanned"`
	Removed []string `json:"removed"`
	Failed  []string `json:"failed"`
	DryRun  bool     `json:"dryRun"`
}

// Sweeper deletes stored images no spot or comment references.
type Sweeper struct {
	index  ImageIndex
	bucket ImageBucket
	grace  time.Duration
	now    func() time.Time
}

func NewSweeper(index ImageIndex, bucket ImageBucket, grace time.Duration) *Sweeper {
	return &Sweeper{index: index, bucket: bucket, grace: grace, now: time.Now}
}

// Sweep removes unreferenced images older than the grace period. With
// dryRun set it only reports what it would remove.
func (s *Sweeper) Sweep(ctx context.Context, dryRun bool) (*SweepResult, error) {
	objects, err := s.bucket.Objects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	// Read references after listing so an image attached in between is
	// seen as referenced.
	refs, err := s.index.ReferencedImageIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list referenced images: %w", err)
	}

	res := &SweepResult{Scanned: len(objects), Removed: []string{}, Failed: []string{}, DryRun: dryRun}
	cutoff := s.now().Add(-s.grace)
	for _, obj := range objects {
		if _, ok := refs[obj.Key]; ok || obj.LastModified.After(cutoff) {
			continue
		}
		if dryRun {
			res.Removed = append(res.Removed, obj.Key)
			continue
		}
		err := s.bucket.Remove(ctx, obj.Key)
		observability.ImageCleanups.WithLabelValues(observability.Result(err)).Inc()
		if err != nil {
			log.Error().Err(err).Str("public_id", obj.Key).Msg("orphan image removal failed")
			res.Failed = append(res.Failed, obj.Key)
			continue
		}
		res.Removed = append(res.Removed, obj.Key)
	}

	log.Info().Int("scanned", res.Scanned).Int("removed", len(res.Removed)).
		Int("failed", len(res.Failed)).Bool("dry_run", dryRun).Msg("image sweep finished")
	return res, nil
}
