package reliability

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aristath/marketglobe/internal/events"
	"github.com/aristath/marketglobe/internal/modules/globe"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

const (
	snapshotTimeFormat = "2006-01-02-150405"
	snapshotPrefix     = "globe-"
	snapshotSuffix     = ".svg"
	latestSnapshotName = "latest.svg"

	// DefaultSnapshotRetention is the number of timestamped snapshots kept.
	DefaultSnapshotRetention = 48
)

// ObjectStore is the bucket the snapshots are written to.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	List(ctx context.Context, prefix string) ([]types.Object, error)
	Delete(ctx context.Context, key string) error
}

// FrameSource renders the globe.
type FrameSource interface {
	Frame() (*globe.Frame, error)
}

// SnapshotInfo is one stored snapshot.
type SnapshotInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

// SnapshotService renders the globe as SVG and publishes it to object
// storage, keeping a bounded history.
type SnapshotService struct {
	store     ObjectStore
	frames    FrameSource
	prefix    string
	retention int
	now       func() time.Time
	events    *events.Manager
	log       zerolog.Logger
}

// NewSnapshotService creates a snapshot service writing under prefix.
func NewSnapshotService(store ObjectStore, frames FrameSource, prefix string, eventManager *events.Manager, log zerolog.Logger) *SnapshotService {
	return &SnapshotService{
		store:     store,
		frames:    frames,
		prefix:    prefix,
		retention: DefaultSnapshotRetention,
		now:       time.Now,
		events:    eventManager,
		log:       log.With().Str("service", "snapshot").Logger(),
	}
}

// Upload renders the current globe and stores it twice: under a
// timestamped key and as latest.svg.
func (s *SnapshotService) Upload(ctx context.Context) (string, error) {
	frame, err := s.frames.Frame()
	if err != nil {
		return "", fmt.Errorf("failed to render snapshot: %w", err)
	}
	svg := frame.SVG()

	key := s.prefix + snapshotPrefix + s.now().UTC().Format(snapshotTimeFormat) + snapshotSuffix
	for _, k := range []string{key, s.prefix + latestSnapshotName} {
		if err := s.store.Upload(ctx, k, bytes.NewReader(svg), "image/svg+xml"); err != nil {
			return "", err
		}
	}

	s.log.Info().Str("key", key).Int("bytes", len(svg)).Msg("Globe snapshot uploaded")
	s.events.Emit("reliability", &events.SnapshotUploadedData{Key: key, Bytes: len(svg)})
	return key, nil
}

// List returns the timestamped snapshots, newest first.
func (s *SnapshotService) List(ctx context.Context) ([]SnapshotInfo, error) {
	objects, err := s.store.List(ctx, s.prefix+snapshotPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	snapshots := make([]SnapshotInfo, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}
		name := strings.TrimPrefix(*obj.Key, s.prefix)
		if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
		ts, err := time.Parse(snapshotTimeFormat, stamp)
		if err != nil {
			s.log.Warn().Str("key", *obj.Key).Msg("Failed to parse timestamp from snapshot key")
			continue
		}

		var size int64
		if obj.Size != nil {
			size = *obj.Size
		}
		snapshots = append(snapshots, SnapshotInfo{Key: *obj.Key, Timestamp: ts, SizeBytes: size})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// Rotate deletes all but the newest retention snapshots.
func (s *SnapshotService) Rotate(ctx context.Context) (int, error) {
	snapshots, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(snapshots) <= s.retention {
		return 0, nil
	}

	deleted := 0
	for _, snap := range snapshots[s.retention:] {
		if err := s.store.Delete(ctx, snap.Key); err != nil {
			s.log.Error().Err(err).Str("key", snap.Key).Msg("Failed to delete old snapshot")
			continue
		}
		deleted++
	}

	s.log.Info().Int("deleted", deleted).Msg("Snapshot rotation completed")
	return deleted, nil
}

// SnapshotJob uploads a snapshot and rotates old ones.
type SnapshotJob struct {
	service *SnapshotService
	timeout time.Duration
}

// NewSnapshotJob creates the snapshot job.
func NewSnapshotJob(service *SnapshotService) *SnapshotJob {
	return &SnapshotJob{service: service, timeout: 2 * time.Minute}
}

// Run uploads and rotates.
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.service.Upload(ctx); err != nil {
		return err
	}
	_, err := j.service.Rotate(ctx)
	return err
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "snapshot_upload"
}
