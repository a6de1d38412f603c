package reliability

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/events"
	"github.com/aristath/marketglobe/internal/modules/globe"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	uploadErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]types.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Object
	for k, v := range m.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(v)))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Key < *out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type frameFunc func() (*globe.Frame, error)

func (f frameFunc) Frame() (*globe.Frame, error) { return f() }

func staticFrame() (*globe.Frame, error) {
	return &globe.Frame{
		Width:  100,
		Height: 100,
		Sphere: "M0,0Z",
		Shapes: []globe.Shape{{Key: "JPN", Name: "Japan", Fill: "#00ff00", Path: "M1,1L2,2Z"}},
	}, nil
}

func TestSnapshotService_Upload(t *testing.T) {
	store := newMemoryStore()
	bus := events.NewBus(quietLog())
	var uploaded []*events.SnapshotUploadedData
	bus.Subscribe(events.SnapshotUploaded, func(e *events.Event) {
		uploaded = append(uploaded, e.Data.(*events.SnapshotUploadedData))
	})

	svc := NewSnapshotService(store, frameFunc(staticFrame), "snaps/", events.NewManager(bus, quietLog()), quietLog())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC) }

	key, err := svc.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snaps/globe-2024-03-01-123005.svg", key)
	assert.Equal(t, []string{"snaps/globe-2024-03-01-123005.svg", "snaps/latest.svg"}, store.keys())
	assert.Equal(t, "image/svg+xml", store.types[key])
	assert.Contains(t, string(store.objects[key]), `data-key="JPN"`)

	require.Len(t, uploaded, 1)
	assert.Equal(t, key, uploaded[0].Key)
	assert.Equal(t, len(store.objects[key]), uploaded[0].Bytes)
}

func TestSnapshotService_UploadErrors(t *testing.T) {
	notReady := frameFunc(func() (*globe.Frame, error) { return nil, domain.ErrGeometryNotReady })
	svc := NewSnapshotService(newMemoryStore(), notReady, "", nil, quietLog())
	_, err := svc.Upload(context.Background())
	assert.ErrorIs(t, err, domain.ErrGeometryNotReady)

	store := newMemoryStore()
	store.uploadErr = errors.New("access denied")
	svc = NewSnapshotService(store, frameFunc(staticFrame), "", nil, quietLog())
	_, err = svc.Upload(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestSnapshotService_ListAndRotate(t *testing.T) {
	store := newMemoryStore()
	svc := NewSnapshotService(store, frameFunc(staticFrame), "p/", nil, quietLog())
	svc.retention = 2

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return at }
		_, err := svc.Upload(context.Background())
		require.NoError(t, err)
	}
	store.objects["p/globe-garbage.svg"] = []byte("x")

	snaps, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 4)
	assert.Equal(t, "p/globe-2024-01-01-030000.svg", snaps[0].Key)
	assert.Greater(t, snaps[0].SizeBytes, int64(0))

	deleted, err := svc.Rotate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, []string{
		"p/globe-2024-01-01-020000.svg",
		"p/globe-2024-01-01-030000.svg",
		"p/globe-garbage.svg",
		"p/latest.svg",
	}, store.keys())

	deleted, err = svc.Rotate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSnapshotJob(t *testing.T) {
	store := newMemoryStore()
	job := NewSnapshotJob(NewSnapshotService(store, frameFunc(staticFrame), "", nil, quietLog()))

	assert.Equal(t, "snapshot_upload", job.Name())
	require.NoError(t, job.Run())
	assert.Len(t, store.keys(), 2)
}
