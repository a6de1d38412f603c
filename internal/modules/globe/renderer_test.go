package globe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/marketglobe/internal/clock"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(store *Store, countries ...domain.Country) (*Renderer, *clock.Fake) {
	clk := clock.NewFake(time.Unix(0, 0))
	return NewRenderer(store, staticCountries(countries), DefaultOptions(), clk, quietLog()), clk
}

func TestRenderer_StateMachine(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("offline")}
	store := NewStore(fetcher, nil, quietLog())
	r, _ := newTestRenderer(store)

	assert.Equal(t, StateUninitialized, r.State())
	assert.False(t, r.BeginRotate(), "cannot rotate without geometry")

	require.Error(t, r.Load(context.Background()))
	assert.Equal(t, StateGeometryLoading, r.State())

	_, err := r.Frame()
	assert.ErrorIs(t, err, domain.ErrGeometryNotReady)

	fetcher.err = nil
	fetcher.results = readyResults(feature("AAA", "Alpha", square(0, 0, 5)))
	require.NoError(t, r.Load(context.Background()))
	assert.Equal(t, StateReady, r.State())

	assert.True(t, r.BeginRotate())
	assert.Equal(t, StateRotating, r.State())
	r.EndRotate()
	assert.Equal(t, StateReady, r.State())
}

func TestRenderer_ResizeCoalesces(t *testing.T) {
	r, clk := newTestRenderer(readyStore(feature("AAA", "Alpha", square(0, 0, 5))))

	var applied [][2]float64
	r.OnResize(func(w, h float64) { applied = append(applied, [2]float64{w, h}) })

	r.Resize(100, 100)
	clk.Advance(40 * time.Millisecond)
	r.Resize(200, 150)
	clk.Advance(40 * time.Millisecond)
	r.Resize(300, 200)
	r.Resize(0, 50)

	w, h := r.Viewport()
	assert.Equal(t, float64(DefaultWidth), w, "nothing applied inside the window")
	assert.Equal(t, float64(DefaultHeight), h)

	clk.Advance(100 * time.Millisecond)
	assert.Equal(t, [][2]float64{{300, 200}}, applied)
	assert.Equal(t, 1, r.recomputes)

	frame, err := r.Frame()
	require.NoError(t, err)
	scale, translate := geo.Viewport(300, 200)
	assert.Equal(t, scale, frame.Scale)
	assert.Equal(t, translate, frame.Translate)
}

func TestRenderer_StopCancelsPendingResize(t *testing.T) {
	r, clk := newTestRenderer(readyStore(feature("AAA", "Alpha", square(0, 0, 5))))

	called := false
	r.OnResize(func(w, h float64) { called = true })

	r.Resize(300, 200)
	require.Equal(t, 1, clk.Pending())

	r.Stop()
	assert.Equal(t, 0, clk.Pending())

	r.Resize(400, 300)
	assert.Equal(t, 0, clk.Pending(), "resizes after Stop are ignored")

	clk.Advance(time.Second)
	assert.False(t, called)
	w, h := r.Viewport()
	assert.Equal(t, float64(DefaultWidth), w)
	assert.Equal(t, float64(DefaultHeight), h)
}

func TestRenderer_ResizeReturnsToReady(t *testing.T) {
	r, clk := newTestRenderer(readyStore(feature("AAA", "Alpha", square(0, 0, 5))))

	require.True(t, r.BeginRotate())
	r.Resize(500, 500)
	assert.Equal(t, StateRotating, r.State())

	clk.Advance(time.Second)
	assert.Equal(t, StateReady, r.State())
}

func TestRenderer_ResizeWithoutGeometry(t *testing.T) {
	store := NewStore(&fakeFetcher{err: errors.New("offline")}, nil, quietLog())
	r, clk := newTestRenderer(store)

	r.Resize(500, 400)
	clk.Advance(time.Second)

	assert.Equal(t, StateUninitialized, r.State())
	w, h := r.Viewport()
	assert.Equal(t, 500.0, w)
	assert.Equal(t, 400.0, h)
}

func TestRenderer_FrameUsesRotation(t *testing.T) {
	east := feature("AAA", "Alpha", square(100, 0, 5))
	r, _ := newTestRenderer(readyStore(east),
		domain.Country{ID: "a", Name: "Alpha", ISOCode: "AAA", Performance: domain.Float(3)})

	frame, err := r.Frame()
	require.NoError(t, err)
	assert.Empty(t, frame.Labels, "behind the horizon")

	r.SetRotation(-100, 0)
	frame, err = r.Frame()
	require.NoError(t, err)
	require.Len(t, frame.Labels, 1)
	assert.Equal(t, [2]float64{-100, 0}, frame.Rotation)
}

func TestRenderer_FeatureAt(t *testing.T) {
	center := feature("AAA", "Alpha", square(-2.5, -2.5, 5))
	r, _ := newTestRenderer(readyStore(center, feature("BBB", "Bravo", square(40, 0, 5))))

	w, h := r.Viewport()
	f, ok := r.FeatureAt(geo.Point{X: w / 2, Y: h / 2})
	require.True(t, ok)
	assert.Equal(t, "AAA", f.Key())

	_, ok = r.FeatureAt(geo.Point{X: 1, Y: 1})
	assert.False(t, ok, "outside the globe")

	f, ok = r.FeatureByKey("BBB")
	require.True(t, ok)
	assert.Equal(t, "Bravo", f.Name())
	assert.Len(t, r.Features(), 2)
}
