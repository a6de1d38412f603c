package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aristath/marketglobe/internal/clients/geometry"
	"github.com/aristath/marketglobe/internal/clock"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/aristath/marketglobe/internal/modules/countries"
	"github.com/aristath/marketglobe/internal/modules/globe"
	"github.com/aristath/marketglobe/internal/modules/interaction"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
)

func quietLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

// stubDataset hands out snapshots of whatever list it holds at the time.
type stubDataset struct {
	mu   sync.Mutex
	list []domain.Country
}

func (d *stubDataset) Snapshot() *countries.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return countries.NewSnapshot(d.list, nil)
}

func (d *stubDataset) replace(list []domain.Country) {
	d.mu.Lock()
	d.list = list
	d.mu.Unlock()
}

type fetcherFunc func(ctx context.Context) (*geometry.Result, error)

func (f fetcherFunc) Fetch(ctx context.Context) (*geometry.Result, error) { return f(ctx) }

func japanStore(t *testing.T) *globe.Store {
	t.Helper()
	ring := geo.Ring{{135, 33}, {140, 33}, {140, 38}, {135, 38}, {135, 33}}
	features := []geo.Feature{{
		Type:       "Feature",
		Properties: map[string]interface{}{"ISO_A3": "JPN", "NAME": "Japan", "LABEL_X": 138.0, "LABEL_Y": 36.0},
		Geometry:   geo.Geometry{Type: "Polygon", Polygons: []geo.Polygon{{ring}}},
	}}
	store := globe.NewStore(fetcherFunc(func(ctx context.Context) (*geometry.Result, error) {
		return &geometry.Result{Collection: &geo.FeatureCollection{Features: features}}, nil
	}), nil, quietLog())
	require.NoError(t, store.Load(context.Background()))
	return store
}

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type sessionClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialSession(t *testing.T, clk clock.Clock, query string) (*sessionClient, *SessionHandler) {
	t.Helper()
	client, handler, _ := dialSessionWith(t, clk, query)
	return client, handler
}

func dialSessionWith(t *testing.T, clk clock.Clock, query string) (*sessionClient, *SessionHandler, *stubDataset) {
	t.Helper()
	dataset := &stubDataset{list: []domain.Country{
		{ID: "2", Name: "Japan", ISOCode: "JPN", Performance: domain.Float(3.4)},
		{ID: "4", Name: "Germany", ISOCode: "DEU", Performance: domain.Float(-1.2)},
	}}
	client, handler := dialSessionOn(t, clk, dataset, query)
	return client, handler, dataset
}

func dialSessionOn(t *testing.T, clk clock.Clock, dataset CountryDataset, query string) (*sessionClient, *SessionHandler) {
	t.Helper()
	handler := NewSessionHandler(dataset, japanStore(t), globe.DefaultOptions(), interaction.DefaultOptions(), clk, nil, quietLog())
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	return &sessionClient{t: t, conn: conn}, handler
}

func (c *sessionClient) send(cmd Command) {
	c.t.Helper()
	data, err := json.Marshal(cmd)
	require.NoError(c.t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(c.t, c.conn.Write(ctx, websocket.MessageText, data))
}

// waitFor reads until a message of the given type arrives.
func (c *sessionClient) waitFor(msgType string) wireMessage {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		_, data, err := c.conn.Read(ctx)
		require.NoError(c.t, err, "waiting for %s", msgType)
		var msg wireMessage
		require.NoError(c.t, json.Unmarshal(data, &msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestSession_ClickOpensOverlayAfterDelay(t *testing.T) {
	clk := clock.NewFake(time.Unix(1700000000, 0))
	client, handler := dialSession(t, clk, "")

	client.waitFor(interaction.MsgCamera)
	assert.Equal(t, 1, handler.Active())

	client.send(Command{Type: CmdClick, Key: "JPN"})
	msg := client.waitFor(interaction.MsgAnimationStarted)

	var anim interaction.AnimationStarted
	require.NoError(t, json.Unmarshal(msg.Data, &anim))
	assert.Equal(t, "2", anim.CountryID)
	assert.Equal(t, 36.0, anim.To.Lat)

	clk.Advance(1200 * time.Millisecond)
	msg = client.waitFor(interaction.MsgOverlay)
	var view struct {
		Open      bool   `json:"open"`
		CountryID string `json:"countryId"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	assert.True(t, view.Open)
	assert.Equal(t, "2", view.CountryID)
}

func TestSession_KeepsDatasetFromConnect(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	client, _, dataset := dialSessionWith(t, clk, "")
	client.waitFor(interaction.MsgCamera)

	// A refresh after connect replaces the whole dataset.
	dataset.replace([]domain.Country{
		{ID: "9", Name: "Japan", ISOCode: "JPN", Performance: domain.Float(-8)},
	})

	client.send(Command{Type: CmdClick, Key: "JPN"})
	msg := client.waitFor(interaction.MsgAnimationStarted)
	var anim interaction.AnimationStarted
	require.NoError(t, json.Unmarshal(msg.Data, &anim))
	assert.Equal(t, "2", anim.CountryID)

	client.send(Command{Type: CmdSuggest, Query: "ge"})
	msg = client.waitFor(interaction.MsgSuggestions)
	var got interaction.Suggestions
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	require.Len(t, got.Countries, 1)
	assert.Equal(t, "Germany", got.Countries[0].Name)

	// A new connection sees the refreshed dataset.
	second, _ := dialSessionOn(t, clk, dataset, "")
	second.waitFor(interaction.MsgCamera)
	second.send(Command{Type: CmdClick, Key: "JPN"})
	msg = second.waitFor(interaction.MsgAnimationStarted)
	require.NoError(t, json.Unmarshal(msg.Data, &anim))
	assert.Equal(t, "9", anim.CountryID)
}

func TestSession_SearchErrorsAndSuggestions(t *testing.T) {
	client, _ := dialSession(t, clock.NewFake(time.Unix(0, 0)), "")

	client.send(Command{Type: CmdSearch, Query: "Narnia"})
	msg := client.waitFor(interaction.MsgError)
	assert.Contains(t, string(msg.Data), "Narnia")

	client.send(Command{Type: CmdSuggest, Query: "ge"})
	msg = client.waitFor(interaction.MsgSuggestions)
	var got interaction.Suggestions
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	require.Len(t, got.Countries, 1)
	assert.Equal(t, "Germany", got.Countries[0].Name)

	client.send(Command{Type: "teleport"})
	msg = client.waitFor(interaction.MsgError)
	assert.Contains(t, string(msg.Data), "unknown command")
}

func TestSession_OrthographicPushesFrames(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	client, _ := dialSession(t, clk, "?mode=orthographic")

	client.waitFor(interaction.MsgFrame)

	client.send(Command{Type: CmdResize, Width: 300, Height: 200})
	client.send(Command{Type: CmdZoomIn})
	client.waitFor(interaction.MsgCamera)
	clk.Advance(100 * time.Millisecond)

	msg := client.waitFor(interaction.MsgFrame)
	var frame globe.Frame
	require.NoError(t, json.Unmarshal(msg.Data, &frame))
	assert.Equal(t, 300.0, frame.Width)
	assert.Equal(t, 200.0, frame.Height)
}

func TestSession_MsgpackEncoding(t *testing.T) {
	client, _ := dialSession(t, clock.NewFake(time.Unix(0, 0)), "?encoding=msgpack")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	typ, data, err := client.conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageBinary, typ)

	var msg struct {
		Type string             `msgpack:"type"`
		Data interaction.Camera `msgpack:"data"`
	}
	require.NoError(t, msgpack.Unmarshal(data, &msg))
	assert.Equal(t, interaction.MsgCamera, msg.Type)
	assert.Equal(t, interaction.DefaultAltitude, msg.Data.Altitude)
}

func TestSession_RejectsUnknownMode(t *testing.T) {
	handler := NewSessionHandler(&stubDataset{}, japanStore(t), globe.DefaultOptions(), interaction.DefaultOptions(), clock.Real{}, nil, quietLog())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ws?mode=flat", nil))
	assert.Equal(t, 400, rec.Code)
}
