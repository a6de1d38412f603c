package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aristath/marketglobe/internal/clock"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/events"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/aristath/marketglobe/internal/modules/countries"
	"github.com/aristath/marketglobe/internal/modules/globe"
	"github.com/aristath/marketglobe/internal/modules/interaction"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
)

// Client command types.
const (
	CmdClick             = "click"
	CmdSearch            = "search"
	CmdSuggest           = "suggest"
	CmdClose             = "close"
	CmdDragStart         = "drag_start"
	CmdDrag              = "drag"
	CmdDragEnd           = "drag_end"
	CmdZoomIn            = "zoom_in"
	CmdZoomOut           = "zoom_out"
	CmdReset             = "reset"
	CmdResize            = "resize"
	CmdAnimationComplete = "animation_complete"
)

const (
	sessionBuffer = 64
	writeTimeout  = 5 * time.Second
	maxCommand    = 4096
)

// Command is one client instruction on the session stream.
type Command struct {
	Type   string   `json:"type" msgpack:"type"`
	Key    string   `json:"key,omitempty" msgpack:"key,omitempty"`
	X      *float64 `json:"x,omitempty" msgpack:"x,omitempty"`
	Y      *float64 `json:"y,omitempty" msgpack:"y,omitempty"`
	Query  string   `json:"query,omitempty" msgpack:"query,omitempty"`
	DX     float64  `json:"dx,omitempty" msgpack:"dx,omitempty"`
	DY     float64  `json:"dy,omitempty" msgpack:"dy,omitempty"`
	Width  float64  `json:"width,omitempty" msgpack:"width,omitempty"`
	Height float64  `json:"height,omitempty" msgpack:"height,omitempty"`
	ID     string   `json:"id,omitempty" msgpack:"id,omitempty"`
}

// CountryDataset hands each new session a pinned copy of the dataset.
type CountryDataset interface {
	Snapshot() *countries.Snapshot
}

// SessionHandler serves the interactive globe over WebSocket. Every
// connection gets its own renderer view, interaction controller and
// dataset snapshot taken at connect.
type SessionHandler struct {
	countries   CountryDataset
	store       *globe.Store
	globeOpts   globe.Options
	controlOpts interaction.Options
	clock       clock.Clock
	events      *events.Manager
	log         zerolog.Logger

	mu     sync.Mutex
	active map[string]*session
}

// NewSessionHandler creates the session endpoint. controlOpts.Mode is the
// default; clients may pick a mode with ?mode=camera|orthographic.
func NewSessionHandler(
	dataset CountryDataset,
	store *globe.Store,
	globeOpts globe.Options,
	controlOpts interaction.Options,
	clk clock.Clock,
	eventManager *events.Manager,
	log zerolog.Logger,
) *SessionHandler {
	return &SessionHandler{
		countries:   dataset,
		store:       store,
		globeOpts:   globeOpts,
		controlOpts: controlOpts,
		clock:       clk,
		events:      eventManager,
		log:         log.With().Str("handler", "sessions").Logger(),
		active:      make(map[string]*session),
	}
}

// Active returns the number of connected sessions.
func (h *SessionHandler) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.active)
}

// session is one connected client.
type session struct {
	conn    *websocket.Conn
	binary  bool
	frames  bool
	ctrl    *interaction.Controller
	render  *globe.Renderer
	log     zerolog.Logger
	mu      sync.Mutex
	out     chan interaction.Message
	closed  bool
	dropped int
}

// send queues a message without blocking. Messages are dropped when the
// client cannot keep up.
func (s *session) send(msg interaction.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- msg:
	default:
		s.dropped++
		s.log.Warn().Str("type", msg.Type).Int("dropped", s.dropped).Msg("Session buffer full, dropping message")
	}
}

func (s *session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
}

func (s *session) encode(msg interaction.Message) (websocket.MessageType, []byte, error) {
	if s.binary {
		data, err := msgpack.Marshal(msg)
		return websocket.MessageBinary, data, err
	}
	data, err := json.Marshal(msg)
	return websocket.MessageText, data, err
}

func (s *session) writeLoop(ctx context.Context) {
	for msg := range s.out {
		typ, data, err := s.encode(msg)
		if err != nil {
			s.log.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode session message")
			continue
		}
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err = s.conn.Write(writeCtx, typ, data)
		cancel()
		if err != nil {
			s.log.Debug().Err(err).Msg("Session write failed")
			return
		}
	}
}

// ServeHTTP upgrades the connection and runs the session until the client
// disconnects.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := h.controlOpts
	switch r.URL.Query().Get("mode") {
	case "":
	case string(interaction.ModeCamera):
		opts.Mode = interaction.ModeCamera
	case string(interaction.ModeOrthographic):
		opts.Mode = interaction.ModeOrthographic
	default:
		http.Error(w, "mode must be camera or orthographic", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxCommand)

	s := &session{
		conn:   conn,
		binary: r.URL.Query().Get("encoding") == "msgpack",
		frames: opts.Mode == interaction.ModeOrthographic,
		out:    make(chan interaction.Message, sessionBuffer),
	}
	snap := h.countries.Snapshot()
	s.render = globe.NewRenderer(h.store, snap, h.globeOpts, h.clock, h.log)
	s.ctrl = interaction.NewController(snap, s.render, h.clock, opts, h.events, s.send, h.log)
	s.log = h.log.With().Str("session", s.ctrl.SessionID()).Str("mode", string(opts.Mode)).Logger()
	s.render.OnResize(func(width, height float64) { s.ctrl.PushFrame() })

	h.mu.Lock()
	h.active[s.ctrl.SessionID()] = s
	h.mu.Unlock()
	s.log.Info().Msg("Session connected")

	ctx, cancel := context.WithCancel(r.Context())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		s.writeLoop(ctx)
	}()

	s.send(interaction.Message{Type: interaction.MsgCamera, Data: s.ctrl.Camera()})
	if s.frames {
		s.ctrl.PushFrame()
	}

	h.readLoop(ctx, s)

	cancel()
	s.render.Stop()
	s.ctrl.Shutdown()
	s.stop()
	wg.Wait()

	h.mu.Lock()
	delete(h.active, s.ctrl.SessionID())
	h.mu.Unlock()

	conn.Close(websocket.StatusNormalClosure, "")
	s.log.Info().Msg("Session disconnected")
}

func (h *SessionHandler) readLoop(ctx context.Context, s *session) {
	for {
		msgType, data, err := s.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				s.log.Debug().Err(err).Msg("Session read ended")
			}
			return
		}

		var cmd Command
		if msgType == websocket.MessageBinary {
			err = msgpack.Unmarshal(data, &cmd)
		} else {
			err = json.Unmarshal(data, &cmd)
		}
		if err != nil {
			s.send(errorMessage("Malformed command"))
			continue
		}

		if err := h.dispatch(s, cmd); err != nil {
			s.send(errorMessage(err.Error()))
		}
	}
}

// dispatch applies a command. Returned errors are reported to the client.
func (h *SessionHandler) dispatch(s *session, cmd Command) error {
	ctrl := s.ctrl
	moved := false

	switch cmd.Type {
	case CmdClick:
		var err error
		switch {
		case cmd.Key != "":
			_, err = ctrl.SelectByKey(cmd.Key)
		case cmd.X != nil && cmd.Y != nil:
			_, err = ctrl.SelectAt(geo.Point{X: *cmd.X, Y: *cmd.Y})
		default:
			return fmt.Errorf("click needs a key or x and y")
		}
		if errors.Is(err, domain.ErrNoMatch) {
			// Features without market data are not interactive.
			return nil
		}
		if err != nil {
			return err
		}
		moved = true
	case CmdSearch:
		if _, err := ctrl.SelectBySearch(cmd.Query); err != nil {
			if errors.Is(err, domain.ErrCountryNotFound) {
				return fmt.Errorf("no country matches %q", cmd.Query)
			}
			return err
		}
		moved = true
	case CmdSuggest:
		ctrl.Suggest(cmd.Query)
	case CmdClose:
		ctrl.Close()
	case CmdDragStart:
		ctrl.DragStart()
	case CmdDrag:
		ctrl.Drag(cmd.DX, cmd.DY)
		moved = true
	case CmdDragEnd:
		ctrl.DragEnd()
	case CmdZoomIn:
		ctrl.ZoomIn()
	case CmdZoomOut:
		ctrl.ZoomOut()
	case CmdReset:
		ctrl.Reset()
		moved = true
	case CmdResize:
		ctrl.Resize(cmd.Width, cmd.Height)
	case CmdAnimationComplete:
		ctrl.AnimationComplete(cmd.ID)
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}

	if moved && s.frames {
		ctrl.PushFrame()
	}
	return nil
}

func errorMessage(text string) interaction.Message {
	return interaction.Message{Type: interaction.MsgError, Data: interaction.ErrorMessage{Message: text}}
}
