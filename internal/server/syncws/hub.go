// Package syncws hosts the websocket side of entry sync: one long-lived
// connection per device, JSON frames, and fan-out of accepted pushes to the
// user's other connected devices.
package syncws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/server/httpapi"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/syncproto"
)

const writeTimeout = 5 * time.Second

// EntrySyncer is the slice of EntryService the hub needs.
type EntrySyncer interface {
	Push(ctx context.Context, userID string, pending []*models.Entry) ([]*models.Entry, int64, error)
	Pull(ctx context.Context, userID string, sinceVersion int64) ([]*models.Entry, int64, error)
}

// session is one connected device.
type session struct {
	conn   *websocket.Conn
	userID string
}

// Hub upgrades /api/sync requests and serves the frame protocol. It tracks
// live sessions per user so a push from one device becomes an update on the
// user's other devices.
type Hub struct {
	entries EntrySyncer
	logger  logging.Logger

	mu       sync.Mutex
	sessions map[string]map[*session]struct{}
}

func NewHub(entries EntrySyncer, logger logging.Logger) *Hub {
	return &Hub{
		entries:  entries,
		logger:   logger,
		sessions: make(map[string]map[*session]struct{}),
	}
}

// ServeHTTP performs the websocket upgrade. Authentication already happened
// in the router middleware; the user id comes from the request context.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := httpapi.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error(r.Context(), "websocket accept", "error", err)
		return
	}

	s := &session{conn: conn, userID: userID}
	h.register(s)
	defer h.unregister(s)

	h.serve(r.Context(), s)
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[s.userID] == nil {
		h.sessions[s.userID] = make(map[*session]struct{})
	}
	h.sessions[s.userID][s] = struct{}{}
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions[s.userID], s)
	if len(h.sessions[s.userID]) == 0 {
		delete(h.sessions, s.userID)
	}
	s.conn.Close(websocket.StatusNormalClosure, "")
}

// SessionCount reports how many devices of the user are connected.
func (h *Hub) SessionCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[userID])
}

func (h *Hub) serve(ctx context.Context, s *session) {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var frame syncproto.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.send(ctx, s, &syncproto.Frame{Type: syncproto.TypeError, Error: "malformed frame"})
			continue
		}

		switch frame.Type {
		case syncproto.TypeHello, syncproto.TypePull:
			h.handlePull(ctx, s, frame.SinceVersion)
		case syncproto.TypePush:
			h.handlePush(ctx, s, frame.Entries)
		default:
			h.send(ctx, s, &syncproto.Frame{Type: syncproto.TypeError, Error: "unknown frame type"})
		}
	}
}

// handlePull answers hello and pull frames with the delta above the client's
// watermark. An empty delta still gets an update frame so the client learns
// the current max version.
func (h *Hub) handlePull(ctx context.Context, s *session, sinceVersion int64) {
	updated, maxVersion, err := h.entries.Pull(ctx, s.userID, sinceVersion)
	if err != nil {
		h.logger.Error(ctx, "pulling entries", "user_id", s.userID, "error", err)
		h.send(ctx, s, &syncproto.Frame{Type: syncproto.TypeError, Error: "pull failed"})
		return
	}
	h.send(ctx, s, &syncproto.Frame{
		Type:       syncproto.TypeUpdate,
		Entries:    toWire(updated),
		MaxVersion: maxVersion,
	})
}

// handlePush persists the batch, acks the sender with the new max version
// and broadcasts the accepted entries to the user's other sessions.
func (h *Hub) handlePush(ctx context.Context, s *session, entries []syncproto.Entry) {
	pending := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		pending = append(pending, &models.Entry{
			ID:           e.ID,
			Payload:      e.Payload,
			PayloadNonce: e.PayloadNonce,
			Deleted:      e.Deleted,
			UpdatedAt:    time.Now(),
		})
	}

	processed, maxVersion, err := h.entries.Push(ctx, s.userID, pending)
	if err != nil {
		h.logger.Error(ctx, "pushing entries", "user_id", s.userID, "error", err)
		h.send(ctx, s, &syncproto.Frame{Type: syncproto.TypeError, Error: "push failed"})
		return
	}

	h.send(ctx, s, &syncproto.Frame{Type: syncproto.TypeAck, MaxVersion: maxVersion})
	h.broadcast(ctx, s, &syncproto.Frame{
		Type:       syncproto.TypeUpdate,
		Entries:    toWire(processed),
		MaxVersion: maxVersion,
	})
}

// broadcast delivers the frame to every session of the user except from.
func (h *Hub) broadcast(ctx context.Context, from *session, frame *syncproto.Frame) {
	h.mu.Lock()
	peers := make([]*session, 0, len(h.sessions[from.userID]))
	for peer := range h.sessions[from.userID] {
		if peer != from {
			peers = append(peers, peer)
		}
	}
	h.mu.Unlock()

	for _, peer := range peers {
		h.send(ctx, peer, frame)
	}
}

func (h *Hub) send(ctx context.Context, s *session, frame *syncproto.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error(ctx, "marshaling frame", "error", err)
		return
	}

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := s.conn.Write(wctx, websocket.MessageText, data); err != nil {
		h.logger.Warn(ctx, "writing frame", "user_id", s.userID, "error", err)
	}
}

func toWire(entries []*models.Entry) []syncproto.Entry {
	out := make([]syncproto.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, syncproto.Entry{
			ID:           e.ID,
			Payload:      e.Payload,
			PayloadNonce: e.PayloadNonce,
			Deleted:      e.Deleted,
			Version:      e.Version,
		})
	}
	return out
}
