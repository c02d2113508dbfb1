package tracking

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"delivery-service/internal/auth"
	"delivery-service/internal/events"
	"delivery-service/internal/httpx"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewFunc reports whether id may watch a job; a non-nil error rejects the
// subscription with that error's status.
type ViewFunc func(ctx context.Context, id auth.Identity, jobID string) error

// safeConn wraps a websocket.Conn with a write mutex.
// gorilla/websocket allows one concurrent writer; this enforces that.
type safeConn struct {
	mu    sync.Mutex
	ws    *websocket.Conn
	actor auth.Identity
	scope auth.Scope
}

func (c *safeConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *safeConn) close() { c.ws.Close() }

// canSee reports whether the subscriber may still watch the job described by
// ev. Drivers lose the feed once the job is assigned to someone else.
func (c *safeConn) canSee(ev events.JobEvent) bool {
	switch c.scope {
	case auth.ScopeAll:
		return true
	case auth.ScopeAssigned:
		return ev.AssignedDriver != "" && ev.AssignedDriver == c.actor.UserID
	case auth.ScopeOwned:
		return ev.CreatedBy != "" && ev.CreatedBy == c.actor.UserID
	default:
		return false
	}
}

// Hub fans job events out to the WebSocket subscribers of each job.
type Hub struct {
	mu    sync.RWMutex
	conns map[string][]*safeConn
	log   *zap.Logger
}

// NewHub creates a tracking hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{conns: make(map[string][]*safeConn), log: log}
}

// Routes returns a chi.Router for the /ws mount point.
func (h *Hub) Routes(authn func(http.Handler) http.Handler, canView ViewFunc) chi.Router {
	r := chi.NewRouter()
	r.Use(authn)
	r.Get("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.handleWS(w, r, canView)
	})
	return r
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request, canView ViewFunc) {
	jobID := chi.URLParam(r, "id")
	actor, _ := auth.IdentityFrom(r.Context())
	scope, err := auth.Authorize(actor, auth.OpGetJob)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if err := canView(r.Context(), actor, jobID); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	conn := &safeConn{ws: ws, actor: actor, scope: scope}
	h.addConn(jobID, conn)
	h.log.Debug("ws subscriber connected", zap.String("job_id", jobID), zap.String("user_id", actor.UserID))

	// Block until the client disconnects.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.removeConn(jobID, conn)
	conn.close()
	h.log.Debug("ws subscriber disconnected", zap.String("job_id", jobID))
}

// Publish pushes ev to every subscriber of its job. Subscribers that can no
// longer see the job are disconnected instead. Write failures are logged; the
// connection is dropped by its read loop.
func (h *Hub) Publish(_ context.Context, ev events.JobEvent) error {
	h.mu.RLock()
	conns := append([]*safeConn(nil), h.conns[ev.JobID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		if !c.canSee(ev) {
			h.removeConn(ev.JobID, c)
			c.close()
			h.log.Info("ws subscriber lost access",
				zap.String("job_id", ev.JobID), zap.String("user_id", c.actor.UserID))
			continue
		}
		if err := c.writeJSON(ev); err != nil {
			h.log.Warn("ws write failed", zap.String("job_id", ev.JobID), zap.Error(err))
		}
	}
	return nil
}

// Subscribers returns the number of live connections watching jobID.
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[jobID])
}

func (h *Hub) addConn(jobID string, conn *safeConn) {
	h.mu.Lock()
	h.conns[jobID] = append(h.conns[jobID], conn)
	h.mu.Unlock()
}

func (h *Hub) removeConn(jobID string, conn *safeConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[jobID]
	for i, c := range conns {
		if c == conn {
			h.conns[jobID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[jobID]) == 0 {
		delete(h.conns, jobID)
	}
}
