package server

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"weblinuxgui/internal/clients"
	"weblinuxgui/internal/session"
	"weblinuxgui/internal/transport"
)

//go:embed index.html
var indexHTML []byte

// Server accepts viewer connections and runs one session per admitted
// connection.
type Server struct {
	deps     session.Deps
	registry *clients.Registry
	log      zerolog.Logger
}

// New builds a Server. The registry is the only state shared between
// sessions.
func New(deps session.Deps, registry *clients.Registry) *Server {
	return &Server{deps: deps, registry: registry, log: deps.Logger}
}

// Handler routes websocket upgrades on / and /ws to sessions, serves the
// viewer page on /, plus /healthz and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			s.HandleWS(w, r)
			return
		}
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		ServeIndex(w, r)
	})
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.deps.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.deps.Metrics.Registry(), promhttp.HandlerOpts{}))
	}
	return mux
}

func ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

// HandleWS upgrades the connection, applies admission and runs the session
// until it closes.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := transport.Upgrade(w, r)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}

	id := uuid.NewString()
	lease, err := s.registry.Admit(id, r.RemoteAddr)
	if err != nil {
		s.count("rejected")
		s.log.Info().Str("remote", r.RemoteAddr).Int("capacity", s.registry.Capacity()).
			Msg("rejected connection: capacity reached")
		if rerr := transport.Reject(ws, err.Error()); rerr != nil {
			s.log.Debug().Err(rerr).Msg("reject")
		}
		return
	}
	s.count("accepted")

	deps := s.deps
	deps.Logger = s.log.With().Str("remote", r.RemoteAddr).Logger()
	sess := session.New(lease, transport.Wrap(ws), deps)
	deps.Logger.Info().Str("session", id).Int("live", s.registry.Len()).Msg("new client connected")
	_ = sess.Run(r.Context())
}

func (s *Server) count(outcome string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.SessionsTotal.WithLabelValues(outcome).Inc()
	}
}

type health struct {
	Status   string         `json:"status"`
	Sessions int            `json:"sessions"`
	Capacity int            `json:"capacity"`
	Live     []clients.Info `json:"live,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("verbose") != "1" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health{
		Status:   "ok",
		Sessions: s.registry.Len(),
		Capacity: s.registry.Capacity(),
		Live:     s.registry.Snapshot(),
	})
}
