// Package mockbox is a stand-in for the gobox backend. It speaks the same
// websocket protocol (fingerprint in the query, raw terminal bytes in
// frames) but only echoes input through a line discipline. Nothing is
// executed.
package mockbox

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	ConnectPath = "/api/v1/box/connect"
	Prompt      = "$ "
)

// Options configures a Server.
type Options struct {
	Banner string
	// TextFrames sends output as text frames instead of binary.
	TextFrames bool
	Logger     *zap.Logger
	// Registry collects the server metrics. A fresh registry is used when
	// nil.
	Registry *prometheus.Registry
}

// box is the state the backend keeps per fingerprint.
type box struct {
	id          string
	created     time.Time
	connections int
}

type Server struct {
	opts     Options
	log      *zap.Logger
	metrics  *Metrics
	registry *prometheus.Registry
	upgrader websocket.Upgrader

	mu    sync.Mutex
	boxes map[string]*box
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Server{
		opts:     opts,
		log:      log,
		metrics:  NewMetrics(reg),
		registry: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		boxes: make(map[string]*box),
	}
}

// Handler returns the routes of the mock backend.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Route("/api/v1/box", func(r chi.Router) {
		r.Get("/connect", s.handleConnect)
	})
	return r
}

// BoxID returns the box id kept for fingerprint.
func (s *Server) BoxID(fingerprint string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boxes[fingerprint]
	if !ok {
		return "", false
	}
	return b.id, true
}

// Connections returns the number of open connections for fingerprint.
func (s *Server) Connections(fingerprint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.boxes[fingerprint]; ok {
		return b.connections
	}
	return 0
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Server is running 🚀"))
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	fingerprint := strings.TrimSpace(r.URL.Query().Get("fingerprint"))
	if fingerprint == "" {
		s.metrics.Rejected.Inc()
		writeError(w, http.StatusBadRequest, "VALIDATION", "fingerprint query parameter is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	b, reused := s.attach(fingerprint)
	defer s.detach(fingerprint)

	log := s.log.With(
		zap.String("conn_id", uuid.NewString()),
		zap.String("box_id", b.id),
		zap.String("fingerprint", fingerprint),
	)
	log.Info("websocket connected", zap.Bool("reused", reused))
	s.metrics.ConnectionsTotal.Inc()
	s.metrics.ConnectionsActive.Inc()
	defer s.metrics.ConnectionsActive.Dec()

	mt := websocket.BinaryMessage
	if s.opts.TextFrames {
		mt = websocket.TextMessage
	}
	c := newClient(conn, mt)
	defer func() {
		c.close()
		<-c.done
	}()

	if s.opts.Banner != "" {
		s.push(c, []byte(s.opts.Banner+"\r\n"))
	}

	sh := newShell(Prompt)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("websocket closed normally")
			} else {
				log.Info("websocket read ended", zap.Error(err))
			}
			return
		}
		s.metrics.FramesIn.Inc()

		out, exit := sh.feed(msg)
		s.push(c, out)
		if exit {
			c.closeWith(websocket.CloseNormalClosure, "logout")
		}
	}
}

func (s *Server) push(c *client, data []byte) {
	if len(data) == 0 {
		return
	}
	if c.queue(data) {
		s.metrics.FramesOut.Inc()
		return
	}
	s.metrics.FramesDropped.Inc()
}

func (s *Server) attach(fingerprint string) (*box, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boxes[fingerprint]
	if !ok {
		b = &box{id: uuid.NewString(), created: time.Now()}
		s.boxes[fingerprint] = b
		s.metrics.Boxes.Set(float64(len(s.boxes)))
	}
	b.connections++
	return b, ok
}

func (s *Server) detach(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.boxes[fingerprint]; ok && b.connections > 0 {
		b.connections--
	}
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"type":    errType,
			"message": message,
		},
	})
}
