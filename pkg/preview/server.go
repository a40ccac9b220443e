// Package preview serves rendered diagrams over HTTP and pushes a reload
// event to connected browsers whenever a diagram is re-rendered.
package preview

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/infra-diagrams/pkg/logging"
	"github.com/ritzau/infra-diagrams/pkg/pubsub"
	"github.com/ritzau/infra-diagrams/pkg/render"
)

//go:embed static/*
var staticFiles embed.FS

// DiagramInfo is one entry of GET /api/diagrams.
type DiagramInfo struct {
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	Format     string    `json:"format"`
	URL        string    `json:"url"`
	Size       int       `json:"size"`
	RenderedAt time.Time `json:"rendered_at"`
	Error      string    `json:"error,omitempty"`
}

type entry struct {
	artifact   *render.Artifact
	title      string
	renderedAt time.Time
	err        error
}

// Server represents the preview server
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher
	metrics   *Metrics

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewServer creates a new preview server
func NewServer() *Server {
	publisher := pubsub.NewSSEPublisher()

	// A reconnecting browser only needs to know about the latest render.
	publisher.ConfigureTopic(pubsub.TopicRenders, pubsub.TopicConfig{BufferSize: 10})
	publisher.ConfigureTopic(pubsub.TopicBuilds, pubsub.TopicConfig{BufferSize: 1})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: publisher,
		metrics:   NewMetrics(),
		entries:   make(map[string]*entry),
	}
	s.setupRoutes()
	return s
}

// Publisher exposes the event stream for callers that report progress.
func (s *Server) Publisher() pubsub.Publisher { return s.publisher }

// RecordRender stores the outcome of a render and notifies subscribers. On
// failure the previous artifact, if any, keeps being served.
func (s *Server) RecordRender(name, title string, artifact *render.Artifact, err error) {
	now := time.Now()

	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		e = &entry{}
		s.entries[name] = e
	}
	e.title = title
	e.err = err
	if err == nil {
		e.artifact = artifact
		e.renderedAt = now
	}
	served := 0
	for _, e := range s.entries {
		if e.artifact != nil {
			served++
		}
	}
	s.mu.Unlock()

	event := pubsub.RenderEvent{Diagram: name, Title: title}
	eventType := pubsub.EventRendered
	format := ""
	var duration time.Duration
	if artifact != nil {
		format = string(artifact.Format)
		duration = artifact.Duration
		event.Format = format
		event.Path = "/diagrams/" + name
		event.DurationMs = duration.Milliseconds()
	}
	if err != nil {
		eventType = pubsub.EventFailed
		event.Error = err.Error()
	}

	s.metrics.observe(name, format, duration, err)
	s.metrics.diagrams.Set(float64(served))

	if pubErr := s.publisher.Publish(pubsub.TopicRenders, eventType, event); pubErr != nil {
		logging.Warn("failed to publish render event", "diagram", name, "error", pubErr)
	}
}

// PublishBuildStatus reports watch loop progress to subscribers.
func (s *Server) PublishBuildStatus(state string, changed []string, message string) error {
	return s.publisher.Publish(pubsub.TopicBuilds, state, pubsub.BuildStatus{
		State:   state,
		Changed: changed,
		Message: message,
	})
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")
	s.router.HandleFunc("/api/diagrams", s.handleDiagrams).Methods("GET")
	s.router.HandleFunc("/diagrams/{name}", s.handleDiagram).Methods("GET", "HEAD")
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicRenders && topic != pubsub.TopicBuilds {
		http.Error(w, fmt.Sprintf("unknown topic %q", topic), http.StatusNotFound)
		return
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	// Initial comment establishes the stream before the first event.
	fmt.Fprintf(w, ": connected\n\n")
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.DebugContext(r.Context(), "subscriber went away", "topic", topic, "error", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleDiagrams(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	list := make([]DiagramInfo, 0, len(s.entries))
	for name, e := range s.entries {
		info := DiagramInfo{Name: name, Title: e.title}
		if e.artifact != nil {
			info.Format = string(e.artifact.Format)
			info.URL = "/diagrams/" + name
			info.Size = e.artifact.Size
			info.RenderedAt = e.renderedAt
		}
		if e.err != nil {
			info.Error = e.err.Error()
		}
		list = append(list, info)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	writeJSON(w, list)
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s.mu.RLock()
	var artifact *render.Artifact
	var modTime time.Time
	if e, ok := s.entries[name]; ok && e.artifact != nil {
		artifact = e.artifact
		modTime = e.renderedAt
	}
	s.mu.RUnlock()

	if artifact == nil {
		http.Error(w, fmt.Sprintf("diagram %q has not been rendered", name), http.StatusNotFound)
		return
	}

	f, err := os.Open(artifact.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, fmt.Sprintf("artifact for %q is missing", name), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", artifact.Format.ContentType())
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, artifact.Name+"."+string(artifact.Format), modTime, f)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting preview server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Closing the publisher ends open SSE streams so Shutdown can finish.
	s.publisher.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down preview server: %w", err)
	}
	return nil
}
