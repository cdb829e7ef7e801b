// Package web serves a read-mostly HTTP view of a conversion graph: the graph
// itself, DOT export, round trips, path queries and a transpile endpoint.
// Graph reloads are pushed to subscribers over Server-Sent Events.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/cycles"
	"github.com/ritzau/qconvert/pkg/graph"
	"github.com/ritzau/qconvert/pkg/logging"
	"github.com/ritzau/qconvert/pkg/model"
	"github.com/ritzau/qconvert/pkg/pubsub"
	"github.com/ritzau/qconvert/pkg/scheme"
	"github.com/ritzau/qconvert/pkg/transpiler"
)

// maxProgramSize bounds a transpile request body.
const maxProgramSize = 1 << 20

// Server represents the web server
type Server struct {
	router     *mux.Router
	feed       *pubsub.Feed
	transpiler *transpiler.Transpiler

	mu     sync.RWMutex
	scheme *scheme.Scheme
	source string // where the current scheme came from
}

// NewServer creates a server that answers with sch, whose depth bound
// applies whenever a request does not pass ?depth. A nil sch serves t's
// default graph without a bound.
func NewServer(t *transpiler.Transpiler, sch *scheme.Scheme) *Server {
	if sch == nil {
		sch = scheme.New(scheme.WithGraph(t.DefaultGraph()))
	}

	s := &Server{
		router:     mux.NewRouter(),
		feed:       pubsub.NewFeed(),
		transpiler: t,
	}
	if err := s.SetScheme(sch, "builtin"); err != nil {
		logging.Warn("failed to publish initial graph", "error", err)
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, including request logging.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Scheme returns the scheme currently served.
func (s *Server) Scheme() *scheme.Scheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheme
}

// Graph returns the graph currently served.
func (s *Server) Graph() *graph.ConversionGraph {
	return s.Scheme().Graph()
}

// SetScheme swaps the served scheme and notifies subscribers. source names
// where it came from, such as a policy file.
func (s *Server) SetScheme(sch *scheme.Scheme, source string) error {
	s.mu.Lock()
	s.scheme = sch
	s.source = source
	s.mu.Unlock()

	g := sch.Graph()
	nodes, edges := g.Len()
	update := pubsub.GraphUpdate{
		Source:       source,
		Nodes:        nodes,
		Edges:        edges,
		RoundTrips:   len(cycles.FindRoundTrips(g)),
		MaxPathDepth: sch.MaxPathDepth(),
	}
	logging.Info("conversion graph updated", "source", source, "nodes", nodes, "edges", edges, "max_path_depth", update.MaxPathDepth)
	return s.feed.PublishGraph(update)
}

// PublishPolicyError tells subscribers a policy reload failed. The current
// scheme stays in place.
func (s *Server) PublishPolicyError(path string, err error) error {
	return s.feed.PublishPolicyError(pubsub.PolicyError{
		Path:    path,
		Message: err.Error(),
	})
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	s.router.HandleFunc("/api/subscribe/"+pubsub.TopicConversionGraph, s.handleSubscribeGraph).Methods("GET")

	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/graph/dot", s.handleGraphDOT).Methods("GET")
	s.router.HandleFunc("/api/cycles", s.handleCycles).Methods("GET")
	s.router.HandleFunc("/api/path/{source}/{target}", s.handlePath).Methods("GET")
	s.router.HandleFunc("/api/transpile/{target}", s.handleTranspile).Methods("POST")
}

func (s *Server) handleSubscribeGraph(w http.ResponseWriter, r *http.Request) {
	pubsub.ServeSSE(w, r, s.feed)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.FromConversionGraph(s.Graph(), s.transpiler.Registry()))
}

func (s *Server) handleGraphDOT(w http.ResponseWriter, r *http.Request) {
	data, err := s.Graph().DOT("conversions")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "dot", err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write(data)
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.NewRoundTrips(cycles.FindRoundTrips(s.Graph())))
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	source, target := conversion.Alias(vars["source"]), conversion.Alias(vars["target"])

	sch := s.Scheme()
	depth, err := depthParam(r, sch.MaxPathDepth())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	path, err := sch.Graph().FindPath(source, target, depth)
	if err != nil {
		writeConversionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewPath(source, target, depth, path))
}

func (s *Server) handleTranspile(w http.ResponseWriter, r *http.Request) {
	target := conversion.Alias(mux.Vars(r)["target"])

	sch := s.Scheme()
	depth, err := depthParam(r, sch.MaxPathDepth())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProgramSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "bad_request", err)
		return
	}
	program := string(body)

	opts := []transpiler.Option{transpiler.WithScheme(sch), transpiler.WithMaxPathDepth(depth)}

	path, err := s.transpiler.Path(program, target, opts...)
	if err != nil {
		writeConversionError(w, err)
		return
	}
	result, err := s.transpiler.Transpile(program, target, opts...)
	if err != nil {
		writeConversionError(w, err)
		return
	}

	source := target
	if len(path) > 0 {
		source = path[0].Source
	}
	logging.InfoContext(r.Context(), "transpiled program", "source", source, "target", target, "hops", len(path))

	writeJSON(w, http.StatusOK, model.TranspileResult{
		Source:  string(source),
		Target:  string(target),
		Path:    model.NewPath(source, target, depth, path),
		Program: result,
	})
}

// depthParam reads ?depth=N, falling back to def when absent.
func depthParam(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("depth")
	if raw == "" {
		return def, nil
	}
	depth, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("depth must be an integer: %q", raw)
	}
	return depth, nil
}

// writeConversionError maps the resolver's error taxonomy to HTTP statuses.
func writeConversionError(w http.ResponseWriter, err error) {
	var (
		typeErr   *transpiler.ProgramTypeError
		notFound  *graph.PathNotFoundError
		execErr   *transpiler.ConversionExecutionError
		resultErr *transpiler.ProgramConversionError
	)

	switch {
	case errors.As(err, &typeErr):
		writeError(w, http.StatusBadRequest, "unknown_program", err)
	case errors.As(err, &notFound):
		body := model.Error{Error: err.Error(), Kind: "no_path"}
		for _, a := range notFound.Reachable {
			body.Reachable = append(body.Reachable, string(a))
		}
		writeJSON(w, http.StatusNotFound, body)
	case errors.As(err, &execErr):
		writeError(w, http.StatusUnprocessableEntity, "conversion_failed", err)
	case errors.As(err, &resultErr):
		writeError(w, http.StatusInternalServerError, "wrong_result_type", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, model.Error{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

// Start serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Ends open SSE streams
	s.feed.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}
