package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/cartograph/cartograph/pkg/engine"
	apperrors "github.com/cartograph/cartograph/pkg/errors"
	"github.com/cartograph/cartograph/pkg/graph"
	"github.com/cartograph/cartograph/pkg/layout"
	"github.com/cartograph/cartograph/pkg/observability"
)

// serveCommand creates the serve command for the layout HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout HTTP API",
		Long: `Run the layout HTTP API.

Endpoints:
  POST /v1/layout   compute positions for a posted graph
  POST /v1/resolve  remove overlaps from a posted graph
  GET  /healthz     liveness probe

The server shares the layout cache with the CLI, so repeated requests for an
unchanged graph are served from cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// layoutRequest is the POST /v1/layout body.
type layoutRequest struct {
	Nodes   []graph.Node `json:"nodes"`
	Edges   []graph.Edge `json:"edges"`
	Kind    string       `json:"kind"`
	Scope   string       `json:"scope,omitempty"`
	FocusID string       `json:"focus_id,omitempty"`
}

// layoutResponse is the POST /v1/layout reply.
type layoutResponse struct {
	Nodes    []graph.Node `json:"nodes"`
	Applied  string       `json:"applied"`
	Fallback bool         `json:"fallback,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

// resolveRequest is the POST /v1/resolve body.
type resolveRequest struct {
	Nodes    []graph.Node `json:"nodes"`
	Edges    []graph.Edge `json:"edges"`
	Scope    string       `json:"scope,omitempty"`
	PinnedID string       `json:"pinned_id,omitempty"`
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Serve.Addr
	}

	eng, err := c.newEngine(ctx, cfg, noCache)
	if err != nil {
		return err
	}

	srv := &server{engine: eng, maxNodes: cfg.Serve.MaxNodes, logger: c.Logger}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	c.Logger.Info("layout API listening", "addr", addr)
	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type server struct {
	engine   *engine.Engine
	maxNodes int
	logger   *log.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Get("/healthz", s.health)
	r.Post("/v1/layout", s.layout)
	r.Post("/v1/resolve", s.resolve)
	return r
}

// observe is the request logging and hooks middleware.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), elapsed)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "elapsed", elapsed.Round(time.Millisecond))
	})
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) layout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}
	kind, err := layout.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, apperrors.New(apperrors.ErrCodeInvalidLayout, "%v", err))
		return
	}
	if err := validateGraph(req.Nodes, req.Edges, s.maxNodes); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	res := s.engine.ApplyLayout(r.Context(), kind, req.Nodes, req.Edges, req.Scope, req.FocusID)
	writeJSON(w, http.StatusOK, layoutResponse{
		Nodes:    res.Nodes,
		Applied:  string(res.Applied),
		Fallback: res.Fallback,
		Reason:   res.Reason,
	})
}

func (s *server) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}
	if err := validateGraph(req.Nodes, req.Edges, s.maxNodes); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	nodes := s.engine.Resolve(r.Context(), req.Nodes, req.Edges, req.Scope, layout.ResolveOptions{
		PinnedID:   req.PinnedID,
		ActiveOnly: req.PinnedID != "",
	})
	writeJSON(w, http.StatusOK, map[string][]graph.Node{"nodes": nodes})
}

func validateGraph(nodes []graph.Node, edges []graph.Edge, maxNodes int) error {
	if len(nodes) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidGraph, "graph has no nodes")
	}
	if maxNodes > 0 && len(nodes) > maxNodes {
		return apperrors.New(apperrors.ErrCodeInvalidGraph, "graph exceeds %d nodes", maxNodes)
	}
	for _, n := range nodes {
		if err := apperrors.ValidateNodeID(n.ID); err != nil {
			return err
		}
	}
	for _, e := range edges {
		if e.Source == "" || e.Target == "" {
			return apperrors.New(apperrors.ErrCodeInvalidGraph, "edge %q is missing an endpoint", e.ID)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Code:    string(apperrors.GetCode(err)),
		Message: apperrors.UserMessage(err),
	})
}
