package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codegen/app/usecase"
	"codegen/internal/domain/entity"
	"codegen/internal/infrastructure/metrics"
)

type GeneratorHandler struct {
	generator  usecase.CodeGenerator
	jobService usecase.JobUsecase
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	requestTimeout time.Duration
}

func NewGeneratorHandler(
	generator usecase.CodeGenerator,
	jobService usecase.JobUsecase,
	requestTimeout time.Duration,
	logger *slog.Logger,
) *GeneratorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeneratorHandler{
		generator:  generator,
		jobService: jobService,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		requestTimeout: requestTimeout,
	}
}

// withMetrics records count, latency and errors per route template.
func (h *GeneratorHandler) withMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		metrics.ObserveHTTPRequest(r.Method, path, strconv.Itoa(rw.status), time.Since(start), rw.status >= 400)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (h *GeneratorHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/generate", h.withMetrics(h.handleGenerate)).Methods(http.MethodPost)
	api.HandleFunc("/jobs", h.withMetrics(h.handleCreateJob)).Methods(http.MethodPost)
	api.HandleFunc("/jobs", h.withMetrics(h.handleListJobs)).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", h.withMetrics(h.handleGetJob)).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", h.withMetrics(h.handleDeleteJob)).Methods(http.MethodDelete)
	api.HandleFunc("/jobs/{id}/artifact", h.withMetrics(h.handleGetArtifact)).Methods(http.MethodGet)
	api.HandleFunc("/ws", h.withMetrics(h.handleWebSocket)).Methods(http.MethodGet)
	api.HandleFunc("/health", h.withMetrics(h.handleHealth)).Methods(http.MethodGet)

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrEmptyDescription), errors.Is(err, entity.ErrUnknownLanguage):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrJobNotFound), errors.Is(err, entity.ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrJobNotFinished):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, entity.ErrModelCall):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type generateReq struct {
	Description string `json:"description"`
	Mode        string `json:"mode"`
	Language    string `json:"language"`
}

func (req generateReq) toRequest() (entity.GenerationRequest, error) {
	lang := req.Language
	if lang == "" {
		lang = string(entity.LanguagePython)
	}
	return entity.NewGenerationRequest(req.Description, req.Mode, lang)
}

func decodeGenerateReq(r *http.Request) (entity.GenerationRequest, error) {
	var req generateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return entity.GenerationRequest{}, fmt.Errorf("bad request body: %w", err)
	}
	return req.toRequest()
}

// POST /api/v1/generate
func (h *GeneratorHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerateReq(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	res, err := h.generator.Generate(ctx, req)
	if err != nil {
		h.logger.Error("generate failed", "language", req.Language, "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/v1/jobs
func (h *GeneratorHandler) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerateReq(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	job, err := h.jobService.CreateJob(r.Context(), req)
	if err != nil {
		h.logger.Error("create job failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// GET /api/v1/jobs[?status=pending]
func (h *GeneratorHandler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	status := entity.JobStatus(r.URL.Query().Get("status"))
	jobs, err := h.jobService.ListJobs(r.Context(), status)
	if err != nil {
		h.logger.Error("list jobs failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if jobs == nil {
		jobs = []*entity.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GET /api/v1/jobs/{id}
func (h *GeneratorHandler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := h.jobService.GetJob(r.Context(), id)
	if err != nil {
		if code := statusFor(err); code != http.StatusNotFound {
			h.logger.Error("get job failed", "id", id, "err", err)
		}
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// DELETE /api/v1/jobs/{id}
func (h *GeneratorHandler) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.jobService.DeleteJob(r.Context(), id); err != nil {
		h.logger.Error("delete job failed", "id", id, "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/jobs/{id}/artifact[?format=json]
func (h *GeneratorHandler) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	art, err := h.jobService.GetArtifact(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, art)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(art.Content))
}

// GET /api/v1/ws
//
// Each text message is a generation request; the reply is the result or
// {"error": "..."}. The connection stays open for further requests.
func (h *GeneratorHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	for {
		var msg generateReq
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read ended", "err", err)
			}
			return
		}

		var reply interface{}
		req, err := msg.toRequest()
		if err == nil {
			ctx, cancel := context.WithTimeout(r.Context(), h.timeoutOr(time.Minute))
			var res *entity.GenerationResult
			res, err = h.generator.Generate(ctx, req)
			cancel()
			reply = res
		}
		if err != nil {
			reply = map[string]string{"error": err.Error()}
		}
		if err := conn.WriteJSON(reply); err != nil {
			h.logger.Debug("websocket write failed", "err", err)
			return
		}
	}
}

func (h *GeneratorHandler) timeoutOr(d time.Duration) time.Duration {
	if h.requestTimeout > 0 {
		return h.requestTimeout
	}
	return d
}

// GET /api/v1/health
func (h *GeneratorHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"ok": true,
		"ts": time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, status)
}
