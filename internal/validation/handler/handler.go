package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"drawcheck/internal/domain"
	"drawcheck/internal/intent"
	"drawcheck/internal/orchestrator"
	"drawcheck/internal/platform/metrics"
	"drawcheck/internal/platform/middleware"
	"drawcheck/internal/session"
	dErrors "drawcheck/pkg/domain-errors"
	"drawcheck/pkg/platform/httputil"
)

// Runner executes one validation run end to end.
type Runner interface {
	Run(ctx context.Context, req domain.ValidationRequest, emitter *orchestrator.Emitter) (*domain.ValidationReport, error)
}

// Stager stages an uploaded document and hands back its session.
type Stager interface {
	Create(ctx context.Context, r io.Reader) (*session.Session, error)
}

// IntentResolver turns a free-text command into a validation request.
type IntentResolver interface {
	Resolve(text, attachedDocumentRef string) (intent.Resolution, error)
}

// Handler exposes the validation endpoints. It owns intake rules only;
// everything after a session exists belongs to the orchestrator.
type Handler struct {
	logger         *slog.Logger
	runner         Runner
	stager         Stager
	resolver       IntentResolver
	metrics        *metrics.Metrics
	maxUploadBytes int64
	runTimeout     time.Duration
}

// New creates a validation Handler.
func New(runner Runner, stager Stager, resolver IntentResolver, logger *slog.Logger, m *metrics.Metrics, maxUploadBytes int64) *Handler {
	return &Handler{
		logger:         logger,
		runner:         runner,
		stager:         stager,
		resolver:       resolver,
		metrics:        m,
		maxUploadBytes: maxUploadBytes,
		runTimeout:     60 * time.Second,
	}
}

// Register registers the validation routes with the chi router. The assist
// endpoint streams server-sent events, so it is mounted without the request
// timeout that bounds /validate.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(middleware.Recovery(h.logger))
		g.Use(middleware.RequestID)
		g.Use(middleware.Logger(h.logger))

		g.With(middleware.Timeout(h.runTimeout)).Post("/validate", h.handleValidate)
		g.Post("/assist", h.handleAssist)
		g.Get("/healthz", h.handleHealthz)
	})
}

// validateRequest is the JSON intake shape. Checks is a pointer so an
// explicitly empty list can be told apart from an absent one; the former is
// the caller's error.
type validateRequest struct {
	DocumentRef    string    `json:"documentRef"`
	Checks         *[]string `json:"checks"`
	SeverityFilter string    `json:"severityFilter"`
	RequesterID    string    `json:"requesterId"`
	ProjectID      string    `json:"projectId"`
}

var allowedExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
	".dxf": true,
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var in validateRequest
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		in, err = h.intakeMultipart(w, r)
	} else {
		err = json.NewDecoder(r.Body).Decode(&in)
		if err != nil {
			err = dErrors.New(dErrors.CodeBadRequest, "invalid request body")
		} else if in.DocumentRef == "" {
			err = dErrors.New(dErrors.CodeBadRequest, "documentRef is required without a file upload")
		}
	}
	if err != nil {
		h.logger.WarnContext(ctx, "validate intake rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	req, filter, err := h.buildRequest(in)
	if err != nil {
		h.logger.WarnContext(ctx, "validate intake rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	report, err := h.runner.Run(ctx, req, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "validation run failed",
			"request_id", requestID,
			"document_ref", req.DocumentRef,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report.FilterIssues(filter))
}

// intakeMultipart enforces the upload limits and stages the file. All field
// validation failures happen before staging so a rejected request never
// leaves a session behind.
func (h *Handler) intakeMultipart(w http.ResponseWriter, r *http.Request) (validateRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		return validateRequest{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "upload too large or malformed")
	}

	in := validateRequest{
		SeverityFilter: r.FormValue("severityFilter"),
		RequesterID:    r.FormValue("requesterId"),
		ProjectID:      r.FormValue("projectId"),
	}
	if vals, present := r.MultipartForm.Value["checks"]; present {
		checks := make([]string, 0, len(vals))
		for _, v := range vals {
			for _, tok := range strings.Split(v, ",") {
				if tok = strings.TrimSpace(tok); tok != "" {
					checks = append(checks, tok)
				}
			}
		}
		in.Checks = &checks
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		return validateRequest{}, dErrors.New(dErrors.CodeBadRequest, "file part is required")
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(hdr.Filename)); !allowedExtensions[ext] {
		return validateRequest{}, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("unsupported file type %q", ext))
	}

	// Field validation must precede staging.
	if _, _, err := h.buildRequest(in); err != nil {
		return validateRequest{}, err
	}

	sess, err := h.stager.Create(r.Context(), file)
	if err != nil {
		return validateRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to stage upload")
	}
	in.DocumentRef = sess.DocumentRef
	return in, nil
}

// buildRequest validates the intake fields and produces the typed request.
func (h *Handler) buildRequest(in validateRequest) (domain.ValidationRequest, domain.SeverityFilter, error) {
	if in.RequesterID == "" {
		return domain.ValidationRequest{}, "", dErrors.New(dErrors.CodeBadRequest, "requesterId is required")
	}

	var cats []domain.CheckCategory
	if in.Checks != nil {
		if len(*in.Checks) == 0 {
			return domain.ValidationRequest{}, "", dErrors.New(dErrors.CodeBadRequest,
				"checks must not be empty; omit the field to run all checks")
		}
		for _, c := range *in.Checks {
			cat, err := domain.ParseCategory(c)
			if err != nil {
				return domain.ValidationRequest{}, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "unknown check category")
			}
			cats = append(cats, cat)
		}
	}

	filter := domain.SeverityFilter(in.SeverityFilter)
	if in.SeverityFilter == "" {
		filter = domain.FilterAll
	}
	if !filter.Valid() {
		return domain.ValidationRequest{}, "", dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("unknown severityFilter %q", in.SeverityFilter))
	}

	req := domain.NewValidationRequest(in.DocumentRef, in.RequesterID, cats)
	req.SeverityFilter = filter
	req.ProjectID = in.ProjectID
	return req, filter, nil
}

// assistRequest is the free-text command intake shape.
type assistRequest struct {
	Text        string `json:"text"`
	DocumentRef string `json:"documentRef"`
	RequesterID string `json:"requesterId"`
}

func (h *Handler) handleAssist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var in assistRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	res, err := h.resolver.Resolve(in.Text, in.DocumentRef)
	if err != nil {
		h.logger.InfoContext(ctx, "command did not resolve",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	req := res.Request
	if in.RequesterID != "" {
		req.RequesterID = in.RequesterID
	}

	fl, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	em := orchestrator.NewEmitter(16, h.metrics.IncrementProgressDropped)
	type runOutcome struct {
		report *domain.ValidationReport
		err    error
	}
	done := make(chan runOutcome, 1)
	go func() {
		rep, runErr := h.runner.Run(ctx, req, em)
		done <- runOutcome{report: rep, err: runErr}
	}()

	for ev := range em.Events() {
		writeEvent(w, fl, "progress", ev)
	}
	out := <-done
	if out.err != nil {
		code := dErrors.CodeOf(out.err)
		body := map[string]string{"error": string(code)}
		var de *dErrors.Error
		if code != dErrors.CodeInternal && errors.As(out.err, &de) && de.Description != "" {
			body["error_description"] = de.Description
		}
		writeEvent(w, fl, "error", body)
		return
	}
	writeEvent(w, fl, "report", out.report.FilterIssues(req.SeverityFilter))
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeEvent(w io.Writer, fl http.Flusher, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	fl.Flush()
}
