// Package httpapi exposes the finder over HTTP. The thin handlers
// delegate to the mailscout package; transport concerns stay here.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/bitinho/mailscout"
	"github.com/bitinho/mailscout/check"
)

// FindRequest is the body of POST /api/find.
type FindRequest struct {
	Domain    string   `json:"domain"`
	First     string   `json:"first"`
	Middle    string   `json:"middle,omitempty"`
	Last      string   `json:"last,omitempty"`
	Extras    []string `json:"extras,omitempty"`
	LightMode *bool    `json:"lightMode,omitempty"`
}

// FindResponse is the body of a successful find.
type FindResponse struct {
	Domain      string                       `json:"domain"`
	Confirmed   []string                     `json:"confirmed"`
	TotalTested int                          `json:"totalTested"`
	CatchAll    bool                         `json:"catchAll"`
	Advisory    check.DomainAdvisory         `json:"advisory"`
	Results     []mailscout.ValidationResult `json:"results,omitempty"`
}

// ValidateRequest is the body of POST /api/validate.
type ValidateRequest struct {
	Email     string `json:"email"`
	LightMode *bool  `json:"lightMode,omitempty"`
}

// ValidateResponse is the body of a successful single-address check.
type ValidateResponse struct {
	Email    string               `json:"email"`
	Accepted bool                 `json:"accepted"`
	Reason   string               `json:"reason,omitempty"`
	CatchAll bool                 `json:"catchAll"`
	Advisory check.DomainAdvisory `json:"advisory"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler is the HTTP transport over the finder.
type Handler struct {
	opts mailscout.Options
	log  *logrus.Logger
}

// NewHandler builds the transport with the base finder options; the
// per-request lightMode flag overrides the configured one.
func NewHandler(opts mailscout.Options, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{opts: opts, log: log}
}

// NewRouter wires the public endpoints. gatherer, when non-nil, is served
// at /metrics.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(h.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/find", h.handleFind)
		r.Post("/validate", h.handleValidate)
	})
	return r
}

// NewServer builds an HTTP server with sane defaults for this service.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (h *Handler) handleFind(w http.ResponseWriter, r *http.Request) {
	var req FindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.First == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "first name is required"})
		return
	}

	f, err := h.newFinder(r, req.Domain, req.LightMode)
	if err != nil {
		h.writeFinderError(w, err)
		return
	}
	defer func() { _ = f.Close() }()

	report, err := f.Find(r.Context(), mailscout.Name{
		First:  req.First,
		Middle: req.Middle,
		Last:   req.Last,
		Extras: req.Extras,
	})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request abandoned: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, FindResponse{
		Domain:      report.Domain,
		Confirmed:   report.Confirmed,
		TotalTested: report.TotalTested,
		CatchAll:    report.CatchAll,
		Advisory:    report.Advisory,
		Results:     report.Results,
	})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email is required"})
		return
	}

	domain := domainOf(req.Email)
	f, err := h.newFinder(r, domain, req.LightMode)
	if err != nil {
		h.writeFinderError(w, err)
		return
	}
	defer func() { _ = f.Close() }()

	res := f.Validate(r.Context(), req.Email)
	writeJSON(w, http.StatusOK, ValidateResponse{
		Email:    res.Email,
		Accepted: res.Accepted,
		Reason:   res.Reason,
		CatchAll: f.IsCatchAll(r.Context()),
		Advisory: f.Advisory(),
	})
}

func (h *Handler) newFinder(r *http.Request, domain string, lightMode *bool) (*mailscout.Finder, error) {
	opts := h.opts
	if lightMode != nil {
		opts.LightMode = *lightMode
	}
	return mailscout.New(r.Context(), domain, opts)
}

func (h *Handler) writeFinderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mailscout.ErrEmptyDomain), errors.Is(err, mailscout.ErrInvalidDomain):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, mailscout.ErrNoMXRecords):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		h.log.WithError(err).Error("finder setup failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
}

// domainOf returns the part after the last '@', or "".
func domainOf(email string) string {
	for i := len(email) - 1; i >= 0; i-- {
		if email[i] == '@' {
			return email[i+1:]
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// requestLogger logs one line per request with latency and status.
func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":  r.Method,
				"path":    r.URL.Path,
				"status":  ww.Status(),
				"latency": time.Since(start).String(),
			}).Info("request")
		})
	}
}
