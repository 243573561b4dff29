package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kinKKKdred/Matchingnetwork/internal/config"
	"github.com/kinKKKdred/Matchingnetwork/internal/store"
	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/matching"
	"github.com/kinKKKdred/Matchingnetwork/pkg/nodal"
	"github.com/kinKKKdred/Matchingnetwork/pkg/output"
)

type handler struct {
	logger        *zap.Logger
	store         *store.Store
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the matching API.
// designLog may be nil, in which case solves are not recorded and the history
// endpoint reports that no log is configured.
func NewHandler(logger *zap.Logger, designLog *store.Store, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, store: designLog, maxUploadSize: maxUploadSize, version: trimmedVersion}

	mux := http.NewServeMux()

	// Single-problem solve (JSON body)
	mux.HandleFunc("/api/match", h.handleMatch)

	// Batch solve (multipart YAML problem-set upload)
	mux.HandleFunc("/api/batch", h.handleBatch)

	// Supported topologies and their parameter hints
	mux.HandleFunc("/api/topologies", h.handleTopologies)

	// Recent design-log rows
	mux.HandleFunc("/api/history", h.handleHistory)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

// matchRequest is the JSON body of /api/match. Impedances and reflection
// coefficients arrive as j-notation strings; empty strings mean unset.
type matchRequest struct {
	Name         string  `json:"name,omitempty"`
	Topology     string  `json:"topology"`
	ZInitial     string  `json:"zInitial,omitempty"`
	ZTarget      string  `json:"zTarget,omitempty"`
	GammaInitial string  `json:"gammaInitial,omitempty"`
	GammaTarget  string  `json:"gammaTarget,omitempty"`
	Z0           float64 `json:"z0,omitempty"`
	Frequency    float64 `json:"frequency"`
	Q            float64 `json:"q,omitempty"`
	Spacing      float64 `json:"spacing,omitempty"`
	Verify       bool    `json:"verify,omitempty"`
}

func (m matchRequest) toRequest() (matching.Request, error) {
	problem := config.Problem{
		Name:         m.Name,
		Topology:     m.Topology,
		ZInitial:     m.ZInitial,
		ZTarget:      m.ZTarget,
		GammaInitial: m.GammaInitial,
		GammaTarget:  m.GammaTarget,
		Z0:           m.Z0,
		Frequency:    m.Frequency,
		Q:            m.Q,
		Spacing:      m.Spacing,
	}
	req, err := problem.ToRequest(config.Defaults{})
	if err != nil {
		return matching.Request{}, err
	}
	if err := req.Validate(); err != nil {
		return matching.Request{}, err
	}
	return req, nil
}

type matchResponse struct {
	Name     string           `json:"name,omitempty"`
	Result   *matching.Result `json:"result"`
	Checks   []nodal.Check    `json:"checks,omitempty"`
	SavedID  int64            `json:"savedId,omitempty"`
	Duration string           `json:"duration"`
}

type batchEntry struct {
	Name   string           `json:"name"`
	Result *matching.Result `json:"result"`
	Checks []nodal.Check    `json:"checks,omitempty"`
}

type batchResponse struct {
	Problems []string     `json:"problems"`
	Entries  []batchEntry `json:"entries"`
	CSV      string       `json:"csv"`
	Warnings []string     `json:"warnings,omitempty"`
	Duration string       `json:"duration"`
}

type topologyInfo struct {
	Topology     matching.Topology `json:"topology"`
	Description  string            `json:"description"`
	TakesQ       bool              `json:"takesQ"`
	TakesSpacing bool              `json:"takesSpacing"`
}

func (h *handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	var payload matchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), "server.handleMatch")
		return
	}

	req, err := payload.toRequest()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleMatch")
		return
	}

	res, err := matching.Solve(h.logger, req)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleMatch")
		return
	}

	var checks []nodal.Check
	if payload.Verify {
		checks, err = nodal.VerifyResult(h.logger, res)
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("verification failed: %v", err), "server.handleMatch")
			return
		}
	}

	savedID := h.record(r, payload.Name, req, res, "server.handleMatch")

	elapsed := time.Since(start)
	h.logger.Info("match computed",
		zap.String("op", "server.handleMatch"),
		zap.String("topology", string(res.Topology)),
		zap.Int("solutions", len(res.Solutions)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, matchResponse{
		Name:     payload.Name,
		Result:   res,
		Checks:   checks,
		SavedID:  savedID,
		Duration: elapsed.String(),
	})
}

func (h *handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), "server.handleBatch")
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), "server.handleBatch")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing problem file", "server.handleBatch")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.handleBatch"),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read problem file: %v", err), "server.handleBatch")
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleBatch")
		return
	}

	warnings := cfg.ValidateConfiguration()
	problems, err := cfg.ActiveRequests()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleBatch")
		return
	}
	if len(problems) == 0 {
		h.respondError(w, http.StatusBadRequest, "no active problems in upload", "server.handleBatch")
		return
	}

	verify := coerceBool(r.FormValue("verify"))

	names := make([]string, 0, len(problems))
	outcomes := make([]output.Outcome, 0, len(problems))
	entries := make([]batchEntry, 0, len(problems))
	for _, p := range problems {
		res, err := matching.Solve(h.logger, p.Request)
		if err != nil {
			h.respondError(w, http.StatusInternalServerError,
				fmt.Sprintf("problem %q: %v", p.Name, err), "server.handleBatch")
			return
		}

		var checks []nodal.Check
		if verify {
			checks, err = nodal.VerifyResult(h.logger, res)
			if err != nil {
				h.respondError(w, http.StatusInternalServerError,
					fmt.Sprintf("verification of %q failed: %v", p.Name, err), "server.handleBatch")
				return
			}
		}

		h.record(r, p.Name, p.Request, res, "server.handleBatch")

		names = append(names, p.Name)
		outcomes = append(outcomes, output.Outcome{Name: p.Name, Result: res, Checks: checks})
		entries = append(entries, batchEntry{Name: p.Name, Result: res, Checks: checks})
	}

	elapsed := time.Since(start)
	h.logger.Info("batch computed",
		zap.String("op", "server.handleBatch"),
		zap.Int("problems", len(names)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, batchResponse{
		Problems: names,
		Entries:  entries,
		CSV:      output.CsvString(outcomes),
		Warnings: warnings,
		Duration: elapsed.String(),
	})
}

func (h *handler) handleTopologies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	infos := make([]topologyInfo, 0, len(matching.Topologies()))
	for _, topology := range matching.Topologies() {
		info := topologyInfo{Topology: topology}
		switch topology {
		case matching.TopologyL:
			info.Description = "two-element reactive L section, up to four solutions"
		case matching.TopologyT:
			info.Description = "three-element T network with selectable loaded Q"
			info.TakesQ = true
		case matching.TopologyPi:
			info.Description = "three-element Pi network with selectable loaded Q"
			info.TakesQ = true
		case matching.TopologySingleStub:
			info.Description = "series line plus one shunt stub"
		case matching.TopologyBalancedStub:
			info.Description = "single-stub match with the stub split across both legs"
		case matching.TopologyDoubleStub:
			info.Description = "two shunt stubs separated by a fixed spacing"
			info.TakesSpacing = true
		}
		infos = append(infos, info)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"topologies": infos})
}

func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if h.store == nil {
		h.respondError(w, http.StatusNotFound, "design log not configured", "server.handleHistory")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), "server.handleHistory")
			return
		}
		limit = parsed
	}

	records, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read design log: %v", err), "server.handleHistory")
		return
	}
	if records == nil {
		records = []store.Record{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"designs": records})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// record appends a solve to the design log when one is configured. Logging
// failures are reported but never fail the request.
func (h *handler) record(r *http.Request, name string, req matching.Request, res *matching.Result, op string) int64 {
	if h.store == nil {
		return 0
	}
	rec, err := store.NewRecord(name, req, res)
	if err == nil {
		var id int64
		if id, err = h.store.Save(r.Context(), rec); err == nil {
			return id
		}
	}
	h.logger.Warn("failed to record design",
		zap.String("op", op),
		zap.String("name", name),
		zap.Error(err),
	)
	return 0
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("matching request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false
		}
		if parsed, err := strconv.ParseBool(trimmed); err == nil {
			return parsed
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case json.Number:
		if parsed, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return parsed != 0
		}
	}
	return false
}
