package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/koustreak/schemadiff/internal/compare"
	"github.com/koustreak/schemadiff/internal/errs"
	"github.com/koustreak/schemadiff/internal/logger"
	"github.com/koustreak/schemadiff/internal/report"
)

// CompareRequest is the body of POST /v1/compare. Empty fields fall back to
// the server defaults.
type CompareRequest struct {
	OneAlias         string   `json:"one_alias"`
	TwoAlias         string   `json:"two_alias"`
	Ignores          []string `json:"ignores"`
	IgnoreInspectors []string `json:"ignore_inspectors"`
	ErrorsOnly       bool     `json:"errors_only"`
}

type inspectorInfo struct {
	Key     string `json:"key"`
	DBLevel bool   `json:"db_level"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) inspectors(w http.ResponseWriter, _ *http.Request) {
	all := s.cmp.Registry().All()
	out := make([]inspectorInfo, 0, len(all))
	for _, in := range all {
		out = append(out, inspectorInfo{Key: in.Key(), DBLevel: in.DBLevel()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"inspectors": out})
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, r, errs.Wrap(errs.ErrKindInvalidInput, "malformed request body", err))
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.cmp.Compare(ctx, s.options(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	body := map[string]any{
		"run_id":   res.RunID,
		"is_match": res.IsMatch(),
	}
	if req.ErrorsOnly {
		body["errors"] = res.Errors()
	} else {
		body["result"] = res.Result()
	}

	data, err := report.Encode(body, report.FormatJSON)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) options(req CompareRequest) compare.Options {
	opts := s.defaults
	if req.OneAlias != "" {
		opts.OneAlias = req.OneAlias
	}
	if req.TwoAlias != "" {
		opts.TwoAlias = req.TwoAlias
	}
	if req.Ignores != nil {
		opts.Ignores = req.Ignores
	}
	if req.IgnoreInspectors != nil {
		opts.IgnoreInspectors = req.IgnoreInspectors
	}
	return opts
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).ErrorWith("compare failed", err, nil)
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  errs.KindOf(err).String(),
	})
}

func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindInvalidInput, errs.ErrKindUnknownInspector:
		return http.StatusBadRequest
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
