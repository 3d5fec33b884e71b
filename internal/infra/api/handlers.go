package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fetosat/daleelbalady-sub010/internal/domain"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/logging"
	"github.com/fetosat/daleelbalady-sub010/internal/usecase"
)

type validateRequest struct {
	Pin string `json:"pin"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var in usecase.RedeemInput
	if !s.decode(w, r, &in) {
		return
	}
	id, _ := IdentityFrom(r.Context())
	in.ProviderID = id.Subject

	res, err := s.uc.Redeem(r.Context(), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if !res.Success {
		writeJSON(w, failureStatus(res.Error), errorResponse{Error: string(res.Error), Usage: res.Usage})
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Success: true, Verification: toVerificationDTO(res.Verification)})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Pin) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:      "invalid request",
			Violations: []usecase.Violation{{Field: "pin", Rule: "required"}},
		})
		return
	}

	res, err := s.uc.Validate(r.Context(), req.Pin)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if !res.Valid {
		writeJSON(w, failureStatus(res.Error), validateResponse{ValidateResult: res})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Success: true, ValidateResult: res})
}

func (s *Server) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	rec, err := s.uc.GetByVerificationCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRedemptionDTO(rec))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	ctx := logging.WithPlanOwnerID(r.Context(), id.Subject)
	recs, err := s.uc.OwnerHistory(ctx, id.Subject, queryLimit(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistory(recs))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	stats, err := s.uc.OwnerStats(r.Context(), id.Subject)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

func (s *Server) handleProviderHistory(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	recs, err := s.uc.ProviderHistory(r.Context(), id.Subject, queryLimit(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistory(recs))
}

// decode reads a JSON body into dst and answers 400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// queryLimit returns the ?limit= value, or 0 to let the use case pick its default.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *usecase.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Violations: ve.Violations})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "NOT_FOUND"})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
	default:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
