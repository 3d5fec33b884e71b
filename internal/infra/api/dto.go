package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/usecase"
)

type errorResponse struct {
	Success    bool                `json:"success"`
	Error      string              `json:"error"`
	Violations []usecase.Violation `json:"violations,omitempty"`
	Usage      *model.Usage        `json:"usage,omitempty"`
}

type verificationDTO struct {
	Code             string          `json:"code"`
	VerificationCode string          `json:"verificationCode"`
	RedemptionID     string          `json:"redemptionId"`
	OriginalAmount   float64         `json:"originalAmount"`
	DiscountAmount   float64         `json:"discountAmount"`
	DiscountPercent  int             `json:"discountPercent"`
	FinalAmount      float64         `json:"finalAmount"`
	Currency         string          `json:"currency"`
	PlanOwner        model.PlanOwner `json:"planOwner"`
	VerifiedAt       time.Time       `json:"verifiedAt"`
	Usage            model.Usage     `json:"usage"`
}

type verifyResponse struct {
	Success      bool             `json:"success"`
	Verification *verificationDTO `json:"verification"`
}

func toVerificationDTO(v *usecase.Verification) *verificationDTO {
	return &verificationDTO{
		Code:             v.Code,
		VerificationCode: v.VerificationCode,
		RedemptionID:     v.RedemptionID,
		OriginalAmount:   v.OriginalAmount.InexactFloat64(),
		DiscountAmount:   v.DiscountAmount.InexactFloat64(),
		DiscountPercent:  v.DiscountPercent,
		FinalAmount:      v.FinalAmount.InexactFloat64(),
		Currency:         v.Currency,
		PlanOwner:        v.PlanOwner,
		VerifiedAt:       v.VerifiedAt,
		Usage:            v.Usage,
	}
}

type validateResponse struct {
	Success bool `json:"success"`
	*usecase.ValidateResult
}

type redemptionDTO struct {
	ID               string                   `json:"id"`
	VerificationCode string                   `json:"verificationCode"`
	PlanID           string                   `json:"planId"`
	PlanOwnerID      string                   `json:"planOwnerId"`
	PinUsed          string                   `json:"pinUsed"`
	VerifiedBy       string                   `json:"verifiedBy,omitempty"`
	OriginalAmount   float64                  `json:"originalAmount"`
	DiscountAmount   float64                  `json:"discountAmount"`
	FinalAmount      float64                  `json:"finalAmount"`
	DiscountPercent  int                      `json:"discountPercent"`
	Currency         string                   `json:"currency"`
	MonthYear        string                   `json:"monthYear"`
	Status           model.RedemptionStatus   `json:"status"`
	FailureReason    model.FailureCode        `json:"failureReason,omitempty"`
	Metadata         model.RedemptionMetadata `json:"metadata"`
	VerifiedAt       time.Time                `json:"verifiedAt"`
}

func toRedemptionDTO(r *model.Redemption) redemptionDTO {
	return redemptionDTO{
		ID:               r.ID,
		VerificationCode: r.VerificationCode,
		PlanID:           r.PlanID,
		PlanOwnerID:      r.PlanOwnerID,
		PinUsed:          r.PinUsed,
		VerifiedBy:       r.VerifiedBy,
		OriginalAmount:   r.OriginalAmount.InexactFloat64(),
		DiscountAmount:   r.DiscountAmount.InexactFloat64(),
		FinalAmount:      r.FinalAmount.InexactFloat64(),
		DiscountPercent:  r.DiscountPercent,
		Currency:         r.Currency,
		MonthYear:        r.MonthYear,
		Status:           r.Status,
		FailureReason:    r.FailureReason,
		Metadata:         r.Metadata,
		VerifiedAt:       r.VerifiedAt,
	}
}

type historyResponse struct {
	Data  []redemptionDTO `json:"data"`
	Count int             `json:"count"`
}

func toHistory(recs []*model.Redemption) historyResponse {
	out := historyResponse{Data: make([]redemptionDTO, 0, len(recs)), Count: len(recs)}
	for _, r := range recs {
		out.Data = append(out.Data, toRedemptionDTO(r))
	}
	return out
}

type statsDTO struct {
	TotalUsages           int                `json:"totalUsages"`
	ThisMonthUsages       int                `json:"thisMonthUsages"`
	TotalSavingsThisMonth float64            `json:"totalSavingsThisMonth"`
	AverageDiscount       float64            `json:"averageDiscount"`
	TopOffers             []model.OfferCount `json:"topOffers"`
	LastUsed              *time.Time         `json:"lastUsed"`
}

func toStatsDTO(s *model.UsageStats) statsDTO {
	return statsDTO{
		TotalUsages:           s.TotalUsages,
		ThisMonthUsages:       s.ThisMonthUsages,
		TotalSavingsThisMonth: s.TotalSavingsThisMonth.InexactFloat64(),
		AverageDiscount:       s.AverageDiscount.InexactFloat64(),
		TopOffers:             s.TopOffers,
		LastUsed:              s.LastUsed,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// failureStatus maps a redemption failure code to its HTTP status.
func failureStatus(code model.FailureCode) int {
	switch code {
	case model.FailureNotFound:
		return http.StatusNotFound
	case model.FailureExpired, model.FailureInactive:
		return http.StatusForbidden
	case model.FailureCapExceeded:
		return http.StatusConflict
	case model.FailureInvalidAmount, model.FailureInvalidPercent:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
