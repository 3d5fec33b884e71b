//go:build !integration

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/config"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/adapter"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/api"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/db/memory"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/health"
	"github.com/fetosat/daleelbalady-sub010/internal/usecase"
)

const testSecret = "test-hmac-secret-please-change"

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type stubLimiter struct {
	allow bool
	err   error
	calls int
}

func (s *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	s.calls++
	return s.allow, s.err
}

type stubHealth struct{ report *health.Report }

func (s stubHealth) Report(context.Context) *health.Report { return s.report }

type fixture struct {
	handler http.Handler
	auth    *api.Authenticator
	ledger  *memory.Ledger
	plan    *model.DiscountPlan
}

func newFixture(t *testing.T, opts api.Options) *fixture {
	t.Helper()
	logger := newTestLogger()
	clock := adapter.ClockFunc(func() time.Time { return testNow })

	plans := memory.NewPlanRegistry()
	plan := &model.DiscountPlan{
		ID:                 "plan-1",
		OwnerID:            "owner-1",
		OwnerName:          "Mona Adel",
		PinCode:            "246813",
		DiscountPercentage: 15,
		PlanType:           model.PlanTypeAllCategories,
		MaxUsagesPerMonth:  2,
		ExpiresAt:          testNow.AddDate(0, 1, 0),
		IsActive:           true,
	}
	plans.Save(plan)
	ledger := memory.NewLedger()

	verifier := usecase.NewPinVerifier(plans, clock, logger)
	uc := usecase.NewRedemptionUseCase(verifier, ledger, memory.NewTxManager(), nil, clock,
		usecase.RedemptionOptions{Currency: "EGP", RecordFailures: true}, logger)

	auth := api.NewAuthenticator(testSecret, "daleelbalady")
	srv := api.NewServer(config.HTTPConfig{RequestTimeout: 5 * time.Second}, uc, auth, opts, logger)
	return &fixture{handler: srv.Routes(), auth: auth, ledger: ledger, plan: plan}
}

func (f *fixture) token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := f.auth.Mint(subject, role, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return tok
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			buf, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			rdr = bytes.NewReader(buf)
		}
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestVerify(t *testing.T) {
	f := newFixture(t, api.Options{})
	provider := f.token(t, "provider-1", api.RoleProvider)

	t.Run("successful redemption", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", provider, map[string]any{
			"pin":            "2468-13",
			"originalAmount": 500,
			"metadata":       map[string]string{"offerId": "offer-9", "receiptNumber": "R-1"},
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		body := decodeBody(t, rr)
		v, ok := body["verification"].(map[string]any)
		if body["success"] != true || !ok {
			t.Fatalf("unexpected body %v", body)
		}
		if v["discountAmount"].(float64) != 75 || v["finalAmount"].(float64) != 425 {
			t.Errorf("unexpected amounts %v", v)
		}
		if v["code"] != "246813" || v["verificationCode"] == "" {
			t.Errorf("unexpected codes %v", v)
		}
		if f.ledger.Len() != 1 {
			t.Errorf("expected one ledger entry, got %d", f.ledger.Len())
		}
	})

	t.Run("unknown pin is 404", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", provider, map[string]any{"pin": "999999", "originalAmount": 10})
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
		if decodeBody(t, rr)["error"] != "NOT_FOUND" {
			t.Errorf("unexpected body %s", rr.Body.String())
		}
	})

	t.Run("non-positive amount is 422", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", provider, map[string]any{"pin": "246813", "originalAmount": -10})
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rr.Code)
		}
	})

	t.Run("amount beyond the ledger range is 422", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", provider, map[string]any{"pin": "246813", "originalAmount": 1e15})
		if rr.Code != http.StatusUnprocessableEntity || decodeBody(t, rr)["error"] != "InvalidAmount" {
			t.Fatalf("expected 422 InvalidAmount, got %d %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("oversized metadata is 400 with violations", func(t *testing.T) {
		long := string(bytes.Repeat([]byte("x"), 300))
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", provider, map[string]any{
			"pin": "246813", "originalAmount": 10, "metadata": map[string]string{"customerName": long},
		})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if _, ok := decodeBody(t, rr)["violations"]; !ok {
			t.Errorf("expected violations in %s", rr.Body.String())
		}
	})

	t.Run("malformed json is 400", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", provider, "{not json")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("cap exceeded is 409 with usage", func(t *testing.T) {
		_ = f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", provider, map[string]any{"pin": "246813", "originalAmount": 100})
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", provider, map[string]any{"pin": "246813", "originalAmount": 100})
		if rr.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
		}
		usage, ok := decodeBody(t, rr)["usage"].(map[string]any)
		if !ok || usage["used"].(float64) != 2 || usage["remaining"].(float64) != 0 {
			t.Errorf("unexpected usage %s", rr.Body.String())
		}
	})
}

func TestAuthAndRoles(t *testing.T) {
	f := newFixture(t, api.Options{})
	body := map[string]any{"pin": "246813", "originalAmount": 100}

	t.Run("missing token is 401", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", "", body)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("token signed with another secret is 401", func(t *testing.T) {
		other := api.NewAuthenticator("some-other-secret", "daleelbalady")
		tok, _ := other.Mint("provider-1", api.RoleProvider, time.Hour)
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", tok, body)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("expired token is 401", func(t *testing.T) {
		tok, _ := f.auth.Mint("provider-1", api.RoleProvider, -time.Minute)
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", tok, body)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("wrong issuer is 401", func(t *testing.T) {
		other := api.NewAuthenticator(testSecret, "someone-else")
		tok, _ := other.Mint("provider-1", api.RoleProvider, time.Hour)
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", tok, body)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("customers cannot verify", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", f.token(t, "owner-1", api.RoleCustomer), body)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
		if f.ledger.Len() != 0 {
			t.Error("forbidden request must not touch the ledger")
		}
	})

	t.Run("customers cannot read provider history", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/v1/pin-verification/provider-history", f.token(t, "owner-1", api.RoleCustomer), nil)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
	})

	t.Run("admins can verify", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", f.token(t, "admin-1", "admin"), body)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}

func TestValidate(t *testing.T) {
	f := newFixture(t, api.Options{})
	provider := f.token(t, "provider-1", api.RoleProvider)

	rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/validate", provider, map[string]string{"pin": "246813"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["success"] != true || body["discountPercent"].(float64) != 15 {
		t.Errorf("unexpected body %v", body)
	}
	if f.ledger.Len() != 0 {
		t.Error("validate must not write to the ledger")
	}

	rr = f.do(t, http.MethodPost, "/api/v1/pin-verification/validate", provider, map[string]string{"pin": ""})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty pin, got %d", rr.Code)
	}

	rr = f.do(t, http.MethodPost, "/api/v1/pin-verification/validate", provider, map[string]string{"pin": "111111"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown pin, got %d", rr.Code)
	}
}

func TestLookupHistoryAndStats(t *testing.T) {
	f := newFixture(t, api.Options{})
	provider := f.token(t, "provider-1", api.RoleProvider)
	owner := f.token(t, "owner-1", api.RoleCustomer)

	rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", provider, map[string]any{
		"pin": "246813", "originalAmount": "200.00", "metadata": map[string]string{"offerId": "offer-1"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", rr.Code, rr.Body.String())
	}
	code := decodeBody(t, rr)["verification"].(map[string]any)["verificationCode"].(string)

	t.Run("lookup by verification code", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/v1/pin-verification/verification/"+code, owner, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		body := decodeBody(t, rr)
		if body["pinUsed"] != "****13" || body["discountAmount"].(float64) != 30 {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("unknown verification code is 404", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/v1/pin-verification/verification/AAAA-BBBB-CCCC", owner, nil)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("owner history", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/v1/pin-verification/history?limit=5", owner, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		body := decodeBody(t, rr)
		if body["count"].(float64) != 1 {
			t.Fatalf("unexpected body %s", rr.Body.String())
		}
		entry := body["data"].([]any)[0].(map[string]any)
		if _, ok := entry["verifiedBy"]; ok {
			t.Errorf("owner history must not expose verifiedBy: %v", entry)
		}
		if entry["pinUsed"] != "****13" {
			t.Errorf("expected masked pin, got %v", entry["pinUsed"])
		}
	})

	t.Run("another caller sees an empty history", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/v1/pin-verification/history", f.token(t, "owner-2", api.RoleCustomer), nil)
		if decodeBody(t, rr)["count"].(float64) != 0 {
			t.Errorf("unexpected body %s", rr.Body.String())
		}
	})

	t.Run("provider history", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/v1/pin-verification/provider-history", provider, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("unexpected response %d %s", rr.Code, rr.Body.String())
		}
		body := decodeBody(t, rr)
		if body["count"].(float64) != 1 {
			t.Fatalf("unexpected body %s", rr.Body.String())
		}
		if entry := body["data"].([]any)[0].(map[string]any); entry["verifiedBy"] != "provider-1" {
			t.Errorf("expected verifiedBy in provider history, got %v", entry)
		}
	})

	t.Run("owner stats", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/v1/pin-verification/stats", owner, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		body := decodeBody(t, rr)
		if body["thisMonthUsages"].(float64) != 1 || body["totalSavingsThisMonth"].(float64) != 30 {
			t.Errorf("unexpected stats %v", body)
		}
	})
}

func TestRateLimit(t *testing.T) {
	body := map[string]any{"pin": "246813", "originalAmount": 100}

	t.Run("denied attempts get 429", func(t *testing.T) {
		lim := &stubLimiter{allow: false}
		f := newFixture(t, api.Options{Limiter: lim, LimitWindow: time.Minute})
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", f.token(t, "provider-1", api.RoleProvider), body)
		if rr.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rr.Code)
		}
		if rr.Header().Get("Retry-After") != "60" {
			t.Errorf("expected Retry-After 60, got %q", rr.Header().Get("Retry-After"))
		}
		if f.ledger.Len() != 0 {
			t.Error("throttled request must not reach the ledger")
		}
	})

	t.Run("limiter errors fail open", func(t *testing.T) {
		lim := &stubLimiter{err: errors.New("redis down")}
		f := newFixture(t, api.Options{Limiter: lim})
		rr := f.do(t, http.MethodPost, "/api/v1/pin-verification/verify", f.token(t, "provider-1", api.RoleProvider), body)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("read routes are not throttled", func(t *testing.T) {
		lim := &stubLimiter{allow: false}
		f := newFixture(t, api.Options{Limiter: lim})
		rr := f.do(t, http.MethodGet, "/api/v1/pin-verification/history", f.token(t, "owner-1", api.RoleCustomer), nil)
		if rr.Code != http.StatusOK || lim.calls != 0 {
			t.Fatalf("expected untouched 200, got %d with %d limiter calls", rr.Code, lim.calls)
		}
	})
}

func TestHealthAndMetrics(t *testing.T) {
	t.Run("unhealthy report is 503", func(t *testing.T) {
		f := newFixture(t, api.Options{Health: stubHealth{report: &health.Report{Status: health.StatusUnhealthy}}})
		rr := f.do(t, http.MethodGet, "/health", "", nil)
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
	})

	t.Run("warning report is 200", func(t *testing.T) {
		f := newFixture(t, api.Options{Health: stubHealth{report: &health.Report{Status: health.StatusWarning}}})
		rr := f.do(t, http.MethodGet, "/health", "", nil)
		if rr.Code != http.StatusOK || decodeBody(t, rr)["status"] != "warning" {
			t.Fatalf("unexpected response %d %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("metrics endpoint is public", func(t *testing.T) {
		f := newFixture(t, api.Options{})
		rr := f.do(t, http.MethodGet, "/metrics", "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("trace id is echoed", func(t *testing.T) {
		f := newFixture(t, api.Options{})
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Trace-Id", "trace-123")
		rr := httptest.NewRecorder()
		f.handler.ServeHTTP(rr, req)
		if rr.Header().Get("X-Trace-Id") != "trace-123" {
			t.Errorf("expected trace id to be echoed, got %q", rr.Header().Get("X-Trace-Id"))
		}
	})
}
