package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/apperrors"
	"github.com/civicledger/civicledger-engine/pkg/auth"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/services"
)

func newModerationMux(svc *stubModerationService, mw *auth.Middleware) *http.ServeMux {
	mux := http.NewServeMux()
	NewModerationHandler(svc, zap.NewNop()).RegisterRoutes(mux, mw)
	return mux
}

func TestModerationHandler_Pending_RequiresModerator(t *testing.T) {
	mux := newModerationMux(&stubModerationService{}, authAs(auth.RoleContributor))

	req := httptest.NewRequest("GET", "/api/moderation/pending", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for contributor, got %d", rec.Code)
	}
}

func TestModerationHandler_Pending_Unauthenticated(t *testing.T) {
	mux := newModerationMux(&stubModerationService{}, authAnonymous())

	req := httptest.NewRequest("GET", "/api/moderation/pending", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestModerationHandler_Verify_ReturnsActionAndScore(t *testing.T) {
	actionID := uuid.New()
	svc := &stubModerationService{result: &services.VerifyResult{
		Action:   &models.ScoringAction{ID: actionID, Status: models.StatusVerified},
		Snapshot: &models.ScoreSnapshot{TotalScore: 42, Status: models.StatusUnderSurveillance},
	}}
	mux := newModerationMux(svc, authAs(auth.RoleResearcher))

	req := httptest.NewRequest("POST", "/api/actions/"+actionID.String()+"/verify", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result services.VerifyResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Action == nil || result.Action.Status != models.StatusVerified {
		t.Error("expected verified action in response")
	}
	if result.Snapshot == nil || result.Snapshot.TotalScore != 42 {
		t.Error("expected recomputed score in response")
	}
}

func TestModerationHandler_Verify_AlreadyDecidedMapsTo409(t *testing.T) {
	svc := &stubModerationService{err: apperrors.ErrInvalidTransition}
	mux := newModerationMux(svc, authAs(auth.RoleAdmin))

	req := httptest.NewRequest("POST", "/api/actions/"+uuid.NewString()+"/verify", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestModerationHandler_Reject_PassesReason(t *testing.T) {
	svc := &stubModerationService{action: &models.ScoringAction{Status: models.StatusRejected}}
	mux := newModerationMux(svc, authAs(auth.RoleAdmin))

	body := strings.NewReader(`{"reason":"unverifiable source"}`)
	req := httptest.NewRequest("POST", "/api/actions/"+uuid.NewString()+"/reject", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.capturedReason != "unverifiable source" {
		t.Errorf("expected reason to pass through, got %q", svc.capturedReason)
	}
}

func TestModerationHandler_Reject_EmptyBodyAllowed(t *testing.T) {
	svc := &stubModerationService{action: &models.ScoringAction{Status: models.StatusRejected}}
	mux := newModerationMux(svc, authAs(auth.RoleResearcher))

	req := httptest.NewRequest("POST", "/api/actions/"+uuid.NewString()+"/reject", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for bodyless reject, got %d", rec.Code)
	}
}
