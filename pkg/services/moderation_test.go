package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/apperrors"
	"github.com/civicledger/civicledger-engine/pkg/auth"
	"github.com/civicledger/civicledger-engine/pkg/models"
)

func newTestModerationService(actions *mockActionRepository) ModerationService {
	return NewModerationService(nil, actions, nil, zap.NewNop())
}

func TestModerationService_ListPending_ForbiddenForContributor(t *testing.T) {
	service := newTestModerationService(&mockActionRepository{})

	ctx := ctxWithRole(uuid.New(), auth.RoleContributor)
	_, err := service.ListPending(ctx, 50)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestModerationService_ListPending_AllowsResearcher(t *testing.T) {
	actions := &mockActionRepository{actions: []*models.ScoringAction{
		{ID: uuid.New(), Status: models.StatusPending},
	}}
	service := newTestModerationService(actions)

	ctx := ctxWithRole(uuid.New(), auth.RoleResearcher)
	pending, err := service.ListPending(ctx, 50)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected 1 pending action, got %d", len(pending))
	}
}

func TestModerationService_Verify_ForbiddenForContributor(t *testing.T) {
	service := newTestModerationService(&mockActionRepository{})

	ctx := ctxWithRole(uuid.New(), auth.RoleContributor)
	_, err := service.Verify(ctx, uuid.New())
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestModerationService_Reject_Success(t *testing.T) {
	actionID := uuid.New()
	verifierID := uuid.New()
	actions := &mockActionRepository{action: &models.ScoringAction{
		ID:              actionID,
		Status:          models.StatusRejected,
		RejectionReason: "duplicate submission",
	}}
	service := newTestModerationService(actions)

	ctx := ctxWithRole(verifierID, auth.RoleAdmin)
	rejected, err := service.Reject(ctx, actionID, "  duplicate submission  ")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	if actions.capturedStatus != models.StatusRejected {
		t.Errorf("expected transition to rejected, got %s", actions.capturedStatus)
	}
	if actions.capturedVerifier != verifierID {
		t.Errorf("expected verifier %v, got %v", verifierID, actions.capturedVerifier)
	}
	if actions.capturedReason != "duplicate submission" {
		t.Errorf("expected trimmed reason, got %q", actions.capturedReason)
	}
	if rejected.Status != models.StatusRejected {
		t.Errorf("expected rejected action back, got %s", rejected.Status)
	}
}

func TestModerationService_Reject_AlreadyDecided(t *testing.T) {
	actions := &mockActionRepository{transitionErr: apperrors.ErrInvalidTransition}
	service := newTestModerationService(actions)

	ctx := ctxWithRole(uuid.New(), auth.RoleAdmin)
	_, err := service.Reject(ctx, uuid.New(), "")
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestModerationService_Reject_EmptyReasonAllowed(t *testing.T) {
	actions := &mockActionRepository{action: &models.ScoringAction{ID: uuid.New(), Status: models.StatusRejected}}
	service := newTestModerationService(actions)

	ctx := ctxWithRole(uuid.New(), auth.RoleResearcher)
	if _, err := service.Reject(ctx, uuid.New(), ""); err != nil {
		t.Fatalf("Reject without reason failed: %v", err)
	}
	if actions.capturedReason != "" {
		t.Errorf("expected empty reason, got %q", actions.capturedReason)
	}
}

func TestModerationService_Verify_Unauthenticated(t *testing.T) {
	service := newTestModerationService(&mockActionRepository{})

	_, err := service.Verify(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error for unauthenticated verify")
	}
}
