package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/civicledger/civicledger-engine/pkg/apperrors"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/testhelpers"
)

func seedPolitician(t *testing.T, repo PoliticianRepository, name string) *models.Politician {
	t.Helper()
	p := &models.Politician{
		Name:     name,
		Party:    "Independent",
		State:    "NM",
		Position: "Senator",
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("failed to seed politician: %v", err)
	}
	return p
}

func seedAction(t *testing.T, repo ActionRepository, politicianID uuid.UUID, category models.Category, points int) *models.ScoringAction {
	t.Helper()
	a := &models.ScoringAction{
		PoliticianID: politicianID,
		Category:     category,
		ActionType:   models.ActionStatement,
		ActionDate:   time.Now().AddDate(0, 0, -7),
		Description:  "Integration test evidence",
		Points:       points,
		SubmittedBy:  uuid.New(),
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("failed to seed action: %v", err)
	}
	return a
}

func TestPoliticianRepository_Lifecycle(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := NewPoliticianRepository(testDB.DB.Pool)
	ctx := context.Background()

	p := seedPolitician(t, repo, "Rivera Integration")

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != p.Name || !got.IsActive {
		t.Errorf("unexpected politician: %+v", got)
	}

	got.Bio = "Updated bio"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := repo.Deactivate(ctx, p.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	visible, err := repo.List(ctx, models.PoliticianFilter{State: "NM"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, v := range visible {
		if v.ID == p.ID {
			t.Error("deactivated politician should not be listed by default")
		}
	}

	hidden, err := repo.List(ctx, models.PoliticianFilter{State: "NM", IncludeHidden: true})
	if err != nil {
		t.Fatalf("List with hidden failed: %v", err)
	}
	found := false
	for _, v := range hidden {
		if v.ID == p.ID {
			found = true
		}
	}
	if !found {
		t.Error("deactivated politician should appear with IncludeHidden")
	}

	// Evidence must survive deactivation.
	if _, err := repo.GetByID(ctx, p.ID); err != nil {
		t.Errorf("deactivated politician should still resolve by ID: %v", err)
	}
}

func TestPoliticianRepository_LockForUpdate(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := NewPoliticianRepository(testDB.DB.Pool)
	ctx := context.Background()

	p := seedPolitician(t, repo, "Lock Integration")

	tx1, err := testDB.DB.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin first transaction: %v", err)
	}
	defer func() { _ = tx1.Rollback(ctx) }()

	if err := repo.WithTx(tx1).LockForUpdate(ctx, p.ID); err != nil {
		t.Fatalf("LockForUpdate failed: %v", err)
	}
	if err := repo.WithTx(tx1).LockForUpdate(ctx, uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown politician, got %v", err)
	}

	tx2, err := testDB.DB.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin second transaction: %v", err)
	}
	defer func() { _ = tx2.Rollback(ctx) }()

	locked := make(chan error, 1)
	go func() { locked <- repo.WithTx(tx2).LockForUpdate(ctx, p.ID) }()

	// The second transaction must wait until the first releases the row.
	select {
	case err := <-locked:
		t.Fatalf("row lock acquired while another transaction held it: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	_ = tx1.Rollback(ctx)

	select {
	case err := <-locked:
		if err != nil {
			t.Fatalf("LockForUpdate after release failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("row lock was not released on rollback")
	}
}

func TestActionRepository_TransitionIsTerminal(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	politicians := NewPoliticianRepository(testDB.DB.Pool)
	actions := NewActionRepository(testDB.DB.Pool)
	ctx := context.Background()

	p := seedPolitician(t, politicians, "Chen Integration")
	a := seedAction(t, actions, p.ID, models.CategoryPublicStatements, 12)

	if a.Status != models.StatusPending {
		t.Fatalf("expected pending after create, got %s", a.Status)
	}

	verifier := uuid.New()
	if err := actions.Transition(ctx, a.ID, models.StatusVerified, verifier, ""); err != nil {
		t.Fatalf("Transition to verified failed: %v", err)
	}

	got, err := actions.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.StatusVerified {
		t.Errorf("expected verified, got %s", got.Status)
	}
	if got.VerifiedBy == nil || *got.VerifiedBy != verifier {
		t.Error("expected verifier of record")
	}
	if got.VerifiedAt == nil {
		t.Error("expected verification timestamp")
	}

	// Terminal: no second decision, in either direction.
	err = actions.Transition(ctx, a.ID, models.StatusRejected, uuid.New(), "changed my mind")
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	err = actions.Transition(ctx, a.ID, models.StatusVerified, uuid.New(), "")
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on re-verify, got %v", err)
	}

	// Unknown action is not-found, not a transition conflict.
	err = actions.Transition(ctx, uuid.New(), models.StatusVerified, uuid.New(), "")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestActionRepository_ListVerifiedExcludesOthers(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	politicians := NewPoliticianRepository(testDB.DB.Pool)
	actions := NewActionRepository(testDB.DB.Pool)
	ctx := context.Background()

	p := seedPolitician(t, politicians, "Okafor Integration")

	verified := seedAction(t, actions, p.ID, models.CategorySocialMedia, 5)
	if err := actions.Transition(ctx, verified.ID, models.StatusVerified, uuid.New(), ""); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	rejected := seedAction(t, actions, p.ID, models.CategorySocialMedia, 5)
	if err := actions.Transition(ctx, rejected.ID, models.StatusRejected, uuid.New(), "weak sourcing"); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	seedAction(t, actions, p.ID, models.CategorySocialMedia, 5) // stays pending

	list, err := actions.ListVerified(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListVerified failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != verified.ID {
		t.Errorf("expected exactly the verified action, got %d entries", len(list))
	}

	rej, err := actions.GetByID(ctx, rejected.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rej.RejectionReason != "weak sourcing" {
		t.Errorf("expected rejection reason stored, got %q", rej.RejectionReason)
	}
}

func TestScoreRepository_SnapshotAndHistory(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	politicians := NewPoliticianRepository(testDB.DB.Pool)
	scores := NewScoreRepository(testDB.DB.Pool)
	ctx := context.Background()

	p := seedPolitician(t, politicians, "Dubois Integration")

	if _, err := scores.GetSnapshot(ctx, p.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first snapshot, got %v", err)
	}

	days := 7
	activity := time.Now().AddDate(0, 0, -7)
	snapshot := &models.ScoreSnapshot{
		PoliticianID:          p.ID,
		TotalScore:            20,
		PublicStatementsScore: 20,
		DaysOfSilence:         &days,
		Status:                models.StatusPersonOfInterest,
		LastActivityDate:      &activity,
		LastCalculated:        time.Now(),
	}
	if err := scores.ReplaceSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("ReplaceSnapshot failed: %v", err)
	}
	if err := scores.AppendHistory(ctx, snapshot); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	// Upsert: a second replace must overwrite, not duplicate.
	snapshot.TotalScore = 45
	snapshot.LegislativeActionScore = 25
	snapshot.Status = models.StatusUnderSurveillance
	snapshot.LastCalculated = time.Now()
	if err := scores.ReplaceSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("second ReplaceSnapshot failed: %v", err)
	}
	if err := scores.AppendHistory(ctx, snapshot); err != nil {
		t.Fatalf("second AppendHistory failed: %v", err)
	}

	got, err := scores.GetSnapshot(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if got.TotalScore != 45 || got.Status != models.StatusUnderSurveillance {
		t.Errorf("expected overwritten snapshot, got %+v", got)
	}
	if got.DaysOfSilence == nil || *got.DaysOfSilence != 7 {
		t.Error("expected days of silence to round-trip")
	}

	history, err := scores.GetHistory(ctx, p.ID, time.Time{})
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].TotalScore != 20 || history[1].TotalScore != 45 {
		t.Errorf("expected history oldest first: %d then %d",
			history[0].TotalScore, history[1].TotalScore)
	}

	recent, err := scores.GetHistory(ctx, p.ID, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("GetHistory with since failed: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("expected both recent entries, got %d", len(recent))
	}
}

func TestEvidenceSourceRepository_OrderedByConfidence(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	politicians := NewPoliticianRepository(testDB.DB.Pool)
	actions := NewActionRepository(testDB.DB.Pool)
	sources := NewEvidenceSourceRepository(testDB.DB.Pool)
	ctx := context.Background()

	p := seedPolitician(t, politicians, "Novak Integration")
	a := seedAction(t, actions, p.ID, models.CategoryPublicEngagement, 8)

	weak := &models.EvidenceSource{
		ActionID:   a.ID,
		URL:        "https://example.org/social",
		SourceType: models.SourceSocialMedia,
		Confidence: 2,
	}
	strong := &models.EvidenceSource{
		ActionID:   a.ID,
		URL:        "https://example.org/record",
		SourceType: models.SourceOfficialRecord,
		Confidence: 5,
	}
	if err := sources.Create(ctx, weak); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := sources.Create(ctx, strong); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := sources.ListByAction(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListByAction failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(list))
	}
	if list[0].Confidence != 5 {
		t.Errorf("expected highest confidence first, got %d", list[0].Confidence)
	}
}
