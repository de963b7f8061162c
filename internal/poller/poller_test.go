package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"mathduel-backend/internal/models"
)

func duelRecord(challenger, opponent uuid.UUID) *models.Challenge {
	return &models.Challenge{
		ID:           uuid.New(),
		ChallengerID: challenger,
		OpponentID:   opponent,
		Status:       models.ChallengeActive,
		Questions:    make([]models.Question, 5),
	}
}

func TestReconcileKeepsLocalLead(t *testing.T) {
	challenger := uuid.New()
	opponent := uuid.New()

	p := New(opponent, time.Second, clockwork.NewFakeClock(), nil, nil)

	// The client already applied two answers locally; the fetch lags.
	p.ApplyLocal(models.Progress{Score: 20, QuestionIndex: 2})

	fetched := duelRecord(challenger, opponent)
	fetched.OpponentProgress = models.Progress{Score: 10, QuestionIndex: 1}
	fetched.ChallengerProgress = models.Progress{Score: 30, QuestionIndex: 3}

	view := p.reconcile(fetched)

	if view.OpponentProgress != (models.Progress{Score: 20, QuestionIndex: 2}) {
		t.Errorf("own progress regressed: %+v", view.OpponentProgress)
	}
	// The opponent's side (here: the challenger) is always taken verbatim.
	if view.ChallengerProgress != (models.Progress{Score: 30, QuestionIndex: 3}) {
		t.Errorf("other side not taken from fetch: %+v", view.ChallengerProgress)
	}
}

func TestReconcileAdoptsFetchedLead(t *testing.T) {
	challenger := uuid.New()
	opponent := uuid.New()

	p := New(challenger, time.Second, clockwork.NewFakeClock(), nil, nil)
	p.ApplyLocal(models.Progress{Score: 10, QuestionIndex: 1})

	fetched := duelRecord(challenger, opponent)
	fetched.ChallengerProgress = models.Progress{Score: 30, QuestionIndex: 3}

	view := p.reconcile(fetched)
	if view.ChallengerProgress != (models.Progress{Score: 30, QuestionIndex: 3}) {
		t.Errorf("expected fetched lead to win, got %+v", view.ChallengerProgress)
	}
}

func TestRunStopsOnTerminal(t *testing.T) {
	challenger := uuid.New()
	opponent := uuid.New()
	clock := clockwork.NewFakeClock()

	winner := challenger.String()
	completed := duelRecord(challenger, opponent)
	completed.Status = models.ChallengeCompleted
	completed.WinnerID = &winner

	fetches := 0
	updates := make(chan *models.Challenge, 1)
	p := New(challenger, time.Second, clock, func(ctx context.Context) (*models.Challenge, error) {
		fetches++
		return completed, nil
	}, func(c *models.Challenge) {
		updates <- c
	})

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	clock.BlockUntil(1)
	clock.Advance(time.Second)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on terminal status")
	}

	view := <-updates
	if view.Status != models.ChallengeCompleted {
		t.Errorf("expected completed view, got %q", view.Status)
	}
	if fetches != 1 {
		t.Errorf("expected a single fetch, got %d", fetches)
	}
}

func TestRunRetriesAfterFailedFetch(t *testing.T) {
	challenger := uuid.New()
	opponent := uuid.New()
	clock := clockwork.NewFakeClock()

	completed := duelRecord(challenger, opponent)
	completed.Status = models.ChallengeDeclined

	fetched := make(chan struct{}, 4)
	calls := 0
	p := New(challenger, time.Second, clock, func(ctx context.Context) (*models.Challenge, error) {
		calls++
		defer func() { fetched <- struct{}{} }()
		if calls == 1 {
			return nil, errors.New("transient network failure")
		}
		return completed, nil
	}, nil)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	<-fetched

	// The failed tick must not kill the loop; the next tick retries.
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	<-fetched

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after successful retry")
	}

	if calls != 2 {
		t.Errorf("expected 2 fetch attempts, got %d", calls)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(uuid.New(), time.Second, clock, func(ctx context.Context) (*models.Challenge, error) {
		return nil, errors.New("never reached")
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	clock.BlockUntil(1)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancellation")
	}
}

func TestSnapshotBeforeFirstFetch(t *testing.T) {
	p := New(uuid.New(), time.Second, clockwork.NewFakeClock(), nil, nil)
	if p.Snapshot() != nil {
		t.Fatal("expected nil snapshot before first fetch")
	}
}
