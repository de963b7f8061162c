package services

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"mathduel-backend/internal/models"
	"mathduel-backend/internal/questions"
)

// FinalizeQueue is the Redis list the service pushes challenge ids onto
// after every progress write. A worker pops ids and re-runs the
// convergence check, so the check runs at least once per mutation even
// if the synchronous path is interrupted.
const FinalizeQueue = "queue:duel-finalize"

// ChallengeStore is the durable keyed store behind the engine. The two
// mutating methods are conditional writes: they report false instead of
// an error when the precondition no longer holds.
type ChallengeStore interface {
	Create(ctx context.Context, c *models.Challenge) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*models.Challenge, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ChallengeStatus, winnerID *string) (bool, error)
	AdvanceProgress(ctx context.Context, id uuid.UUID, challengerSide bool, expectedIndex, newScore, newIndex int) (bool, error)
}

type ChallengeService struct {
	store            ChallengeStore
	generator        *questions.Generator
	queue            *redis.Client
	questionsPerDuel int
}

func NewChallengeService(store ChallengeStore, generator *questions.Generator, queue *redis.Client, questionsPerDuel int) *ChallengeService {
	return &ChallengeService{
		store:            store,
		generator:        generator,
		queue:            queue,
		questionsPerDuel: questionsPerDuel,
	}
}

// CreateChallenge opens a new duel in pending state. When the caller
// supplies no question set, a fresh arithmetic set is generated; both
// participants play the identical sequence.
func (s *ChallengeService) CreateChallenge(ctx context.Context, challengerID, opponentID uuid.UUID, qs []models.Question) (*models.Challenge, error) {
	if opponentID == uuid.Nil {
		return nil, &ValidationError{Fields: map[string]string{"opponent_id": "Opponent is required"}}
	}
	if opponentID == challengerID {
		return nil, &ValidationError{Fields: map[string]string{"opponent_id": "Cannot challenge yourself"}}
	}

	if len(qs) == 0 {
		qs = s.generator.Generate(s.questionsPerDuel)
	}

	c := &models.Challenge{
		ChallengerID: challengerID,
		OpponentID:   opponentID,
		Questions:    qs,
		Status:       models.ChallengePending,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RespondToChallenge applies pending→active or pending→declined. Only the
// invited opponent may respond.
func (s *ChallengeService) RespondToChallenge(ctx context.Context, id, callerID uuid.UUID, accept bool) (*models.Challenge, error) {
	c, err := s.getChallenge(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerID != c.ChallengerID && callerID != c.OpponentID {
		return nil, &ForbiddenError{Message: "Not a participant in this challenge"}
	}
	if callerID != c.OpponentID {
		return nil, &ForbiddenError{Message: "Only the invited opponent can respond"}
	}
	if c.Status != models.ChallengePending {
		return nil, &ConflictError{Message: "Challenge is no longer pending"}
	}

	to := models.ChallengeDeclined
	if accept {
		to = models.ChallengeActive
	}

	applied, err := s.store.UpdateStatus(ctx, id, models.ChallengePending, to, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, &ConflictError{Message: "Challenge is no longer pending"}
	}

	return s.getChallenge(ctx, id)
}

// SubmitAnswer advances the calling participant's slice of the duel by
// one question. Correct answers add the fixed per-question reward; wrong
// answers still consume the question. Submitting past the end of the set
// is an idempotent no-op so retried requests cannot double-count. The
// write is a compare-and-swap on the caller's current question index, so
// two racing submissions from the same participant apply at most once.
func (s *ChallengeService) SubmitAnswer(ctx context.Context, id, callerID uuid.UUID, answer int) (*models.Challenge, error) {
	c, err := s.getChallenge(ctx, id)
	if err != nil {
		return nil, err
	}

	progress, ok := c.ProgressFor(callerID)
	if !ok {
		return nil, &ForbiddenError{Message: "Not a participant in this challenge"}
	}
	if c.Status != models.ChallengeActive {
		return nil, &InvalidStateError{Message: "Challenge is not active"}
	}

	idx := progress.QuestionIndex
	if idx >= len(c.Questions) {
		// Already finished; duplicate or retried submission.
		return c, nil
	}

	newScore := progress.Score
	if answer == c.Questions[idx].Answer {
		newScore += models.PointsPerQuestion
	}

	applied, err := s.store.AdvanceProgress(ctx, id, callerID == c.ChallengerID, idx, newScore, idx+1)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, &ConflictError{Message: "Progress was updated concurrently, re-fetch and retry"}
	}

	s.enqueueFinalizeCheck(ctx, id)

	// Synchronous convergence check; returns the freshest record either way.
	return s.Finalize(ctx, id)
}

// Finalize is the convergence detector. It commits completed exactly once:
// the terminal write is conditioned on the status still being active, and
// a rejected write means a concurrent invocation already committed the
// identical outcome, which is absorbed rather than surfaced.
func (s *ChallengeService) Finalize(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	c, err := s.getChallenge(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Status != models.ChallengeActive {
		return c, nil
	}
	total := len(c.Questions)
	if c.ChallengerProgress.QuestionIndex < total || c.OpponentProgress.QuestionIndex < total {
		return c, nil
	}

	winner := models.WinnerDraw
	switch {
	case c.ChallengerProgress.Score > c.OpponentProgress.Score:
		winner = c.ChallengerID.String()
	case c.OpponentProgress.Score > c.ChallengerProgress.Score:
		winner = c.OpponentID.String()
	}

	applied, err := s.store.UpdateStatus(ctx, id, models.ChallengeActive, models.ChallengeCompleted, &winner)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the finalize race. Both finalizers computed from the same
		// convergent snapshot, so the committed outcome is identical.
		log.Printf("Challenge %s already finalized by a concurrent check", id)
	}

	return s.getChallenge(ctx, id)
}

// GetChallenge is the idempotent read the client-side poller depends on.
// Only participants may read a challenge.
func (s *ChallengeService) GetChallenge(ctx context.Context, id, callerID uuid.UUID) (*models.Challenge, error) {
	c, err := s.getChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerID != c.ChallengerID && callerID != c.OpponentID {
		return nil, &ForbiddenError{Message: "Not a participant in this challenge"}
	}
	return c, nil
}

// ListChallenges returns every duel the participant is part of, newest
// first, for pending/sent/active/completed views.
func (s *ChallengeService) ListChallenges(ctx context.Context, participantID uuid.UUID) ([]*models.Challenge, error) {
	return s.store.ListByParticipant(ctx, participantID)
}

func (s *ChallengeService) getChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	c, err := s.store.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Message: "Challenge not found"}
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChallengeService) enqueueFinalizeCheck(ctx context.Context, id uuid.UUID) {
	if s.queue == nil {
		return
	}
	if err := s.queue.LPush(ctx, FinalizeQueue, id.String()).Err(); err != nil {
		// The synchronous check still runs; the queue is the backstop.
		log.Printf("Failed to enqueue finalize check for %s: %v", id, err)
	}
}
