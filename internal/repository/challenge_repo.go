package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mathduel-backend/internal/models"
)

type ChallengeRepo struct {
	pool *pgxpool.Pool
}

func NewChallengeRepo(pool *pgxpool.Pool) *ChallengeRepo {
	return &ChallengeRepo{pool: pool}
}

func (r *ChallengeRepo) Create(ctx context.Context, c *models.Challenge) error {
	c.ID = uuid.New()
	questionsBytes, _ := json.Marshal(c.Questions)
	if questionsBytes == nil {
		questionsBytes = []byte("[]")
	}

	query := `INSERT INTO challenges
		(id, challenger_id, opponent_id, questions, status,
		 challenger_score, challenger_index, opponent_score, opponent_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.ChallengerID, c.OpponentID, questionsBytes, c.Status,
		c.ChallengerProgress.Score, c.ChallengerProgress.QuestionIndex,
		c.OpponentProgress.Score, c.OpponentProgress.QuestionIndex,
	).Scan(&c.CreatedAt)
}

func (r *ChallengeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	c := &models.Challenge{}
	var questionsBytes []byte

	query := `SELECT id, challenger_id, opponent_id, questions, status,
		challenger_score, challenger_index, opponent_score, opponent_index,
		winner_id, created_at
		FROM challenges WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.ChallengerID, &c.OpponentID, &questionsBytes, &c.Status,
		&c.ChallengerProgress.Score, &c.ChallengerProgress.QuestionIndex,
		&c.OpponentProgress.Score, &c.OpponentProgress.QuestionIndex,
		&c.WinnerID, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questionsBytes, &c.Questions); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ChallengeRepo) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*models.Challenge, error) {
	query := `SELECT id, challenger_id, opponent_id, questions, status,
		challenger_score, challenger_index, opponent_score, opponent_index,
		winner_id, created_at
		FROM challenges
		WHERE challenger_id = $1 OR opponent_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challenges []*models.Challenge
	for rows.Next() {
		c := &models.Challenge{}
		var questionsBytes []byte
		err := rows.Scan(
			&c.ID, &c.ChallengerID, &c.OpponentID, &questionsBytes, &c.Status,
			&c.ChallengerProgress.Score, &c.ChallengerProgress.QuestionIndex,
			&c.OpponentProgress.Score, &c.OpponentProgress.QuestionIndex,
			&c.WinnerID, &c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(questionsBytes, &c.Questions); err != nil {
			return nil, err
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

// UpdateStatus applies a lifecycle transition conditioned on the current
// status still matching from. It reports false when another writer got
// there first, so callers can distinguish a lost race from a hard error.
func (r *ChallengeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ChallengeStatus, winnerID *string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE challenges SET status = $1, winner_id = COALESCE($2, winner_id)
		 WHERE id = $3 AND status = $4`,
		to, winnerID, id, from,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// AdvanceProgress is the per-participant compare-and-swap. The write only
// lands if the stored question index still equals expectedIndex, so a
// retried submission racing its original can never double-advance. Only
// the calling side's columns are touched.
func (r *ChallengeRepo) AdvanceProgress(ctx context.Context, id uuid.UUID, challengerSide bool, expectedIndex, newScore, newIndex int) (bool, error) {
	query := `UPDATE challenges
		SET opponent_score = $1, opponent_index = $2
		WHERE id = $3 AND status = 'active' AND opponent_index = $4`
	if challengerSide {
		query = `UPDATE challenges
		SET challenger_score = $1, challenger_index = $2
		WHERE id = $3 AND status = 'active' AND challenger_index = $4`
	}

	tag, err := r.pool.Exec(ctx, query, newScore, newIndex, id, expectedIndex)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
