package models

import (
	"time"

	"github.com/google/uuid"
)

type ChallengeStatus string

const (
	ChallengePending   ChallengeStatus = "pending"
	ChallengeActive    ChallengeStatus = "active"
	ChallengeDeclined  ChallengeStatus = "declined"
	ChallengeCompleted ChallengeStatus = "completed"
)

// WinnerDraw is the sentinel winner value for equal final scores.
const WinnerDraw = "draw"

// PointsPerQuestion is the fixed reward for a correct answer.
const PointsPerQuestion = 10

type Question struct {
	Left     int    `json:"left"`
	Right    int    `json:"right"`
	Operator string `json:"operator"`
	Answer   int    `json:"answer"`
}

// Progress is the slice of a challenge a single participant is allowed
// to mutate. QuestionIndex never decreases and never exceeds the
// question count.
type Progress struct {
	Score         int `json:"score"`
	QuestionIndex int `json:"question_index"`
}

type Challenge struct {
	ID                 uuid.UUID       `json:"id"`
	ChallengerID       uuid.UUID       `json:"challenger_id"`
	OpponentID         uuid.UUID       `json:"opponent_id"`
	Questions          []Question      `json:"questions"`
	Status             ChallengeStatus `json:"status"`
	ChallengerProgress Progress        `json:"challenger_progress"`
	OpponentProgress   Progress        `json:"opponent_progress"`
	WinnerID           *string         `json:"winner_id"`
	CreatedAt          time.Time       `json:"created_at"`
}

// IsTerminal reports whether the challenge can never change again.
func (c *Challenge) IsTerminal() bool {
	return c.Status == ChallengeDeclined || c.Status == ChallengeCompleted
}

// ProgressFor returns the progress slice owned by the given participant
// and whether that participant is part of the challenge at all.
func (c *Challenge) ProgressFor(participantID uuid.UUID) (Progress, bool) {
	switch participantID {
	case c.ChallengerID:
		return c.ChallengerProgress, true
	case c.OpponentID:
		return c.OpponentProgress, true
	}
	return Progress{}, false
}

type CreateChallengeRequest struct {
	OpponentID uuid.UUID  `json:"opponent_id"`
	Questions  []Question `json:"questions,omitempty"`
}

type RespondChallengeRequest struct {
	Accept bool `json:"accept"`
}

type SubmitAnswerRequest struct {
	Answer int `json:"answer"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
