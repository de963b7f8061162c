package questions

import (
	"math/rand"

	"mathduel-backend/internal/models"
)

// Generator produces fixed arithmetic question sets for new duels. Both
// participants receive the identical sequence, which is what allows them
// to progress independently without coordination.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

var operators = []string{"+", "-", "*"}

// Generate returns count questions with single-digit to two-digit
// operands. Subtraction operands are ordered so answers stay non-negative.
func (g *Generator) Generate(count int) []models.Question {
	qs := make([]models.Question, 0, count)
	for i := 0; i < count; i++ {
		left := g.rng.Intn(12) + 1
		right := g.rng.Intn(12) + 1
		op := operators[g.rng.Intn(len(operators))]

		if op == "-" && right > left {
			left, right = right, left
		}

		qs = append(qs, models.Question{
			Left:     left,
			Right:    right,
			Operator: op,
			Answer:   solve(left, right, op),
		})
	}
	return qs
}

func solve(left, right int, op string) int {
	switch op {
	case "+":
		return left + right
	case "-":
		return left - right
	case "*":
		return left * right
	}
	return 0
}
