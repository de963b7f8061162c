package questions

import (
	"math/rand"
	"testing"
)

func TestGenerateCountAndBounds(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))

	qs := g.Generate(20)
	if len(qs) != 20 {
		t.Fatalf("expected 20 questions, got %d", len(qs))
	}

	for i, q := range qs {
		if q.Left < 1 || q.Left > 12 || q.Right < 1 || q.Right > 12 {
			t.Errorf("question %d: operands out of range: %d %s %d", i, q.Left, q.Operator, q.Right)
		}
		if q.Answer != solve(q.Left, q.Right, q.Operator) {
			t.Errorf("question %d: answer key %d does not match %d %s %d", i, q.Answer, q.Left, q.Operator, q.Right)
		}
		if q.Operator == "-" && q.Answer < 0 {
			t.Errorf("question %d: negative subtraction answer %d", i, q.Answer)
		}
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	a := NewGenerator(rand.New(rand.NewSource(42))).Generate(10)
	b := NewGenerator(rand.New(rand.NewSource(42))).Generate(10)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("question %d differs between identically seeded generators", i)
		}
	}
}

func TestSolve(t *testing.T) {
	tests := []struct {
		left, right int
		op          string
		want        int
	}{
		{3, 4, "+", 7},
		{9, 5, "-", 4},
		{6, 7, "*", 42},
		{1, 1, "?", 0},
	}

	for _, tc := range tests {
		if got := solve(tc.left, tc.right, tc.op); got != tc.want {
			t.Errorf("solve(%d, %d, %q) = %d, want %d", tc.left, tc.right, tc.op, got, tc.want)
		}
	}
}
