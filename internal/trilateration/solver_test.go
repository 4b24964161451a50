package trilateration

import (
	"math"
	"testing"

	"github.com/navcore/navcore/internal/apierr"
	"github.com/navcore/navcore/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(x, y float64) model.Point { return model.Point{X: x, Y: y} }

func TestSolveAutoDirectCase(t *testing.T) {
	// Anchors chosen so every pairwise circle actually intersects:
	// |d1-d2| <= dist <= d1+d2 holds for all three unordered pairs.
	samples := [3]Sample{
		{Anchor: pt(0, 0), Dist: 5.0},
		{Anchor: pt(8, 0), Dist: 5.0},
		{Anchor: pt(4, 8), Dist: 5.0},
	}
	p, method, err := Solve(samples, Auto)
	require.NoError(t, err)
	assert.Equal(t, MethodDirect, method)
	assert.InDelta(t, 4.0, p.X, 1e-6)
	assert.InDelta(t, 3.0, p.Y, 1e-6)
}

// TestSolveAutoFallsBackWhenPairDisjoint covers anchors (2,1,d=1), (4,3,d=1),
// (6,1,d=3): the 1-2 pair's circles are disjoint (center distance ~2.83 >
// d1+d2=2), so the direct validity gate rejects it and auto must fall back
// to least squares rather than return an inconsistent direct-mode point.
func TestSolveAutoFallsBackWhenPairDisjoint(t *testing.T) {
	samples := [3]Sample{
		{Anchor: pt(2, 1), Dist: 1.0},
		{Anchor: pt(4, 3), Dist: 1.0},
		{Anchor: pt(6, 1), Dist: 3.0},
	}
	p, method, err := Solve(samples, Auto)
	require.NoError(t, err)
	assert.Equal(t, MethodLeastSquares, method)
	assert.InDelta(t, 3.0, p.X, 0.5)
	assert.InDelta(t, 2.0, p.Y, 0.5)
}

func TestSolveAutoFallsBackToLeastSquares(t *testing.T) {
	samples := [3]Sample{
		{Anchor: pt(0, 0), Dist: 1},
		{Anchor: pt(10, 0), Dist: 1},
		{Anchor: pt(5, 10), Dist: 1},
	}
	p, method, err := Solve(samples, Auto)
	require.NoError(t, err)
	assert.Equal(t, MethodLeastSquares, method)
	assert.InDelta(t, 5.0, p.X, 0.5)
	assert.InDelta(t, 3.33, p.Y, 0.5)
}

func TestSolveDirectRejectsInfeasibleGeometry(t *testing.T) {
	samples := [3]Sample{
		{Anchor: pt(0, 0), Dist: 1},
		{Anchor: pt(100, 0), Dist: 1},
		{Anchor: pt(5, 10), Dist: 1},
	}
	_, _, err := Solve(samples, Direct)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.Infeasible))
}

func TestSolveLeastSquaresAlwaysReturnsAPoint(t *testing.T) {
	samples := [3]Sample{
		{Anchor: pt(0, 0), Dist: 1},
		{Anchor: pt(0, 0), Dist: 2},
		{Anchor: pt(0, 0), Dist: 3},
	}
	p, method, err := Solve(samples, LeastSquares)
	require.NoError(t, err)
	assert.Equal(t, MethodLeastSquares, method)
	assert.False(t, math.IsNaN(p.X))
	assert.False(t, math.IsNaN(p.Y))
}
