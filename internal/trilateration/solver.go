// Package trilateration implements the positioning solver (spec §4.C): a
// hand-rolled analytic direct solve for the common case, falling back to a
// Levenberg–Marquardt least-squares refinement when the direct geometry is
// degenerate. The fallback is modeled as a tagged result, not an error —
// auto mode always produces a point.
package trilateration

import (
	"math"

	"github.com/navcore/navcore/internal/apierr"
	"github.com/navcore/navcore/internal/model"
	"gonum.org/v1/gonum/mat"
)

// Mode selects which solving strategy Solve uses.
type Mode uint8

const (
	Direct Mode = iota
	LeastSquares
	Auto
)

// Sample is one anchor paired with an estimated distance to it.
type Sample struct {
	Anchor model.Point
	Dist   float64
}

// Method reports which strategy actually produced a Solve result.
type Method uint8

const (
	MethodDirect Method = iota
	MethodLeastSquares
)

func (m Method) String() string {
	if m == MethodDirect {
		return "direct"
	}
	return "least_squares"
}

// Solve estimates a planar position from exactly three anchor/distance
// samples, per the mode requested.
func Solve(samples [3]Sample, mode Mode) (model.Point, Method, error) {
	switch mode {
	case Direct:
		p, err := solveDirect(samples)
		return p, MethodDirect, err
	case LeastSquares:
		return solveLeastSquares(samples), MethodLeastSquares, nil
	default: // Auto
		p, err := solveDirect(samples)
		if err == nil {
			return p, MethodDirect, nil
		}
		return solveLeastSquares(samples), MethodLeastSquares, nil
	}
}

// solveDirect implements the two-linear-equation analytic solve from the
// pairwise circle-equation subtraction described in spec §4.C.
func solveDirect(s [3]Sample) (model.Point, error) {
	if !pairValid(s[0], s[1]) || !pairValid(s[1], s[2]) || !pairValid(s[0], s[2]) {
		return model.Point{}, apierr.New(apierr.Infeasible, "anchor circles do not intersect")
	}

	x1, y1, d1 := s[0].Anchor.X, s[0].Anchor.Y, s[0].Dist
	x2, y2, d2 := s[1].Anchor.X, s[1].Anchor.Y, s[1].Dist
	x3, y3, d3 := s[2].Anchor.X, s[2].Anchor.Y, s[2].Dist

	A := 2 * (x2 - x1)
	B := 2 * (y2 - y1)
	C := d1*d1 - d2*d2 - x1*x1 + x2*x2 - y1*y1 + y2*y2
	D := 2 * (x3 - x2)
	E := 2 * (y3 - y2)
	F := d2*d2 - d3*d3 - x2*x2 + x3*x3 - y2*y2 + y3*y3

	denom := B*D - E*A
	if denom == 0 {
		return model.Point{}, apierr.New(apierr.Infeasible, "degenerate anchor configuration")
	}

	x := (F*B - E*C) / denom
	y := (F*A - D*C) / (A*E - D*B)

	return model.Point{X: x, Y: y}, nil
}

// pairValid checks the triangle-inequality-derived intersection condition
// |d1-d2| <= ||p1-p2|| <= d1+d2 for one unordered anchor pair.
func pairValid(a, b Sample) bool {
	dist := a.Anchor.Dist(b.Anchor)
	lo := math.Abs(a.Dist - b.Dist)
	hi := a.Dist + b.Dist
	const eps = 1e-9
	return dist >= lo-eps && dist <= hi+eps
}

// solveLeastSquares minimizes sum((||p - pi|| - di)^2) via a damped
// Gauss-Newton (Levenberg-Marquardt) iteration, starting from the anchor
// centroid. Always converges to a point; there is no error path, matching
// the "always returns a point" contract in spec §4.C.
func solveLeastSquares(s [3]Sample) model.Point {
	x, y := centroid(s)

	lambda := 1e-3
	const maxIter = 50
	const tol = 1e-10

	for iter := 0; iter < maxIter; iter++ {
		residual := mat.NewVecDense(3, nil)
		jac := mat.NewDense(3, 2, nil)

		for i, sample := range s {
			dx := x - sample.Anchor.X
			dy := y - sample.Anchor.Y
			dist := math.Hypot(dx, dy)
			if dist < 1e-9 {
				dist = 1e-9
			}
			residual.SetVec(i, dist-sample.Dist)
			jac.Set(i, 0, dx/dist)
			jac.Set(i, 1, dy/dist)
		}

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		jtj.Add(&jtj, scaledIdentity(2, lambda))

		var jtr mat.VecDense
		jtr.MulVec(jac.T(), residual)

		var delta mat.VecDense
		if err := delta.SolveVec(&jtj, &jtr); err != nil {
			// Singular step matrix: damp harder and retry next iteration.
			lambda *= 10
			continue
		}

		newX := x - delta.AtVec(0)
		newY := y - delta.AtVec(1)

		if math.Hypot(newX-x, newY-y) < tol {
			x, y = newX, newY
			break
		}
		x, y = newX, newY
	}

	return model.Point{X: x, Y: y}
}

func centroid(s [3]Sample) (float64, float64) {
	var sx, sy float64
	for _, sample := range s {
		sx += sample.Anchor.X
		sy += sample.Anchor.Y
	}
	return sx / 3, sy / 3
}

func scaledIdentity(n int, scale float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, scale)
	}
	return m
}
