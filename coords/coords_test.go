package coords

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMultiplyAppliesLeftFirst(t *testing.T) {
	m := Scale(2, 2).Multiply(Translate(10, 0))
	p := m.Transform(Point{1, 1})
	if !near(p.X, 12) || !near(p.Y, 2) {
		t.Fatalf("got %+v", p)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Matrix{0.5, 0.866, -0.866, 0.5, 0, 0}.Multiply(Scale(1.5, 0.5)).Multiply(Translate(7, -3))
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	p := Point{12.5, -4}
	q := inv.Transform(m.Transform(p))
	if !near(p.X, q.X) || !near(p.Y, q.Y) {
		t.Fatalf("round trip %+v -> %+v", p, q)
	}
	if _, err := Scale(0, 1).Inverse(); err != ErrSingular {
		t.Fatalf("expected ErrSingular, got %v", err)
	}
}

func TestRectTransform(t *testing.T) {
	r := Rect{0, 0, 10, 20}.Transform(Matrix{0, 1, -1, 0, 0, 0})
	if !near(r.Width(), 20) || !near(r.Height(), 10) {
		t.Fatalf("got %+v", r)
	}
	if !r.Contains(Point{-10, 5}) {
		t.Fatalf("expected contains")
	}
}
