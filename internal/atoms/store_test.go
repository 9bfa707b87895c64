package atoms

import (
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestGroupMembership(t *testing.T) {
	const mobile Group = 2

	s := NewStore(4)
	s.Add(1.0, r3.Vec{}, r3.Vec{}, r3.Vec{}, 0)
	s.Add(1.0, r3.Vec{}, r3.Vec{}, r3.Vec{}, mobile)

	if !s.InGroup(0, All) || !s.InGroup(1, All) {
		t.Error("every particle should belong to the all group")
	}
	if s.InGroup(0, mobile) {
		t.Error("particle 0 should not be in mobile group")
	}
	if !s.InGroup(1, mobile) {
		t.Error("particle 1 should be in mobile group")
	}

	if got := s.CountGroup(All); got != 2 {
		t.Errorf("expected 2 in all group, got %d", got)
	}
	if got := s.CountGroup(mobile); got != 1 {
		t.Errorf("expected 1 in mobile group, got %d", got)
	}
}

func TestRecordLookup(t *testing.T) {
	s := NewStore(2)
	s.Add(1.0, r3.Vec{}, r3.Vec{}, r3.Vec{}, 0)
	rec := Ellipsoid{Shape: r3.Vec{X: 1, Y: 2, Z: 3}, Quat: quat.Number{Real: 1}}
	s.AddEllipsoid(2.0, r3.Vec{}, r3.Vec{}, r3.Vec{}, 0, rec)

	if _, ok := s.Record(0); ok {
		t.Error("point particle should have no ellipsoid record")
	}
	got, ok := s.Record(1)
	if !ok {
		t.Fatal("extended particle should have an ellipsoid record")
	}
	if got.Shape != rec.Shape {
		t.Errorf("expected shape %v, got %v", rec.Shape, got.Shape)
	}
}
