package vecmath

import "testing"

func TestVec3dDistance(t *testing.T) {
	a := Vec3d{X: 0, Y: 0, Z: 0}
	b := Vec3d{X: 3, Y: 4, Z: 0}
	if got := a.Distance(b); got != 5 {
		t.Errorf("Vec3d.Distance() = %v, want 5", got)
	}
}

func TestVec3dRoundTrip(t *testing.T) {
	v := Vec3{X: 1.5, Y: -2.5, Z: 3.5}
	got := v.ToVec3d().ToVec3()
	if got != v {
		t.Errorf("round trip through Vec3d = %v, want %v", got, v)
	}
}

func TestAABBCorner(t *testing.T) {
	box := AABBd{Min: Vec3d{X: -1, Y: -2, Z: -3}, Max: Vec3d{X: 1, Y: 2, Z: 3}}
	if c := box.Corner(0); c != (Vec3d{X: -1, Y: -2, Z: -3}) {
		t.Errorf("corner 0 = %v, want min", c)
	}
	if c := box.Corner(7); c != (Vec3d{X: 1, Y: 2, Z: 3}) {
		t.Errorf("corner 7 = %v, want max", c)
	}
}

func TestAABBUnion(t *testing.T) {
	a := AABBd{Min: Vec3d{X: 0, Y: 0, Z: 0}, Max: Vec3d{X: 1, Y: 1, Z: 1}}
	b := AABBd{Min: Vec3d{X: -1, Y: 2, Z: 0}, Max: Vec3d{X: 0.5, Y: 3, Z: 5}}
	u := a.Union(b)
	want := AABBd{Min: Vec3d{X: -1, Y: 0, Z: 0}, Max: Vec3d{X: 1, Y: 3, Z: 5}}
	if u != want {
		t.Errorf("Union() = %v, want %v", u, want)
	}
}

func TestAABBDistanceToPoint(t *testing.T) {
	box := AABBd{Min: Vec3d{X: 0, Y: 0, Z: 0}, Max: Vec3d{X: 10, Y: 10, Z: 10}}
	if d := box.DistanceToPoint(Vec3d{X: 5, Y: 5, Z: 5}); d != 0 {
		t.Errorf("expected 0 distance for point inside box, got %v", d)
	}
	if d := box.DistanceToPoint(Vec3d{X: 13, Y: 0, Z: 0}); d != 3 {
		t.Errorf("expected distance 3, got %v", d)
	}
}

func TestPlaneBehind(t *testing.T) {
	p := Plane{Normal: Vec3d{X: 0, Y: 0, Z: 1}, Distance: 0}
	if !p.Behind(Vec3d{X: 0, Y: 0, Z: -1}) {
		t.Error("expected point with negative Z to be behind the plane")
	}
	if p.Behind(Vec3d{X: 0, Y: 0, Z: 1}) {
		t.Error("expected point with positive Z to be in front of the plane")
	}
}

func TestFrustumMatrix(t *testing.T) {
	m := Frustum(-1, 1, -1, 1, 1, 100)
	if m[15] != 0 {
		t.Errorf("Frustum()[15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Frustum()[11] should be -1, got %f", m[11])
	}
}
