package frustum

import (
	"testing"

	"github.com/Faultbox/terrain-lod/internal/engine/camera"
	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

func testCamera() *camera.Camera {
	cam := camera.New()
	cam.SetViewport(1280, 720)
	cam.SetFOV(90)
	cam.SetNearFar(1, 1000)
	cam.Move(vecmath.Vec3d{})
	cam.Look(vecmath.Vec3{X: 0, Y: 0, Z: -1})
	return cam
}

func TestUpdateProducesSixPlanes(t *testing.T) {
	f := New()
	f.Update(testCamera())
	for i, p := range f.Planes {
		if p.Normal.Length() < 0.99 || p.Normal.Length() > 1.01 {
			t.Errorf("plane %d normal not unit length: %v (len %f)", i, p.Normal, p.Normal.Length())
		}
	}
}

func TestAABBOutsideBehindFarPlane(t *testing.T) {
	f := New()
	f.Update(testCamera())

	far := vecmath.AABBd{
		Min: vecmath.Vec3d{X: -1, Y: -1, Z: -2000},
		Max: vecmath.Vec3d{X: 1, Y: 1, Z: -1990},
	}
	if !f.AABBOutside(far) {
		t.Error("expected box far beyond the far plane to be culled")
	}
}

func TestAABBInsideNotCulled(t *testing.T) {
	f := New()
	f.Update(testCamera())

	near := vecmath.AABBd{
		Min: vecmath.Vec3d{X: -1, Y: -1, Z: -11},
		Max: vecmath.Vec3d{X: 1, Y: 1, Z: -9},
	}
	if f.AABBOutside(near) {
		t.Error("expected box directly in front of the camera to be visible")
	}
}

func TestAABBBehindCameraCulled(t *testing.T) {
	f := New()
	f.Update(testCamera())

	behind := vecmath.AABBd{
		Min: vecmath.Vec3d{X: -1, Y: -1, Z: 9},
		Max: vecmath.Vec3d{X: 1, Y: 1, Z: 11},
	}
	if !f.AABBOutside(behind) {
		t.Error("expected box behind the camera to be culled by the near plane")
	}
}
