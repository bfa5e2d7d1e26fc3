// Package frustum implements view-frustum construction and AABB culling
// against a camera's current state.
package frustum

import (
	"math"

	"github.com/Faultbox/terrain-lod/internal/engine/camera"
	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

// plane index order, matching the original layout.
const (
	Top = iota
	Right
	Bottom
	Left
	Near
	Far
	numPlanes
)

// Frustum holds the 6 oriented planes (top, right, bottom, left, near,
// far) of a camera's current view volume.
type Frustum struct {
	Planes [numPlanes]vecmath.Plane

	// Bias is added (scaled by the camera's direction) to the
	// un-normalized cross product of each of the 4 SIDE planes only,
	// before normalizing. The original source applies a fixed 0.18;
	// kept configurable per the design note rather than "corrected",
	// since its exact motivation isn't recoverable from the source.
	Bias float64
}

// New returns a Frustum with the default bias (0.18, matching the
// original source).
func New() *Frustum {
	return &Frustum{Bias: 0.18}
}

// Update recomputes the 6 planes from the camera's current position,
// orientation, and projection parameters.
func (f *Frustum) Update(cam *camera.Camera) {
	aspect := float64(cam.Aspect())
	halfFOV := float64(cam.HalfFOV())
	near := cam.Near()
	far := cam.Far()

	hClose := 2.0 * math.Tan(aspect*halfFOV) * near
	wClose := hClose / aspect
	hFar := 2.0 * math.Tan(aspect*halfFOV) * far
	wFar := hFar / aspect

	dir := cam.Direction().ToVec3d()
	up := cam.Up().ToVec3d()
	right := dir.Cross(up).Normalize()
	up = up.Normalize()

	nearCenter := cam.Position().Add(dir.Normalize().Scale(near))
	farCenter := cam.Position().Add(dir.Normalize().Scale(far))

	// corners, starting top-left, going clockwise
	nearPts := [4]vecmath.Vec3d{
		nearCenter.Add(up.Scale(hClose / 2)).Sub(right.Scale(wClose / 2)),
		nearCenter.Add(up.Scale(hClose / 2)).Add(right.Scale(wClose / 2)),
		nearCenter.Sub(up.Scale(hClose / 2)).Add(right.Scale(wClose / 2)),
		nearCenter.Sub(up.Scale(hClose / 2)).Sub(right.Scale(wClose / 2)),
	}
	farPts := [4]vecmath.Vec3d{
		farCenter.Add(up.Scale(hFar / 2)).Sub(right.Scale(wFar / 2)),
		farCenter.Add(up.Scale(hFar / 2)).Add(right.Scale(wFar / 2)),
		farCenter.Sub(up.Scale(hFar / 2)).Add(right.Scale(wFar / 2)),
		farCenter.Sub(up.Scale(hFar / 2)).Sub(right.Scale(wFar / 2)),
	}

	side := func(i int) vecmath.Plane {
		j := (i + 1) % 4
		n := farPts[i].Sub(nearPts[i]).Cross(nearPts[j].Sub(nearPts[i])).Add(dir.Scale(f.Bias)).Normalize()
		return vecmath.Plane{Normal: n, Distance: -n.Dot(nearPts[i])}
	}

	f.Planes[Top] = side(0)
	f.Planes[Right] = side(1)
	f.Planes[Bottom] = side(2)
	f.Planes[Left] = side(3)

	nearNormal := nearPts[3].Sub(nearPts[2]).Cross(nearPts[1].Sub(nearPts[2])).Normalize()
	f.Planes[Near] = vecmath.Plane{Normal: nearNormal, Distance: -nearNormal.Dot(nearPts[0])}

	farNormal := farPts[3].Sub(farPts[0]).Cross(farPts[1].Sub(farPts[0])).Normalize()
	f.Planes[Far] = vecmath.Plane{Normal: farNormal, Distance: -farNormal.Dot(farPts[0])}
}

// AABBOutside reports whether bbox lies entirely outside the frustum:
// true only when all 8 corners are behind a single common plane.
func (f *Frustum) AABBOutside(bbox vecmath.AABBd) bool {
	for _, p := range f.Planes {
		allBehind := true
		for i := 0; i < 8; i++ {
			if !p.Behind(bbox.Corner(i)) {
				allBehind = false
				break
			}
		}
		if allBehind {
			return true
		}
	}
	return false
}
