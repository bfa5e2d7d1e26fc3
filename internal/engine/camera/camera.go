// Package camera implements the free-flight world camera used to drive
// terrain LOD selection: view/projection transforms, and the lazily
// cached screen-space error factor.
package camera

import (
	"math"

	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

// Camera tracks the viewer's position, orientation, and projection
// parameters. Position is kept in double precision so very large worlds
// don't lose precision far from the origin; direction/up are single
// precision since they're always unit-length, small-magnitude vectors.
type Camera struct {
	pos   vecmath.Vec3d
	dir   vecmath.Vec3
	up    vecmath.Vec3
	nearZ float64
	farZ  float64

	wid     int
	aspect  float32 // height/width
	halfFOV float32 // radians

	errorFactor float32 // cached; -1 means "needs recompute"
}

// New returns a camera looking down -Z with +Y up, positioned at the
// origin. Call SetViewport/SetFOV/SetNearFar/Move before using it.
func New() *Camera {
	return &Camera{
		dir:         vecmath.Vec3{X: 0, Y: 0, Z: -1},
		up:          vecmath.Vec3{X: 0, Y: 1, Z: 0},
		errorFactor: -1,
	}
}

// Position returns the camera's world-space position.
func (c *Camera) Position() vecmath.Vec3d { return c.pos }

// Direction returns the camera's (unit) look direction.
func (c *Camera) Direction() vecmath.Vec3 { return c.dir }

// Up returns the camera's (unit) up vector.
func (c *Camera) Up() vecmath.Vec3 { return c.up }

// Near returns the near clip distance.
func (c *Camera) Near() float64 { return c.nearZ }

// Far returns the far clip distance.
func (c *Camera) Far() float64 { return c.farZ }

// Aspect returns height/width, matching the original's convention (not
// the more common width/height).
func (c *Camera) Aspect() float32 { return c.aspect }

// HalfFOV returns half the horizontal field of view, in radians.
func (c *Camera) HalfFOV() float32 { return c.halfFOV }

// Translate returns p expressed relative to the camera's position, in
// the same orientation/scale as world space. Rendering code uses this to
// keep vertex coordinates small (camera-relative) before handing them to
// a single-precision GPU pipeline.
func (c *Camera) Translate(p vecmath.Vec3d) vecmath.Vec3d {
	return p.Sub(c.pos)
}

// ViewTransform returns the view matrix, computed as if the camera were
// at the origin (callers translate world-space geometry by -Position
// first, via Translate).
func (c *Camera) ViewTransform() vecmath.Mat4 {
	return vecmath.LookAt(vecmath.Vec3{}, c.dir, c.up)
}

// ProjTransform returns a symmetric perspective projection matrix
// (vecmath.Frustum with left == -right and bottom == -top) for the
// camera's current FOV/aspect/near/far.
func (c *Camera) ProjTransform() vecmath.Mat4 {
	nE := c.nearZ * math.Tan(float64(c.halfFOV)) // n/e
	return vecmath.Frustum(
		float32(-nE), float32(nE),
		-c.aspect*float32(nE), c.aspect*float32(nE),
		float32(c.nearZ), float32(c.farZ),
	)
}

// SetViewport updates the camera's aspect ratio for a wid x ht viewport.
// Field of view is unchanged. Invalidates the cached error factor.
func (c *Camera) SetViewport(wid, ht int) {
	c.errorFactor = -1
	c.aspect = float32(ht) / float32(wid)
	c.wid = wid
}

// SetFOV sets the horizontal field of view, in degrees. Invalidates the
// cached error factor.
func (c *Camera) SetFOV(degrees float32) {
	c.errorFactor = -1
	c.halfFOV = radians(0.5 * degrees)
}

// SetNearFar sets the near/far clip distances.
func (c *Camera) SetNearFar(nearZ, farZ float64) {
	if !(0 < nearZ && nearZ < farZ) {
		panic("camera: require 0 < near < far")
	}
	c.nearZ = nearZ
	c.farZ = farZ
}

// Move relocates the camera, keeping its current heading.
func (c *Camera) Move(pos vecmath.Vec3d) {
	c.pos = pos
}

// MoveTo relocates the camera and points it at "at", keeping its
// current up vector.
func (c *Camera) MoveTo(pos, at vecmath.Vec3d) {
	c.pos = pos
	c.dir = at.Sub(pos).ToVec3().Normalize()
}

// MoveToUp relocates the camera, pointing it at "at" with the given up
// vector.
func (c *Camera) MoveToUp(pos, at, up vecmath.Vec3d) {
	c.pos = pos
	c.dir = at.Sub(pos).ToVec3().Normalize()
	c.up = up.ToVec3().Normalize()
}

// Look changes the camera's direction, keeping the current up vector.
func (c *Camera) Look(dir vecmath.Vec3) {
	c.dir = dir.Normalize()
}

// LookUp changes the camera's direction and up vector.
func (c *Camera) LookUp(dir, up vecmath.Vec3) {
	c.dir = dir.Normalize()
	c.up = up
}

// ScreenError computes the screen-space projection (in pixels) of a
// world-space error of size err at distance dist. The scale factor is
// cached until the viewport or FOV changes.
func (c *Camera) ScreenError(dist, err float32) float32 {
	if c.errorFactor < 0 {
		c.errorFactor = float32(c.wid) / (2 * float32(math.Tan(float64(c.halfFOV))))
	}
	return c.errorFactor * (err / dist)
}

// Pitch rotates the camera around its right vector, in degrees.
func (c *Camera) Pitch(degrees float32) {
	right := c.dir.Cross(c.up)
	r := rotate(degrees, right)
	up := r.TransformDirection([3]float32{c.up.X, c.up.Y, c.up.Z})
	c.dir = vecFromArr(r.TransformDirection([3]float32{c.dir.X, c.dir.Y, c.dir.Z})).Normalize()
	c.up = vecFromArr(up).Normalize()
}

// Yaw rotates the camera around its up vector, in degrees.
func (c *Camera) Yaw(degrees float32) {
	r := rotate(degrees, c.up)
	c.dir = vecFromArr(r.TransformDirection([3]float32{c.dir.X, c.dir.Y, c.dir.Z})).Normalize()
}

// Roll rotates the camera around its direction vector, in degrees.
func (c *Camera) Roll(degrees float32) {
	r := rotate(degrees, c.dir)
	c.up = vecFromArr(r.TransformDirection([3]float32{c.up.X, c.up.Y, c.up.Z})).Normalize()
}

// Lateral strafes the camera left (negative) or right (positive) by
// step world units.
func (c *Camera) Lateral(step float64) {
	right := c.dir.Cross(c.up).Normalize()
	c.pos = c.pos.Add(right.ToVec3d().Scale(step))
}

// Longitudinal moves the camera forward (positive) or backward
// (negative) by step world units.
func (c *Camera) Longitudinal(step float64) {
	c.pos = c.pos.Add(c.dir.ToVec3d().Scale(step))
}

func radians(deg float32) float32 {
	return deg * float32(math.Pi) / 180
}

func vecFromArr(a [3]float32) vecmath.Vec3 {
	return vecmath.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// rotate builds a rotation matrix of `degrees` around `axis` (need not
// be normalized), via Rodrigues' formula.
func rotate(degrees float32, axis vecmath.Vec3) vecmath.Mat4 {
	a := axis.Normalize()
	theta := radians(degrees)
	s := float32(math.Sin(float64(theta)))
	cth := float32(math.Cos(float64(theta)))
	ic := 1 - cth

	return vecmath.Mat4{
		cth + a.X*a.X*ic, a.Y*a.X*ic + a.Z*s, a.Z*a.X*ic - a.Y*s, 0,
		a.X*a.Y*ic - a.Z*s, cth + a.Y*a.Y*ic, a.Z*a.Y*ic + a.X*s, 0,
		a.X*a.Z*ic + a.Y*s, a.Y*a.Z*ic - a.X*s, cth + a.Z*a.Z*ic, 0,
		0, 0, 0, 1,
	}
}
