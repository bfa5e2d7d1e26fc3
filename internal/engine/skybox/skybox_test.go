package skybox

import (
	"testing"

	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

func TestStripTranslationZeroesOnlyTranslationColumn(t *testing.T) {
	m := vecmath.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		10, 20, 30, 1,
	}

	out := stripTranslation(m)

	for i := 0; i < 12; i++ {
		if out[i] != m[i] {
			t.Fatalf("rotation/scale element %d changed: got %v, want %v", i, out[i], m[i])
		}
	}
	if out[12] != 0 || out[13] != 0 || out[14] != 0 {
		t.Fatalf("translation not zeroed: got (%v,%v,%v)", out[12], out[13], out[14])
	}
	if out[15] != m[15] {
		t.Fatalf("homogeneous element changed: got %v, want %v", out[15], m[15])
	}
}
