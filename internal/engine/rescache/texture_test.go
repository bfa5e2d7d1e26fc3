package rescache

import "testing"

func TestTileKeyEquality(t *testing.T) {
	a := TileKey{Tree: 1, Lod: 2, Row: 3, Col: 4}
	b := TileKey{Tree: 1, Lod: 2, Row: 3, Col: 4}
	c := TileKey{Tree: 1, Lod: 2, Row: 3, Col: 5}

	if a != b {
		t.Errorf("identical keys should compare equal: %v != %v", a, b)
	}
	if a == c {
		t.Errorf("keys differing in Col should not compare equal: %v == %v", a, c)
	}

	m := map[TileKey]int{a: 1}
	if _, ok := m[b]; !ok {
		t.Error("TileKey must be usable as a map key with value semantics")
	}
}
