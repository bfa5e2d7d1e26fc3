package rain

import "testing"

func TestFindDeadDropletScansForward(t *testing.T) {
	r := newRainForTest()
	r.droplets[0].lifeSpan = 5.0
	r.droplets[1].lifeSpan = -1.0
	r.droplets[2].lifeSpan = 5.0

	idx := r.findDeadDroplet()
	if idx != 1 {
		t.Fatalf("findDeadDroplet() = %d, want 1", idx)
	}
	if r.lastUsed != 1 {
		t.Fatalf("lastUsed = %d, want 1", r.lastUsed)
	}
}

func TestFindDeadDropletWrapsAround(t *testing.T) {
	r := newRainForTest()
	for i := range r.droplets {
		r.droplets[i].lifeSpan = 5.0
	}
	r.droplets[0].lifeSpan = -1.0
	r.lastUsed = 2

	idx := r.findDeadDroplet()
	if idx != 0 {
		t.Fatalf("findDeadDroplet() = %d, want 0 (wrap-around pass)", idx)
	}
}

func TestFindDeadDropletDefaultsToZeroWhenAllAlive(t *testing.T) {
	r := newRainForTest()
	for i := range r.droplets {
		r.droplets[i].lifeSpan = 5.0
	}

	if idx := r.findDeadDroplet(); idx != 0 {
		t.Fatalf("findDeadDroplet() = %d, want 0 when pool is fully alive", idx)
	}
}

func TestNewRainAllDropletsStartDead(t *testing.T) {
	r := newRainForTest()
	for i, d := range r.droplets {
		if d.lifeSpan >= 0 {
			t.Fatalf("droplet %d lifeSpan = %v, want < 0 (dead)", i, d.lifeSpan)
		}
	}
}
