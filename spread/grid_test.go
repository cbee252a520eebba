package spread

import (
	"encoding/json"
	"testing"
)

func TestGridCloneIsIndependent(t *testing.T) {
	t.Parallel()

	g := NewGrid(4)
	g.Set(1, 2, ChanConcentration, 0.8)
	g.Set(3, 0, ChanHumidity, 0.4)

	clone := g.Clone()
	if !g.Equal(clone) {
		t.Fatalf("clone is not equal to the original")
	}

	clone.Set(1, 2, ChanConcentration, 0.1)
	if g.At(1, 2, ChanConcentration) != 0.8 {
		t.Fatalf("mutating the clone changed the original: got %v", g.At(1, 2, ChanConcentration))
	}
	if g.Equal(clone) {
		t.Fatalf("grids compare equal after diverging")
	}
}

func TestGridSetMaxNeverLowers(t *testing.T) {
	t.Parallel()

	g := NewGrid(2)
	g.Set(0, 0, ChanConcentration, 0.6)

	g.SetMax(0, 0, ChanConcentration, 0.3)
	if got := g.At(0, 0, ChanConcentration); got != 0.6 {
		t.Fatalf("SetMax lowered the cell: got %v, want 0.6", got)
	}

	g.SetMax(0, 0, ChanConcentration, 0.9)
	if got := g.At(0, 0, ChanConcentration); got != 0.9 {
		t.Fatalf("SetMax did not raise the cell: got %v, want 0.9", got)
	}
}

func TestGridClipClampsAllChannels(t *testing.T) {
	t.Parallel()

	g := NewGrid(3)
	g.Set(0, 0, ChanConcentration, 1.7)
	g.Set(1, 1, ChanTemperature, -0.3)
	g.Set(2, 2, ChanWindSpeed, 0.5)

	g.Clip()

	if got := g.At(0, 0, ChanConcentration); got != 1 {
		t.Fatalf("overshoot not clipped: got %v", got)
	}
	if got := g.At(1, 1, ChanTemperature); got != 0 {
		t.Fatalf("undershoot not clipped: got %v", got)
	}
	if got := g.At(2, 2, ChanWindSpeed); got != 0.5 {
		t.Fatalf("in-range value changed by Clip: got %v", got)
	}
}

func TestGridJSONRoundTrip(t *testing.T) {
	t.Parallel()

	g := NewGrid(3)
	g.Set(0, 1, ChanConcentration, 0.42)
	g.Set(2, 2, ChanWindDirection, 0.25)

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var restored Grid
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !g.Equal(&restored) {
		t.Fatalf("round-tripped grid differs from the original")
	}
}

func TestGridUnmarshalRejectsCellCountMismatch(t *testing.T) {
	t.Parallel()

	var g Grid
	err := json.Unmarshal([]byte(`{"dim":4,"cells":[0.1,0.2]}`), &g)
	if err == nil {
		t.Fatalf("expected an error for a truncated cell array")
	}
}
