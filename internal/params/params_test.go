package params

import (
	"encoding/json"
	"testing"
)

func TestAll_CanonicalOrder(t *testing.T) {
	want := []string{
		"exposure", "brilliance", "highlights", "shadows", "contrast",
		"brightness", "blackPoint", "saturation", "vibrance", "warmth",
		"tint", "clarity", "definition", "noiseReduction",
	}
	got := All()
	if len(got) != len(want) {
		t.Fatalf("All() has %d sliders, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.Key() != want[i] {
			t.Errorf("slider %d: got %s, want %s", i, s.Key(), want[i])
		}
		if s.String() == "" || s.Caption() == "" {
			t.Errorf("slider %s has empty name or caption", s.Key())
		}
	}
}

func TestSetClamps(t *testing.T) {
	var p Params
	p.Set(Exposure, 250)
	p.Set(Tint, -101)
	p.Set(Shadows, 42)

	if p.Exposure != 100 {
		t.Errorf("Exposure = %d, want 100", p.Exposure)
	}
	if p.Tint != -100 {
		t.Errorf("Tint = %d, want -100", p.Tint)
	}
	if p.Get(Shadows) != 42 {
		t.Errorf("Shadows = %d, want 42", p.Get(Shadows))
	}
}

func TestClamped(t *testing.T) {
	p := Params{Exposure: 500, Warmth: -300, Clarity: 12}
	c := p.Clamped()
	if c.Exposure != 100 || c.Warmth != -100 || c.Clarity != 12 {
		t.Errorf("Clamped() = %+v", c)
	}
	if p.Exposure != 500 {
		t.Error("Clamped() modified the receiver")
	}
}

func TestIsNeutral(t *testing.T) {
	if !(Params{}).IsNeutral() {
		t.Error("zero Params should be neutral")
	}
	for _, s := range All() {
		var p Params
		p.Set(s, 1)
		if p.IsNeutral() {
			t.Errorf("Params with %s=1 reported neutral", s.Key())
		}
	}
}

func TestLookup(t *testing.T) {
	s, ok := Lookup("blackPoint")
	if !ok || s != BlackPoint {
		t.Errorf("Lookup(blackPoint) = %v,%v", s, ok)
	}
	if _, ok := Lookup("gamma"); ok {
		t.Error("Lookup(gamma) should fail")
	}
}

func TestJSONKeysMatchSliderKeys(t *testing.T) {
	var p Params
	for i, s := range All() {
		p.Set(s, i+1)
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for i, s := range All() {
		if m[s.Key()] != i+1 {
			t.Errorf("json key %s = %d, want %d", s.Key(), m[s.Key()], i+1)
		}
	}
}

func TestValues(t *testing.T) {
	p := Params{Exposure: 1, NoiseReduction: 14}
	v := p.Values()
	if len(v) != 14 || v[0] != 1 || v[13] != 14 {
		t.Errorf("Values() = %v", v)
	}
}
