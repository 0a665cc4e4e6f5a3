package version

import (
	"image/color"
	"testing"

	"github.com/zurustar/sputm/pkg/vars"
)

func TestProfiles_Validate(t *testing.T) {
	for _, p := range All() {
		t.Run(p.ID.String(), func(t *testing.T) {
			if err := p.Validate(); err != nil {
				t.Fatal(err)
			}
			for _, id := range []vars.VarID{vars.VarTimer, vars.VarTimerNext, vars.VarRoom, vars.VarMouseX, vars.VarMouseY} {
				if p.Vars[id] == vars.Absent {
					t.Errorf("VAR_%s missing", id)
				}
			}
		})
	}
}

func TestProfiles_DialectShape(t *testing.T) {
	tests := []struct {
		id       ID
		stack    bool
		slots    int
		wide     bool
		indirect bool
	}{
		{V5, false, 25, false, true},
		{V6, true, 25, false, false},
		{V7, true, 80, false, false},
		{V8, true, 80, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			p, err := ForID(tt.id)
			if err != nil {
				t.Fatal(err)
			}
			if p.Has(FeatureStack) != tt.stack {
				t.Errorf("stack = %v", p.Has(FeatureStack))
			}
			if p.Counts.ScriptSlots != tt.slots {
				t.Errorf("ScriptSlots = %d, want %d", p.Counts.ScriptSlots, tt.slots)
			}
			if p.Has(FeatureWideOperands) != tt.wide {
				t.Errorf("wide = %v", p.Has(FeatureWideOperands))
			}
			if p.Has(FeatureIndirectVars) != tt.indirect {
				t.Errorf("indirect = %v", p.Has(FeatureIndirectVars))
			}
		})
	}
}

func TestForID_ReturnsCopies(t *testing.T) {
	a, _ := ForID(V6)
	a.HeapMax = 1
	b, _ := ForID(V6)
	if b.HeapMax == 1 {
		t.Error("profiles share state")
	}
	if _, err := ForID(Unknown); err == nil {
		t.Error("ForID(Unknown) should fail")
	}
}

func TestParse(t *testing.T) {
	tests := map[string]ID{"v5": V5, "6": V6, " V7 ": V7, "v8": V8}
	for in, want := range tests {
		got, err := Parse(in)
		if err != nil || got != want {
			t.Errorf("Parse(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := Parse("v3"); err == nil {
		t.Error("Parse(v3) should fail")
	}
}

func TestPaletteStrategies(t *testing.T) {
	pal := make([]color.RGBA, 256)
	EGAPalette{}.Setup(pal)
	if pal[15] != (color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}) || pal[16] != (color.RGBA{A: 0xFF}) {
		t.Errorf("EGA palette: 15=%v 16=%v", pal[15], pal[16])
	}
	ZeroPalette{}.Setup(pal)
	if pal[15] != (color.RGBA{A: 0xFF}) {
		t.Errorf("zero palette: 15=%v", pal[15])
	}
}
