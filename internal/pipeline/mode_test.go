package pipeline

import (
	"slices"
	"testing"

	"github.com/desktopdye/desktopdye/internal/colour"
)

func TestCorrectDefaultIsIdentity(t *testing.T) {
	colors := []colour.HSV{{H: 10, S: 0.1, V: 0.2}, {H: 200, S: 0.9, V: 0.95}, {H: 10, S: 0.1, V: 0.2}}

	got := Correct(colors, ModeDefault, 45)
	if !slices.Equal(got, colors) {
		t.Errorf("Correct(default) = %v, want %v", got, colors)
	}
}

func TestCorrectBrightness(t *testing.T) {
	tests := []struct {
		name   string
		colors []colour.HSV
		want   []colour.HSV
	}{
		{
			name:   "first above threshold becomes primary",
			colors: []colour.HSV{{H: 0, S: 0.5, V: 0.5}, {H: 120, S: 0.5, V: 0.9}},
			want:   []colour.HSV{{H: 120, S: 0.5, V: 0.9}, {H: 0, S: 0.5, V: 0.5}},
		},
		{
			name:   "first of several above threshold wins",
			colors: []colour.HSV{{H: 0, S: 0.5, V: 0.3}, {H: 60, S: 0.5, V: 0.85}, {H: 120, S: 0.5, V: 0.99}},
			want:   []colour.HSV{{H: 60, S: 0.5, V: 0.85}, {H: 0, S: 0.5, V: 0.3}, {H: 120, S: 0.5, V: 0.99}},
		},
		{
			name:   "threshold is strict",
			colors: []colour.HSV{{H: 0, S: 0.5, V: 0.8}, {H: 120, S: 0.5, V: 0.7}},
			want:   []colour.HSV{{H: 0, S: 0.5, V: 0.8}, {H: 120, S: 0.5, V: 0.7}},
		},
		{
			name:   "falls back to brightest",
			colors: []colour.HSV{{H: 0, S: 0.5, V: 0.3}, {H: 120, S: 0.5, V: 0.6}},
			want:   []colour.HSV{{H: 120, S: 0.5, V: 0.6}, {H: 0, S: 0.5, V: 0.3}},
		},
		{
			name:   "fallback tie keeps earliest",
			colors: []colour.HSV{{H: 0, S: 0.5, V: 0.3}, {H: 90, S: 0.5, V: 0.6}, {H: 180, S: 0.5, V: 0.6}},
			want:   []colour.HSV{{H: 90, S: 0.5, V: 0.6}, {H: 0, S: 0.5, V: 0.3}, {H: 180, S: 0.5, V: 0.6}},
		},
		{
			name:   "exact copies of primary are removed",
			colors: []colour.HSV{{H: 0, S: 0.5, V: 0.9}, {H: 30, S: 0.5, V: 0.2}, {H: 0, S: 0.5, V: 0.9}},
			want:   []colour.HSV{{H: 0, S: 0.5, V: 0.9}, {H: 30, S: 0.5, V: 0.2}},
		},
		{
			name:   "near copies of primary are kept",
			colors: []colour.HSV{{H: 0, S: 0.5, V: 0.9}, {H: 0, S: 0.5, V: 0.9000000000000001}},
			want:   []colour.HSV{{H: 0, S: 0.5, V: 0.9}, {H: 0, S: 0.5, V: 0.9000000000000001}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Correct(tt.colors, ModeBrightness, 0)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Correct(brightness) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCorrectHueShiftSingleColour(t *testing.T) {
	colors := []colour.HSV{{H: 200, S: 0.4, V: 0.7}}

	got := Correct(colors, ModeHueShift, 45)
	if !slices.Equal(got, colors) {
		t.Errorf("Correct(hue_shift) = %v, want %v", got, colors)
	}
}

func TestCorrectHueShiftFan(t *testing.T) {
	colors := []colour.HSV{{H: 180, S: 0.5, V: 0.5}, {H: 0, S: 0, V: 0}, {H: 0, S: 0, V: 0}}

	got := Correct(colors, ModeHueShift, 45)
	want := []colour.HSV{{H: 135, S: 0.5, V: 0.5}, {H: 180, S: 0.5, V: 0.5}, {H: 225, S: 0.5, V: 0.5}}
	if !slices.Equal(got, want) {
		t.Errorf("Correct(hue_shift) = %v, want %v", got, want)
	}

	// Input is not modified.
	if colors[1] != (colour.HSV{}) {
		t.Errorf("input modified: %v", colors)
	}
}

func TestCorrectHueShiftWraps(t *testing.T) {
	tests := []struct {
		name     string
		primary  float64
		hueShift float64
		want     []float64
	}{
		{"below zero", 35, 45, []float64{350, 35, 80}},
		{"above 360", 325, 45, []float64{280, 325, 10}},
		{"single step only", 10, 400, []float64{-30, 10, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			colors := []colour.HSV{{H: tt.primary, S: 1, V: 1}, {}, {}}
			got := Correct(colors, ModeHueShift, tt.hueShift)
			for i, c := range got {
				if c.H != tt.want[i] {
					t.Errorf("hue[%d] = %v, want %v", i, c.H, tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeHue(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-10, 350},
		{370, 10},
		{360, 360},
		{0, 0},
		{-400, -40},
		{800, 440},
	}

	for _, tt := range tests {
		if got := normalizeHue(tt.in); got != tt.want {
			t.Errorf("normalizeHue(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCorrectEmpty(t *testing.T) {
	for _, mode := range ValidModes() {
		if got := Correct(nil, mode, 45); len(got) != 0 {
			t.Errorf("Correct(nil, %s) = %v, want empty", mode, got)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("hue_shift"); err != nil || m != ModeHueShift {
		t.Errorf("ParseMode(hue_shift) = %v, %v", m, err)
	}
	if _, err := ParseMode("rainbow"); err == nil {
		t.Error("Expected error for unknown mode")
	}
	if ModeHueShift.String() != "Hue Shift" {
		t.Errorf("String() = %s, want Hue Shift", ModeHueShift.String())
	}
}
