package grid

import (
	"testing"

	"github.com/jwebster45206/button-commands/pkg/host"
)

func TestColumnLetters(t *testing.T) {
	tests := map[int]string{
		-1:  "A",
		0:   "A",
		10:  "K",
		25:  "Z",
		26:  "AA",
		27:  "AB",
		51:  "AZ",
		52:  "BA",
		701: "ZZ",
		702: "AAA",
	}
	for in, want := range tests {
		if got := ColumnLetters(in); got != want {
			t.Errorf("ColumnLetters(%d) = %q; want %q", in, got, want)
		}
	}
}

func TestMap_Label(t *testing.T) {
	m := NewMap(4000)

	tests := []struct {
		name string
		pos  host.Vector3
		want string
	}{
		{"north-west corner", host.Vector3{X: -2000, Z: 2000}, "A0"},
		{"origin", host.Vector3{}, "N13"},
		{"outside the map clamps", host.Vector3{X: -5000, Z: 5000}, "A0"},
		{"cell K14", host.Vector3{X: -2000 + 10*CellSize + 1, Z: 2000 - 14*CellSize - 1}, "K14"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Label(tt.pos); got != tt.want {
				t.Errorf("Label(%+v) = %q; want %q", tt.pos, got, tt.want)
			}
		})
	}
}

func TestNewMap_DefaultSize(t *testing.T) {
	if got := NewMap(0).WorldSize; got != DefaultWorldSize {
		t.Errorf("expected default world size %d, got %v", DefaultWorldSize, got)
	}
}
