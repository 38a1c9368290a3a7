package grid

import (
	"math"
	"strconv"

	"github.com/jwebster45206/button-commands/pkg/host"
)

// CellSize is the edge length of one map grid cell in world units.
const CellSize = 146.3

// DefaultWorldSize is used when no world size is configured.
const DefaultWorldSize = 4000

// Labeler converts a world position to a human-readable grid cell label.
type Labeler interface {
	Label(pos host.Vector3) string
}

// Map labels positions on a square world centred on the origin. Columns are
// lettered from the west edge, rows numbered from the north edge.
type Map struct {
	WorldSize float64
}

// NewMap returns a Map for the given world size, falling back to DefaultWorldSize.
func NewMap(worldSize float64) *Map {
	if worldSize <= 0 {
		worldSize = DefaultWorldSize
	}
	return &Map{WorldSize: worldSize}
}

// Cell returns the zero-based column and row containing pos.
func (m *Map) Cell(pos host.Vector3) (col, row int) {
	half := m.WorldSize / 2
	col = int(math.Floor((pos.X + half) / CellSize))
	row = int(math.Floor((half - pos.Z) / CellSize))
	return max(col, 0), max(row, 0)
}

func (m *Map) Label(pos host.Vector3) string {
	col, row := m.Cell(pos)
	return ColumnLetters(col) + strconv.Itoa(row)
}

// ColumnLetters converts a zero-based column to bijective base-26 letters:
// 0 → A, 25 → Z, 26 → AA, 27 → AB.
func ColumnLetters(col int) string {
	if col < 0 {
		col = 0
	}
	var buf []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		buf = append([]byte{byte('A' + (n-1)%26)}, buf...)
	}
	return string(buf)
}

var _ Labeler = (*Map)(nil)
