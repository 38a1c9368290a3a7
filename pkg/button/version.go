package button

import (
	"strconv"
	"strings"
)

const (
	// CurrentVersion is stamped on every saved document.
	CurrentVersion = "2.2.0"

	// BaselineVersion is the oldest layout that can be carried forward.
	// Documents older than this are replaced with defaults.
	BaselineVersion = "2.0.0"
)

// CompareVersions compares dotted numeric versions ("2.10.0" > "2.9.1").
// Missing segments count as zero and non-numeric segments as zero.
func CompareVersions(a, b string) int {
	as := strings.Split(strings.TrimPrefix(strings.TrimSpace(a), "v"), ".")
	bs := strings.Split(strings.TrimPrefix(strings.TrimSpace(b), "v"), ".")
	n := max(len(as), len(bs))
	for i := 0; i < n; i++ {
		av, bv := segment(as, i), segment(bs, i)
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

func segment(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	v, err := strconv.Atoi(parts[i])
	if err != nil {
		return 0
	}
	return v
}

// Migrate upgrades a loaded document to CurrentVersion. It returns the document
// to use and whether it changed (and therefore needs saving).
//
// An unstamped document keeps its buttons. A document strictly older than
// BaselineVersion is replaced wholesale with defaults.
func Migrate(data *StoredData) (*StoredData, bool) {
	if data == nil {
		return NewStoredData(), true
	}

	if data.PressButtons == nil {
		data.PressButtons = make(map[uint64]Behavior)
	}

	switch {
	case data.Version == "":
		data.Version = CurrentVersion
		return data, true
	case CompareVersions(data.Version, BaselineVersion) < 0:
		return NewStoredData(), true
	case CompareVersions(data.Version, CurrentVersion) < 0:
		data.Version = CurrentVersion
		return data, true
	default:
		return data, false
	}
}
