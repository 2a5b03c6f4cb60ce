package heap

import (
	"github.com/cilforge/cilforge/pkg"
	"github.com/pkg/errors"
)

// BuildMode is how a heap builder produces its output. Exactly one mode is
// chosen at construction from the shape of the change set; the mode is
// carried explicitly so callers and tests can see which path ran.
type BuildMode uint8

const (
	// ModeReplace emits a caller-supplied full heap image.
	ModeReplace BuildMode = iota
	// ModeIncremental patches the original heap bytes in place, relocating
	// only items that no longer fit, and appends new items at the end.
	ModeIncremental
	// ModeRebuild constructs the heap from scratch when there is no
	// original image to patch.
	ModeRebuild
)

func (m BuildMode) String() string {
	switch m {
	case ModeReplace:
		return "replace"
	case ModeIncremental:
		return "incremental"
	case ModeRebuild:
		return "rebuild"
	default:
		return "unknown"
	}
}

// Builder produces the final bytes of one metadata heap. Build may be
// called once; IndexMappings is valid after a successful Build and lists
// only items whose index moved. Unlisted indices are unchanged.
type Builder interface {
	Name() string
	Mode() BuildMode
	Build() ([]byte, error)
	IndexMappings() map[uint32]uint32
}

var ErrHeapBounds = errors.New("heap index out of bounds")
var ErrMissingTerminator = errors.New("string heap item has no terminator")

// heaps are padded to a 4-byte boundary with 0xFF filler
func pad4(buf []byte) []byte {
	for len(buf)%4 != 0 {
		buf = append(buf, 0xFF)
	}
	return buf
}

// chooseMode picks the build strategy: a full replacement wins, then
// patching when original bytes exist, otherwise rebuild.
func chooseMode(has_replacement bool, original_len int) BuildMode {
	switch {
	case has_replacement:
		return ModeReplace
	case original_len > 0:
		return ModeIncremental
	default:
		return ModeRebuild
	}
}

func sortedRemovals(removed map[uint32]struct{}) []uint32 {
	return pkg.SortedUintKeys(removed)
}

// provisionalSet indexes the append-time indices so edits aimed past the
// original heap can be told apart from plain bad indices.
func provisionalSet(indices []uint32) map[uint32]struct{} {
	set := make(map[uint32]struct{}, len(indices))
	for _, index := range indices {
		set[index] = struct{}{}
	}
	return set
}
