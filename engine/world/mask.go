package world

import (
	"math/bits"
	"strconv"

	"github.com/kaisc/lemon-toolkit/common"
)

// MaxComponents is the width of a ComponentMask and therefore the largest
// number of component types one world can register.
const MaxComponents = 128

const maskWords = MaxComponents / 64

// ComponentMask is a fixed-width bitset indexed by component type index.
// The zero value is the empty mask.
type ComponentMask [maskWords]uint64

// Set returns a copy of the mask with the given bit set. Indices outside the
// mask width are ignored.
func (m ComponentMask) Set(idx common.TypeIndex) ComponentMask {
	if idx >= MaxComponents {
		return m
	}
	m[idx/64] |= 1 << (idx % 64)
	return m
}

// Clear returns a copy of the mask with the given bit cleared.
func (m ComponentMask) Clear(idx common.TypeIndex) ComponentMask {
	if idx >= MaxComponents {
		return m
	}
	m[idx/64] &^= 1 << (idx % 64)
	return m
}

// Has reports whether the given bit is set.
func (m ComponentMask) Has(idx common.TypeIndex) bool {
	if idx >= MaxComponents {
		return false
	}
	return m[idx/64]&(1<<(idx%64)) != 0
}

// Or returns the union of both masks.
func (m ComponentMask) Or(other ComponentMask) ComponentMask {
	for i := range m {
		m[i] |= other[i]
	}
	return m
}

// ContainsAll reports whether every bit of want is set in m.
func (m ComponentMask) ContainsAll(want ComponentMask) bool {
	for i := range m {
		if m[i]&want[i] != want[i] {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no bit is set.
func (m ComponentMask) IsEmpty() bool {
	for i := range m {
		if m[i] != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of set bits.
func (m ComponentMask) Count() int {
	total := 0
	for i := range m {
		total += bits.OnesCount64(m[i])
	}
	return total
}

// String renders the mask as a hex pair for diagnostics.
func (m ComponentMask) String() string {
	return strconv.FormatUint(m[1], 16) + ":" + strconv.FormatUint(m[0], 16)
}
