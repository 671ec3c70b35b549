package arena

import (
	"fmt"
	"iter"
	"math"

	"fortio.org/safecast"
)

// None is the raw value every marker without sentinels reserves as "no handle".
const None = math.MaxUint32

// Sentinel is implemented by marker types. Every raw handle value >= Band()
// decodes to a sentinel of the marker type.
type Sentinel interface {
	~uint32
	Band() uint32
}

// Index is a handle into an arena tagged by the marker S.
type Index[S Sentinel] uint32

// Sentinel decodes the handle as a sentinel value.
func (i Index[S]) Sentinel() (S, bool) {
	var s S
	if uint32(i) >= s.Band() {
		return S(i), true
	}
	return s, false
}

// IsSentinel reports whether the handle lies in the reserved band.
func (i Index[S]) IsSentinel() bool {
	var s S
	return uint32(i) >= s.Band()
}

// Raw returns the underlying uint32.
func (i Index[S]) Raw() uint32 { return uint32(i) }

// Kind classifies the result of an arena lookup.
type Kind uint8

const (
	// NotFound means the handle is neither a sentinel nor a stored slot.
	NotFound Kind = iota
	// SentinelValue means the handle decoded to a sentinel.
	SentinelValue
	// Stored means the handle addresses a slot of the arena.
	Stored
)

func (k Kind) String() string {
	switch k {
	case SentinelValue:
		return "sentinel"
	case Stored:
		return "stored"
	default:
		return "not-found"
	}
}

// Val is the outcome of Arena.Get. Sentinel decoding takes priority over the
// storage lookup.
type Val[S Sentinel, V any] struct {
	Kind     Kind
	Sentinel S
	Value    *V
}

// Arena is an append-only vector addressed by Index[S].
type Arena[S Sentinel, V any] struct {
	data []V
}

// New creates an arena with the given capacity hint.
func New[S Sentinel, V any](capHint int) *Arena[S, V] {
	return &Arena[S, V]{data: make([]V, 0, capHint)}
}

// Push appends v and returns its handle. Reaching the sentinel band is an
// internal invariant violation and panics.
func (a *Arena[S, V]) Push(v V) Index[S] {
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("arena length overflow: %w", err))
	}
	var s S
	if n >= s.Band() {
		panic(fmt.Errorf("arena exhausted: next handle %#x reaches reserved band %#x", n, s.Band()))
	}
	a.data = append(a.data, v)
	return Index[S](n)
}

// Get looks the handle up.
func (a *Arena[S, V]) Get(i Index[S]) Val[S, V] {
	if s, ok := i.Sentinel(); ok {
		return Val[S, V]{Kind: SentinelValue, Sentinel: s}
	}
	if int(i) >= len(a.data) {
		return Val[S, V]{Kind: NotFound}
	}
	return Val[S, V]{Kind: Stored, Value: &a.data[i]}
}

// MustGet returns the stored slot and panics on sentinels and dangling handles.
func (a *Arena[S, V]) MustGet(i Index[S]) *V {
	got := a.Get(i)
	if got.Kind != Stored {
		panic(fmt.Errorf("arena: handle %#x is %s, want stored slot", uint32(i), got.Kind))
	}
	return got.Value
}

// Set overwrites a stored slot.
func (a *Arena[S, V]) Set(i Index[S], v V) {
	*a.MustGet(i) = v
}

// Len reports the number of stored slots.
func (a *Arena[S, V]) Len() int {
	return len(a.data)
}

// All iterates stored slots in allocation order.
func (a *Arena[S, V]) All() iter.Seq2[Index[S], *V] {
	return func(yield func(Index[S], *V) bool) {
		for i := range a.data {
			if !yield(Index[S](i), &a.data[i]) { // #nosec G115 -- bounded by Push
				return
			}
		}
	}
}
