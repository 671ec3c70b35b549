package arena_test

import (
	"testing"

	"keb/internal/arena"
)

// tiny reserves everything from 2 upward.
type tiny uint32

func (tiny) Band() uint32 { return 2 }

type plain uint32

func (plain) Band() uint32 { return arena.None }

func TestPushGet(t *testing.T) {
	a := arena.New[plain, string](0)
	x := a.Push("x")
	y := a.Push("y")
	if x.Raw() != 0 || y.Raw() != 1 {
		t.Fatalf("handles = %d, %d; want 0, 1", x, y)
	}
	got := a.Get(y)
	if got.Kind != arena.Stored || *got.Value != "y" {
		t.Fatalf("Get(y) = %+v", got)
	}
	if got := a.Get(arena.Index[plain](7)); got.Kind != arena.NotFound {
		t.Fatalf("dangling handle kind = %v", got.Kind)
	}
	a.Set(x, "z")
	if *a.MustGet(x) != "z" {
		t.Fatalf("Set did not overwrite slot")
	}
	if a.Len() != 2 {
		t.Fatalf("Len = %d", a.Len())
	}
}

func TestSentinelTakesPriority(t *testing.T) {
	a := arena.New[tiny, int](0)
	a.Push(10)
	a.Push(20)
	got := a.Get(arena.Index[tiny](2))
	if got.Kind != arena.SentinelValue || got.Sentinel != 2 {
		t.Fatalf("Get(2) = %+v, want sentinel", got)
	}
	if !arena.Index[tiny](3).IsSentinel() {
		t.Fatalf("3 should be a sentinel")
	}
	if _, ok := arena.Index[tiny](1).Sentinel(); ok {
		t.Fatalf("1 should not be a sentinel")
	}
}

func TestPushPanicsAtBand(t *testing.T) {
	a := arena.New[tiny, int](0)
	a.Push(1)
	a.Push(2)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when the counter reaches the band")
		}
	}()
	a.Push(3)
}

func TestMustGetPanicsOnSentinel(t *testing.T) {
	a := arena.New[tiny, int](0)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	a.MustGet(arena.Index[tiny](5))
}

func TestAllOrder(t *testing.T) {
	a := arena.New[plain, int](4)
	for i := range 4 {
		a.Push(i * 10)
	}
	var seen []int
	for idx, v := range a.All() {
		if int(idx)*10 != *v {
			t.Fatalf("slot %d holds %d", idx, *v)
		}
		seen = append(seen, *v)
	}
	if len(seen) != 4 {
		t.Fatalf("All yielded %d slots", len(seen))
	}
}
