package ringbuf

import (
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/c360/circbuf/testutil"
)

// ringModel is the reference behavior: a slice ordered oldest to newest
// that never grows past capacity.
type ringModel struct {
	items    []int
	capacity int
}

func (m *ringModel) push(v int) {
	m.items = append(m.items, v)
	if len(m.items) > m.capacity {
		m.items = m.items[1:]
	}
}

func (m *ringModel) reserve(n int) {
	m.items = testutil.LastN(m.items, n)
	m.capacity = n
}

func (m *ringModel) resize(n, fill int) {
	m.reserve(n)
	for len(m.items) < n {
		m.items = append(m.items, fill)
	}
}

func TestRingBuffer_MatchesModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rb, err := New[int](WithMaxSize[int](16))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		model := &ringModel{}

		t.Repeat(map[string]func(*rapid.T){
			"push": func(t *rapid.T) {
				if model.capacity == 0 {
					t.Skip("zero capacity")
				}
				v := rapid.Int().Draw(t, "value")
				rb.PushBack(v)
				model.push(v)
			},
			"reserve": func(t *rapid.T) {
				n := rapid.IntRange(0, 16).Draw(t, "capacity")
				if err := rb.Reserve(n); err != nil {
					t.Fatalf("Reserve(%d): %v", n, err)
				}
				model.reserve(n)
			},
			"reserve over max": func(t *rapid.T) {
				n := rapid.IntRange(17, 64).Draw(t, "capacity")
				if err := rb.Reserve(n); err == nil {
					t.Fatalf("Reserve(%d) above max size succeeded", n)
				}
			},
			"resize": func(t *rapid.T) {
				n := rapid.IntRange(0, 16).Draw(t, "size")
				fill := rapid.Int().Draw(t, "fill")
				if err := rb.ResizeWith(n, fill); err != nil {
					t.Fatalf("ResizeWith(%d): %v", n, err)
				}
				model.resize(n, fill)
			},
			"shrink": func(t *rapid.T) {
				rb.ShrinkToFit()
				model.reserve(len(model.items))
			},
			"clear": func(t *rapid.T) {
				rb.Clear()
				model.items = nil
			},
			"at": func(t *rapid.T) {
				p := rapid.IntRange(-2, 18).Draw(t, "position")
				got, err := rb.At(p)
				if p < 0 || p >= len(model.items) {
					if err == nil {
						t.Fatalf("At(%d) on size %d succeeded", p, len(model.items))
					}
					return
				}
				if err != nil {
					t.Fatalf("At(%d): %v", p, err)
				}
				if want := model.items[len(model.items)-1-p]; got != want {
					t.Fatalf("At(%d) = %d, want %d", p, got, want)
				}
			},
			"clone": func(t *rapid.T) {
				clone, err := rb.Clone()
				if err != nil {
					t.Fatalf("Clone: %v", err)
				}
				if !slices.Equal(clone.Slice(), model.items) {
					t.Fatalf("clone %v, want %v", clone.Slice(), model.items)
				}
				if clone.Capacity() != len(model.items) {
					t.Fatalf("clone capacity %d, want %d", clone.Capacity(), len(model.items))
				}
			},
			"": func(t *rapid.T) {
				if rb.Size() != len(model.items) {
					t.Fatalf("size %d, want %d", rb.Size(), len(model.items))
				}
				if rb.Capacity() != model.capacity {
					t.Fatalf("capacity %d, want %d", rb.Capacity(), model.capacity)
				}
				if !slices.Equal(rb.Slice(), model.items) {
					t.Fatalf("contents %v, want %v", rb.Slice(), model.items)
				}

				var backward []int
				for _, v := range rb.Backward() {
					backward = append(backward, v)
				}
				if !slices.Equal(backward, testutil.Reversed(model.items)) {
					t.Fatalf("reverse traversal %v, want reversed %v", backward, model.items)
				}

				if len(model.items) > 0 {
					if rb.Front() != model.items[len(model.items)-1] {
						t.Fatalf("front %d, want %d", rb.Front(), model.items[len(model.items)-1])
					}
					if rb.Back() != model.items[0] {
						t.Fatalf("back %d, want %d", rb.Back(), model.items[0])
					}
				}
			},
		})
	})
}

func TestRingBuffer_ReleaseAccounting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		log := testutil.NewReleaseLog()
		alloc := testutil.NewMockAllocator[*testutil.Tracked]()
		rb, err := New[*testutil.Tracked](WithAllocator[*testutil.Tracked](alloc))
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		next := 0
		ops := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 64).Draw(t, "ops")
		for _, op := range ops {
			switch op {
			case 0, 1:
				if rb.Capacity() == 0 {
					_ = rb.Reserve(1)
				}
				rb.PushBack(log.Track(next))
				next++
			case 2:
				_ = rb.Reserve(rapid.IntRange(0, 8).Draw(t, "capacity"))
			case 3:
				rb.Clear()
			}
		}
		_ = rb.Close()

		for id := 0; id < next; id++ {
			if n := log.Count(id); n != 1 {
				t.Fatalf("element %d released %d times", id, n)
			}
		}
		if alloc.Outstanding() != 0 {
			t.Fatalf("%d blocks leaked", alloc.Outstanding())
		}
	})
}
