package containers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceRecycling(t *testing.T) {
	s := NewStore(4)

	sl := Slice[int](s)
	assert.Empty(t, sl)
	sl = append(sl, 1, 2, 3)
	PutSlice(s, sl)
	assert.Equal(t, 1, s.Pooled())

	got := Slice[int](s)
	assert.Empty(t, got, "recycled slices come back empty")
	assert.GreaterOrEqual(t, cap(got), 3, "backing array is reused")
	assert.Equal(t, 0, s.Pooled())
}

func TestSliceZeroesElements(t *testing.T) {
	s := NewStore(4)
	type big struct{ p *int }
	v := 7
	sl := append(Slice[big](s), big{p: &v})
	PutSlice(s, sl)
	assert.Nil(t, sl[0].p, "pooled slices must not pin references")
}

func TestMapRecycling(t *testing.T) {
	s := NewStore(4)
	m := Map[string, int](s)
	m["a"] = 1
	PutMap(s, m)
	require.Equal(t, 1, s.Pooled())

	got := Map[string, int](s)
	assert.Empty(t, got, "recycled maps come back cleared")
	assert.Equal(t, 0, s.Pooled())
}

func TestSetRecycling(t *testing.T) {
	s := NewStore(4)
	set := Set[int](s)
	set[42] = struct{}{}
	PutSet(s, set)

	got := Set[int](s)
	assert.Empty(t, got)
}

func TestBucketsAreTypeKeyed(t *testing.T) {
	s := NewStore(4)
	PutSlice(s, []int{1})
	PutSlice(s, []string{"x"})
	assert.Equal(t, 2, s.Pooled())

	ints := Slice[int](s)
	strs := Slice[string](s)
	assert.IsType(t, []int{}, ints)
	assert.IsType(t, []string{}, strs)
	assert.Equal(t, 0, s.Pooled())
}

func TestBoundDropsOverflow(t *testing.T) {
	s := NewStore(2)
	for i := 0; i < 5; i++ {
		PutSlice(s, make([]int, 0, 4))
	}
	assert.Equal(t, 2, s.Pooled(), "overflow beyond the bucket bound is dropped")
}

func TestPutNilIsNoop(t *testing.T) {
	s := NewStore(2)
	PutSlice[int](s, nil)
	PutMap[string, int](s, nil)
	assert.Equal(t, 0, s.Pooled())
}

func TestConcurrentGetPut(t *testing.T) {
	s := NewStore(8)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				sl := Slice[int](s)
				sl = append(sl, i)
				PutSlice(s, sl)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Pooled(), 8)
}

func TestDefaultStore(t *testing.T) {
	require.NotNil(t, Default())
	sl := Slice[byte](Default())
	PutSlice(Default(), sl)
}
