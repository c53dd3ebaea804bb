package clients

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmitUpToCapacity(t *testing.T) {
	for _, capacity := range []int{1, 2, 5} {
		t.Run(fmt.Sprint(capacity), func(t *testing.T) {
			r := NewRegistry(capacity)
			leases := make([]*Lease, 0, capacity)
			for i := 0; i < capacity; i++ {
				l, err := r.Admit(fmt.Sprint("s", i), "127.0.0.1:1")
				require.NoError(t, err)
				leases = append(leases, l)
			}

			_, err := r.Admit("extra", "127.0.0.1:2")
			assert.ErrorIs(t, err, ErrAtCapacity)
			assert.Equal(t, capacity, r.Len())
			for _, l := range leases {
				assert.True(t, r.Has(l.ID()), "existing sessions unaffected")
			}

			leases[0].Release()
			l, err := r.Admit("extra", "127.0.0.1:2")
			require.NoError(t, err)
			assert.Equal(t, "extra", l.ID())
		})
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := NewRegistry(2)
	a, err := r.Admit("a", "")
	require.NoError(t, err)
	_, err = r.Admit("b", "")
	require.NoError(t, err)

	a.Release()
	a.Release()
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Has("b"))
}

func TestDuplicateID(t *testing.T) {
	r := NewRegistry(3)
	_, err := r.Admit("a", "")
	require.NoError(t, err)
	_, err = r.Admit("a", "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAtCapacity)
}

func TestConcurrentAdmitNeverExceedsCapacity(t *testing.T) {
	const capacity = 3
	r := NewRegistry(capacity)
	var admitted, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := r.Admit(fmt.Sprint(i), "")
			if err != nil {
				return
			}
			n := admitted.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			assert.LessOrEqual(t, r.Len(), capacity)
			admitted.Add(-1)
			l.Release()
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(capacity))
	assert.Zero(t, r.Len())
}

func TestSnapshotOrdered(t *testing.T) {
	r := NewRegistry(3)
	for _, id := range []string{"a", "b", "c"} {
		_, err := r.Admit(id, "")
		require.NoError(t, err)
	}
	snap := r.Snapshot()
	require.Len(t, snap, 3)
	for i := 1; i < len(snap); i++ {
		assert.False(t, snap[i].Since.Before(snap[i-1].Since))
	}
}
