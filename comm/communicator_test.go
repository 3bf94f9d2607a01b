package comm

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllToAll(t *testing.T) {
	for _, np := range []int{1, 2, 3, 7, 13} {
		c := New(np)
		err := c.Spawn(func(r *Rank) error {
			send := make([][]byte, r.Size())
			for q := 0; q < r.Size(); q++ {
				send[q] = []byte(fmt.Sprintf("%d->%d", r.ID(), q))
			}
			recv, err := r.AllToAll(send)
			if err != nil {
				return err
			}
			for p := 0; p < r.Size(); p++ {
				want := fmt.Sprintf("%d->%d", p, r.ID())
				if string(recv[p]) != want {
					return fmt.Errorf("rank %d got %q from %d, want %q",
						r.ID(), recv[p], p, want)
				}
			}
			return nil
		})
		assert.NoError(t, err, "np=%d", np)
	}
}

func TestAllToAllEmptyBuffers(t *testing.T) {
	// Uniform topology: nil buffers travel as empty ones
	c := New(4)
	err := c.Spawn(func(r *Rank) error {
		recv, err := r.AllToAll(make([][]byte, r.Size()))
		if err != nil {
			return err
		}
		for p, b := range recv {
			if p != r.ID() && len(b) != 0 {
				return fmt.Errorf("expected empty buffer from %d", p)
			}
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestAllReduceSum(t *testing.T) {
	for _, np := range []int{1, 2, 5, 13} {
		c := New(np)
		want := 0
		for id := 0; id < np; id++ {
			want += id*id + 1
		}
		err := c.Spawn(func(r *Rank) error {
			// Two reductions back to back exercise per-pair ordering
			for pass := 0; pass < 2; pass++ {
				total, err := r.AllReduceSum(r.ID()*r.ID() + 1)
				if err != nil {
					return err
				}
				if total != want {
					return fmt.Errorf("rank %d: total %d, want %d", r.ID(), total, want)
				}
			}
			return nil
		})
		assert.NoError(t, err, "np=%d", np)
	}
}

func TestBarrier(t *testing.T) {
	c := New(8)
	var entered int32
	err := c.Spawn(func(r *Rank) error {
		atomic.AddInt32(&entered, 1)
		if err := r.Barrier(); err != nil {
			return err
		}
		if n := atomic.LoadInt32(&entered); n != 8 {
			return fmt.Errorf("rank %d left barrier with %d entries", r.ID(), n)
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestAbortUnblocksCollective(t *testing.T) {
	boom := errors.New("boom")
	c := New(3)
	err := c.Spawn(func(r *Rank) error {
		if r.ID() == 1 {
			return boom // never enters the collective
		}
		err := r.Barrier()
		if !errors.Is(err, ErrTransportFailure) {
			return fmt.Errorf("rank %d: barrier returned %v, want transport failure", r.ID(), err)
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}
