package comm

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrTransportFailure is returned from a blocking collective when the
// communicator has been aborted. The collective is not retried here; the
// caller may rebuild the communicator and try again.
var ErrTransportFailure = errors.New("transport failure during collective")

/*
Communicator coordinates a fixed set of ranks running one goroutine each,
exchanging byte buffers through buffered per-pair channels. Delivery is
in-order per pair, so the two all-to-all phases of a collective cannot
overtake each other even without an explicit barrier between them.

The channel capacity bounds the number of in-flight collectives per pair;
ranks drain their inboxes inside every collective, so sends never block
indefinitely on a live communicator.
*/
type Communicator struct {
	np    int
	pipes [][]chan []byte // pipes[src][dst]
	done  chan struct{}
}

// New creates a communicator for np ranks.
func New(np int) *Communicator {
	if np < 1 {
		panic(fmt.Sprintf("communicator needs at least one rank, have %d", np))
	}
	c := &Communicator{
		np:   np,
		done: make(chan struct{}),
	}
	c.pipes = make([][]chan []byte, np)
	for src := 0; src < np; src++ {
		c.pipes[src] = make([]chan []byte, np)
		for dst := 0; dst < np; dst++ {
			c.pipes[src][dst] = make(chan []byte, 4)
		}
	}
	return c
}

// Abort poisons the communicator: every rank blocked in a collective, and
// every later collective call, returns ErrTransportFailure.
func (c *Communicator) Abort() {
	defer func() { recover() }() // concurrent aborts race on the close
	close(c.done)
}

// NumRanks returns the number of ranks in the communicator.
func (c *Communicator) NumRanks() int { return c.np }

// Rank returns the handle rank id uses for collective calls.
func (c *Communicator) Rank(id int) *Rank {
	if id < 0 || id >= c.np {
		panic(fmt.Sprintf("rank %d out of [0,%d)", id, c.np))
	}
	return &Rank{c: c, id: id}
}

// Spawn runs fn once per rank, each on its own goroutine, and waits for all
// of them. The first non-nil error aborts the communicator so the remaining
// ranks unblock, and is returned.
func (c *Communicator) Spawn(fn func(r *Rank) error) error {
	g := new(errgroup.Group)
	for id := 0; id < c.np; id++ {
		r := c.Rank(id)
		g.Go(func() error {
			if err := fn(r); err != nil {
				c.Abort()
				return fmt.Errorf("rank %d: %w", r.id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Rank is one process's handle on the communicator.
type Rank struct {
	c  *Communicator
	id int
}

// ID returns this rank's number in [0, Size()).
func (r *Rank) ID() int { return r.id }

// Size returns the number of ranks in the communicator.
func (r *Rank) Size() int { return r.c.np }

/*
AllToAll sends send[q] to every rank q and returns recv with recv[p] holding
the buffer rank p sent here. send must have length Size(); nil buffers are
exchanged as empty ones so the collective topology stays uniform. The self
entry is passed through without copying.
*/
func (r *Rank) AllToAll(send [][]byte) (recv [][]byte, err error) {
	c := r.c
	if len(send) != c.np {
		return nil, fmt.Errorf("AllToAll wants %d buffers, got %d", c.np, len(send))
	}
	for dst := 0; dst < c.np; dst++ {
		if dst == r.id {
			continue
		}
		buf := send[dst]
		if buf == nil {
			buf = []byte{}
		}
		select {
		case c.pipes[r.id][dst] <- buf:
		case <-c.done:
			return nil, ErrTransportFailure
		}
	}
	recv = make([][]byte, c.np)
	recv[r.id] = send[r.id]
	for src := 0; src < c.np; src++ {
		if src == r.id {
			continue
		}
		select {
		case recv[src] = <-c.pipes[src][r.id]:
		case <-c.done:
			return nil, ErrTransportFailure
		}
	}
	return recv, nil
}

// AllReduceSum returns the sum of v over all ranks, identical on every rank.
func (r *Rank) AllReduceSum(v int) (int, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(int64(v)))
	send := make([][]byte, r.Size())
	for q := range send {
		send[q] = buf
	}
	recv, err := r.AllToAll(send)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, b := range recv {
		if len(b) != 8 {
			return 0, fmt.Errorf("AllReduceSum buffer of %d bytes: %w",
				len(b), ErrTransportFailure)
		}
		total += int(int64(binary.BigEndian.Uint64(b)))
	}
	return total, nil
}

// Barrier blocks until every rank has entered it.
func (r *Rank) Barrier() error {
	send := make([][]byte, r.Size())
	_, err := r.AllToAll(send)
	return err
}
