// Package reassembly rebuilds multi-chunk message payloads from frames that
// may arrive in any order, keyed by msg_id within one connection.
package reassembly

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmcree/airlink/internal/protocol"
)

type pending struct {
	slots     [][]byte
	have      []bool
	filled    int
	firstSeen time.Time
}

func (p *pending) grow(cnt int) {
	for len(p.slots) < cnt {
		p.slots = append(p.slots, nil)
		p.have = append(p.have, false)
	}
}

func (p *pending) complete() bool {
	return p.filled == len(p.slots)
}

func (p *pending) assemble() []byte {
	size := 0
	for _, s := range p.slots {
		size += len(s)
	}
	out := make([]byte, 0, size)
	for _, s := range p.slots {
		out = append(out, s...)
	}
	return out
}

// Reassembler tracks partial messages per msg_id. One instance belongs to
// one connection context; callers on multiple goroutines are serialized by
// an internal mutex.
type Reassembler struct {
	mu      sync.Mutex
	pending map[uint16]*pending
	log     zerolog.Logger
	now     func() time.Time

	completed uint64
	dropped   uint64
	evicted   uint64
}

func New(logger zerolog.Logger) *Reassembler {
	return &Reassembler{
		pending: make(map[uint16]*pending),
		log:     logger.With().Str("component", "reassembler").Logger(),
		now:     time.Now,
	}
}

// OnChunk stores the frame's payload in its message slot. When every slot of
// the message is filled it returns the concatenated payload in index order
// and evicts the entry. Duplicate chunk indices overwrite in place; a later
// chunk declaring a larger chunk count grows the slot array.
func (r *Reassembler) OnChunk(f protocol.Frame) ([]byte, bool) {
	if f.ChunkCnt == 0 {
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		r.log.Debug().Uint16("msg_id", f.MsgID).Msg("dropping chunk with zero count")
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.pending[f.MsgID]
	if !ok {
		st = &pending{firstSeen: r.now()}
		r.pending[f.MsgID] = st
	}
	st.grow(int(f.ChunkCnt))

	idx := int(f.ChunkIdx)
	if idx >= len(st.slots) {
		r.dropped++
		r.log.Debug().
			Uint16("msg_id", f.MsgID).
			Uint16("chunk_idx", f.ChunkIdx).
			Uint16("chunk_cnt", f.ChunkCnt).
			Msg("dropping chunk with out-of-range index")
		if st.filled == 0 {
			delete(r.pending, f.MsgID)
		}
		return nil, false
	}

	if !st.have[idx] {
		st.have[idx] = true
		st.filled++
	}
	st.slots[idx] = append([]byte(nil), f.Payload...)

	if !st.complete() {
		return nil, false
	}
	payload := st.assemble()
	delete(r.pending, f.MsgID)
	r.completed++
	return payload, true
}

// Pending returns the number of incomplete messages currently tracked.
func (r *Reassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Completed returns the number of fully reassembled messages.
func (r *Reassembler) Completed() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// Sweep evicts partial messages whose first chunk arrived more than maxAge
// ago and returns how many were dropped. The wire protocol has no way to
// resume an abandoned transfer, so stale entries only leak memory.
func (r *Reassembler) Sweep(maxAge time.Duration) int {
	cutoff := r.now().Add(-maxAge)
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, st := range r.pending {
		if st.firstSeen.Before(cutoff) {
			delete(r.pending, id)
			n++
			r.evicted++
			r.log.Debug().
				Uint16("msg_id", id).
				Int("filled", st.filled).
				Int("slots", len(st.slots)).
				Msg("evicting stale partial message")
		}
	}
	return n
}
