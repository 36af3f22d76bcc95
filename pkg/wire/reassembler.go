package wire

import (
	"sync"
	"time"
)

// DefaultEvictAfter bounds how long an incomplete frame is kept around
// under packet loss before its memory is released.
const DefaultEvictAfter = 2 * time.Second

// Packet is a fully reassembled frame packet.
type Packet struct {
	Header  PacketHeader
	Payload []byte
}

type partial struct {
	buf       []byte
	got       []bool
	remaining int
	firstSeen time.Time
}

// Reassembler collects fragments by frame sequence number and emits the
// packet once every fragment arrived. Delivery order is irrelevant and
// duplicates are idempotent. Incomplete frames are evicted after the
// timeout; frames not newer than the last delivered one are ignored.
// Safe for concurrent use.
type Reassembler struct {
	mu         sync.Mutex
	pending    map[uint32]*partial
	mtu        int
	evictAfter time.Duration

	delivered bool
	lastSeq   uint32
	dropped   uint64
}

func NewReassembler() *Reassembler { return NewReassemblerMTU(MaxDatagram, DefaultEvictAfter) }

func NewReassemblerMTU(mtu int, evictAfter time.Duration) *Reassembler {
	return &Reassembler{
		pending:    make(map[uint32]*partial),
		mtu:        mtu,
		evictAfter: evictAfter,
	}
}

// Receive consumes one datagram. It returns the completed packet when the
// datagram was a whole-frame packet or the last missing fragment, and nil
// otherwise. Malformed datagrams are dropped silently.
func (r *Reassembler) Receive(dgram []byte, now time.Time) *Packet {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evict(now)

	if h, err := ParsePacketHeader(dgram); err == nil {
		if r.stale(h.FrameSeq) {
			r.dropped++
			return nil
		}
		return r.complete(h.FrameSeq, append([]byte(nil), dgram...))
	}

	fh, err := ParseFragmentHeader(dgram)
	if err != nil || fh.Count == 0 || fh.Index >= fh.Count {
		r.dropped++
		return nil
	}
	if r.stale(fh.FrameSeq) {
		r.dropped++
		return nil
	}

	chunk := r.mtu - FragmentHeaderSize
	// the count drives the allocation below, never trust it past MaxPacket
	if int64(fh.Count)*int64(chunk) > MaxPacket {
		r.dropped++
		return nil
	}
	p, ok := r.pending[fh.FrameSeq]
	if !ok {
		p = &partial{
			buf:       make([]byte, int(fh.Count)*chunk),
			got:       make([]bool, fh.Count),
			remaining: int(fh.Count),
			firstSeen: now,
		}
		r.pending[fh.FrameSeq] = p
	}
	if int(fh.Count) != len(p.got) {
		// conflicting fragment count for the same sequence, drop the frame
		delete(r.pending, fh.FrameSeq)
		r.dropped++
		return nil
	}

	lo := int(fh.Index) * chunk
	body := dgram[FragmentHeaderSize:]
	copy(p.buf[lo:], body)
	if fh.Index == fh.Count-1 {
		p.buf = p.buf[:lo+len(body)]
	}
	if !p.got[fh.Index] {
		p.got[fh.Index] = true
		p.remaining--
	}
	if p.remaining > 0 {
		return nil
	}

	delete(r.pending, fh.FrameSeq)
	return r.complete(fh.FrameSeq, p.buf)
}

// Dropped returns the number of datagrams and evicted frames discarded so far.
func (r *Reassembler) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Pending returns the number of incomplete frames currently buffered.
func (r *Reassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Reassembler) complete(seq uint32, packet []byte) *Packet {
	h, err := ParsePacketHeader(packet)
	if err != nil {
		r.dropped++
		return nil
	}
	r.delivered = true
	r.lastSeq = seq
	return &Packet{Header: h, Payload: packet[HeaderSize:]}
}

func (r *Reassembler) stale(seq uint32) bool {
	return r.delivered && !SeqNewer(seq, r.lastSeq)
}

func (r *Reassembler) evict(now time.Time) {
	for seq, p := range r.pending {
		if now.Sub(p.firstSeen) >= r.evictAfter {
			delete(r.pending, seq)
			r.dropped++
		}
	}
}
