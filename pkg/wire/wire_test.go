package wire

import (
	"bytes"
	"math/rand"
	"testing"
	"time"
)

func payload(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func TestFramerSingleDatagram(t *testing.T) {
	f := NewFramer()
	data := payload(1000, 1)
	grams := f.Frame(640, 480, 42, data)
	if len(grams) != 1 {
		t.Fatalf("got %v datagrams, want 1", len(grams))
	}
	h, err := ParsePacketHeader(grams[0])
	if err != nil {
		t.Fatal(err)
	}
	if h.FrameSeq != 1 || h.Width != 640 || h.Height != 480 || h.TimestampUS != 42 {
		t.Errorf("bad header %+v", h)
	}
	if !bytes.Equal(grams[0][HeaderSize:], data) {
		t.Error("payload mismatch")
	}
}

func TestFramerFragmentCount(t *testing.T) {
	const mtu = 1016 // chunk size 1000
	tests := []struct {
		payload int
		want    int
	}{
		{payload: 992, want: 1}, // 992+24 == mtu, fits exactly
		{payload: 993, want: 2}, // one byte over
		{payload: 10*1000 - 24, want: 10},
		{payload: 10*1000 - 23, want: 11},
	}
	for _, test := range tests {
		f := NewFramerMTU(mtu)
		grams := f.Frame(1, 1, 0, payload(test.payload, 2))
		if len(grams) != test.want {
			t.Errorf("payload %v: got %v datagrams, want %v", test.payload, len(grams), test.want)
		}
		if len(grams) == 1 {
			continue
		}
		seen := make(map[uint32]bool)
		for _, g := range grams {
			if len(g) > mtu {
				t.Errorf("datagram of %v bytes exceeds mtu %v", len(g), mtu)
			}
			fh, err := ParseFragmentHeader(g)
			if err != nil {
				t.Fatal(err)
			}
			if fh.Index >= fh.Count || int(fh.Count) != len(grams) {
				t.Errorf("bad fragment header %+v", fh)
			}
			if seen[fh.Index] {
				t.Errorf("duplicate fragment index %v", fh.Index)
			}
			seen[fh.Index] = true
		}
	}
}

func TestReassembleRoundTrip(t *testing.T) {
	const mtu = 1000
	f := NewFramerMTU(mtu)
	r := NewReassemblerMTU(mtu, DefaultEvictAfter)
	now := time.Now()

	for _, size := range []int{100, 5000, 64 * 1024} {
		data := payload(size, int64(size))
		grams := f.Frame(320, 240, 7, data)

		// deliver out of order
		rand.New(rand.NewSource(int64(size))).Shuffle(len(grams), func(i, j int) {
			grams[i], grams[j] = grams[j], grams[i]
		})

		var got *Packet
		for _, g := range grams {
			if p := r.Receive(g, now); p != nil {
				if got != nil {
					t.Fatal("frame delivered twice")
				}
				got = p
			}
		}
		if got == nil {
			t.Fatalf("size %v: frame never reassembled", size)
		}
		if !bytes.Equal(got.Payload, data) {
			t.Errorf("size %v: payload mismatch", size)
		}
		if got.Header.Width != 320 || got.Header.Height != 240 {
			t.Errorf("size %v: bad header %+v", size, got.Header)
		}
	}
}

func TestReassembleDuplicatesIdempotent(t *testing.T) {
	const mtu = 1000
	f := NewFramerMTU(mtu)
	r := NewReassemblerMTU(mtu, DefaultEvictAfter)
	data := payload(5000, 3)
	grams := f.Frame(1, 1, 0, data)
	now := time.Now()

	// duplicate every fragment while the frame is still incomplete
	var got *Packet
	for _, g := range grams {
		if p := r.Receive(g, now); p != nil {
			got = p
		}
		if p := r.Receive(g, now); p != nil {
			if got != nil {
				t.Fatal("duplicate fragment emitted a second frame")
			}
			got = p
		}
	}
	if got == nil {
		t.Fatal("frame never reassembled")
	}
	if !bytes.Equal(got.Payload, data) {
		t.Error("payload mismatch after duplicate fragments")
	}
	// every datagram is now stale, nothing may emit again
	for _, g := range grams {
		if p := r.Receive(g, now); p != nil {
			t.Error("stale duplicate datagrams emitted a second frame")
		}
	}
}

func TestReassembleLossAndEviction(t *testing.T) {
	const mtu = 1000
	f := NewFramerMTU(mtu)
	r := NewReassemblerMTU(mtu, DefaultEvictAfter)
	grams := f.Frame(1, 1, 0, payload(5000, 4))
	now := time.Now()

	for _, g := range grams[1:] { // drop fragment 0
		if p := r.Receive(g, now); p != nil {
			t.Fatal("incomplete frame was emitted")
		}
	}
	if r.Pending() != 1 {
		t.Fatalf("pending = %v, want 1", r.Pending())
	}

	// an unrelated datagram past the timeout triggers eviction
	late := NewFramer().Frame(1, 1, 0, []byte("x"))
	if p := r.Receive(late[0], now.Add(DefaultEvictAfter+time.Second)); p == nil {
		t.Error("whole-frame datagram was not delivered")
	}
	if r.Pending() != 0 {
		t.Errorf("pending = %v after eviction, want 0", r.Pending())
	}
	if r.Dropped() == 0 {
		t.Error("eviction not accounted as drop")
	}
}

func TestSeqNewerWraparound(t *testing.T) {
	tests := []struct {
		a, b uint32
		want bool
	}{
		{1, 0, true},
		{0, 1, false},
		{5, 5, false},
		{0, ^uint32(0), true}, // wrapped
		{^uint32(0), 0, false},
		{1 << 31, 0, false}, // exactly half the space away
		{(1 << 31) - 1, 0, true},
	}
	for _, test := range tests {
		if got := SeqNewer(test.a, test.b); got != test.want {
			t.Errorf("SeqNewer(%v, %v) = %v, want %v", test.a, test.b, got, test.want)
		}
	}
}

func TestReassemblerIgnoresOldSequences(t *testing.T) {
	r := NewReassembler()
	f := NewFramer()
	now := time.Now()

	first := f.Frame(1, 1, 0, []byte("a"))  // seq 1
	second := f.Frame(1, 1, 0, []byte("b")) // seq 2

	if p := r.Receive(second[0], now); p == nil {
		t.Fatal("second frame not delivered")
	}
	if p := r.Receive(first[0], now); p != nil {
		t.Error("older sequence was delivered after a newer one")
	}
}

func TestReassemblerRejectsOversizedFragmentCount(t *testing.T) {
	r := NewReassembler()
	now := time.Now()

	// a single forged fragment claiming a near-u32 count must not turn
	// into a multi-terabyte allocation
	forged := FragmentHeader{FrameSeq: 1, Index: 0, Count: ^uint32(0)}
	dgram := append(forged.Marshal(), make([]byte, 100)...)

	if p := r.Receive(dgram, now); p != nil {
		t.Fatal("forged fragment was delivered")
	}
	if got := r.Pending(); got != 0 {
		t.Errorf("pending = %v, want 0", got)
	}
	if got := r.Dropped(); got != 1 {
		t.Errorf("dropped = %v, want 1", got)
	}

	// the biggest count still within MaxPacket is buffered normally
	limit := uint32(MaxPacket / ChunkSize)
	ok := FragmentHeader{FrameSeq: 2, Index: 0, Count: limit}
	if p := r.Receive(append(ok.Marshal(), make([]byte, 100)...), now); p != nil {
		t.Fatal("incomplete frame was delivered")
	}
	if got := r.Pending(); got != 1 {
		t.Errorf("pending = %v, want 1", got)
	}
}
