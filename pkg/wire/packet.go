// Package wire implements the datagram framing used by the UDP fallback
// transport: a whole-frame packet when the encoded image fits into one
// datagram, numbered fragments otherwise. All integers are big-endian.
package wire

import (
	"encoding/binary"
	"errors"
)

const (
	// FrameMagic marks a whole-frame packet ("NDIS").
	FrameMagic = 0x4E444953
	// FragmentMagic marks one fragment of an oversized packet ("FRAG").
	FragmentMagic = 0x46524147

	// MaxDatagram is the practical UDP payload ceiling.
	MaxDatagram = 65507

	HeaderSize         = 24
	FragmentHeaderSize = 16

	// ChunkSize is the number of packet bytes carried by one fragment.
	ChunkSize = MaxDatagram - FragmentHeaderSize

	// MaxPacket is the largest reassembled packet accepted from the
	// network, far above any encoded frame. Fragment counts claiming
	// more than this are discarded without allocating.
	MaxPacket = 16 << 20
)

var (
	ErrShortPacket = errors.New("wire: packet too short")
	ErrBadMagic    = errors.New("wire: unknown magic")
)

// PacketHeader precedes the encoded image bytes of a frame.
type PacketHeader struct {
	FrameSeq    uint32
	Width       uint32
	Height      uint32
	TimestampUS uint64
}

// FragmentHeader precedes each chunk of a packet that did not fit into
// a single datagram. Index is 0-based and always less than Count.
type FragmentHeader struct {
	FrameSeq uint32
	Index    uint32
	Count    uint32
}

func (h PacketHeader) Marshal() []byte {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(b[0:], FrameMagic)
	binary.BigEndian.PutUint32(b[4:], h.FrameSeq)
	binary.BigEndian.PutUint32(b[8:], h.Width)
	binary.BigEndian.PutUint32(b[12:], h.Height)
	binary.BigEndian.PutUint64(b[16:], h.TimestampUS)
	return b
}

func ParsePacketHeader(b []byte) (PacketHeader, error) {
	if len(b) < HeaderSize {
		return PacketHeader{}, ErrShortPacket
	}
	if binary.BigEndian.Uint32(b) != FrameMagic {
		return PacketHeader{}, ErrBadMagic
	}
	return PacketHeader{
		FrameSeq:    binary.BigEndian.Uint32(b[4:]),
		Width:       binary.BigEndian.Uint32(b[8:]),
		Height:      binary.BigEndian.Uint32(b[12:]),
		TimestampUS: binary.BigEndian.Uint64(b[16:]),
	}, nil
}

func (h FragmentHeader) Marshal() []byte {
	b := make([]byte, FragmentHeaderSize)
	binary.BigEndian.PutUint32(b[0:], FragmentMagic)
	binary.BigEndian.PutUint32(b[4:], h.FrameSeq)
	binary.BigEndian.PutUint32(b[8:], h.Index)
	binary.BigEndian.PutUint32(b[12:], h.Count)
	return b
}

func ParseFragmentHeader(b []byte) (FragmentHeader, error) {
	if len(b) < FragmentHeaderSize {
		return FragmentHeader{}, ErrShortPacket
	}
	if binary.BigEndian.Uint32(b) != FragmentMagic {
		return FragmentHeader{}, ErrBadMagic
	}
	return FragmentHeader{
		FrameSeq: binary.BigEndian.Uint32(b[4:]),
		Index:    binary.BigEndian.Uint32(b[8:]),
		Count:    binary.BigEndian.Uint32(b[12:]),
	}, nil
}

// SeqNewer reports whether sequence number a is newer than b under u32
// wraparound, i.e. (a-b) mod 2^32 < 2^31.
func SeqNewer(a, b uint32) bool { return a != b && a-b < 1<<31 }

// Framer turns encoded frame payloads into datagrams, fragmenting when
// the packet exceeds the configured MTU. Sequence numbers increase by one
// per frame and wrap at the u32 boundary.
//
// Fragments split the whole packet (header included), matching the peer's
// expectation that reassembly yields packet bytes; datagrams are returned
// in index order but the transport may deliver them in any order.
type Framer struct {
	seq uint32
	mtu int
}

func NewFramer() *Framer { return &Framer{mtu: MaxDatagram} }

// NewFramerMTU makes a framer with a custom maximum datagram size,
// which must exceed both header sizes.
func NewFramerMTU(mtu int) *Framer { return &Framer{mtu: mtu} }

// Frame builds the datagrams for one encoded frame and advances the
// sequence number.
func (f *Framer) Frame(w, h uint32, timestampUS uint64, payload []byte) [][]byte {
	f.seq++
	header := PacketHeader{FrameSeq: f.seq, Width: w, Height: h, TimestampUS: timestampUS}
	packet := append(header.Marshal(), payload...)
	if len(packet) <= f.mtu {
		return [][]byte{packet}
	}

	chunk := f.mtu - FragmentHeaderSize
	count := (len(packet) + chunk - 1) / chunk
	grams := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		lo := i * chunk
		hi := min(lo+chunk, len(packet))
		fh := FragmentHeader{FrameSeq: f.seq, Index: uint32(i), Count: uint32(count)}
		grams = append(grams, append(fh.Marshal(), packet[lo:hi]...))
	}
	return grams
}

// Seq returns the sequence number of the last framed packet.
func (f *Framer) Seq() uint32 { return f.seq }
