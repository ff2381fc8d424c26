// Package flowseq synthesizes transport-layer sequence numbers for
// reconstructed packets. PTMF traces never record real TCP/SCTP sequence
// state, so the converter keeps a per-flow running counter and hands out
// deterministic values; without that, analyzers mark the reconstructed
// stream as full of retransmissions and out-of-order segments.
//
// A Tracker is scoped to the decode of a single trace file. Each decode
// must use a fresh (or Reset) instance, and a Tracker must not be shared
// between concurrent decodes.
package flowseq

import (
	"net"
	"strconv"
)

// flowKey identifies one direction of a flow.
type flowKey struct {
	src string
	dst string
}

func newFlowKey(srcIP net.IP, srcPort int, dstIP net.IP, dstPort int) flowKey {
	return flowKey{
		src: net.JoinHostPort(srcIP.String(), strconv.Itoa(srcPort)),
		dst: net.JoinHostPort(dstIP.String(), strconv.Itoa(dstPort)),
	}
}

// reverse returns the key for the opposite direction.
func (k flowKey) reverse() flowKey {
	return flowKey{src: k.dst, dst: k.src}
}

// Tracker holds the per-flow counters for TCP sequence numbers and SCTP
// transmission sequence numbers. The zero value is not usable; call New.
type Tracker struct {
	tcpSeq  map[flowKey]uint32
	sctpSeq map[flowKey]uint16
}

// New returns an empty Tracker.
func New() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

// Reset clears all counters. Call it before decoding a trace file when
// reusing a Tracker; state must never leak between unrelated files.
func (t *Tracker) Reset() {
	t.tcpSeq = make(map[flowKey]uint32)
	t.sctpSeq = make(map[flowKey]uint16)
}

// NextTCPSeq returns the current sequence number for the forward flow and
// advances the counter by bodyLen, modulo 2^32.
func (t *Tracker) NextTCPSeq(srcIP net.IP, srcPort int, dstIP net.IP, dstPort int, bodyLen int) uint32 {
	key := newFlowKey(srcIP, srcPort, dstIP, dstPort)
	seq := t.tcpSeq[key]
	t.tcpSeq[key] = seq + uint32(bodyLen) // wraps mod 2^32
	return seq
}

// TCPAck returns the current sequence counter of the reverse flow without
// advancing it. The value acknowledges whatever the peer has "sent" so far;
// it is a heuristic reconstruction, not a real acknowledgment protocol.
func (t *Tracker) TCPAck(srcIP net.IP, srcPort int, dstIP net.IP, dstPort int) uint32 {
	return t.tcpSeq[newFlowKey(srcIP, srcPort, dstIP, dstPort).reverse()]
}

// NextSCTPSeq returns the current transmission sequence number for the
// forward flow and advances the counter by one, modulo 65536. Callers use
// the returned value for both the TSN and the stream sequence number,
// since the converter only ever emits stream zero.
func (t *Tracker) NextSCTPSeq(srcIP net.IP, srcPort int, dstIP net.IP, dstPort int) uint16 {
	key := newFlowKey(srcIP, srcPort, dstIP, dstPort)
	seq := t.sctpSeq[key]
	t.sctpSeq[key] = seq + 1 // wraps mod 65536
	return seq
}
