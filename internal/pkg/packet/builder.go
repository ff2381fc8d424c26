// Package packet reconstructs synthetic link, network and transport headers
// around payloads recovered from PTMF frames, and serializes the result into
// the libpcap container format.
//
// PTMF frames carry only the payload plus addresses and ports, so every
// other header field is filled with a fixed default. Checksums are left
// zero on purpose: the values could not be verified against anything real
// and analyzers accept zero checksums on reconstructed captures.
package packet

import (
	"net"

	"github.com/google/gopacket/layers"

	"github.com/endorses/ptmf2pcap/internal/pkg/byteutil"
	"github.com/endorses/ptmf2pcap/internal/pkg/flowseq"
)

// ZeroMAC is used for both endpoints of synthesized Ethernet headers; the
// trace contains no captured MAC addresses.
var ZeroMAC = net.HardwareAddr{0, 0, 0, 0, 0, 0}

// SyslogPort is the UDP port used when wrapping non-network frame content
// into syslog packets.
const SyslogPort = 514

// Builder assembles packets. TCP and SCTP synthesis is stateful (sequence
// numbers), so a Builder is scoped to one trace-file decode, like the
// flowseq.Tracker it carries.
type Builder struct {
	flows *flowseq.Tracker
}

// NewBuilder returns a Builder drawing sequence numbers from flows.
func NewBuilder(flows *flowseq.Tracker) *Builder {
	return &Builder{flows: flows}
}

// Flows exposes the sequence tracker, mainly so a caller can Reset it when
// reusing a Builder across files.
func (b *Builder) Flows() *flowseq.Tracker {
	return b.flows
}

// uint fields in synthesized headers have fixed, known-good widths, so the
// byteutil error cannot fire here.
func be(v uint64, width int) []byte {
	out, _ := byteutil.IntToBytes(v, width, false)
	return out
}

// Ethernet wraps body in an Ethernet header.
func (b *Builder) Ethernet(srcMAC, dstMAC net.HardwareAddr, etherType layers.EthernetType, body []byte) []byte {
	return byteutil.Concat(
		dstMAC,
		srcMAC,
		be(uint64(etherType), 2),
		body,
	)
}

// IPv4 wraps body in an IPv4 header with default field values:
// version 4, IHL 5, zero ToS, DF set, TTL 64, zero checksum.
func (b *Builder) IPv4(srcIP, dstIP net.IP, protocol layers.IPProtocol, body []byte) []byte {
	return byteutil.Concat(
		[]byte{0x45, 0x00},
		be(uint64(20+len(body)), 2),
		[]byte{0x00, 0x00, 0x40, 0x00, 0x40},
		[]byte{byte(protocol)},
		[]byte{0x00, 0x00}, // checksum
		srcIP.To4(),
		dstIP.To4(),
		body,
	)
}

// UDP wraps body in a UDP header with a zero checksum.
func (b *Builder) UDP(srcPort, dstPort int, body []byte) []byte {
	return byteutil.Concat(
		be(uint64(srcPort), 2),
		be(uint64(dstPort), 2),
		be(uint64(8+len(body)), 2),
		[]byte{0x00, 0x00}, // checksum
		body,
	)
}

// TCP wraps body in a 32-byte TCP header. The sequence number is the
// running per-flow counter; the ack number mirrors what the reverse flow
// has sent so far. A frame with a nonzero ack is flagged PSH+ACK, otherwise
// PSH only, which is the closest guess for a reconstructed conversation.
func (b *Builder) TCP(srcPort, dstPort int, body []byte, srcIP, dstIP net.IP) []byte {
	seq := b.flows.NextTCPSeq(srcIP, srcPort, dstIP, dstPort, len(body))
	ack := b.flows.TCPAck(srcIP, srcPort, dstIP, dstPort)
	flags := byte(0x08) // PSH
	if ack != 0 {
		flags = 0x18 // PSH+ACK
	}
	return byteutil.Concat(
		be(uint64(srcPort), 2),
		be(uint64(dstPort), 2),
		be(uint64(seq), 4),
		be(uint64(ack), 4),
		[]byte{0x80}, // data offset: 8 words
		[]byte{flags},
		[]byte{0xFF, 0xFF}, // window
		[]byte{0x00, 0x00}, // checksum
		[]byte{0x00, 0x00}, // urgent pointer
		make([]byte, 12),   // unused option space
		body,
	)
}

// SCTP wraps body in an SCTP common header plus a single DATA chunk on
// stream zero. The 16-bit per-flow counter feeds both the TSN and the
// stream sequence number. The chunk is padded with 0xFF bytes to a 4-byte
// boundary, matching the vendor tool output byte for byte.
func (b *Builder) SCTP(srcPort, dstPort int, body []byte, srcIP, dstIP net.IP) []byte {
	seq := b.flows.NextSCTPSeq(srcIP, srcPort, dstIP, dstPort)
	padding := make([]byte, (4-(16+len(body))%4)%4)
	for i := range padding {
		padding[i] = 0xFF
	}
	return byteutil.Concat(
		be(uint64(srcPort), 2),
		be(uint64(dstPort), 2),
		[]byte{0x00, 0x00, 0x00, 0x00}, // verification tag
		[]byte{0x00, 0x00, 0x00, 0x00}, // checksum
		[]byte{0x00, 0x03},             // DATA chunk, unordered+unfragmented
		be(uint64(16+len(body)), 2),
		be(uint64(seq), 4), // TSN
		[]byte{0x00, 0x00}, // stream identifier
		be(uint64(seq), 2), // stream sequence number
		[]byte{0x00, 0x00, 0x00, 0x00}, // payload protocol identifier
		body,
		padding,
	)
}
