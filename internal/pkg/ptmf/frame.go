package ptmf

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/gopacket/layers"

	"github.com/endorses/ptmf2pcap/internal/pkg/byteutil"
	"github.com/endorses/ptmf2pcap/internal/pkg/logger"
	"github.com/endorses/ptmf2pcap/internal/pkg/packet"
)

// layout fixes the structural constants of one frame variant: the header
// length and the offsets of the endpoint fields inside that header.
type layout struct {
	headerLen  int
	srcIPOff   int
	dstIPOff   int
	srcPortOff int
	dstPortOff int
}

// layouts holds the per-variant offset tables. The IP variant carries a
// complete Ethernet frame in its body, so it has no endpoint fields of its
// own.
var layouts = map[FileType]layout{
	FileTypeSIP:           {headerLen: 145, srcIPOff: 60, dstIPOff: 82, srcPortOff: 76, dstPortOff: 98},
	FileTypeDiameter:      {headerLen: 108, srcIPOff: 64, dstIPOff: 86, srcPortOff: 80, dstPortOff: 102},
	FileTypeUserInterface: {headerLen: 98, srcIPOff: 54, dstIPOff: 73, srcPortOff: 70, dstPortOff: 89},
	FileTypeIP:            {headerLen: 87},
}

// Field offsets shared by every frame variant. All values are big-endian
// except the transport ports, which the firmware writes little-endian.
const (
	frameNumberOffset = 14
	frameNumberLength = 4
	yearOffset        = 24
	yearLength        = 2
	monthOffset       = 26
	dayOffset         = 27
	hourOffset        = 28
	minuteOffset      = 29
	secondOffset      = 30
	millisecondOffset = 34
	millisecondLength = 2
	ipLength          = 4
	portLength        = 2
)

// Frame is one decoded trace record. Implementations differ only in how
// they reconstruct a packet from the frame body; header field extraction is
// shared and driven by the variant's layout.
type Frame interface {
	// Order is the 0-based position of the frame within its file. It is
	// kept for traceability only and has no effect on decoding.
	Order() int
	// Number is the frame number recorded by the tracing element.
	Number() uint32
	// Timestamp is the arrival time in UTC, millisecond precision.
	Timestamp() time.Time
	// EthernetPacket reconstructs the full link-layer packet for the
	// frame, synthesizing whatever headers the trace did not capture.
	EthernetPacket(b *packet.Builder) ([]byte, error)
}

// newFrame decodes one delimiter-bounded slice into the variant matching
// the file type. A slice shorter than the variant's header yields
// errFrameTooShort; the caller decides whether that is ignorable.
func newFrame(ft FileType, data []byte, order int) (Frame, error) {
	lay, ok := layouts[ft]
	if !ok {
		return nil, ErrUnsupportedFileType
	}
	if len(data) < lay.headerLen {
		return nil, fmt.Errorf("%w: %d bytes, need %d", errFrameTooShort, len(data), lay.headerLen)
	}
	core := frameCore{data: data, order: order, layout: lay}
	switch ft {
	case FileTypeSIP:
		return &sipFrame{core}, nil
	case FileTypeDiameter:
		return &diameterFrame{core}, nil
	case FileTypeUserInterface:
		return &userInterfaceFrame{core}, nil
	default:
		return &ipFrame{core}, nil
	}
}

// frameCore carries the raw slice and implements the field extraction
// shared by all variants.
type frameCore struct {
	data   []byte
	order  int
	layout layout
}

func (f *frameCore) Order() int {
	return f.order
}

// uintField reads a fixed-width unsigned integer from the frame header.
// Offsets come from compile-time layout tables and frames are length
// checked on construction, so the reads cannot go out of bounds.
func (f *frameCore) uintField(offset, length int, littleEndian bool) uint64 {
	v, _ := byteutil.BytesToInt(f.data[offset:offset+length], littleEndian)
	return v
}

func (f *frameCore) Number() uint32 {
	return uint32(f.uintField(frameNumberOffset, frameNumberLength, false))
}

// Timestamp composes the arrival time from the calendar fields in the
// frame header. Corrupt calendar fields are logged and degrade to the
// epoch rather than aborting the conversion; a bad timestamp should not
// cost the frame's payload.
func (f *frameCore) Timestamp() time.Time {
	ts, err := composeUTC(
		int(f.uintField(yearOffset, yearLength, false)),
		int(f.uintField(monthOffset, 1, false)),
		int(f.uintField(dayOffset, 1, false)),
		int(f.uintField(hourOffset, 1, false)),
		int(f.uintField(minuteOffset, 1, false)),
		int(f.uintField(secondOffset, 1, false)),
	)
	if err != nil {
		logger.Warn("invalid frame timestamp, using epoch", "frame", f.order, "error", err)
		ts = time.Unix(0, 0).UTC()
	}
	ms := time.Duration(f.uintField(millisecondOffset, millisecondLength, false))
	return ts.Add(ms * time.Millisecond)
}

func composeUTC(year, month, day, hour, minute, second int) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 ||
		hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("calendar fields out of range: %04d-%02d-%02d %02d:%02d:%02d",
			year, month, day, hour, minute, second)
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if ts.Day() != day {
		// time.Date normalizes impossible dates like Feb 30 instead of failing.
		return time.Time{}, fmt.Errorf("invalid calendar date %04d-%02d-%02d", year, month, day)
	}
	return ts, nil
}

func (f *frameCore) body() []byte {
	return f.data[f.layout.headerLen:]
}

func (f *frameCore) srcIP() net.IP {
	return net.IP(f.data[f.layout.srcIPOff : f.layout.srcIPOff+ipLength])
}

func (f *frameCore) dstIP() net.IP {
	return net.IP(f.data[f.layout.dstIPOff : f.layout.dstIPOff+ipLength])
}

func (f *frameCore) srcPort() int {
	return int(f.uintField(f.layout.srcPortOff, portLength, true))
}

func (f *frameCore) dstPort() int {
	return int(f.uintField(f.layout.dstPortOff, portLength, true))
}

// transport is the transport protocol guessed for a signaling frame.
type transport int

const (
	transportUDP transport = iota
	transportTCP
	transportSCTP
)

// transportFromVia guesses the transport protocol from the topmost Via
// header of a SIP message. The trace header does not record the transport,
// but the Via line usually does. Only the first Via line counts. Note that
// "SIP/2.0/TLS-SCTP" hits the TLS match first and is reported as TCP; the
// SCTP branch is reachable for plain "SIP/2.0/SCTP".
func transportFromVia(body []byte) transport {
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.ToUpper(strings.TrimSuffix(line, "\r"))
		if !strings.HasPrefix(line, "VIA") {
			continue
		}
		switch {
		case strings.Contains(line, "SIP/2.0/TCP"), strings.Contains(line, "SIP/2.0/TLS"):
			return transportTCP
		case strings.Contains(line, "SIP/2.0/SCTP"), strings.Contains(line, "SIP/2.0/TLS-SCTP"):
			return transportSCTP
		default:
			return transportUDP
		}
	}
	return transportUDP
}

// signalingIPv4 wraps the frame body in the given transport plus an IPv4
// header, using the endpoints recorded in the frame header.
func (f *frameCore) signalingIPv4(b *packet.Builder, tr transport) []byte {
	body := f.body()
	switch tr {
	case transportTCP:
		seg := b.TCP(f.srcPort(), f.dstPort(), body, f.srcIP(), f.dstIP())
		return b.IPv4(f.srcIP(), f.dstIP(), layers.IPProtocolTCP, seg)
	case transportSCTP:
		seg := b.SCTP(f.srcPort(), f.dstPort(), body, f.srcIP(), f.dstIP())
		return b.IPv4(f.srcIP(), f.dstIP(), layers.IPProtocolSCTP, seg)
	default:
		seg := b.UDP(f.srcPort(), f.dstPort(), body)
		return b.IPv4(f.srcIP(), f.dstIP(), layers.IPProtocolUDP, seg)
	}
}

// synthEthernet wraps a reconstructed IPv4 packet in an Ethernet header
// with zeroed MAC addresses; the trace captures none.
func synthEthernet(b *packet.Builder, ipv4 []byte) []byte {
	return b.Ethernet(packet.ZeroMAC, packet.ZeroMAC, layers.EthernetTypeIPv4, ipv4)
}

// sipFrame carries a bare SIP message; the transport is guessed from the
// message's Via header.
type sipFrame struct {
	frameCore
}

func (f *sipFrame) EthernetPacket(b *packet.Builder) ([]byte, error) {
	return synthEthernet(b, f.signalingIPv4(b, transportFromVia(f.body()))), nil
}

// diameterFrame carries a bare Diameter message. The trace records nothing
// about the transport; SCTP is assumed because that is what these SBC
// deployments run Diameter over.
type diameterFrame struct {
	frameCore
}

func (f *diameterFrame) EthernetPacket(b *packet.Builder) ([]byte, error) {
	return synthEthernet(b, f.signalingIPv4(b, transportSCTP)), nil
}

// ipFrame already carries a complete Ethernet frame in its body, so the
// body passes through verbatim with no header synthesis.
type ipFrame struct {
	frameCore
}

func (f *ipFrame) EthernetPacket(_ *packet.Builder) ([]byte, error) {
	return f.body(), nil
}
