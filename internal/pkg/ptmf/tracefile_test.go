package ptmf

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorses/ptmf2pcap/internal/pkg/byteutil"
)

// buildTrace assembles a synthetic trace file: a 32-byte file header with
// the type byte set, then each frame prefixed by the delimiter.
func buildTrace(typeByte byte, frames ...[]byte) []byte {
	out := make([]byte, 32)
	out[fileTypeOffset] = typeByte
	for _, f := range frames {
		out = byteutil.Concat(out, FrameDelimiter, f)
	}
	return out
}

func readAllRecords(t *testing.T, pcap []byte) []gopacket.Packet {
	t.Helper()
	r, err := pcapgo.NewReader(bytes.NewReader(pcap))
	require.NoError(t, err)
	var pkts []gopacket.Packet
	for {
		data, _, err := r.ReadPacketData()
		if err != nil {
			break
		}
		pkts = append(pkts, gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default))
	}
	return pkts
}

func TestNewTraceFileTooShort(t *testing.T) {
	_, err := NewTraceFile(make([]byte, 10))
	var structErr *StructuralError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, -1, structErr.Frame)
}

func TestFileTypeDetection(t *testing.T) {
	tests := []struct {
		typeByte  byte
		want      FileType
		supported bool
	}{
		{typeByte: 0x01, want: FileTypeSIP, supported: true},
		{typeByte: 0x03, want: FileTypeDiameter, supported: true},
		{typeByte: 0x10, want: FileTypeUserInterface, supported: true},
		{typeByte: 0x53, want: FileTypeIP, supported: true},
		{typeByte: 0xFF, want: FileTypeUnknown, supported: false},
		{typeByte: 0x00, want: FileTypeUnknown, supported: false},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			tf, err := NewTraceFile(buildTrace(tt.typeByte))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tf.FileType())
			assert.Equal(t, tt.supported, tf.FileType().Supported())
		})
	}
}

func TestUnsupportedFileTypeFailsDecode(t *testing.T) {
	tf, err := NewTraceFile(buildTrace(0xFF, make([]byte, 200)))
	require.NoError(t, err)

	_, err = tf.Frames()
	require.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = tf.Pcap()
	require.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestSIPFileEndToEnd(t *testing.T) {
	body := []byte("INVITE sip:bob@example.com SIP/2.0\r\nVia: SIP/2.0/UDP 10.0.0.1:8080\r\n\r\n")
	raw := buildTrace(0x01, buildFrame(t, FileTypeSIP, defaultSpec(body)))

	tf, err := NewTraceFile(raw)
	require.NoError(t, err)

	pcap, err := tf.Pcap()
	require.NoError(t, err)

	// Global header: little-endian magic, v2.4, snaplen 0xFFFF, Ethernet.
	require.GreaterOrEqual(t, len(pcap), 24)
	assert.Equal(t, []byte{0xD4, 0xC3, 0xB2, 0xA1}, pcap[:4])
	assert.Equal(t, []byte{0x02, 0x00, 0x04, 0x00}, pcap[4:8])
	assert.Equal(t, []byte{0xFF, 0xFF, 0x00, 0x00}, pcap[16:20])
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, pcap[20:24])

	pkts := readAllRecords(t, pcap)
	require.Len(t, pkts, 1)

	ip4 := pkts[0].Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	assert.Equal(t, "10.0.0.1", ip4.SrcIP.String())
	assert.Equal(t, "10.0.0.2", ip4.DstIP.String())
	assert.Equal(t, layers.IPProtocolUDP, ip4.Protocol)

	udp := pkts[0].Layer(layers.LayerTypeUDP).(*layers.UDP)
	assert.Equal(t, layers.UDPPort(8080), udp.SrcPort)
	assert.Equal(t, layers.UDPPort(5060), udp.DstPort)
	assert.Equal(t, body, udp.Payload)
}

func TestRecordTimestampsSurviveSerialization(t *testing.T) {
	s := defaultSpec([]byte("OPTIONS sip:x SIP/2.0\r\n\r\n"))
	raw := buildTrace(0x01, buildFrame(t, FileTypeSIP, s))

	tf, err := NewTraceFile(raw)
	require.NoError(t, err)
	pcap, err := tf.Pcap()
	require.NoError(t, err)

	r, err := pcapgo.NewReader(bytes.NewReader(pcap))
	require.NoError(t, err)
	_, ci, err := r.ReadPacketData()
	require.NoError(t, err)

	want := time.Date(2016, time.August, 27, 10, 30, 0, 123e6, time.UTC)
	assert.True(t, want.Equal(ci.Timestamp), "got %v", ci.Timestamp)
}

func TestFramesKeepOnDiskOrder(t *testing.T) {
	var frames [][]byte
	for i := 1; i <= 3; i++ {
		s := defaultSpec([]byte("REGISTER sip:x SIP/2.0\r\n\r\n"))
		s.number = uint32(i * 10)
		frames = append(frames, buildFrame(t, FileTypeSIP, s))
	}
	tf, err := NewTraceFile(buildTrace(0x01, frames...))
	require.NoError(t, err)

	decoded, err := tf.Frames()
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i, f := range decoded {
		assert.Equal(t, i, f.Order())
		assert.Equal(t, uint32((i+1)*10), f.Number())
	}
}

func TestTruncatedTrailingFrameIsDropped(t *testing.T) {
	full := buildFrame(t, FileTypeSIP, defaultSpec([]byte("BYE sip:x SIP/2.0\r\n\r\n")))
	tf, err := NewTraceFile(buildTrace(0x01, full, make([]byte, 10)))
	require.NoError(t, err)

	frames, err := tf.Frames()
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}

func TestTruncatedMiddleFrameFailsWholeFile(t *testing.T) {
	full := buildFrame(t, FileTypeSIP, defaultSpec([]byte("BYE sip:x SIP/2.0\r\n\r\n")))
	tf, err := NewTraceFile(buildTrace(0x01, make([]byte, 10), full))
	require.NoError(t, err)

	_, err = tf.Frames()
	var structErr *StructuralError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, 0, structErr.Frame)
}

func TestRepeatedDecodeProducesIdenticalBytes(t *testing.T) {
	// TCP sequence synthesis is stateful; a fresh tracker per decode keeps
	// the output deterministic.
	body := []byte("INVITE sip:x SIP/2.0\r\nVia: SIP/2.0/TCP 10.0.0.1\r\n\r\n")
	var frames [][]byte
	for i := 0; i < 3; i++ {
		s := defaultSpec(body)
		s.number = uint32(i)
		frames = append(frames, buildFrame(t, FileTypeSIP, s))
	}
	tf, err := NewTraceFile(buildTrace(0x01, frames...))
	require.NoError(t, err)

	first, err := tf.Pcap()
	require.NoError(t, err)
	second, err := tf.Pcap()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTCPSequencesAdvanceAcrossFrames(t *testing.T) {
	body := []byte("INVITE sip:x SIP/2.0\r\nVia: SIP/2.0/TCP 10.0.0.1\r\n\r\n")
	s1 := defaultSpec(body)
	s2 := defaultSpec(body)
	s2.number = 2
	tf, err := NewTraceFile(buildTrace(0x01,
		buildFrame(t, FileTypeSIP, s1), buildFrame(t, FileTypeSIP, s2)))
	require.NoError(t, err)

	pcap, err := tf.Pcap()
	require.NoError(t, err)
	pkts := readAllRecords(t, pcap)
	require.Len(t, pkts, 2)

	first := pkts[0].Layer(layers.LayerTypeTCP).(*layers.TCP)
	second := pkts[1].Layer(layers.LayerTypeTCP).(*layers.TCP)
	assert.Equal(t, uint32(0), first.Seq)
	assert.Equal(t, uint32(len(body)), second.Seq)
}

func TestHeaderEndsAtFirstDelimiter(t *testing.T) {
	raw := buildTrace(0x01, buildFrame(t, FileTypeSIP, defaultSpec([]byte("x"))))
	tf, err := NewTraceFile(raw)
	require.NoError(t, err)

	header := tf.Header()
	assert.Len(t, header, 32)
	assert.Equal(t, byte(0x01), header[fileTypeOffset])
}

func TestHeaderIsWholeFileWithoutDelimiter(t *testing.T) {
	raw := make([]byte, 40)
	raw[fileTypeOffset] = 0x01
	tf, err := NewTraceFile(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, tf.Header())

	frames, err := tf.Frames()
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestDumpHexLayout(t *testing.T) {
	frame := buildFrame(t, FileTypeSIP, defaultSpec([]byte{0xAB}))
	tf, err := NewTraceFile(buildTrace(0x01, frame))
	require.NoError(t, err)

	dump := tf.DumpHex()
	lines := bytes.Split(dump, []byte("\r\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, []byte(byteutil.HexEncode(tf.Header())), lines[0])
	assert.Equal(t, []byte(byteutil.HexEncode(frame)), lines[1])
}
