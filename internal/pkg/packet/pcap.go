package packet

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// SnapLen is the snapshot length advertised in the PCAP file header.
// Reconstructed packets are never truncated, so captured and original
// lengths are always equal.
const SnapLen = 0xFFFF

// Record is one reconstructed packet ready to be written to a capture file.
type Record struct {
	// Timestamp is the frame arrival time in UTC, with the trace's
	// millisecond field already applied.
	Timestamp time.Time
	// Data is the full Ethernet frame.
	Data []byte
}

// BuildFile serializes records into a complete libpcap byte stream:
// the 24-byte global header (v2.4, little-endian magic, zero timezone and
// accuracy, 0xFFFF snapshot length) followed by the per-record headers and
// frame bytes.
func BuildFile(records []Record, linkType layers.LinkType) ([]byte, error) {
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	if err := w.WriteFileHeader(SnapLen, linkType); err != nil {
		return nil, fmt.Errorf("writing pcap file header: %w", err)
	}
	for i, rec := range records {
		ci := gopacket.CaptureInfo{
			Timestamp:     rec.Timestamp,
			CaptureLength: len(rec.Data),
			Length:        len(rec.Data),
		}
		if err := w.WritePacket(ci, rec.Data); err != nil {
			return nil, fmt.Errorf("writing pcap record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
