// Package ptmf decodes the proprietary PTMF binary trace format written by
// SE2900-series session border controllers and reconstructs each frame as a
// capture-file record. A trace file is a header followed by frame records
// separated by a fixed delimiter; the header's type byte selects which of
// four frame families the file carries.
package ptmf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/gopacket/layers"

	"github.com/endorses/ptmf2pcap/internal/pkg/byteutil"
	"github.com/endorses/ptmf2pcap/internal/pkg/flowseq"
	"github.com/endorses/ptmf2pcap/internal/pkg/logger"
	"github.com/endorses/ptmf2pcap/internal/pkg/packet"
)

// FrameDelimiter separates frame records inside a trace file ("msg0").
var FrameDelimiter = []byte{0x6D, 0x73, 0x67, 0x30}

const (
	fileTypeOffset = 23
	fileTypeLength = 1
	// minFileLength is the smallest file that still has a type byte.
	minFileLength = fileTypeOffset + fileTypeLength
)

// TraceFile wraps the complete raw content of one PTMF file. The buffer is
// never mutated after construction; all accessors derive from it.
type TraceFile struct {
	data []byte
}

// NewTraceFile validates that data is long enough to carry a type byte and
// wraps it. It does not validate the frame records; Frames does.
func NewTraceFile(data []byte) (*TraceFile, error) {
	if len(data) < minFileLength {
		return nil, &StructuralError{
			Frame:  -1,
			Reason: fmt.Sprintf("file is %d bytes, too short to carry a type byte at offset %d", len(data), fileTypeOffset),
		}
	}
	return &TraceFile{data: data}, nil
}

// FileType reads the type byte and resolves it against the known frame
// families; unrecognized codes yield FileTypeUnknown.
func (t *TraceFile) FileType() FileType {
	return fileTypeByCode[t.fileTypeHex()]
}

func (t *TraceFile) fileTypeHex() string {
	return byteutil.HexEncode(t.data[fileTypeOffset : fileTypeOffset+fileTypeLength])
}

// Header returns the file bytes before the first frame delimiter, or the
// whole file when no delimiter occurs.
func (t *TraceFile) Header() []byte {
	idx := byteutil.Indices(t.data, FrameDelimiter)
	if len(idx) == 0 {
		return t.data
	}
	return t.data[:idx[0]]
}

// frameSlices returns the byte ranges between delimiter occurrences, in
// on-disk order. The slices alias the underlying buffer.
func (t *TraceFile) frameSlices() [][]byte {
	idx := byteutil.Indices(t.data, FrameDelimiter)
	slices := make([][]byte, 0, len(idx))
	for i, start := range idx {
		from := start + len(FrameDelimiter)
		to := len(t.data)
		if i+1 < len(idx) {
			to = idx[i+1]
		}
		slices = append(slices, t.data[from:to])
	}
	return slices
}

// Frames decodes every frame record in on-disk order.
//
// A frame slice shorter than its variant's header is dropped only when it
// is the last slice in the file; newer firmware appends a partial trailing
// record and that is the one safely ignorable case. A short slice anywhere
// else means the delimiter scan went wrong and the whole file is
// undecodable.
func (t *TraceFile) Frames() ([]Frame, error) {
	ft := t.FileType()
	if !ft.Supported() {
		return nil, fmt.Errorf("file type code 0x%s: %w", t.fileTypeHex(), ErrUnsupportedFileType)
	}
	slices := t.frameSlices()
	frames := make([]Frame, 0, len(slices))
	for i, slice := range slices {
		frame, err := newFrame(ft, slice, i)
		if err != nil {
			if errors.Is(err, errFrameTooShort) && i == len(slices)-1 {
				logger.Debug("dropping truncated trailing frame",
					"frame", i, "bytes", len(slice))
				continue
			}
			return nil, &StructuralError{Frame: i, Reason: err.Error()}
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Pcap decodes the file and serializes every frame into a complete libpcap
// byte stream. Each call uses a fresh flow-sequence tracker, so decoding
// the same file twice produces identical bytes, and frames are processed
// strictly in on-disk order because sequence synthesis is order dependent.
func (t *TraceFile) Pcap() ([]byte, error) {
	frames, err := t.Frames()
	if err != nil {
		return nil, err
	}
	builder := packet.NewBuilder(flowseq.New())
	records := make([]packet.Record, 0, len(frames))
	for _, f := range frames {
		eth, err := f.EthernetPacket(builder)
		if err != nil {
			return nil, err
		}
		records = append(records, packet.Record{Timestamp: f.Timestamp(), Data: eth})
	}
	return packet.BuildFile(records, layers.LinkTypeEthernet)
}

// DumpHex renders the file as hex text, header first and one frame slice
// per line. It exists to eyeball unknown trace layouts.
func (t *TraceFile) DumpHex() []byte {
	var sb strings.Builder
	sb.WriteString(byteutil.HexEncode(t.Header()))
	for _, slice := range t.frameSlices() {
		sb.WriteString("\r\n")
		sb.WriteString(byteutil.HexEncode(slice))
	}
	return []byte(sb.String())
}
