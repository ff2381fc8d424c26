package packet

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFileHeader(t *testing.T) {
	out, err := BuildFile(nil, layers.LinkTypeEthernet)
	require.NoError(t, err)
	require.Len(t, out, 24)

	assert.Equal(t, []byte{0xD4, 0xC3, 0xB2, 0xA1}, out[0:4], "little-endian magic")
	assert.Equal(t, []byte{0x02, 0x00, 0x04, 0x00}, out[4:8], "version 2.4")
	assert.Equal(t, make([]byte, 8), out[8:16], "zero GMT offset and accuracy")
	assert.Equal(t, []byte{0xFF, 0xFF, 0x00, 0x00}, out[16:20], "snapshot length")
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, out[20:24], "link type Ethernet")
}

func TestBuildFileRecordHeader(t *testing.T) {
	ts := time.Date(2016, time.August, 27, 10, 30, 0, 0, time.UTC).
		Add(123 * time.Millisecond)
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	out, err := BuildFile([]Record{{Timestamp: ts, Data: data}}, layers.LinkTypeEthernet)
	require.NoError(t, err)
	require.Len(t, out, 24+16+len(data))

	rec := out[24:]
	secs := uint32(ts.Unix())
	assert.Equal(t, []byte{byte(secs), byte(secs >> 8), byte(secs >> 16), byte(secs >> 24)}, rec[0:4], "epoch seconds LE")
	assert.Equal(t, []byte{0x78, 0xE0, 0x01, 0x00}, rec[4:8], "123000 microseconds LE")
	assert.Equal(t, []byte{0x04, 0x00, 0x00, 0x00}, rec[8:12], "captured length")
	assert.Equal(t, []byte{0x04, 0x00, 0x00, 0x00}, rec[12:16], "original length")
	assert.Equal(t, data, rec[16:])
}

func TestBuildFileRoundTripsThroughReader(t *testing.T) {
	ts1 := time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC)
	ts2 := ts1.Add(999 * time.Millisecond)
	records := []Record{
		{Timestamp: ts1, Data: []byte("first")},
		{Timestamp: ts2, Data: []byte("second")},
	}

	out, err := BuildFile(records, layers.LinkTypeEthernet)
	require.NoError(t, err)

	r, err := pcapgo.NewReader(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, layers.LinkTypeEthernet, r.LinkType())

	for i, rec := range records {
		data, ci, err := r.ReadPacketData()
		require.NoError(t, err, "record %d", i)
		assert.Equal(t, rec.Data, data)
		assert.Equal(t, len(rec.Data), ci.CaptureLength)
		assert.Equal(t, len(rec.Data), ci.Length)
		assert.True(t, ci.Timestamp.Equal(rec.Timestamp), "record %d timestamp", i)
	}
}
