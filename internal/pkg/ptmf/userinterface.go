package ptmf

import (
	"fmt"
	"net"

	"github.com/google/gopacket/layers"

	"github.com/endorses/ptmf2pcap/internal/pkg/byteutil"
	"github.com/endorses/ptmf2pcap/internal/pkg/packet"
)

// UserInterface frames multiplex very different content behind a single
// frame family. A two-byte message interface type field in the header
// selects what the body holds; the tables below group the known codes into
// classes that share a reconstruction policy.
const (
	messageInterfaceTypeOffset = 91
	messageInterfaceTypeLength = 2
	mediaInfoHeaderLength      = 48
)

// interfaceClass selects the payload reconstruction policy for a
// UserInterface frame.
type interfaceClass int

const (
	// classNetworkSignaling frames carry a bare signaling message (SIP,
	// Diameter, DNS) plus endpoints, like the SIP frame family.
	classNetworkSignaling interfaceClass = iota
	// classNetworkMedia frames carry a complete IPv4 packet (RTP) behind a
	// fixed media-info sub-header.
	classNetworkMedia
	// classTextLog frames carry a text-encoded system log.
	classTextLog
	// classBinaryLog frames carry a binary-encoded system log.
	classBinaryLog
	// classUnknown is any code not present in the tables.
	classUnknown
)

var networkSignalingTypes = map[string]string{
	"2C01": "TRACE_SIPC_UP",
	"2D01": "TRACE_SIPC_DOWN",
	"FC01": "TRACE_DNSENUM",
	"F901": "TRACE_DIAM_GQ",
}

var networkMediaTypes = map[string]string{
	"1827": "TRACE_MEDIA_UP",
	"1927": "TRACE_MEDIA_DOWN",
}

var binaryLogTypes = map[string]string{
	"2727": "TRACE_SIG_ACCESS_UP",
	"2527": "TRACE_SIG_ACCESS_DOWN",
	"A523": "TRACE_MI_CALL_HLLM",
	"5624": "TRACE_MSG_TPTD_SIPC_SUCC",
	"1F00": "TRACE_BC_DIAMRM",
	"2200": "TRACE_DIAMRM_BC",
	"5424": "TRACE_MSG_TPTD_SEND_SIPC",
	"3723": "TRACE_REG_IPB",
	"8D23": "TRACE_CALL_SDB",
	"2103": "TRACE_SDB_CALL",
	"2000": "TRACE_BC_DBMS",
	"1527": "TRACE_TOPO_TM",
	"1427": "TRACE_TM_TOPO",
	"1327": "TRACE_TM_DIST",
	"4101": "TRACE_SIPC_ENUM",
	"3001": "TRACE_SIPC_ABCF",
	"5524": "TRACE_MSG_SIPC_SEND_TPTD",
	"0100": "TRACE_LOG",
	"1727": "TRACE_HRU_MCU",
	"6902": "TRACE_H248_CRO",
	"6001": "TRACE_ENUM_DNS",
	"5E01": "TRACE_ENUM_3263",
	"1227": "TRACE_DIST_TM",
	"6302": "TRACE_CRO_SM",
	"6602": "TRACE_CRO_H248",
	"6802": "TRACE_CRO_CRO",
	"1627": "TRACE_CMU_HRU",
	"1127": "TRACE_CMU_BSU",
	"5203": "TRACE_CDB_CALL",
	"8C23": "TRACE_CALL_SIPC",
	"A123": "TRACE_CALL_PCDR",
	"8E23": "TRACE_CALL_DBMS",
	"8F23": "TRACE_CALL_BC",
	"1027": "TRACE_BSU_CMU",
	"2100": "TRACE_BC_RO",
	"A223": "TRACE_ABCF_SIPC",
	"1E00": "TRACE_BC_CALL",
	"2823": "TRACE_REG_SIPC",
	"8025": "TRACE_MSG_REG_SEND_AKA",
	"8325": "TRACE_MSG_HLLM_SEND_REG",
	"2923": "TRACE_REG_SDB",
	"2E23": "TRACE_REG_DBMS",
	"5A03": "TRACE_CDB_ASDB",
	"8125": "TRACE_MSG_AKA_SEND_REG",
	"4303": "TRACE_DBMS_SIPC",
	"2503": "TRACE_SDB_DBMS",
	"B824": "TRACE_MSG_SDB_IPB",
	"2003": "TRACE_SDB_REG",
	"8225": "TRACE_MSG_REG_SEND_HLLM",
	"5403": "TRACE_MSG_PDISP_QUERY_HLLM_DBMS",
	"3E01": "TRACE_SIPC_CDB",
}

var textLogTypes = map[string]string{
	"0100": "TRACE_LOG",
	"5301": "TRACE_SIPC_TXNUP",
	"5401": "TRACE_SIPC_TUDOWN",
	"5201": "TRACE_SIPC_APP",
	"9E23": "TRACE_BCF_SIPC",
	"2227": "TRACE_QOS_UP",
	"2327": "TRACE_QOS_DOWN",
	"1C25": "TRACE_SDG_DIAG_INFO",
	"1C27": "TRACE_HRU_CONFIGINFO_DIAG_INFO",
	"1D25": "TRACE_CALL_DIAG_INFO",
	"2025": "TRACE_BC_DIAG_INFO",
	"2125": "TRACE_CRO_DIAG_INFO",
	"1A27": "TRACE_CMU_DIAG_INFO",
	"1B27": "TRACE_HRU_TERMINFO_DIAG_INFO",
}

// classifyMessageInterface resolves a hex-encoded interface type code to
// its class and display label. The tables are disjoint except for "0100",
// where the text-log class takes precedence by lookup order. Unknown codes
// keep a frame in the output as a labeled syslog packet rather than being
// dropped, preserving the frame-for-frame alignment between the trace and
// the capture.
func classifyMessageInterface(code string) (interfaceClass, string) {
	if label, ok := networkSignalingTypes[code]; ok {
		return classNetworkSignaling, label
	}
	if label, ok := networkMediaTypes[code]; ok {
		return classNetworkMedia, label
	}
	if label, ok := textLogTypes[code]; ok {
		return classTextLog, label
	}
	if label, ok := binaryLogTypes[code]; ok {
		return classBinaryLog, label
	}
	return classUnknown, fmt.Sprintf("UNKNOWN(0x%s)", code)
}

// syslogIP is the placeholder address on synthesized log packets.
var syslogIP = net.IPv4zero.To4()

type userInterfaceFrame struct {
	frameCore
}

func (f *userInterfaceFrame) messageInterfaceCode() string {
	return byteutil.HexEncode(f.data[messageInterfaceTypeOffset : messageInterfaceTypeOffset+messageInterfaceTypeLength])
}

func (f *userInterfaceFrame) EthernetPacket(b *packet.Builder) ([]byte, error) {
	ipv4, err := f.ipv4Packet(b)
	if err != nil {
		return nil, err
	}
	return synthEthernet(b, ipv4), nil
}

func (f *userInterfaceFrame) ipv4Packet(b *packet.Builder) ([]byte, error) {
	class, label := classifyMessageInterface(f.messageInterfaceCode())
	body := f.body()
	switch class {
	case classNetworkSignaling:
		tr := transportFromVia(body)
		// Gq runs Diameter over SCTP; the Via heuristic cannot see that.
		if tr != transportTCP && label == "TRACE_DIAM_GQ" {
			tr = transportSCTP
		}
		return f.signalingIPv4(b, tr), nil
	case classNetworkMedia:
		inner, err := byteutil.Subrange(body, mediaInfoHeaderLength, len(body)-mediaInfoHeaderLength)
		if err != nil {
			return nil, &StructuralError{
				Frame:  f.order,
				Reason: fmt.Sprintf("media frame body shorter than its %d byte sub-header", mediaInfoHeaderLength),
			}
		}
		return inner, nil
	case classTextLog:
		return f.syslogIPv4(b, byteutil.Concat([]byte(label+": "), body)), nil
	default: // classBinaryLog and classUnknown both log the body as hex
		return f.syslogIPv4(b, []byte(label+": 0x"+byteutil.HexEncode(body))), nil
	}
}

// syslogIPv4 wraps payload in a UDP syslog packet between placeholder
// endpoints. Log frames do not correspond to network traffic, but emitting
// them keeps output frame numbers aligned with the trace.
func (f *userInterfaceFrame) syslogIPv4(b *packet.Builder, payload []byte) []byte {
	udp := b.UDP(packet.SyslogPort, packet.SyslogPort, payload)
	return b.IPv4(syslogIP, syslogIP, layers.IPProtocolUDP, udp)
}
