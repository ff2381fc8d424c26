package ptmf

// FileType identifies the frame family a trace file carries. The type code
// is a single byte at a fixed offset in the file header; the four values
// below are the ones the SE2900-series SBC firmware emits.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeSIP
	FileTypeDiameter
	FileTypeUserInterface
	FileTypeIP
)

// fileTypeByCode maps the hex-encoded type byte to a frame family.
var fileTypeByCode = map[string]FileType{
	"01": FileTypeSIP,
	"03": FileTypeDiameter,
	"10": FileTypeUserInterface,
	"53": FileTypeIP,
}

func (ft FileType) String() string {
	switch ft {
	case FileTypeSIP:
		return "SIP"
	case FileTypeDiameter:
		return "Diameter"
	case FileTypeUserInterface:
		return "UserInterface"
	case FileTypeIP:
		return "IP"
	default:
		return "UNKNOWN"
	}
}

// Supported reports whether frames of this family can be decoded.
func (ft FileType) Supported() bool {
	return ft != FileTypeUnknown
}
