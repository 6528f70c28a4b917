package binary

// magic is the 4 byte preamble (literally "\0asm") of the binary format.
// See https://www.w3.org/TR/wasm-core-1/#binary-magic
var magic = []byte{0x00, 0x61, 0x73, 0x6d}

// version is format version and doesn't change between known specification
// versions.
// See https://www.w3.org/TR/wasm-core-1/#binary-version
var version = []byte{0x01, 0x00, 0x00, 0x00}

// SectionID identifies a section in the binary format.
// See https://www.w3.org/TR/wasm-core-1/#sections%E2%91%A0
type SectionID = byte

const (
	SectionIDCustom   SectionID = 0
	SectionIDType     SectionID = 1
	SectionIDImport   SectionID = 2
	SectionIDFunction SectionID = 3
	SectionIDTable    SectionID = 4
	SectionIDMemory   SectionID = 5
	SectionIDGlobal   SectionID = 6
	SectionIDExport   SectionID = 7
	SectionIDStart    SectionID = 8
	SectionIDElement  SectionID = 9
	SectionIDCode     SectionID = 10
	SectionIDData     SectionID = 11
)

// SectionIDName returns the name of the section, e.g. "export".
func SectionIDName(id SectionID) string {
	switch id {
	case SectionIDCustom:
		return "custom"
	case SectionIDType:
		return "type"
	case SectionIDImport:
		return "import"
	case SectionIDFunction:
		return "function"
	case SectionIDTable:
		return "table"
	case SectionIDMemory:
		return "memory"
	case SectionIDGlobal:
		return "global"
	case SectionIDExport:
		return "export"
	case SectionIDStart:
		return "start"
	case SectionIDElement:
		return "element"
	case SectionIDCode:
		return "code"
	case SectionIDData:
		return "data"
	}
	return "unknown"
}

// exportKindFunc is the only export kind this transpiler emits code for.
// Table, memory and global exports are decoded and skipped.
const (
	exportKindFunc   = 0x00
	exportKindTable  = 0x01
	exportKindMemory = 0x02
	exportKindGlobal = 0x03
)
