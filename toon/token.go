package toon

// Token identifies the kind of value that follows in the stream. TOON is a
// typed, length-prefixed, self-delimiting binary token stream: every value
// is preceded by a one-byte token tag so a Reader can validate the shape
// of what it's about to consume (consume_token) or check what's next
// without consuming it (peek_token).
type Token byte

const (
	ObjectStart Token = iota + 1
	ObjectEnd
	ArrayStart
	ArrayEnd
	TString
	TBool
	TInt32
	TFloat32
	TFloat64
	TFloatArray
)

func (t Token) String() string {
	switch t {
	case ObjectStart:
		return "OBJECT_START"
	case ObjectEnd:
		return "OBJECT_END"
	case ArrayStart:
		return "ARRAY_START"
	case ArrayEnd:
		return "ARRAY_END"
	case TString:
		return "string"
	case TBool:
		return "bool"
	case TInt32:
		return "int32"
	case TFloat32:
		return "float"
	case TFloat64:
		return "double"
	case TFloatArray:
		return "float_array"
	default:
		return "UNKNOWN"
	}
}
