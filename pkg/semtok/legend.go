package semtok

// TokenType is an LSP semantic token type name.
type TokenType string

const (
	TypeComment  TokenType = "comment"
	TypeNumber   TokenType = "number"
	TypeString   TokenType = "string"
	TypeMacro    TokenType = "macro"
	TypeMethod   TokenType = "method"
	TypeKeyword  TokenType = "keyword"
	TypeType     TokenType = "type"
	TypeClass    TokenType = "class"
	TypeOperator TokenType = "operator"
)

// legend is advertised to the client in this order, an index into it is the tokenType of an
// encoded token. It must never be reordered at runtime.
var legend = [...]TokenType{
	TypeComment,  // 0
	TypeNumber,   // 1
	TypeString,   // 2
	TypeMacro,    // 3
	TypeMethod,   // 4
	TypeKeyword,  // 5
	TypeType,     // 6
	TypeClass,    // 7
	TypeOperator, // 8
}

type legendEntry struct {
	index uint32
	ok    bool
}

var kindLegend = [kindCount]legendEntry{
	KindIgnore:     {},
	KindBool:       {index: 5, ok: true},
	KindNumber:     {index: 1, ok: true},
	KindString:     {index: 2, ok: true},
	KindDirective:  {index: 3, ok: true},
	KindSetter:     {index: 4, ok: true},
	KindDefinition: {index: 7, ok: true},
	KindInherits:   {index: 8, ok: true},
}

// Legend returns the ordered token type names.
func Legend() []string {
	out := make([]string, len(legend))
	for i, t := range legend {
		out[i] = string(t)
	}
	return out
}

// LegendIndex returns the legend position for kind. The second result is false for kinds that are
// never highlighted.
func LegendIndex(kind Kind) (uint32, bool) {
	if kind >= kindCount {
		return 0, false
	}
	e := kindLegend[kind]
	return e.index, e.ok
}

// LegendType is the token type name for kind, empty when kind has no legend entry.
func LegendType(kind Kind) TokenType {
	idx, ok := LegendIndex(kind)
	if !ok {
		return ""
	}
	return legend[idx]
}
