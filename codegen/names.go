package codegen

import (
	"fmt"
	"regexp"
	"strings"
)

var plainName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*(-[a-zA-Z0-9]+)*$`)

// Mangle maps a HiveSpeak name to an identifier that is valid in every
// target. Names made of letters and digits separated by single dashes keep
// their shape under an h_ prefix, everything else is hex escaped under hx_.
// The mapping is injective. Its results never start with an underscore and
// never end in "__" followed by digits, which keeps them apart from compiler
// temporaries and local names.
//
//	make-adder -> h_make_adder
//	int?       -> hx_int_3f
//	+          -> hx__2b
func Mangle(name string) string {
	if plainName.MatchString(name) {
		return "h_" + strings.ReplaceAll(name, "-", "_")
	}
	var b strings.Builder
	b.WriteString("hx_")
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r < 0x80:
			fmt.Fprintf(&b, "_%02x", r)
		default:
			fmt.Fprintf(&b, "_u%06x", r)
		}
	}
	return b.String()
}

// quote renders s as a double quoted literal accepted by both Python and
// JavaScript.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			if r == 0x2028 || r == 0x2029 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

type nameMangler struct {
	n int
}

func (m *nameMangler) next() int {
	m.n++
	return m.n
}

// local returns a fresh identifier for a binding that shadows or lives
// below the top level.
func (m *nameMangler) local(name string) string {
	return fmt.Sprintf("%s__%d", Mangle(name), m.next())
}

// temp returns a fresh identifier for a compiler temporary.
func (m *nameMangler) temp(prefix string) string {
	return fmt.Sprintf("_%s%d", prefix, m.next())
}
