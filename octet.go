package quotedprintable

// MaxLineLength is the longest encoded line permitted by RFC 2045, not
// counting the CRLF terminator.
const MaxLineLength = 76

const upperHex = "0123456789ABCDEF"

const invalidNibble = 0xff

func init() {
	for i := 0; i < 256; i++ {
		octetLUT[i] = [3]byte{'=', upperHex[i>>4], upperHex[i&0x0f]}
		literalLUT[i] = literal(i)
		nibbleLUT[i] = nibble(byte(i))
	}
}

var octetLUT [256][3]byte
var literalLUT [256]bool
var nibbleLUT [256]byte

func literal(n int) bool {
	return n == '\t' || n == ' ' || (n >= 33 && n <= 60) || (n >= 62 && n <= 126)
}

func nibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return invalidNibble
	}
}

// EncodeOctet returns the escaped form of b: '=' followed by two upper case
// hex digits, high nibble first.
func EncodeOctet(b byte) [3]byte {
	return octetLUT[b]
}

// AppendOctet appends the escaped form of b to dst.
func AppendOctet(dst []byte, b byte) []byte {
	o := &octetLUT[b]
	return append(dst, o[0], o[1], o[2])
}

// DecodeOctet parses the two hex digits following an '='. Both upper and
// lower case digits are accepted.
func DecodeOctet(hi, lo byte) (byte, error) {
	h, l := nibbleLUT[hi], nibbleLUT[lo]
	if h == invalidNibble || l == invalidNibble {
		return 0, &InvalidOctetError{Octet: [2]byte{hi, lo}}
	}
	return h<<4 | l, nil
}

// IsLiteral reports whether b may appear unescaped in encoded output.
func IsLiteral(b byte) bool {
	return literalLUT[b]
}
