package domain

// Defaults for a generation run.
const (
	DefaultCount      = 10_000_000
	DefaultOutputPath = "numbers.txt"
)

// RecordWidth is the number of hex characters in a formatted record.
// LineWidth adds the trailing newline.
const (
	RecordWidth = 32
	LineWidth   = RecordWidth + 1
)

const hexDigits = "0123456789abcdef"

// Record is one random 128-bit value made of two independent 64-bit halves.
// Hi is always rendered first.
type Record struct {
	Hi uint64
	Lo uint64
}

// Value returns the record as a 128-bit integer.
func (r Record) Value() Uint128 {
	return Uint128{Hi: r.Hi, Lo: r.Lo}
}

// String returns the 32-character lower-case hex form of the record.
func (r Record) String() string {
	return FormatRecord(r.Hi, r.Lo)
}

// FormatRecord renders hi and lo as 16 zero-padded lower-case hex characters
// each, hi first.
func FormatRecord(hi, lo uint64) string {
	return string(AppendRecord(make([]byte, 0, RecordWidth), hi, lo))
}

// AppendRecord appends the 32-character hex form of hi and lo to dst.
func AppendRecord(dst []byte, hi, lo uint64) []byte {
	var buf [RecordWidth]byte
	putHex(buf[:RecordWidth/2], hi)
	putHex(buf[RecordWidth/2:], lo)
	return append(dst, buf[:]...)
}

// AppendLine is AppendRecord followed by a newline.
func AppendLine(dst []byte, hi, lo uint64) []byte {
	return append(AppendRecord(dst, hi, lo), '\n')
}

func putHex(b []byte, v uint64) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = hexDigits[v&0x0f]
		v >>= 4
	}
}

// ParseRecord reads up to RecordWidth hex characters into a Record.
// Upper-case digits are accepted. Any other character counts as a zero
// nibble, and characters past RecordWidth are ignored.
func ParseRecord(s string) Record {
	if len(s) > RecordWidth {
		s = s[:RecordWidth]
	}

	var r Record
	for i := 0; i < len(s); i++ {
		r.Hi = r.Hi<<4 | r.Lo>>60
		r.Lo = r.Lo<<4 | uint64(nibble(s[i]))
	}
	return r
}

func nibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// IsRecordLine reports whether s is exactly RecordWidth lower-case hex characters.
func IsRecordLine(s string) bool {
	if len(s) != RecordWidth {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
