package engine

import "unicode/utf8"

// utf8Joiner re-chunks a byte stream on character boundaries. Network chunk
// boundaries do not align with rune boundaries, so a multi-byte sequence split
// across reads is held back until its remaining bytes arrive.
type utf8Joiner struct {
	pending []byte
}

// next appends p to the buffer and returns the longest prefix that ends on a
// complete rune. At most utf8.UTFMax-1 bytes are ever held back.
func (j *utf8Joiner) next(p []byte) string {
	j.pending = append(j.pending, p...)

	cut := len(j.pending)
	for i := 1; i <= utf8.UTFMax && i <= len(j.pending); i++ {
		b := j.pending[len(j.pending)-i]
		if b < 0x80 {
			// ASCII byte, boundary is clean
			break
		}
		if b >= 0xC0 {
			// leading byte of a multi-byte sequence; hold it back if the
			// sequence is still incomplete
			if !utf8.FullRune(j.pending[len(j.pending)-i:]) {
				cut = len(j.pending) - i
			}
			break
		}
		// continuation byte, keep walking back
	}

	out := string(j.pending[:cut])
	j.pending = append(j.pending[:0], j.pending[cut:]...)
	return out
}

// flush returns whatever is still buffered. Called on stream end, where a
// trailing partial sequence can no longer complete.
func (j *utf8Joiner) flush() string {
	out := string(j.pending)
	j.pending = nil
	return out
}
