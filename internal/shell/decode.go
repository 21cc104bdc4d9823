package shell

import (
	"strings"
	"unicode/utf8"
)

// chunkDecoder turns raw PTY reads into valid UTF-8 text. Invalid bytes are
// dropped; a multi-byte sequence split across two reads is carried over and
// completed by the next chunk.
type chunkDecoder struct {
	carry []byte
}

func (d *chunkDecoder) decode(b []byte) string {
	buf := append(d.carry, b...)
	d.carry = nil

	cut := len(buf)
	for i := len(buf) - 1; i >= 0 && i >= len(buf)-utf8.UTFMax; i-- {
		if utf8.RuneStart(buf[i]) {
			if !utf8.FullRune(buf[i:]) {
				cut = i
			}
			break
		}
	}
	if cut < len(buf) {
		d.carry = append([]byte(nil), buf[cut:]...)
	}
	return strings.ToValidUTF8(string(buf[:cut]), "")
}

// flush returns whatever is left; an incomplete tail is invalid and dropped.
func (d *chunkDecoder) flush() string {
	s := strings.ToValidUTF8(string(d.carry), "")
	d.carry = nil
	return s
}
