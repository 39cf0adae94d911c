package filters

import (
	"bytes"
)

// ASCIIHexDecode decodes pairs of hex digits. Whitespace and other
// non-hex bytes are skipped, '>' ends the data and a lone final digit is
// padded with zero.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)/2)
	var hi byte
	half := false
	for _, c := range data {
		if c == '>' {
			break
		}
		v, ok := hexNibble(c)
		if !ok {
			continue
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// ASCII85Decode decodes base-85 groups of five characters into four
// bytes. 'z' stands for four zero bytes, "~>" ends the data, and bytes
// outside the alphabet are skipped. A partial final group is padded
// with 'u'.
func ASCII85Decode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	if bytes.HasPrefix(data, []byte("<~")) {
		data = data[2:]
	}
	var group [5]byte
	n := 0
	flush := func(count int) {
		for i := count; i < 5; i++ {
			group[i] = 84
		}
		var v uint32
		for _, d := range group {
			v = v*85 + uint32(d)
		}
		word := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
		out.Write(word[:count-1])
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '~' {
			break
		}
		if c == 'z' && n == 0 {
			out.Write([]byte{0, 0, 0, 0})
			continue
		}
		if c < '!' || c > 'u' {
			continue
		}
		group[n] = c - '!'
		n++
		if n == 5 {
			flush(5)
			n = 0
		}
	}
	if n > 1 {
		flush(n)
	}
	return out.Bytes(), nil
}
