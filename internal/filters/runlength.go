package filters

// RunLengthDecode expands the byte-oriented run-length encoding: a length
// byte n below 128 copies the next n+1 bytes, n above 128 repeats the
// next byte 257-n times, and 128 ends the data.
func RunLengthDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			end := i + n + 1
			if end > len(data) {
				end = len(data)
			}
			out = append(out, data[i:end]...)
			i = end
		default:
			if i >= len(data) {
				return out, nil
			}
			for k := 0; k < 257-n; k++ {
				out = append(out, data[i])
			}
			i++
		}
	}
	return out, nil
}
