package filters

// Params represents decode parameters from a stream dictionary.
// Common parameters include Predictor, Columns, Colors, BitsPerComponent,
// EarlyChange, K and BlackIs1.
type Params map[string]interface{}

// getIntParam extracts an integer parameter, returning defaultValue if the
// parameter is missing or not numeric.
func getIntParam(params Params, key string, defaultValue int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

// getBoolParam extracts a boolean parameter, returning defaultValue if the
// parameter is missing or not a boolean.
func getBoolParam(params Params, key string, defaultValue bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return defaultValue
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
