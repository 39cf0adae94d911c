// Package filters implements the stream decoding algorithms behind the
// standard filter names.
//
// Every function takes the encoded bytes and, where the filter has
// parameters, a Params map built from the stream's /DecodeParms entry:
//
//	decoded, err := filters.FlateDecode(data, filters.Params{"Predictor": 12, "Columns": 5})
//
// Decoders are lenient. Truncated input yields the bytes decoded before
// the damage, and an error is returned only when nothing usable can be
// produced.
package filters
