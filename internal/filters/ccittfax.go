package filters

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes CCITT Group 3/4 fax data, the usual encoding of
// scanned bi-level images.
//
// Parameters:
//   - K: -1 for Group 4, otherwise Group 3
//   - Columns: image width in pixels (default 1728)
//   - Rows: image height, 0 when unknown
//   - BlackIs1: inverts the output bits
//   - EncodedByteAlign: codes are byte-aligned
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	columns := getIntParam(params, "Columns", 1728)
	rows := getIntParam(params, "Rows", 0)
	k := getIntParam(params, "K", 0)

	sf := ccitt.Group3
	if k < 0 {
		sf = ccitt.Group4
	}
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}
	opts := &ccitt.Options{
		Invert: getBoolParam(params, "BlackIs1", false),
		Align:  getBoolParam(params, "EncodedByteAlign", false),
	}

	out, err := io.ReadAll(ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts))
	if err != nil && len(out) == 0 {
		return nil, errors.Wrap(err, "ccitt")
	}
	return out, nil
}
