package filters

import (
	"bytes"
	"compress/lzw"
	"io"

	"github.com/pkg/errors"
	tifflzw "golang.org/x/image/tiff/lzw"
)

// LZWDecode decompresses LZW data. EarlyChange defaults to 1, the code
// width switch used by TIFF, which compress/lzw does not implement.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	var r io.ReadCloser
	if getIntParam(params, "EarlyChange", 1) == 0 {
		r = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	} else {
		r = tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil && buf.Len() == 0 {
		return nil, errors.Wrap(err, "lzw")
	}
	out := buf.Bytes()
	predictor := getIntParam(params, "Predictor", 1)
	if predictor == 1 {
		return out, nil
	}
	return applyPredictor(out, predictor, params)
}
