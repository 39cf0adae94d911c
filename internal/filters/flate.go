package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"io"

	"github.com/pkg/errors"
)

// FlateDecode decompresses zlib/deflate data and undoes any predictor
// named in params. A missing or corrupt zlib header falls back to raw
// deflate; a stream cut short returns what was inflated.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	out, err := inflate(data)
	if err != nil {
		return nil, err
	}
	predictor := getIntParam(params, "Predictor", 1)
	if predictor == 1 {
		return out, nil
	}
	return applyPredictor(out, predictor, params)
}

func inflate(data []byte) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
		out, err := drain(zr)
		if len(out) > 0 || err == nil {
			return out, nil
		}
	}
	out, err := drain(flate.NewReader(bytes.NewReader(data)))
	if len(out) > 0 || err == nil {
		return out, nil
	}
	return nil, errors.Wrap(err, "inflate")
}

// drain reads r to the end and keeps whatever arrived before an error.
func drain(r io.ReadCloser) ([]byte, error) {
	defer r.Close()
	var buf bytes.Buffer
	_, err := io.Copy(&buf, r)
	return buf.Bytes(), err
}

// applyPredictor undoes TIFF predictor 2 or the PNG predictors 10-15.
func applyPredictor(data []byte, predictor int, params Params) ([]byte, error) {
	colors := getIntParam(params, "Colors", 1)
	bpc := getIntParam(params, "BitsPerComponent", 8)
	columns := getIntParam(params, "Columns", 1)
	if colors < 1 || columns < 1 {
		return nil, errors.Errorf("invalid predictor geometry colors=%d columns=%d", colors, columns)
	}
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil, errors.Errorf("invalid BitsPerComponent %d", bpc)
	}
	bytesPerPixel := (colors*bpc + 7) / 8
	rowBytes := (columns*colors*bpc + 7) / 8

	switch {
	case predictor == 2:
		return tiffPredictor(data, rowBytes, colors, bpc)
	case predictor >= 10 && predictor <= 15:
		return pngPredictor(data, rowBytes, bytesPerPixel)
	}
	return nil, errors.Errorf("unsupported predictor %d", predictor)
}

// tiffPredictor adds each sample to the one to its left.
func tiffPredictor(data []byte, rowBytes, colors, bpc int) ([]byte, error) {
	if bpc != 8 {
		return nil, errors.Errorf("TIFF predictor supports 8 bits per component, got %d", bpc)
	}
	out := make([]byte, len(data))
	copy(out, data)
	for start := 0; start < len(out); start += rowBytes {
		end := start + rowBytes
		if end > len(out) {
			end = len(out)
		}
		for i := start + colors; i < end; i++ {
			out[i] += out[i-colors]
		}
	}
	return out, nil
}

// pngPredictor decodes rows that each start with a PNG filter type byte.
// A short final row is decoded as far as it goes.
func pngPredictor(data []byte, rowBytes, bpp int) ([]byte, error) {
	stride := rowBytes + 1
	out := make([]byte, 0, len(data)/stride*rowBytes+rowBytes)
	prev := make([]byte, rowBytes)
	cur := make([]byte, rowBytes)

	for start := 0; start < len(data); start += stride {
		end := start + stride
		if end > len(data) {
			end = len(data)
		}
		filter := data[start]
		row := data[start+1 : end]
		for i := range cur {
			cur[i] = 0
		}
		for i, raw := range row {
			var left, up, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up = prev[i]
			switch filter {
			case 0:
				cur[i] = raw
			case 1:
				cur[i] = raw + left
			case 2:
				cur[i] = raw + up
			case 3:
				cur[i] = raw + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = raw + paeth(left, up, upLeft)
			default:
				return nil, errors.Errorf("unknown PNG filter type %d", filter)
			}
		}
		out = append(out, cur[:len(row)]...)
		prev, cur = cur, prev
	}
	return out, nil
}

// paeth picks whichever of left, up and upper-left is closest to
// left+up-upLeft.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
