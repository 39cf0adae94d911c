package core

import (
	"github.com/pkg/errors"
)

// decodeXRefStream adds the entries of a decoded cross-reference stream
// to idx. /W gives the byte width of the three fields of each row and
// /Index lists (first, count) subsections, defaulting to [0 Size].
func decodeXRefStream(idx *Index, dict *Dict, data []byte) error {
	wArr, ok := dict.GetArray("W")
	if !ok || len(wArr) < 3 {
		return errors.Wrap(ErrInvalidXRef, "missing or invalid /W in cross-reference stream")
	}
	var w [3]int
	for i := 0; i < 3; i++ {
		n, ok := wArr.GetInt(i)
		if !ok || n < 0 || n > 8 {
			return errors.Wrapf(ErrInvalidXRef, "bad /W field %d: %v", i, wArr.Get(i))
		}
		w[i] = int(n)
	}
	rowSize := w[0] + w[1] + w[2]
	if rowSize == 0 {
		return errors.Wrap(ErrInvalidXRef, "/W describes empty rows")
	}

	var subsections []int
	if indexArr, ok := dict.GetArray("Index"); ok {
		for i := range indexArr {
			if n, ok := indexArr.GetInt(i); ok {
				subsections = append(subsections, int(n))
			}
		}
	} else if size, ok := dict.GetInt("Size"); ok {
		subsections = []int{0, int(size)}
	}

	pos := 0
	for i := 0; i+1 < len(subsections); i += 2 {
		first, count := subsections[i], subsections[i+1]
		for j := 0; j < count; j++ {
			if pos+rowSize > len(data) {
				return nil
			}
			var fields [3]int64
			for f := 0; f < 3; f++ {
				for k := 0; k < w[f]; k++ {
					fields[f] = fields[f]<<8 | int64(data[pos])
					pos++
				}
			}
			typ := fields[0]
			if w[0] == 0 {
				typ = 1
			}
			num := first + j
			switch typ {
			case 0:
				idx.add(num, IndexEntry{Kind: EntryFree, Generation: int(fields[2])})
			case 1:
				idx.add(num, IndexEntry{Kind: EntryInUse, Offset: fields[1], Generation: int(fields[2])})
			case 2:
				idx.add(num, IndexEntry{Kind: EntryCompressed, Container: int(fields[1]), Index: int(fields[2])})
			}
			// other types are reserved and treated as absent
		}
	}
	return nil
}
