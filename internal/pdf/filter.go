package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// maxDecodedSize caps inflated stream output.
const maxDecodedSize = 256 << 20

// decodeStream returns the decoded payload of s. Only FlateDecode (with
// optional PNG predictors) is understood; that covers cross-reference
// and object streams, which are the only streams the reader must open.
func decodeStream(s *Stream) ([]byte, error) {
	filters := filterNames(s.Dict)
	if len(filters) == 0 {
		return s.Data, nil
	}
	if len(filters) > 1 || filters[0] != "FlateDecode" {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, filters)
	}

	out, err := inflate(s.Data)
	if err != nil {
		return nil, err
	}

	parms, _ := s.Dict.Get("DecodeParms")
	if arr, ok := parms.(Array); ok && len(arr) > 0 {
		parms = arr[0]
	}
	if pd, ok := parms.(*Dict); ok {
		return applyPredictor(out, pd)
	}
	return out, nil
}

func filterNames(d *Dict) []Name {
	v, ok := d.Get("Filter")
	if !ok {
		return nil
	}
	switch f := v.(type) {
	case Name:
		return []Name{f}
	case Array:
		names := make([]Name, 0, len(f))
		for _, item := range f {
			if n, ok := item.(Name); ok {
				names = append(names, n)
			}
		}
		return names
	}
	return nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: flate: %v", ErrMalformed, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxDecodedSize))
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("%w: flate: %v", ErrMalformed, err)
	}
	// Truncated deflate data is common in the wild; keep what inflated.
	return out, nil
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// applyPredictor reverses PNG row predictors (Predictor >= 10).
func applyPredictor(data []byte, parms *Dict) ([]byte, error) {
	predictor, _ := parms.Int("Predictor")
	if predictor < 10 {
		return data, nil
	}
	columns := int64(1)
	if v, ok := parms.Int("Columns"); ok && v > 0 {
		columns = v
	}
	colors := int64(1)
	if v, ok := parms.Int("Colors"); ok && v > 0 {
		colors = v
	}
	bpc := int64(8)
	if v, ok := parms.Int("BitsPerComponent"); ok && v > 0 {
		bpc = v
	}

	bpp := int((colors*bpc + 7) / 8)
	rowLen := int((columns*colors*bpc + 7) / 8)
	if rowLen <= 0 {
		return nil, fmt.Errorf("%w: bad predictor row length", ErrMalformed)
	}

	var out []byte
	prev := make([]byte, rowLen)
	for i := 0; i+1 <= len(data); i += rowLen + 1 {
		end := i + 1 + rowLen
		if end > len(data) {
			break
		}
		kind := data[i]
		row := make([]byte, rowLen)
		copy(row, data[i+1:end])
		for j := range row {
			var left, up, upLeft byte
			if j >= bpp {
				left = row[j-bpp]
				upLeft = prev[j-bpp]
			}
			up = prev[j]
			switch kind {
			case 0:
			case 1:
				row[j] += left
			case 2:
				row[j] += up
			case 3:
				row[j] += byte((int(left) + int(up)) / 2)
			case 4:
				row[j] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("%w: PNG filter type %d", ErrMalformed, kind)
			}
		}
		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
