package amqp

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
)

// contentEncodingDeflate the content encoding marker of deflated bodies.
const contentEncodingDeflate = "deflate"

// Compress compresses data using c, CompressionNone returns data unchanged.
func Compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionDeflate:
		buffer := &bytes.Buffer{}
		if err := compressWithDeflate(data, buffer); err != nil {
			return nil, err
		}
		return buffer.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %s", ErrInvalidArgument, c)
	}
}

// Decompress reverses the compression named by a content encoding. An empty encoding
// returns data unchanged, unknown encodings are an error.
func Decompress(contentEncoding string, data []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		return data, nil
	case contentEncodingDeflate:
		return decompressWithDeflate(data)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", contentEncoding)
	}
}

// compressWithDeflate deflates data into buffer.
func compressWithDeflate(data []byte, buffer *bytes.Buffer) error {
	w, err := flate.NewWriter(buffer, flate.DefaultCompression)
	if err != nil {
		return err
	}

	if _, err = w.Write(data); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// decompressWithDeflate inflates data.
func decompressWithDeflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	return io.ReadAll(r)
}
