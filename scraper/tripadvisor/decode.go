package tripadvisor

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// decodeJSONBody turns a possibly-compressed API response body into plain
// JSON bytes. The declared Content-Encoding picks the first decoder, but
// the declaration is not trusted: on failure the alternates are attempted,
// then the raw bytes, before giving up.
func decodeJSONBody(body []byte, contentEncoding string) ([]byte, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	decoders := []func([]byte) ([]byte, error){decodeBrotli, decodeGzip}
	switch contentEncoding {
	case "br":
	case "gzip":
		decoders = []func([]byte) ([]byte, error){decodeGzip, decodeBrotli}
	default:
		// Undeclared or identity: the raw bytes are the primary candidate.
		if json.Valid(body) {
			return body, nil
		}
	}

	for _, decode := range decoders {
		decoded, err := decode(body)
		if err == nil && json.Valid(decoded) {
			return decoded, nil
		}
	}
	if json.Valid(body) {
		return body, nil
	}
	return nil, fmt.Errorf("response body is not decodable JSON (content-encoding %q)", contentEncoding)
}

func decodeBrotli(body []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
}

func decodeGzip(body []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
