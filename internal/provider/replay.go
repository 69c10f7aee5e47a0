package provider

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// ReplayBody drains resp.Body once and returns the bytes together with a copy
// of resp whose body re-reads those same bytes. Status, headers and trailers
// are carried over unchanged. The original body is always closed.
func ReplayBody(resp *http.Response) ([]byte, *http.Response, error) {
	if resp == nil {
		return nil, nil, newError(ErrUpstreamTransport, "", "", fmt.Errorf("nil response"))
	}

	var buf bytes.Buffer
	if resp.Body != nil {
		_, err := io.Copy(&buf, resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, nil, newError(ErrUpstreamTransport, "", "", fmt.Errorf("error reading response body: %w", err))
		}
	}

	data := buf.Bytes()
	replay := bytes.Clone(data)
	if replay == nil {
		replay = []byte{}
	}

	out := new(http.Response)
	*out = *resp
	out.Body = io.NopCloser(bytes.NewReader(replay))
	out.ContentLength = int64(len(replay))

	return data, out, nil
}
