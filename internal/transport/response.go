package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is an HTTP answer of the FNE API
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body as an object. Empty or malformed bodies give nil.
func (r *Response) JSON() map[string]any {
	if len(r.Body) == 0 {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(r.Body, &data); err != nil {
		return nil
	}
	return data
}

// Decode unmarshals the body into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}
