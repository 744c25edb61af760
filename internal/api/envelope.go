package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the normalized form of the server's response wrapper. The
// service emits two shapes, `{code, message, data}` and `{success, data}`,
// and one legacy variant where code is the string "UNAUTHORIZED"; decoding
// tries each in order and the first structural match wins. After
// normalization both Code and Success are always populated for successful
// envelopes.
type Envelope struct {
	Code     int
	CodeText string // set when the business code arrived as a string
	Success  bool
	Message  string
	Data     json.RawMessage

	// Raw is the undecoded envelope body, kept for the volatile
	// last-login stash.
	Raw json.RawMessage
}

const codeOK = 200

// business codes signalling an unauthorized or expired session.
const (
	codeUnauthorized     = 401
	codeTextUnauthorized = "UNAUTHORIZED"
)

// decodeEnvelope parses a response body into a normalized Envelope.
func decodeEnvelope(body []byte) (*Envelope, error) {
	// Shape 1: numeric code, optional success flag. Also covers the bare
	// `{success, data}` shape when code is absent.
	var s1 struct {
		Code    *int64          `json:"code"`
		Success *bool           `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &s1); err == nil && (s1.Code != nil || s1.Success != nil) {
		env := &Envelope{Message: s1.Message, Data: s1.Data, Raw: body}
		if s1.Code != nil {
			env.Code = int(*s1.Code)
		}
		if s1.Success != nil {
			env.Success = *s1.Success
		}
		env.normalize(s1.Success != nil)
		return env, nil
	}

	// Shape 2: string business code.
	var s2 struct {
		Code    string          `json:"code"`
		Success *bool           `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &s2); err == nil && s2.Code != "" {
		env := &Envelope{CodeText: s2.Code, Message: s2.Message, Data: s2.Data, Raw: body}
		if s2.Success != nil {
			env.Success = *s2.Success
		}
		return env, nil
	}

	return nil, fmt.Errorf("unrecognized response envelope: %s", truncate(body, 120))
}

// normalize reconciles the code and success fields: a 200 without an
// explicit success flag gains success=true, and an explicit success=true
// without a code gains code 200.
func (e *Envelope) normalize(hasSuccess bool) {
	if e.Code == codeOK && !hasSuccess {
		e.Success = true
	}
	if e.Success && e.Code == 0 {
		e.Code = codeOK
	}
}

// OK reports whether the envelope signals business success.
func (e *Envelope) OK() bool {
	return e.Success || e.Code == codeOK
}

// Unauthorized reports whether the envelope signals an expired or rejected
// session.
func (e *Envelope) Unauthorized() bool {
	return e.Code == codeUnauthorized || e.CodeText == codeTextUnauthorized
}

// binaryContentType reports whether a response body should bypass envelope
// classification entirely and be returned raw.
func binaryContentType(ct string) bool {
	switch {
	case strings.HasPrefix(ct, "application/octet-stream"),
		strings.HasPrefix(ct, "application/pdf"),
		strings.HasPrefix(ct, "image/"),
		strings.HasPrefix(ct, "video/"),
		strings.HasPrefix(ct, "audio/"):
		return true
	}
	return false
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
