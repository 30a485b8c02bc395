// Package envelope decodes the meta/data response envelope returned by the
// forms platform REST API.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags what a response body turned out to be after normalization.
type Kind int

const (
	KindText Kind = iota
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "text"
	}
}

// Payload is a response body normalized once at the transport boundary.
// For KindObject and KindArray, Raw holds the JSON of the structure.
// For KindText, Raw is the original input, untouched.
type Payload struct {
	Kind Kind
	Raw  []byte
}

// Normalize coerces a raw body into a Payload. Bodies that decode to a JSON
// object or array are structured; a JSON string whose contents decode to an
// object or array (a double-encoded body) is unwrapped once. Anything else is
// returned as text. Normalize never fails.
func Normalize(body []byte) Payload {
	trimmed := bytes.TrimSpace(body)
	if kind, ok := structuredKind(trimmed); ok && json.Valid(trimmed) {
		return Payload{Kind: kind, Raw: trimmed}
	}

	var inner string
	if err := json.Unmarshal(trimmed, &inner); err == nil {
		innerBytes := bytes.TrimSpace([]byte(inner))
		if kind, ok := structuredKind(innerBytes); ok && json.Valid(innerBytes) {
			return Payload{Kind: kind, Raw: innerBytes}
		}
	}

	return Payload{Kind: KindText, Raw: body}
}

func structuredKind(b []byte) (Kind, bool) {
	if len(b) == 0 {
		return KindText, false
	}
	switch b[0] {
	case '{':
		return KindObject, true
	case '[':
		return KindArray, true
	}
	return KindText, false
}

// Meta is the status envelope carried next to the payload. Problem is set
// when meta is present but its shape or status cannot be read.
type Meta struct {
	Status  int         `json:"status"`
	Errors  []MetaError `json:"errors,omitempty"`
	Problem string      `json:"-"`
}

// MetaError is one reported failure reason.
type MetaError struct {
	Reason string `json:"reason"`
}

// FirstReason returns the first reported reason, or "unspecified".
func (m *Meta) FirstReason() string {
	if m == nil || len(m.Errors) == 0 || m.Errors[0].Reason == "" {
		return "unspecified"
	}
	return m.Errors[0].Reason
}

// Response is a decoded API response. Meta is nil when the body carried no
// meta object, which makes the response uncheckable.
type Response struct {
	Meta *Meta           `json:"meta,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Decode normalizes body and decodes it into a Response. Bodies that are not
// JSON objects yield a Response without meta. Meta is read leniently: a
// numeric string status counts as a number, and a meta of the wrong shape is
// kept with Problem set rather than dropped.
func Decode(body []byte) Response {
	p := Normalize(body)
	if p.Kind != KindObject {
		return Response{}
	}
	var wire struct {
		Meta json.RawMessage `json:"meta"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(p.Raw, &wire); err != nil {
		return Response{}
	}
	return Response{Meta: decodeMeta(wire.Meta), Data: wire.Data}
}

func decodeMeta(raw json.RawMessage) *Meta {
	raw = bytes.TrimSpace(raw)
	if !truthy(raw) {
		return nil
	}
	if raw[0] != '{' {
		return &Meta{Problem: fmt.Sprintf("meta is %s, not an object", raw)}
	}
	var fields struct {
		Status json.RawMessage `json:"status"`
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return &Meta{Problem: "meta: " + err.Error()}
	}
	m := &Meta{}
	m.Status, m.Problem = parseStatus(fields.Status)
	if err := json.Unmarshal(fields.Errors, &m.Errors); err != nil {
		// Reasons only annotate a failure; an unreadable list is dropped.
		m.Errors = nil
	}
	return m
}

func parseStatus(raw json.RawMessage) (int, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, "meta has no status"
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n != math.Trunc(n) {
			return 0, fmt.Sprintf("status %s is not an integer", raw)
		}
		return int(n), ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
			return n, ""
		}
	}
	return 0, fmt.Sprintf("status %s is not a number", raw)
}

// Status returns the meta status, or 0 when meta is absent.
func (r Response) Status() int {
	if r.Meta == nil {
		return 0
	}
	return r.Meta.Status
}

// HasData reports whether the data property holds a truthy value. Absent,
// null, false, zero and empty-string values count as missing.
func (r Response) HasData() bool {
	return truthy(bytes.TrimSpace(r.Data))
}

func truthy(d []byte) bool {
	if len(d) == 0 {
		return false
	}
	switch string(d) {
	case "null", "false", `""`:
		return false
	}
	var n float64
	if err := json.Unmarshal(d, &n); err == nil && n == 0 {
		return false
	}
	return true
}

// DataKind reports whether data is an object, an array, or a scalar.
func (r Response) DataKind() Kind {
	k, _ := structuredKind(bytes.TrimSpace(r.Data))
	return k
}

// Records decodes data as a list. It fails when data is not an array.
func (r Response) Records() ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(r.Data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DecodeData unmarshals the data payload into v.
func (r Response) DecodeData(v any) error {
	return json.Unmarshal(r.Data, v)
}
