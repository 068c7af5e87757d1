package media

import (
	"encoding/base64"
	"strings"
)

// Kind classifies a media payload. The payload's declared MIME type must match
// the kind expected at the call site before any network call is made.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// FailurePolicy names how a caller treats a relay failure. BestEffort continues
// the parent operation without the media field; Strict aborts the whole
// operation. Post creation is BestEffort, profile avatar updates are Strict.
type FailurePolicy int

const (
	BestEffort FailurePolicy = iota
	Strict
)

func (p FailurePolicy) String() string {
	if p == Strict {
		return "strict"
	}
	return "best-effort"
}

// payload is a decoded data-URL media payload.
type payload struct {
	mimeType string
	encoded  string // base64 body as received, forwarded verbatim
}

// parsePayload validates a data-URL string ("data:image/png;base64,....") and
// checks that its declared MIME type matches the expected kind. The base64 body
// must decode; the decoded bytes are not retained because the relay forwards
// the payload as-is.
func parsePayload(raw string, kind Kind) (*payload, error) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return nil, errNotDataURL
	}

	meta, body, ok := strings.Cut(rest, ",")
	if !ok || body == "" {
		return nil, errNotDataURL
	}

	mimeType, params, _ := strings.Cut(meta, ";")
	if params != "base64" {
		return nil, errNotDataURL
	}

	if !strings.HasPrefix(mimeType, string(kind)+"/") {
		return nil, errKindMismatch
	}

	if _, err := base64.StdEncoding.DecodeString(body); err != nil {
		return nil, errNotDataURL
	}

	return &payload{mimeType: mimeType, encoded: body}, nil
}
