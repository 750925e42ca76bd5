// Package datauri handles the data:<mime>;base64,<payload> strings stored
// for application documents.
package datauri

import (
	"encoding/base64"
	"errors"
	"strings"
)

const scheme = "data:"

var ErrMalformed = errors.New("not a well-formed data URI")

// Encode builds a data URI for the given media type and raw bytes.
func Encode(mimeType string, data []byte) string {
	return scheme + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// MIMEType extracts the media type from a data URI without decoding the
// payload. List and get paths use this so multi-megabyte payloads are never
// base64-decoded just to derive a type.
func MIMEType(s string) (string, error) {
	mimeType, _, err := split(s)
	return mimeType, err
}

// Decode returns the media type and the decoded payload bytes.
func Decode(s string) (string, []byte, error) {
	mimeType, payload, err := split(s)
	if err != nil {
		return "", nil, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrMalformed
	}
	return mimeType, data, nil
}

func split(s string) (string, string, error) {
	rest, ok := strings.CutPrefix(s, scheme)
	if !ok {
		return "", "", ErrMalformed
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", ErrMalformed
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok || mimeType == "" {
		return "", "", ErrMalformed
	}
	return mimeType, payload, nil
}
