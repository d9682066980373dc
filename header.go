package yayawebhook

import (
	"errors"
	"strconv"
	"strings"
)

// SignatureHeaderName is the request header carrying the timestamp and
// signature.
const SignatureHeaderName = "YAYA-SIGNATURE"

// ErrMalformedSignatureHeader is returned when the header cannot be split
// into key=value pairs or t is not an integer.
var ErrMalformedSignatureHeader = errors.New("malformed signature header")

// SignatureHeader is the parsed form of "t=<unix>,signature=<hex>"
type SignatureHeader struct {
	Timestamp int64
	Signature string
}

// Valid reports whether both components are present. A well-formed header
// with a missing t or signature is still unusable.
func (h SignatureHeader) Valid() bool {
	return h.Timestamp != 0 && h.Signature != ""
}

// String renders the header in wire format
func (h SignatureHeader) String() string {
	return "t=" + strconv.FormatInt(h.Timestamp, 10) + ",signature=" + h.Signature
}

// ParseSignatureHeader parses comma separated key=value pairs in any order.
// Keys and values are trimmed and the last duplicate wins. A missing t
// yields Timestamp 0. On failure the zero SignatureHeader is returned.
func ParseSignatureHeader(header string) (SignatureHeader, error) {
	components := make(map[string]string)
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			return SignatureHeader{}, ErrMalformedSignatureHeader
		}
		components[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	var timestamp int64
	if raw, ok := components["t"]; ok {
		t, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return SignatureHeader{}, ErrMalformedSignatureHeader
		}
		timestamp = t
	}

	return SignatureHeader{
		Timestamp: timestamp,
		Signature: components["signature"],
	}, nil
}
