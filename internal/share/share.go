// Package share encodes trackers as copy-pasteable share strings and parses
// every format a tracker can be imported from.
//
// A share string is the tracker's compact JSON, snappy block compressed and
// base64url encoded without padding, behind a version prefix:
//
//	w1.<base64url(snappy(json))>
//
// The JSON keeps the user's screen and button order, so a share string is
// deterministic for a given tracker but not across equivalent orderings;
// compare trackers by snapshot revision instead.
//
// Strings produced by older releases carry no prefix and are the standard
// base64 encoding of the URI-component-escaped JSON. Both decode.
package share

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang/snappy"

	"github.com/lherron/wilds/internal/domain"
)

// Prefix marks the current share string format
const Prefix = "w1."

// MaxDecodedSize bounds the decompressed size of a share string
const MaxDecodedSize = 64 << 20

// ErrInvalidShare is wrapped by every share string decoding failure
var ErrInvalidShare = errors.New("invalid share string")

// Encode returns the share string of t
func Encode(t *domain.Tracker) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to encode tracker: %w", err)
	}
	return Prefix + base64.RawURLEncoding.EncodeToString(snappy.Encode(nil, data)), nil
}

// EncodeLegacy returns t in the unprefixed format older releases read
func EncodeLegacy(t *domain.Tracker) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to encode tracker: %w", err)
	}
	return base64.StdEncoding.EncodeToString([]byte(encodeURIComponent(string(data)))), nil
}

// Decode parses a share string in either format
func Decode(s string) (*domain.Tracker, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, Prefix); ok {
		return decodeCurrent(rest)
	}
	return decodeLegacy(s)
}

func decodeCurrent(s string) (*domain.Tracker, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}

	n, err := snappy.DecodedLen(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	if n > MaxDecodedSize {
		return nil, fmt.Errorf("%w: decoded size %d exceeds %d bytes", ErrInvalidShare, n, MaxDecodedSize)
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	return unmarshal(data)
}

func decodeLegacy(s string) (*domain.Tracker, error) {
	escaped, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}

	data, err := url.PathUnescape(string(escaped))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	return unmarshal([]byte(data))
}

func unmarshal(data []byte) (*domain.Tracker, error) {
	var t domain.Tracker
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	return &t, nil
}

// uriComponentUnescaped are the characters encodeURIComponent leaves alone
// that url.QueryEscape escapes.
var uriComponentUnescaped = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes s the way browsers do
func encodeURIComponent(s string) string {
	return uriComponentUnescaped.Replace(url.QueryEscape(s))
}
