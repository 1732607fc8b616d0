package persistence

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const fragmentKey = "data="

var ErrNoFragmentData = errors.New("fragment carries no data")

// EncodeFragment renders a serialized document as "data=<base64>".
func EncodeFragment(doc []byte) string {
	return fragmentKey + base64.StdEncoding.EncodeToString(doc)
}

// DecodeFragment reads a document from a share-link fragment. The leading
// "#" is optional, and the older "?data=" form is accepted too.
func DecodeFragment(fragment string) (Document, error) {
	payload, ok := fragmentPayload(fragment)
	if !ok {
		return Document{}, ErrNoFragmentData
	}

	raw, err := decodeBase64(payload)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	doc, err := Decode(raw)
	if err != nil {
		return Document{}, err
	}
	return Migrate(doc), nil
}

func fragmentPayload(fragment string) (string, bool) {
	f := strings.TrimPrefix(fragment, "#")
	f = strings.TrimPrefix(f, "?")
	if !strings.HasPrefix(f, fragmentKey) {
		return "", false
	}
	payload := strings.TrimPrefix(f, fragmentKey)
	if i := strings.IndexByte(payload, '&'); i >= 0 {
		payload = payload[:i]
	}
	return payload, payload != ""
}

// decodeBase64 tolerates percent-escaping and the URL-safe alphabet, both of
// which appear when links pass through chat clients.
func decodeBase64(s string) ([]byte, error) {
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
