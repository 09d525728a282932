package service

import (
	"net/url"
	"regexp"
)

// storageURLPattern matches https://<host>/v0/b/<bucket>/o/<encoded-object-path>[?<query>].
var storageURLPattern = regexp.MustCompile(`/v0/b/[^/?#]+/o/([^?#]+)`)

// ObjectKey resolves an image reference to a blob key. Canonical storage URLs yield
// the decoded object path and canonical=true; anything else is returned unchanged.
func ObjectKey(ref string) (key string, canonical bool) {
	m := storageURLPattern.FindStringSubmatch(ref)
	if m == nil {
		return ref, false
	}
	decoded, err := url.PathUnescape(m[1])
	if err != nil || decoded == "" {
		return ref, false
	}
	return decoded, true
}
