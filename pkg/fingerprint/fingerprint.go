package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"
)

// Fingerprinter derives stable cache keys from logical requests.
// The zero value excludes headers, which is what most callers want:
// authorization headers vary per caller and would fragment the cache.
type Fingerprinter struct {
	// IncludeHeaders lists header names (case-insensitive) whose values
	// participate in the key. Only opt in headers that change the response
	// content, e.g. "Accept" on content-negotiated endpoints.
	IncludeHeaders []string
}

// Key maps a logical request to a hex-encoded SHA-256 digest. Two calls with
// the same method, endpoint, parameter set and body produce the same key
// regardless of map iteration order. Hashing keeps key size bounded and keeps
// parameter values out of inspectable cache backends.
func (f Fingerprinter) Key(method, endpoint string, headers, params map[string]string, body []byte) string {
	h := sha256.New()

	writeField(h, strings.ToUpper(method))
	writeField(h, endpoint)

	for _, k := range sortedKeys(params) {
		writeField(h, k)
		writeField(h, params[k])
	}
	h.Write([]byte{0x1d})

	if len(f.IncludeHeaders) > 0 && headers != nil {
		canonical := make(map[string]string, len(headers))
		for k, v := range headers {
			canonical[strings.ToLower(k)] = v
		}
		names := make([]string, 0, len(f.IncludeHeaders))
		for _, name := range f.IncludeHeaders {
			names = append(names, strings.ToLower(name))
		}
		sort.Strings(names)
		for _, name := range names {
			if v, ok := canonical[name]; ok {
				writeField(h, name)
				writeField(h, v)
			}
		}
	}
	h.Write([]byte{0x1d})

	h.Write(body)

	return hex.EncodeToString(h.Sum(nil))
}

// writeField appends the value followed by a separator byte that cannot
// appear in the middle of a UTF-8 rune, so adjacent fields cannot be
// re-segmented into a colliding input.
func writeField(h io.Writer, v string) {
	h.Write([]byte(v))
	h.Write([]byte{0x1e})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
