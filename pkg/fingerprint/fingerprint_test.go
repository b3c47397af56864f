package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyDeterministic(t *testing.T) {
	var f Fingerprinter

	a := f.Key("GET", "/api/v1/users", nil, map[string]string{"page": "1", "per_page": "50"}, nil)
	b := f.Key("GET", "/api/v1/users", nil, map[string]string{"per_page": "50", "page": "1"}, nil)
	assert.Equal(t, a, b, "param insertion order must not change the key")

	c := f.Key("get", "/api/v1/users", nil, map[string]string{"page": "1", "per_page": "50"}, nil)
	assert.Equal(t, a, c, "method comparison is case-insensitive")
}

func TestKeyDistinguishesInputs(t *testing.T) {
	var f Fingerprinter

	base := f.Key("GET", "/repos", nil, map[string]string{"q": "go"}, nil)

	assert.NotEqual(t, base, f.Key("POST", "/repos", nil, map[string]string{"q": "go"}, nil))
	assert.NotEqual(t, base, f.Key("GET", "/repos/x", nil, map[string]string{"q": "go"}, nil))
	assert.NotEqual(t, base, f.Key("GET", "/repos", nil, map[string]string{"q": "rust"}, nil))
	assert.NotEqual(t, base, f.Key("GET", "/repos", nil, map[string]string{"q": "go"}, []byte(`{}`)))
}

func TestKeyFieldBoundaries(t *testing.T) {
	var f Fingerprinter

	// Shifting bytes between adjacent fields must not collide.
	a := f.Key("GET", "/ab", nil, map[string]string{"c": "1"}, nil)
	b := f.Key("GET", "/a", nil, map[string]string{"bc": "1"}, nil)
	assert.NotEqual(t, a, b)

	a = f.Key("GET", "/x", nil, map[string]string{"k": "vv"}, nil)
	b = f.Key("GET", "/x", nil, map[string]string{"kv": "v"}, nil)
	assert.NotEqual(t, a, b)
}

func TestKeyHeadersExcludedByDefault(t *testing.T) {
	var f Fingerprinter

	a := f.Key("GET", "/me", map[string]string{"Authorization": "token aaa"}, nil, nil)
	b := f.Key("GET", "/me", map[string]string{"Authorization": "token bbb"}, nil, nil)
	assert.Equal(t, a, b, "headers must not fragment the cache unless opted in")
}

func TestKeyHeaderOptIn(t *testing.T) {
	f := Fingerprinter{IncludeHeaders: []string{"Accept"}}

	a := f.Key("GET", "/doc", map[string]string{"Accept": "application/json"}, nil, nil)
	b := f.Key("GET", "/doc", map[string]string{"Accept": "text/html"}, nil, nil)
	assert.NotEqual(t, a, b)

	// Header name matching is case-insensitive.
	c := f.Key("GET", "/doc", map[string]string{"accept": "application/json"}, nil, nil)
	assert.Equal(t, a, c)

	// Non-listed headers still do not participate.
	d := f.Key("GET", "/doc", map[string]string{"Accept": "application/json", "Authorization": "x"}, nil, nil)
	assert.Equal(t, a, d)
}
