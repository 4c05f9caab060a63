package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeYAML_RoundTripIsStable(t *testing.T) {
	src := "openapi: 3.0.0\ncomponents:\n  schemas:\n    A:\n      $ref: '#/components/schemas/B'\n    B:\n      type: string\n"
	n, err := parseYAML("a.yaml", []byte(src))
	require.NoError(t, err)

	once, err := EncodeYAML(n)
	require.NoError(t, err)
	n2, err := parseYAML("a.yaml", once)
	require.NoError(t, err)
	twice, err := EncodeYAML(n2)
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
	assert.Equal(t, src, string(once))
}

func TestEncodeJSON_FromYAML(t *testing.T) {
	n, err := parseYAML("a.yaml", []byte("b: 1\na: [x, true, null, 0x10, 2.5]\nc: {d: '1'}\n"))
	require.NoError(t, err)
	out, err := EncodeJSON(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":1,"a":["x",true,null,16,2.5],"c":{"d":"1"}}`, string(out))
	// Order is preserved.
	assert.Less(t, indexOf(string(out), `"b"`), indexOf(string(out), `"a"`))
}

func TestEncodeJSON_RoundTrip(t *testing.T) {
	src := `{"z":{"$ref":"#/defs/A"},"a":[1,"two"]}`
	n, err := parseJSON("a.json", []byte(src))
	require.NoError(t, err)
	out, err := Encode(n, FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, src, string(out))
}

func TestEncodeJSON_KeepsOutOfRangeNumbers(t *testing.T) {
	src := `{"type":"integer","maximum":18446744073709551615,"minimum":1e400,"step":-0.5E-3}`
	n, err := parseJSON("a.json", []byte(src))
	require.NoError(t, err)
	out, err := EncodeJSON(n)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"maximum": 18446744073709551615`)
	assert.Contains(t, string(out), `"minimum": 1e400`)
	assert.Contains(t, string(out), `"step": -0.5E-3`)

	// YAML-only number forms are normalized, or quoted when JSON has none.
	n, err = parseYAML("a.yaml", []byte("hex: 0x1F\ninf: .inf\n"))
	require.NoError(t, err)
	out, err = EncodeJSON(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hex":31,"inf":".inf"}`, string(out))
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("x/a.JSON"))
	assert.Equal(t, FormatYAML, FormatFor("x/a.yml"))
	assert.Equal(t, FormatYAML, FormatFor("x/a"))
	assert.Equal(t, "json", FormatJSON.String())
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
