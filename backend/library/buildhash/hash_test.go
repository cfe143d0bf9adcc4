package buildhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashDeterministic(t *testing.T) {
	a, err := Hash("tbeam", `{"gps":true,"region":"EU_868"}`, "2.5.1")
	assert.NoError(t, err)
	b, err := Hash("tbeam", `{"gps":true,"region":"EU_868"}`, "2.5.1")
	assert.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHashIgnoresKeyOrderAndWhitespace(t *testing.T) {
	a, err := Hash("tbeam", `{"gps":true,"region":"EU_868"}`, "2.5.1")
	assert.NoError(t, err)
	b, err := Hash("tbeam", ` { "region" : "EU_868" , "gps" : true } `, "2.5.1")
	assert.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashSensitivity(t *testing.T) {
	base, err := Hash("tbeam", `{"gps":true}`, "2.5.1")
	assert.NoError(t, err)

	otherTarget, err := Hash("rak4631", `{"gps":true}`, "2.5.1")
	assert.NoError(t, err)
	assert.NotEqual(t, base, otherTarget)

	otherConfig, err := Hash("tbeam", `{"gps":false}`, "2.5.1")
	assert.NoError(t, err)
	assert.NotEqual(t, base, otherConfig)

	otherVersion, err := Hash("tbeam", `{"gps":true}`, "2.5.2")
	assert.NoError(t, err)
	assert.NotEqual(t, base, otherVersion)
}

func TestHashEmptyConfigEqualsEmptyObject(t *testing.T) {
	a, err := Hash("tbeam", "", "2.5.1")
	assert.NoError(t, err)
	b, err := Hash("tbeam", "{}", "2.5.1")
	assert.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashRejectsInvalidConfig(t *testing.T) {
	_, err := Hash("tbeam", `{"gps":`, "2.5.1")
	assert.Error(t, err)
}

func TestCanonicalize(t *testing.T) {
	canonical, err := Canonicalize(`{"b":[1,2.50,"x"],"a":{"z":null,"y":true}}`)
	assert.NoError(t, err)
	assert.Equal(t, `{"a":{"y":true,"z":null},"b":[1,2.50,"x"]}`, canonical)
}

func TestCanonicalizePreservesNumberRepresentation(t *testing.T) {
	// 1e2 and 100 are the same value but different documents; the stored
	// config blob is what gets fingerprinted, not a normalized float.
	a, err := Canonicalize(`{"n":1e2}`)
	assert.NoError(t, err)
	b, err := Canonicalize(`{"n":100}`)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}
