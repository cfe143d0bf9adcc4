// Package buildhash computes the content fingerprint used as the build cache
// key. The fingerprint is durable state: cache rows outlive deployments, so
// any change to the canonicalization must bump hashVersion.
package buildhash

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// hashVersion is mixed into every digest. Bumping it invalidates all prior
// cache entries at once instead of silently mismatching them.
const hashVersion = "v1"

// Hash maps (target, config, version) to a stable identifier. The config is an
// opaque JSON document; it is canonicalized before hashing so that key order
// and whitespace in the stored blob never change the result.
func Hash(target string, configJSON string, version string) (string, error) {
	canonical, err := Canonicalize(configJSON)
	if err != nil {
		return "", fmt.Errorf("canonicalize config: %w", err)
	}

	h := sha256.New()
	for _, field := range []string{hashVersion, target, canonical, version} {
		writeField(h, field)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeField writes a length-prefixed field so adjacent fields can never be
// confused for one another.
func writeField(h interface{ Write([]byte) (int, error) }, field string) {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(field)))
	_, _ = h.Write(prefix[:])
	_, _ = h.Write([]byte(field))
}

// Canonicalize renders a JSON document with recursively sorted object keys and
// the original number representation preserved. An empty document is treated
// as the empty object.
func Canonicalize(configJSON string) (string, error) {
	if strings.TrimSpace(configJSON) == "" {
		configJSON = "{}"
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(configJSON)))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := writeCanonical(&sb, doc); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeCanonical(sb *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if val {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case json.Number:
		sb.WriteString(val.String())
	case string:
		encoded, err := json.Marshal(val)
		if err != nil {
			return err
		}
		sb.Write(encoded)
	case []any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeCanonical(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			encodedKey, err := json.Marshal(k)
			if err != nil {
				return err
			}
			sb.Write(encodedKey)
			sb.WriteByte(':')
			if err := writeCanonical(sb, val[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	default:
		return fmt.Errorf("unsupported JSON value of type %T", v)
	}
	return nil
}
