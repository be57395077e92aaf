package optimizer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// CallKey derives a deterministic content hash for one invocation of a
// named function: the same function, positional arguments, and keyword
// arguments always produce the same key, regardless of keyword ordering.
// Arguments that cannot be serialized to JSON fall back to their fmt
// rendering, which is lossy (two distinct values can format alike) but
// never fails; the boolean return reports whether the fallback was taken.
func CallKey(fn string, args []interface{}, kwargs map[string]interface{}) (string, bool) {
	h := sha256.New()
	h.Write([]byte(fn))
	h.Write([]byte{0})

	lossy := false
	for _, arg := range args {
		h.Write(canonical(arg, &lossy))
		h.Write([]byte{0})
	}

	keys := make([]string, 0, len(kwargs))
	for key := range kwargs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		h.Write([]byte(key))
		h.Write([]byte{'='})
		h.Write(canonical(kwargs[key], &lossy))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil)), lossy
}

// canonical renders one argument to stable bytes. JSON is canonical enough
// here because encoding/json sorts map keys; the fallback path handles
// channels, funcs, and other unserializable values.
func canonical(arg interface{}, lossy *bool) []byte {
	data, err := json.Marshal(arg)
	if err != nil {
		*lossy = true
		return []byte(fmt.Sprintf("%T:%v", arg, arg))
	}
	return data
}

// signature builds the detector key for a tool call, readable in logs.
func signature(toolName, callKey string) string {
	var b strings.Builder
	b.WriteString(toolName)
	b.WriteByte(':')
	b.WriteString(callKey)
	return b.String()
}
