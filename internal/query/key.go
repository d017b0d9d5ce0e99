package query

import (
	"strconv"
	"strings"
)

// Key identifies a fetchable resource, e.g. Key{"servers", "1", "stats"}.
// Segments are opaque; "music/queue" is one segment, not two.
type Key []string

// Equal reports whether both keys have the same segments in the same order.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading subsequence of k. The empty
// prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// String renders the key for logs.
func (k Key) String() string {
	return "[" + strings.Join(k, " ") + "]"
}

// id is the map key for k. Each segment is length-prefixed, so distinct keys
// never share an id whatever their segments contain.
func (k Key) id() string {
	var b strings.Builder
	for _, seg := range k {
		b.WriteString(strconv.Itoa(len(seg)))
		b.WriteByte(':')
		b.WriteString(seg)
	}
	return b.String()
}

func (k Key) clone() Key {
	if k == nil {
		return nil
	}
	dup := make(Key, len(k))
	copy(dup, k)
	return dup
}
