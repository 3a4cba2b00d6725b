package layout

import "github.com/cespare/xxhash/v2"

// SeedFrom hashes parts into a layout seed. Parts are separated so that
// ("ab", "c") and ("a", "bc") differ.
func SeedFrom(parts ...string) uint64 {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
