// Package bytesx provides the raw byte-arithmetic primitives the rest of
// the filesystem core is built from: copy, fill, and NUL-terminated string
// length/compare. It is deliberately self-contained (backed only by Go
// built-ins, never by encoding/* or bytes.* convenience wrappers) so the
// core's lowest layer has no platform dependency beyond slice indexing.
package bytesx

// Copy copies min(len(dst), len(src)) bytes from src to dst and returns
// that count.
func Copy(dst, src []byte) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] = src[i]
	}
	return n
}

// Fill sets every byte of b to v.
func Fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

// StrLen returns the length of the NUL-terminated string starting at the
// beginning of b, stopping at the first 0x00 byte or at len(b) if none is
// found.
func StrLen(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}

// StrEqual reports whether the NUL-terminated strings starting at the
// beginning of a and b are equal.
func StrEqual(a, b []byte) bool {
	la, lb := StrLen(a), StrLen(b)
	if la != lb {
		return false
	}
	for i := 0; i < la; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
