package sourcemap

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for mapping decoding.
var (
	ErrInvalidVLQ     = errors.New("invalid base64 VLQ sequence")
	ErrInvalidSegment = errors.New("invalid mapping segment")
)

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// VLQ digits carry 5 data bits; the 6th bit flags a continuation.
const (
	vlqShift        = 5
	vlqMask         = 1<<vlqShift - 1
	vlqContinuation = 1 << vlqShift
)

var base64Index = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		idx[base64Alphabet[i]] = int8(i)
	}
	return idx
}()

// encodeVLQ appends the Base64 VLQ form of v to b.
// The sign is stored in the least significant bit.
func encodeVLQ(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & vlqMask
		u >>= vlqShift
		if u > 0 {
			digit |= vlqContinuation
		}
		b.WriteByte(base64Alphabet[digit])
		if u == 0 {
			return
		}
	}
}

// decodeVLQ reads one value from s starting at pos.
// Returns the value and the position just past it.
func decodeVLQ(s string, pos int) (int, int, error) {
	var result, shift int
	for {
		if pos >= len(s) {
			return 0, pos, fmt.Errorf("%w: unexpected end at offset %d", ErrInvalidVLQ, pos)
		}
		digit := base64Index[s[pos]]
		if digit < 0 {
			return 0, pos, fmt.Errorf("%w: character %q at offset %d", ErrInvalidVLQ, s[pos], pos)
		}
		pos++
		result += int(digit&vlqMask) << shift
		if digit&vlqContinuation == 0 {
			break
		}
		shift += vlqShift
	}
	if result&1 == 1 {
		return -(result >> 1), pos, nil
	}
	return result >> 1, pos, nil
}
