package utils

import (
	"crypto/rand"
	"errors"
	"strings"
)

// IDHookFunc overrides NewID in tests. It returns an ID and whether to use it.
type IDHookFunc func() (id string, override bool)

// NewIDHook is a package-level variable that tests can set to override NewID behavior.
var NewIDHook IDHookFunc

// Crockford Base32 encoding alphabet (uppercase)
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// idLength is the encoded length of a 6-byte id: ceil(48/5).
const idLength = 10

var crockfordDecodeMap = func() map[byte]byte {
	m := make(map[byte]byte, 40)
	for i := range crockfordAlphabet {
		m[crockfordAlphabet[i]] = byte(i)
	}
	lower := strings.ToLower(crockfordAlphabet)
	for i := 10; i < len(lower); i++ {
		m[lower[i]] = byte(i)
	}
	// Commonly confused characters.
	m['o'], m['O'] = 0, 0
	m['i'], m['I'], m['l'], m['L'] = 1, 1, 1, 1
	return m
}()

// NewID returns a random 6-byte identifier in Crockford Base32.
func NewID() string {
	if NewIDHook != nil {
		if id, override := NewIDHook(); override {
			return id
		}
	}

	var raw [6]byte
	if _, err := rand.Read(raw[:]); err != nil {
		// fallback to zeros if random fails
		raw = [6]byte{}
	}
	return encodeCrockford(raw)
}

func encodeCrockford(raw [6]byte) string {
	result := make([]byte, 0, idLength)
	var bits, offset uint
	for _, b := range raw {
		bits |= uint(b) << offset
		offset += 8
		for offset >= 5 {
			result = append(result, crockfordAlphabet[bits&0x1F])
			bits >>= 5
			offset -= 5
		}
	}
	if offset > 0 {
		result = append(result, crockfordAlphabet[bits&0x1F])
	}
	return string(result)
}

// NormalizeID validates a client-supplied id and returns its canonical form.
// Hyphens and spaces are ignored, lowercase and confusable characters are accepted.
func NormalizeID(s string) (string, error) {
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	if len(s) != idLength {
		return "", errors.New("invalid id: length must be 10")
	}

	var raw [6]byte
	var bits uint64
	var offset uint
	byteIndex := 0
	for i := 0; i < idLength; i++ {
		val, ok := crockfordDecodeMap[s[i]]
		if !ok {
			return "", errors.New("invalid character in id")
		}
		bits |= uint64(val) << offset
		offset += 5
		for offset >= 8 && byteIndex < len(raw) {
			raw[byteIndex] = byte(bits & 0xFF)
			byteIndex++
			bits >>= 8
			offset -= 8
		}
	}
	if byteIndex != len(raw) {
		return "", errors.New("invalid id: couldn't decode 6 bytes")
	}
	return encodeCrockford(raw), nil
}
