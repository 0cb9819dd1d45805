package uniuri

import (
	"crypto/rand"
	"math/big"
)

// StdLen is the default length of New, giving ~95 bits of entropy.
const StdLen = 16

// Character classes.
var (
	Upper   = []byte("ABCDEFGHJKLMNPQRSTUVWXYZ")
	Lower   = []byte("abcdefghijkmnopqrstuvwxyz")
	Digits  = []byte("23456789")
	Symbols = []byte("!@#$%*-_+=?")
)

// StdChars is the alphabet of New.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// New returns a random string of StdLen standard characters.
func New() string {
	return NewLenChars(StdLen, StdChars)
}

// NewLenChars returns a random string of length characters drawn uniformly from chars.
func NewLenChars(length int, chars []byte) string {
	if len(chars) < 2 {
		panic("uniuri: charset needs at least two characters")
	}

	out := make([]byte, length)
	for i := range out {
		out[i] = pick(chars)
	}

	return string(out)
}

// Password returns a random password of length characters containing at least one
// upper case letter, lower case letter, digit and symbol. Ambiguous glyphs are excluded.
// Lengths below four are raised to four.
func Password(length int) string {
	classes := [][]byte{Upper, Lower, Digits, Symbols}
	if length < len(classes) {
		length = len(classes)
	}

	all := make([]byte, 0, len(Upper)+len(Lower)+len(Digits)+len(Symbols))
	for _, c := range classes {
		all = append(all, c...)
	}

	out := make([]byte, length)
	for i := range out {
		if i < len(classes) {
			out[i] = pick(classes[i])
			continue
		}

		out[i] = pick(all)
	}

	// Fisher-Yates so the guaranteed characters are not always in front
	for i := len(out) - 1; i > 0; i-- {
		j := index(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	return string(out)
}

func pick(chars []byte) byte {
	return chars[index(len(chars))]
}

func index(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("uniuri: error reading random bytes: " + err.Error())
	}

	return int(v.Int64())
}
