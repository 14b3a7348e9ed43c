/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"crypto/rand"
)

const (
	// Letters that survive being read aloud or off a projector.
	codeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength  = 6

	minCodeLength = 4
	maxCodeLength = 12
)

// newCode generates a crypto-random join code.
func newCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	out := make([]byte, codeLength)
	for i := range out {
		out[i] = codeLetters[int(buf[i])%len(codeLetters)]
	}

	return string(out)
}

// validCode reports whether a requested code is usable. Codes are
// normalized to upper case before this is called.
func validCode(code string) bool {
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
