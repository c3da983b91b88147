/**
 * Copyright 2025-present Network Goods Institute
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package paycode generates and normalizes the short codes customers type to
// join a payment. Codes use the Crockford base32 alphabet, which drops the
// letters most often confused with digits.
package paycode

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// Length is the number of characters in a payment code.
const Length = 5

// Generate returns a fresh 5-character code from 3 random bytes. Five base32
// characters could carry 25 bits; with 24 the leading character spans half
// the alphabet, which is fine for a short-lived join code. Uniqueness is the
// caller's concern; collisions among open payments are retried at the store.
func Generate() (string, error) {
	var buf [3]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	n := uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2])
	code := make([]byte, Length)
	for i := Length - 1; i >= 0; i-- {
		code[i] = alphabet[n%32]
		n /= 32
	}
	return string(code), nil
}

// Normalize uppercases a user-typed code and maps the usual misreadings onto
// the canonical alphabet: O to 0, I and L to 1.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.NewReplacer("O", "0", "I", "1", "L", "1").Replace(code)
}

// Valid reports whether a normalized code has the right length and only uses
// alphabet characters.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(alphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
