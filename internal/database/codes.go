// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package database

import (
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/tourdesk/internal/models"
)

// crockford is the Crockford base32 alphabet: no I, L, O or U.
const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// codeBodyLen is the number of base32 characters in a code body. Eight
// characters carry 40 random bits.
const codeBodyLen = 8

// CodeGenerator creates PREFIX-XXXXXXXX-C confirmation codes. It is safe for
// concurrent use.
type CodeGenerator struct {
	random func() uuid.UUID
}

// NewCodeGenerator returns a generator drawing from random v4 UUIDs.
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{random: uuid.New}
}

// NewCodeGeneratorWithSource uses random as the entropy source. Tests use it
// to force collisions.
func NewCodeGeneratorWithSource(random func() uuid.UUID) *CodeGenerator {
	return &CodeGenerator{random: random}
}

// Generate returns a fresh code for kind.
func (g *CodeGenerator) Generate(kind models.Kind) string {
	id := g.random()

	// The first five bytes of a v4 UUID are fully random.
	var bits uint64
	for _, b := range id[:5] {
		bits = bits<<8 | uint64(b)
	}
	body := make([]byte, codeBodyLen)
	for i := codeBodyLen - 1; i >= 0; i-- {
		body[i] = crockford[bits&31]
		bits >>= 5
	}

	var sb strings.Builder
	sb.Grow(len(kind.CodePrefix()) + codeBodyLen + 3)
	sb.WriteString(kind.CodePrefix())
	sb.WriteByte('-')
	sb.Write(body)
	sb.WriteByte('-')
	sb.WriteByte(checkChar(string(body)))
	return sb.String()
}

// ValidCode reports whether code is well formed with a correct check
// character. Lower-case input and the Crockford aliases (O for 0, I and L
// for 1) are accepted.
func ValidCode(code string) bool {
	prefix, rest, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(code)), "-")
	if !ok || len(prefix) != 2 {
		return false
	}
	body, check, ok := strings.Cut(rest, "-")
	if !ok || len(body) != codeBodyLen || len(check) != 1 {
		return false
	}
	body = normalizeCrockford(body)
	for i := 0; i < len(body); i++ {
		if strings.IndexByte(crockford, body[i]) < 0 {
			return false
		}
	}
	return checkChar(body) == normalizeCrockford(check)[0]
}

// checkChar computes a Luhn mod 32 check character over body. It detects
// every single-character error and most adjacent transpositions.
func checkChar(body string) byte {
	const n = len(crockford)
	factor := 2
	sum := 0
	for i := len(body) - 1; i >= 0; i-- {
		addend := factor * strings.IndexByte(crockford, body[i])
		if factor == 2 {
			factor = 1
		} else {
			factor = 2
		}
		sum += addend/n + addend%n
	}
	return crockford[(n-sum%n)%n]
}

func normalizeCrockford(s string) string {
	return strings.NewReplacer("O", "0", "I", "1", "L", "1").Replace(s)
}
