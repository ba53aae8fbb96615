// Package email normalizes the addresses that identify users and payees.
package email

import (
	"strings"
)

// Normalize trims and lowercases an address. Addresses are compared in this
// form everywhere.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Valid reports whether a normalized address has exactly one '@' with a
// non-empty local part and a dotted domain.
func Valid(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return false
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	dot := strings.LastIndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
