package service

import "strings"

var gmailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
}

// CanonicalizeEmail returns the key used for email uniqueness. Addresses are
// lowercased; Gmail addresses additionally lose dots and any +tag in the
// local part, and googlemail.com folds into gmail.com.
func CanonicalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return email
	}

	if gmailDomains[domain] {
		local, _, _ = strings.Cut(local, "+")
		local = strings.ReplaceAll(local, ".", "")
		domain = "gmail.com"
	}

	return local + "@" + domain
}
