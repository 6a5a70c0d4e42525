package htmlutil

import (
	"regexp"
	"strings"
)

var (
	phonePattern = regexp.MustCompile(`(?:\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})|(?:\d{3}[-.\s]?\d{3}[-.\s]?\d{4})`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// placeholderEmailDomains are dropped from contact results.
var placeholderEmailDomains = []string{"example.com", "example.org", "domain.com"}

// Contacts are the phone numbers and email addresses found on a page, in
// document order without duplicates.
type Contacts struct {
	Phones []string `json:"phones"`
	Emails []string `json:"emails"`
}

// FindContacts scans the visible text of raw markup for phones and emails.
func FindContacts(raw string) Contacts {
	text := StripTags(raw)

	return Contacts{
		Phones: findPhones(text),
		Emails: findEmails(text),
	}
}

func findPhones(text string) []string {
	var phones []string
	seen := make(map[string]struct{})

	for _, loc := range phonePattern.FindAllStringIndex(text, -1) {
		// A match glued to more digits is part of a longer number.
		if loc[0] > 0 && isDigit(text[loc[0]-1]) {
			continue
		}
		if loc[1] < len(text) && isDigit(text[loc[1]]) {
			continue
		}
		phone := strings.TrimSpace(text[loc[0]:loc[1]])
		if _, ok := seen[phone]; ok {
			continue
		}
		seen[phone] = struct{}{}
		phones = append(phones, phone)
	}

	return phones
}

func findEmails(text string) []string {
	var emails []string
	seen := make(map[string]struct{})

	for _, email := range emailPattern.FindAllString(text, -1) {
		key := strings.ToLower(email)
		if isPlaceholderEmail(key) {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		emails = append(emails, email)
	}

	return emails
}

func isPlaceholderEmail(lower string) bool {
	for _, d := range placeholderEmailDomains {
		if strings.HasSuffix(lower, "@"+d) {
			return true
		}
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
