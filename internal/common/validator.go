package common

import (
	"net/mail"
	"net/url"
	"strings"
)

// IsValidAPIServer accepts absolute http(s) URLs with a host.
func IsValidAPIServer(rawurl string) bool {
	parsed, err := url.Parse(rawurl)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(parsed.Scheme)
	return (scheme == "http" || scheme == "https") && len(parsed.Host) > 0
}

func IsValidURL(rawurl string) bool {
	_, err := url.ParseRequestURI(rawurl)
	return err == nil
}

func IsValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
