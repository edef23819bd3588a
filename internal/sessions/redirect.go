package sessions

import (
	"net/url"
	"strings"
)

// RedirectTarget is where an authenticated user lands: the redirect query
// parameter of the current location when it names a local path, else the
// authenticated entry path.
func (m *Manager) RedirectTarget() string {
	m.mu.Lock()
	location := m.location
	m.mu.Unlock()

	if location == nil {
		return m.config.AuthenticatedEntryPath
	}

	current, err := url.Parse(location())
	if err != nil {
		return m.config.AuthenticatedEntryPath
	}

	if target := current.Query().Get(m.config.RedirectQueryKey); isLocalPath(target) {
		return target
	}

	return m.config.AuthenticatedEntryPath
}

// LoginPath builds the unauthenticated entry path that returns to target
// once signed in.
func (m *Manager) LoginPath(target string) string {
	if !isLocalPath(target) || target == m.config.UnauthenticatedEntryPath {
		return m.config.UnauthenticatedEntryPath
	}
	return m.config.UnauthenticatedEntryPath + "?" + url.Values{
		m.config.RedirectQueryKey: []string{target},
	}.Encode()
}

func (m *Manager) redirect() {
	m.navigateTo(m.RedirectTarget())
}

// isLocalPath rejects absolute and protocol-relative URLs so the redirect
// parameter cannot send users off-site.
func isLocalPath(path string) bool {
	return strings.HasPrefix(path, "/") &&
		!strings.HasPrefix(path, "//") &&
		!strings.HasPrefix(path, "/\\")
}
