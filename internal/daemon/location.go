package daemon

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Location is the shell's current route. The session manager navigates
// through it and reads the redirect parameter back from it.
type Location struct {
	mu      sync.RWMutex
	current string
}

func NewLocation(initial string) *Location {
	return &Location{current: initial}
}

func (l *Location) Navigate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != path {
		logrus.WithFields(logrus.Fields{
			"from": l.current,
			"to":   path,
		}).Debugln("Navigating")
	}

	l.current = path
}

func (l *Location) Current() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}
