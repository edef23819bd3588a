package models

type HealthState string

const (
	HealthStatusHealthy   HealthState = "healthy"
	HealthStatusDegraded  HealthState = "degraded"
	HealthStatusUnhealthy HealthState = "unhealthy"
)

type HealthResponse struct {
	Status           HealthState `json:"status"`
	Timestamp        string      `json:"timestamp"`
	Version          string      `json:"version"`
	Uptime           string      `json:"uptime"`
	TotalRequests    int64       `json:"totalRequests"`
	Authenticated    bool        `json:"authenticated"`
	RefreshScheduled bool        `json:"refreshScheduled"`
	APIBaseURL       string      `json:"apiBaseUrl"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// PageResponse describes an entry page of the console shell.
type PageResponse struct {
	Page          string `json:"page"`
	Path          string `json:"path"`
	Authenticated bool   `json:"authenticated"`
	User          *User  `json:"user,omitempty"`
	Redirect      string `json:"redirect,omitempty"`
}

// SessionResponse is the shell's view of the session.
type SessionResponse struct {
	SessionState
	Location string `json:"location"`
}
