package health

import (
	"regexp"
	"time"

	"github.com/c360/complianceflow/errors"
)

// Status values, best first
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	pathPattern       = regexp.MustCompile(`(?:^|\s)(/[\w.-]+)+`)
	credentialPattern = regexp.MustCompile(`(?i)(password|token|secret|key)\s*[:=]\s*[^,\s}]+`)
)

// Status is the health of one component, optionally with the statuses it
// was derived from
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

func newStatus(component, status, message string) Status {
	return Status{
		Component: component,
		Healthy:   status == StatusHealthy,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy creates a healthy status
func NewHealthy(component, message string) Status {
	return newStatus(component, StatusHealthy, message)
}

// NewDegraded creates a degraded status
func NewDegraded(component, message string) Status {
	return newStatus(component, StatusDegraded, message)
}

// NewUnhealthy creates an unhealthy status
func NewUnhealthy(component, message string) Status {
	return newStatus(component, StatusUnhealthy, message)
}

func (s Status) IsHealthy() bool   { return s.Status == StatusHealthy }
func (s Status) IsDegraded() bool  { return s.Status == StatusDegraded }
func (s Status) IsUnhealthy() bool { return s.Status == StatusUnhealthy }

// FromError maps an error to a status by its class: nil is healthy, fatal
// is unhealthy and anything else degraded. Messages are served over HTTP so
// URLs, absolute paths and credentials are masked.
func FromError(component string, err error) Status {
	if err == nil {
		return NewHealthy(component, "running")
	}

	message := sanitize(err.Error())
	if errors.IsFatal(err) {
		return NewUnhealthy(component, message)
	}
	return NewDegraded(component, message)
}

func sanitize(msg string) string {
	msg = urlPattern.ReplaceAllString(msg, "[URL]")
	msg = credentialPattern.ReplaceAllString(msg, "$1=[REDACTED]")
	return pathPattern.ReplaceAllStringFunc(msg, func(m string) string {
		if m[0] == '/' {
			return "[PATH]"
		}
		return m[:1] + "[PATH]"
	})
}
