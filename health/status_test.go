package health

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360/complianceflow/errors"
)

func TestStatus_States(t *testing.T) {
	tests := []struct {
		name      string
		status    Status
		healthy   bool
		degraded  bool
		unhealthy bool
	}{
		{"healthy", Status{Status: StatusHealthy}, true, false, false},
		{"degraded", Status{Status: StatusDegraded}, false, true, false},
		{"unhealthy", Status{Status: StatusUnhealthy}, false, false, true},
		{"empty", Status{}, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.healthy, tt.status.IsHealthy())
			assert.Equal(t, tt.degraded, tt.status.IsDegraded())
			assert.Equal(t, tt.unhealthy, tt.status.IsUnhealthy())
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status string
	}{
		{"nil", nil, StatusHealthy},
		{"invariant", errors.Invariant("Store", "Service", "id %d outside batch", 7), StatusUnhealthy},
		{"recovered panic", errors.FromPanic("boom", "Worker", "Run"), StatusUnhealthy},
		{"transient", errors.WrapTransient(fmt.Errorf("slow"), "Aggregator", "Collect", "write history"), StatusDegraded},
		{"invalid", errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "check"), StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := FromError("worker-0", tt.err)
			assert.Equal(t, tt.status, s.Status)
			assert.Equal(t, "worker-0", s.Component)
			assert.Equal(t, tt.status == StatusHealthy, s.Healthy)
			assert.False(t, s.Timestamp.IsZero())
		})
	}
}

func TestFromError_Sanitizes(t *testing.T) {
	err := errors.WrapFatal(fmt.Errorf("open /etc/complianceflow/policy.yaml with token=abc123"),
		"Loader", "Load", "read")
	s := FromError("loader", err)
	assert.NotContains(t, s.Message, "/etc/complianceflow")
	assert.NotContains(t, s.Message, "abc123")
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"path", "failed to open /etc/complianceflow/config.json", "failed to open [PATH]"},
		{"leading path", "/tmp/policy.yaml missing", "[PATH] missing"},
		{"url", "scrape failed at https://metrics.example.com/v1/metrics", "scrape failed at [URL]"},
		{"credential", "auth failed with password:secretpass123", "auth failed with password=[REDACTED]"},
		{"ratio kept", "1/2 healthy", "1/2 healthy"},
		{"plain", "Worker.Run: invariant violation: batch too large", "Worker.Run: invariant violation: batch too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitize(tt.input))
		})
	}
}

func TestAggregate_NamesWorstSub(t *testing.T) {
	got := Aggregate("system", []Status{
		NewHealthy("aggregator", ""),
		NewDegraded("workers", "1/2 healthy"),
	})
	assert.Equal(t, "workers degraded", got.Message)
	assert.Equal(t, "aggregator", got.SubStatuses[0].Component)
}

func TestAggregate_CopiesSubs(t *testing.T) {
	subs := []Status{NewHealthy("b", ""), NewHealthy("a", "")}
	got := Aggregate("system", subs)

	subs[0].Status = StatusUnhealthy
	assert.Equal(t, "b", subs[0].Component, "input order untouched")
	assert.Equal(t, StatusHealthy, got.SubStatuses[1].Status)
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		subs []Status
		want string
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Status{NewHealthy("a", ""), NewHealthy("b", "")}, StatusHealthy},
		{"one degraded", []Status{NewHealthy("a", ""), NewDegraded("b", "")}, StatusDegraded},
		{"one unhealthy", []Status{NewDegraded("a", ""), NewUnhealthy("b", "")}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate("system", tt.subs)
			assert.Equal(t, tt.want, got.Status)
			assert.Len(t, got.SubStatuses, len(tt.subs))
		})
	}
}

func TestQuorum(t *testing.T) {
	tests := []struct {
		name string
		subs []Status
		want string
	}{
		{"no replicas", nil, StatusUnhealthy},
		{"all healthy", []Status{NewHealthy("worker-0", ""), NewHealthy("worker-1", "")}, StatusHealthy},
		{"one faulted", []Status{NewHealthy("worker-0", ""), NewUnhealthy("worker-1", "")}, StatusDegraded},
		{"all faulted", []Status{NewUnhealthy("worker-0", ""), NewUnhealthy("worker-1", "")}, StatusUnhealthy},
		{"degraded only", []Status{NewDegraded("worker-0", "")}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quorum("workers", tt.subs).Status)
		})
	}
}

func TestQuorum_SortsReplicas(t *testing.T) {
	got := Quorum("workers", []Status{NewHealthy("worker-2", ""), NewHealthy("worker-0", ""), NewHealthy("worker-1", "")})
	names := make([]string, 0, len(got.SubStatuses))
	for _, s := range got.SubStatuses {
		names = append(names, s.Component)
	}
	assert.Equal(t, []string{"worker-0", "worker-1", "worker-2"}, names)
	assert.Equal(t, "3/3 healthy", got.Message)
}
