package estatesearch

import (
	"context"
	"sort"
	"time"

	healthuc "github.com/kailas-cloud/estatesearch/internal/usecase/health"
)

// HealthStatus is the outcome of Client.Health.
type HealthStatus struct {
	// Status is "ok", "degraded" (embedding provider down) or "error" (Elasticsearch down).
	Status string
	// Reachable maps each checked component to whether it answered.
	Reachable map[string]bool
}

// OK reports whether every component answered.
func (h HealthStatus) OK() bool { return h.Status == string(healthuc.Healthy) }

// Failing lists the components that did not answer, sorted by name.
func (h HealthStatus) Failing() []string {
	var out []string
	for name, ok := range h.Reachable {
		if !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Health checks Elasticsearch and, when the embedder implements HealthCheck, the
// embedding provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	reachable := make(map[string]bool, len(report.Checks))
	for name, res := range report.Checks {
		reachable[name] = res == healthuc.CheckOK
	}
	h := HealthStatus{Status: string(report.Status), Reachable: reachable}
	c.obs.call("cluster", "health", start, -1, nil)
	return h
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
