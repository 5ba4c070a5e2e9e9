// Package health backs the /livez and /readyz endpoints of the API server.
//
// Probes run in the background on a fixed interval. A probe flips to failing
// only after three consecutive errors, so a single slow postgres ping during
// a deploy does not knock the pod out of the load balancer; one success
// brings it back.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const failAfter = 3

// probe is one registered check plus its damped state. Fields after fn are
// guarded by mu; poll holds it only while recording a result, never while
// the check function runs.
type probe struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu      sync.Mutex
	failing bool
	fails   int
	lastErr error
}

func (p *probe) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.fn(ctx)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err == nil {
		p.fails = 0
		p.failing = false
		return
	}
	p.fails++
	if p.fails >= failAfter {
		p.failing = true
	}
}

// status reports whether the probe is failing and the most recent error.
func (p *probe) status() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failing, p.lastErr
}

// Service aggregates liveness and readiness probes for one process.
//
// Readiness additionally carries a manual gate: the server opens it once
// wiring is done and closes it when shutdown starts, so the load balancer
// drains the pod before the listener stops.
type Service struct {
	mu        sync.Mutex
	liveness  []*probe
	readiness []*probe
	ready     bool
	cancel    context.CancelFunc
}

// New returns a Service with the manual readiness gate closed.
func New() *Service {
	return &Service{}
}

func (s *Service) add(dst *[]*probe, name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*dst = append(*dst, &probe{name: name, timeout: timeout, fn: fn})
}

// AddLivenessCheck registers a probe for /livez. A liveness failure means the
// process itself is broken and should be restarted.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.add(&s.liveness, name, timeout, fn)
}

// AddReadinessCheck registers a probe for /readyz. A readiness failure means
// a dependency (postgres, redis) is unreachable and traffic should route
// elsewhere until it recovers.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.add(&s.readiness, name, timeout, fn)
}

// Start polls every registered probe once immediately, then at the given
// interval until the context is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	probes := make([]*probe, 0, len(s.liveness)+len(s.readiness))
	probes = append(probes, s.liveness...)
	probes = append(probes, s.readiness...)
	s.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			p.poll(ctx)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.poll(ctx)
				}
			}
		}(p)
	}
}

// Stop halts background polling. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady opens or closes the manual readiness gate.
func (s *Service) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// IsReady reports whether the gate is open and every readiness probe passes.
func (s *Service) IsReady() bool {
	s.mu.Lock()
	ready := s.ready
	probes := append([]*probe(nil), s.readiness...)
	s.mu.Unlock()

	if !ready {
		return false
	}
	for _, p := range probes {
		if failing, _ := p.status(); failing {
			return false
		}
	}
	return true
}

type probeReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while every liveness probe passes, 503
// with the failing probes' errors otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	probes := append([]*probe(nil), s.liveness...)
	s.mu.Unlock()

	writeReport(w, failures(probes))
}

// ReadyEndpoint serves /readyz. A closed manual gate shows up as a "_gate"
// entry so a draining pod is distinguishable from a dead dependency.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	ready := s.ready
	probes := append([]*probe(nil), s.readiness...)
	s.mu.Unlock()

	fails := failures(probes)
	if !ready {
		fails["_gate"] = "not accepting traffic"
	}
	writeReport(w, fails)
}

func failures(probes []*probe) map[string]string {
	fails := make(map[string]string)
	for _, p := range probes {
		failing, err := p.status()
		if !failing {
			continue
		}
		if err != nil {
			fails[p.name] = err.Error()
		} else {
			fails[p.name] = "failing"
		}
	}
	return fails
}

func writeReport(w http.ResponseWriter, fails map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	report := probeReport{Status: "ok"}
	code := http.StatusOK
	if len(fails) > 0 {
		report = probeReport{Status: "unhealthy", Checks: fails}
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}
