package chat

import "sync"

// Insights aggregates per-process counters about how turns resolve.
// Served by the insights API endpoint.
type Insights struct {
	mu          sync.Mutex
	totalTurns  int
	crisisTurns int
	stages      map[Stage]int
	topics      map[string]int
}

// InsightsSnapshot is a point-in-time copy of the counters.
type InsightsSnapshot struct {
	TotalTurns  int            `json:"total_turns"`
	CrisisTurns int            `json:"crisis_turns"`
	Stages      map[string]int `json:"stages"`
	Topics      map[string]int `json:"topics"`
}

// NewInsights creates empty counters.
func NewInsights() *Insights {
	return &Insights{
		stages: make(map[Stage]int),
		topics: make(map[string]int),
	}
}

func (i *Insights) record(r Result) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.totalTurns++
	i.stages[r.Stage]++
	if r.IsCrisis {
		i.crisisTurns++
	}
}

func (i *Insights) recordTopic(topic string) {
	if topic == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.topics[topic]++
}

// Snapshot returns a copy safe to serialize.
func (i *Insights) Snapshot() InsightsSnapshot {
	i.mu.Lock()
	defer i.mu.Unlock()

	s := InsightsSnapshot{
		TotalTurns:  i.totalTurns,
		CrisisTurns: i.crisisTurns,
		Stages:      make(map[string]int, len(i.stages)),
		Topics:      make(map[string]int, len(i.topics)),
	}
	for k, v := range i.stages {
		s.Stages[string(k)] = v
	}
	for k, v := range i.topics {
		s.Topics[k] = v
	}
	return s
}
