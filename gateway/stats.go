package gateway

import (
	"strings"
	"sync"
)

// stats tracks gateway traffic in memory. Counters reset on restart.
type stats struct {
	mu           sync.Mutex
	gamesStarted int
	apiCalls     map[string]int
}

func newStats() *stats {
	return &stats{
		apiCalls: map[string]int{"deepseek": 0, "gemini": 0, "custom": 0},
	}
}

// provider buckets a model name by substring; anything unrecognized counts
// as a custom endpoint.
func provider(modelName string) string {
	name := strings.ToLower(modelName)
	switch {
	case strings.Contains(name, "deepseek"):
		return "deepseek"
	case strings.Contains(name, "gemini"):
		return "gemini"
	default:
		return "custom"
	}
}

func (s *stats) recordCall(modelName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiCalls[provider(modelName)]++
}

func (s *stats) recordGameStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gamesStarted++
}

func (s *stats) snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make(map[string]int, len(s.apiCalls))
	for k, v := range s.apiCalls {
		calls[k] = v
	}
	return map[string]any{
		"total_games_started": s.gamesStarted,
		"api_calls":           calls,
	}
}
