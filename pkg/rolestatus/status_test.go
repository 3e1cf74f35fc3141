package rolestatus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelta(t *testing.T) {
	tests := []struct {
		name      string
		desired   int
		actual    int
		requested int
		releasing int
		want      int
	}{
		{"all zero desired two", 2, 0, 0, 0, 2},
		{"met exactly", 2, 2, 0, 0, 0},
		{"outstanding request closes gap", 2, 1, 1, 0, 0},
		{"releasing frees up room", 1, 2, 0, 1, 0},
		{"surplus triggers negative delta", 1, 2, 0, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.desired)
			for i := 0; i < tt.actual; i++ {
				s.IncActual()
			}
			for i := 0; i < tt.requested; i++ {
				s.IncRequested()
			}
			for i := 0; i < tt.releasing; i++ {
				s.IncReleasing()
			}
			assert.Equal(t, tt.want, s.Delta())
		})
	}
}

func TestNoteFailed(t *testing.T) {
	s := New(1)
	s.NoteFailed("boom")
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, "boom", snap.LastFailureMessage)
}

func TestConcurrentCounters(t *testing.T) {
	s := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncActual()
			s.IncRequested()
			s.DecRequested()
		}()
	}
	wg.Wait()
	snap := s.Snapshot()
	assert.Equal(t, 100, snap.Actual)
	assert.Equal(t, 0, snap.Requested)
}
