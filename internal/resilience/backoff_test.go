package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffGrowsExponentially(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, 100*time.Millisecond, Backoff(base, 1, 0))
	require.Equal(t, 200*time.Millisecond, Backoff(base, 2, 0))
	require.Equal(t, 400*time.Millisecond, Backoff(base, 3, 0))
	require.Equal(t, 800*time.Millisecond, Backoff(base, 4, 0))
}

func TestBackoffClampsAttemptAndBase(t *testing.T) {
	require.Equal(t, Backoff(time.Second, 1, 0), Backoff(time.Second, 0, 0))
	require.Equal(t, 100*time.Millisecond, Backoff(0, 1, 0))
}

func TestBackoffJitterStaysWithinBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := Backoff(base, 3, 0.2)
		require.GreaterOrEqual(t, d, 320*time.Millisecond)
		require.LessOrEqual(t, d, 480*time.Millisecond)
	}
}
