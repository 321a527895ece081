package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecision_RetryAfterSeconds(t *testing.T) {
	require.Equal(t, 0, Decision{}.RetryAfterSeconds())
	require.Equal(t, 1, Decision{RetryAfter: 10 * time.Millisecond}.RetryAfterSeconds())
	require.Equal(t, 2, Decision{RetryAfter: 1500 * time.Millisecond}.RetryAfterSeconds())
	require.Equal(t, 300, Decision{RetryAfter: 5 * time.Minute}.RetryAfterSeconds())
}
