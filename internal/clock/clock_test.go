package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, loc)

	c := NewFixed(at)

	assert.True(t, c.Now().Equal(at))
	assert.Equal(t, time.UTC, c.Now().Location())
	assert.Equal(t, c.Now(), c.Now())
}

func TestSystemClock(t *testing.T) {
	before := time.Now()
	now := NewSystem().Now()

	assert.False(t, now.Before(before.Add(-time.Second)))
	assert.Equal(t, time.UTC, now.Location())
}
