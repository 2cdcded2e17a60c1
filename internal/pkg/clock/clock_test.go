package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem_Now(t *testing.T) {
	before := time.Now()
	got := New().Now()

	assert.Equal(t, time.UTC, got.Location())
	assert.False(t, got.Before(before.Add(-time.Second)))
}

func TestFixed(t *testing.T) {
	c := NewFixedUnix(59)
	assert.Equal(t, int64(59), c.Now().Unix())

	c.Advance(30 * time.Second)
	assert.Equal(t, int64(89), c.Now().Unix())

	c.Advance(-90 * time.Second)
	assert.Equal(t, int64(-1), c.Now().Unix())

	c.Set(time.Unix(1111111109, 0))
	assert.Equal(t, int64(1111111109), c.Now().Unix())
}
