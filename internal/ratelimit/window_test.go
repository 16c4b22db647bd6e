package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow_StartedWindow(t *testing.T) {
	epoch := time.Unix(0, 0)
	account := fixedWindow(2, 10*time.Second)

	// Window opened at t=0 with nothing counted yet.
	rec := &ClientRecord{key: "A", windowStart: epoch}

	at := func(d time.Duration) Decision {
		return account(rec, epoch.Add(d))
	}

	assert.True(t, at(9*time.Second).Allowed)
	assert.True(t, at(9500*time.Millisecond).Allowed)
	assert.Equal(t, 2, rec.count)

	d := at(9900 * time.Millisecond)
	assert.False(t, d.Allowed)
	assert.Equal(t, RejectRateLimited, d.Reject)

	d = at(10100 * time.Millisecond)
	assert.True(t, d.Allowed, "new window")
	assert.Equal(t, 1, rec.count)
	assert.Equal(t, epoch.Add(10100*time.Millisecond), rec.windowStart)
}
