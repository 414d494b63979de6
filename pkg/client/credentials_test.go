package client

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentials_SetClear(t *testing.T) {
	c := NewCredentials()
	assert.False(t, c.LoggedIn())

	c.Set("tok", "uid")
	c.SetHeader("X-Extra", "1")
	assert.True(t, c.LoggedIn())
	assert.Equal(t, map[string]string{HeaderAuthToken: "tok", HeaderUserID: "uid", "X-Extra": "1"}, c.Snapshot())

	h := http.Header{}
	c.apply(h)
	assert.Equal(t, "uid", h.Get(HeaderUserID))

	c.Clear()
	assert.False(t, c.LoggedIn())
	assert.Empty(t, c.Snapshot())
}

func TestCredentials_SnapshotIsCopy(t *testing.T) {
	c := NewCredentials()
	c.Set("tok", "uid")

	snap := c.Snapshot()
	snap[HeaderAuthToken] = "changed"
	assert.Equal(t, "tok", c.Header(HeaderAuthToken))
}
