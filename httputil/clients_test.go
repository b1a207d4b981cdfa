package httputil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"buscapisos/config"
)

func TestNewClients_Timeouts(t *testing.T) {
	c := NewClients(&config.Config{Completion: config.CompletionConfig{Timeout: 5 * time.Second}})
	assert.Equal(t, backendTimeout, c.Backend.Timeout)
	assert.Equal(t, 5*time.Second, c.Completion.Timeout)

	c = NewClients(&config.Config{})
	assert.Equal(t, 60*time.Second, c.Completion.Timeout)
}
