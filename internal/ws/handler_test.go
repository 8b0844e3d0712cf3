package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/lizzietrust/chat-backend/internal/token"
)

func TestNewHandlerCarriesCookieName(t *testing.T) {
	log := zap.NewNop().Sugar()
	tokens := token.NewManager("test-secret", time.Hour)

	// socket auth must read the same cookie the REST layer sets, so the
	// configured name travels into the handler instead of a literal
	h := NewHandler(NewHub(log), tokens, nil, nil, nil, "session_token", log)
	assert.Equal(t, "session_token", h.cookieName)
}
