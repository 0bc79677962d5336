package httpserver

import (
	"net/http"
	"strings"

	"coffeespot/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ChatGateway runs a WebSocket connection for an authenticated caller.
type ChatGateway interface {
	Serve(w http.ResponseWriter, r *http.Request, caller domain.Identity) error
}

// serveWS authenticates before upgrading. The token comes from ?token= or the
// Authorization header.
func (h *handlers) serveWS(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("token"))
	if raw == "" {
		raw = bearerToken(c)
	}
	p, err := h.accounts.Authenticate(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.chat.Serve(c.Writer, c.Request, p.Identity); err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade")
	}
}
