package httpapi

import (
	"net/http"

	"acty-backend-go/internal/config"
	"acty-backend-go/internal/models"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ScansSocket streams redemptions to staff screens. Browsers cannot set headers
// on a websocket handshake, so jwt mode reads the access token from ?token=.
func (s *Server) ScansSocket(w http.ResponseWriter, r *http.Request) {
	if s.Config.AuthMode == config.AuthModeJWT {
		identity, ok := identityFromToken(s.Tokens, r.URL.Query().Get("token"))
		if !ok {
			WriteError(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		if identity.Role != models.RoleEmployee && identity.Role != models.RoleAdmin {
			WriteError(w, http.StatusForbidden, "Not allowed")
			return
		}
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.Hub.Add(conn, r.URL.Query().Get("activityId"))
	defer func() {
		s.Hub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
