package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/dinobank/internal/auth"
)

// HandleWebSocket upgrades the connection and joins it to the caller's family
// room. The request must already carry an onboarded AuthContext.
func HandleWebSocket(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok || !ac.HasProfile() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "account_id", ac.AccountID, "error", err)
			return
		}
		defer conn.CloseNow()

		client := NewClient(hub, conn, ac.FamilyID, ac.Principal())
		client.Run(r.Context())
	}
}
