package routes

import (
	"github.com/avvvet/darts-services/internal/socketsvc/handlers"
	"github.com/avvvet/darts-services/internal/socketsvc/ws"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

// SetRoutes mounts the socket endpoints. Browsers cannot set headers on a websocket upgrade, so
// /v1/ws also takes the token from the jwt query parameter.
func SetRoutes(r *chi.Mux, ws *ws.Ws, tokenAuth *jwtauth.JWTAuth, port string) {
	h := handlers.NewHandler(ws, port)
	r.Route("/v1", func(r chi.Router) {
		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(tokenAuth, jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(jwtauth.Authenticator)

			r.Get("/ws", h.HandleWebSocket)
			r.Get("/health", h.HealthHandler)
		})
	})
}

func NewAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}
