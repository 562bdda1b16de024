package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grenier-labs/marketplace/internal/handler"
)

// SetupUserRoutes wires the public account endpoints and the catch-all.
func SetupUserRoutes(mux *chi.Mux, h *handler.UserHandler) {
	mux.Post("/user/signup", h.HandleSignup)
	mux.Post("/user/login", h.HandleLogin)

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.RespondError(w, http.StatusNotFound, "page not found")
	})
}
