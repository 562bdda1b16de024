package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grenier-labs/marketplace/internal/handler"
)

// SetupOfferRoutes wires the offer endpoints. Search and single lookup are
// public; everything that writes goes through the auth middleware.
func SetupOfferRoutes(mux *chi.Mux, h *handler.OfferHandler, auth func(http.Handler) http.Handler) {
	mux.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/offer/publish", h.HandlePublish)
		r.Put("/offer/modify", h.HandleModify)
		r.Delete("/offer/delete", h.HandleDelete)
	})

	mux.Get("/offers", h.HandleSearch)
	mux.Get("/offer/{id}", h.HandleGet)
}
