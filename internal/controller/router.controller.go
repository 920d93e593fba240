package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c *controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIDMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Post("/sessions", c.registerSession)
		r.Get("/ws", c.connectSession)

		r.Group(func(r chi.Router) {
			r.Use(c.sessionMw)

			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", c.listRooms)
				r.Post("/", c.createRoom)
				r.Post("/leave", c.leaveRoom)
				r.Route("/{room-id}", func(r chi.Router) {
					r.Get("/", c.getRoom)
					r.Post("/join", c.joinRoom)
				})
			})
			r.Get("/status", c.getStatus)
		})
	})

	return r
}
