package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/handlers"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/metrics"
)

// Register wires every HTTP endpoint: health, metrics, the REST read side,
// and the WebSocket event surface.
func Register(r *chi.Mux, ws *handlers.WSHandler, qh *handlers.QuestionHandler, hh *handlers.HistoryHandler) {
	r.Get("/healthz", handlers.Healthz)
	r.Get("/readyz", handlers.Readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/questions", func(r chi.Router) {
			r.Get("/check/{userId}", qh.CheckQuestions)
			r.Post("/save", qh.SaveQuestions)
			r.Get("/{userId}", qh.GetQuestions)
		})
		r.Get("/history/{userId}", hh.GetUserHistory)
	})

	r.HandleFunc("/ws", ws.Serve)
}
