package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"

	httpmw "github.com/mindconnect/chat-service/internal/transport/http/middleware"
	"github.com/mindconnect/chat-service/internal/transport/ws"
)

func NewRouter(h *Handler, users httpmw.UserDirectory, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// identity rides in the query string on the socket
	r.Get("/ws", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.IdentityMiddleware(users))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/rooms", func(rm chi.Router) {
			rm.Post("/", h.CreateRoom)
			rm.Get("/", h.ListRooms)

			rm.Route("/{id}", func(rr chi.Router) {
				rr.Get("/", h.GetRoom)
				rr.Delete("/", h.DeactivateRoom)
				rr.Get("/messages", h.GetHistory)
				rr.Post("/messages/{msgID}/flag", h.FlagMessage)
			})
		})

		pr.Route("/assistant", func(ar chi.Router) {
			ar.Post("/chat", h.AssistantChat)
			ar.Get("/conversations", h.ListConversations)
			ar.Get("/crisis", h.CrisisConversations)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
