package router

import (
	"database/sql"
	"net/http"

	"aidocs/internal/assistant"
	dochandler "aidocs/internal/document/handler"
	"aidocs/internal/document/repository"
	"aidocs/internal/document/service"
	"aidocs/middleware"
	"aidocs/socket"
)

// Setup wires every HTTP route: the document REST API, the assistant
// endpoints, and the collaborative WebSocket entry point.
func Setup(db *sql.DB, hub *socket.Hub, assistantSvc *assistant.Service) http.Handler {
	mux := http.NewServeMux()

	docSvc := service.NewDocumentService(repository.NewDocumentRepository(db), hub)
	dochandler.NewDocumentHandler(docSvc).Register(mux)
	assistant.NewHandler(assistantSvc).Register(mux)

	mux.Handle("/ws", middleware.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)
		socket.ServeWs(hub, w, r, userID)
	})))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return middleware.CORSMiddleware(mux)
}
