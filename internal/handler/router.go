package handler

import (
	"net/http"

	"doc-converter/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	pages *Pages,
	authHandler *AuthHandler,
	documentHandler *DocumentHandler,
	sessions *SessionMiddleware,
	allowedOrigins []string,
	logger domain.Logger,
) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestLogger(logger))

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"doc-converter"}`))
	}).Methods("GET")

	router.PathPrefix("/static/").Handler(StaticHandler()).Methods("GET")

	// Public pages and auth
	router.HandleFunc("/login", pages.Login).Methods("GET")
	router.HandleFunc("/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/register", pages.Register).Methods("GET")
	router.HandleFunc("/register", authHandler.Register).Methods("POST")
	router.HandleFunc("/logout", authHandler.Logout).Methods("GET")

	// Browser routes redirect to /login without a session
	router.Handle("/", sessions.RequirePage(http.HandlerFunc(pages.Index))).Methods("GET")
	router.Handle("/download/{file_id}", sessions.RequirePage(http.HandlerFunc(documentHandler.DownloadDocument))).Methods("GET")

	// API routes answer 401 without a session
	router.Handle("/upload", sessions.RequireAPI(http.HandlerFunc(documentHandler.UploadDocument))).Methods("POST")
	api := router.PathPrefix("/api").Subrouter()
	api.Use(sessions.RequireAPI)
	api.HandleFunc("/documents", documentHandler.GetDocuments).Methods("GET")
	api.HandleFunc("/documents/{file_id}", documentHandler.DeleteDocument).Methods("DELETE")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-CSRF-Token",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
