package main

import (
	"net/http"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API.
func setupRoutes(router *mux.Router) {
	// Search returns scored candidates from every requested source.
	router.HandleFunc("/search", handleSearch).Methods(http.MethodPost)

	// One-shot fetch endpoints: pick the best match and render LRC.
	router.HandleFunc("/fetch", handleFetch).Methods(http.MethodPost)
	router.HandleFunc("/fetch_separate", handleFetchSeparate).Methods(http.MethodPost)

	// Direct fetch for a song already identified via /search.
	router.HandleFunc("/fetch_by_id", handleFetchByID(false)).Methods(http.MethodPost)
	router.HandleFunc("/fetch_by_id_separate", handleFetchByID(true)).Methods(http.MethodPost)

	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Respond(w, r).Error(http.StatusNotFound, "not found")
	})
}
