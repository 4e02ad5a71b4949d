// Package server exposes the news API and the stored media over HTTP.
package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"github.com/giobyte8/newsroom/internal/news"
	"github.com/giobyte8/newsroom/internal/phonedb"
	"github.com/giobyte8/newsroom/internal/storage"
)

// Options holds optional configuration for the Server.
type Options struct {
	// Public media URL, absolute ("https://cdn.example.com/media/") or
	// a path. Files are served under its path, "/media/" when empty.
	MediaPrefix string

	// Phone catalogue endpoints are only registered when set
	Phones *phonedb.Repository
}

type Server struct {
	router *mux.Router
	news   *news.Service
	media  storage.Storage
	opts   Options
}

func New(newsSvc *news.Service, media storage.Storage, opts Options) *Server {
	opts.MediaPrefix = mediaPrefix(opts.MediaPrefix)

	s := &Server{
		router: mux.NewRouter(),
		news:   newsSvc,
		media:  media,
		opts:   opts,
	}
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler, delegating to the mux router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// mediaPrefix keeps the path of a media URL, with a trailing slash
func mediaPrefix(mediaURL string) string {
	prefix := mediaURL
	if u, err := url.Parse(mediaURL); err == nil {
		prefix = u.Path
	}

	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if prefix == "/" {
		return "/media/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func (s *Server) registerRoutes() {
	r := s.router

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Original images and thumbnails
	r.PathPrefix(s.opts.MediaPrefix).HandlerFunc(s.handleMedia).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)

	api.HandleFunc("/entries", s.handleListEntries).Methods(http.MethodGet)
	api.HandleFunc("/entries", s.handleCreateEntry).Methods(http.MethodPost)
	api.HandleFunc("/entries/{slug}", s.handleGetEntry).Methods(http.MethodGet)
	api.HandleFunc("/entries/{slug}", s.handleDeleteEntry).Methods(http.MethodDelete)

	// Entry image and its thumbnails
	api.HandleFunc("/entries/{slug}/image", s.handleSetImage).Methods(http.MethodPut)
	api.HandleFunc("/entries/{slug}/image", s.handleRemoveImage).Methods(http.MethodDelete)
	api.HandleFunc("/entries/{slug}/image/regenerate", s.handleRegenerateThumbs).Methods(http.MethodPost)

	if s.opts.Phones != nil {
		api.HandleFunc("/vendors", s.handleListVendors).Methods(http.MethodGet)
		api.HandleFunc("/vendors", s.handleCreateVendor).Methods(http.MethodPost)
		api.HandleFunc("/vendors/{id:[0-9]+}/phones", s.handleListPhones).Methods(http.MethodGet)
		api.HandleFunc("/vendors/{id:[0-9]+}/phones", s.handleCreatePhone).Methods(http.MethodPost)
	}
}
