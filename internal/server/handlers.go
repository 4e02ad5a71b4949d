package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/h2non/filetype"

	"github.com/giobyte8/newsroom/internal/news"
)

// maxUploadSize is the maximum image size accepted for upload (20 MiB).
const maxUploadSize = 20 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleMedia serves an original image or thumbnail from storage.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, s.opts.MediaPrefix)

	data, err := s.media.Open(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType(name, data))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, path.Base(name), time.Time{}, bytes.NewReader(data))
}

func contentType(name string, data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.news.Repository().ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if categories == nil {
		categories = []news.Category{}
	}

	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c news.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, fmt.Errorf("%w: %v", news.ErrInvalid, err))
		return
	}

	if err := s.news.Repository().CreateCategory(r.Context(), &c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// entryRequest is the JSON body accepted when creating an entry.
type entryRequest struct {
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Excerpt    string    `json:"excerpt"`
	Body       string    `json:"body"`
	Author     string    `json:"author"`
	PubDate    time.Time `json:"pubDate"`
	Categories []string  `json:"categories"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", news.ErrInvalid, err))
		return
	}

	entry := &news.Entry{
		Title:   req.Title,
		Slug:    req.Slug,
		Excerpt: req.Excerpt,
		Body:    req.Body,
		Author:  req.Author,
		PubDate: req.PubDate,
	}
	if err := s.news.Repository().CreateEntry(r.Context(), entry, req.Categories); err != nil {
		writeError(w, err)
		return
	}

	view, err := s.news.GetEntry(r.Context(), entry.Slug)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// handleListEntries supports ?q=, ?category=, ?year=, ?month=,
// ?limit= and ?offset=.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := news.ListOptions{
		Query:    q.Get("q"),
		Category: q.Get("category"),
	}

	ints := []struct {
		param string
		dst   *int
	}{
		{"year", &opts.Year},
		{"month", &opts.Month},
		{"limit", &opts.Limit},
		{"offset", &opts.Offset},
	}
	for _, p := range ints {
		v := q.Get(p.param)
		if v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, fmt.Errorf("%w: %s=%q", news.ErrInvalid, p.param, v))
			return
		}
		*p.dst = n
	}

	entries, err := s.news.ListEntries(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	view, err := s.news.GetEntry(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.news.DeleteEntry(r.Context(), mux.Vars(r)["slug"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetImage accepts a multipart/form-data body with a single
// file field named "file" and attaches it as the entry image.
func (s *Server) handleSetImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "request too large or malformed: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing 'file' field in form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	view, err := s.news.SetImage(r.Context(), mux.Vars(r)["slug"], header.Filename, content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRemoveImage(w http.ResponseWriter, r *http.Request) {
	result, err := s.news.RemoveImage(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, err)
		return
	}

	failed := make([]string, 0)
	for _, outcome := range result.Failed() {
		failed = append(failed, outcome.Name)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"removed": result.Original.Name,
		"failed":  failed,
	})
}

func (s *Server) handleRegenerateThumbs(w http.ResponseWriter, r *http.Request) {
	view, err := s.news.RegenerateThumbs(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
