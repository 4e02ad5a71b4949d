package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/giobyte8/newsroom/internal/phonedb"
)

func (s *Server) handleListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := s.opts.Phones.ListVendors(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if vendors == nil {
		vendors = []phonedb.Vendor{}
	}
	writeJSON(w, http.StatusOK, vendors)
}

func (s *Server) handleCreateVendor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", phonedb.ErrInvalidName, err))
		return
	}

	vendor, err := s.opts.Phones.AddVendor(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vendor)
}

func (s *Server) handleListPhones(w http.ResponseWriter, r *http.Request) {
	vendorID, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	phones, err := s.opts.Phones.ListPhones(r.Context(), vendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	if phones == nil {
		phones = []phonedb.Phone{}
	}
	writeJSON(w, http.StatusOK, phones)
}

func (s *Server) handleCreatePhone(w http.ResponseWriter, r *http.Request) {
	vendorID, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	var req struct {
		Name        string   `json:"name"`
		Connections []string `json:"connections"`
		Features    []string `json:"features"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", phonedb.ErrInvalidName, err))
		return
	}

	phone, err := s.opts.Phones.AddPhone(r.Context(), vendorID, req.Name, req.Connections, req.Features)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, phone)
}
