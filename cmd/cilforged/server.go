package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/cilforge/cilforge/internal/conn"
	"github.com/cilforge/cilforge/pkg"
	"github.com/go-chi/chi/v5"
)

type server struct {
	session     *conn.Session
	output_path string
}

func (s *server) createRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/api/tables", s.handleTables)
	r.Get("/api/heaps", s.handleHeaps)
	r.Get("/api/metadata", s.handleMetadata)
	r.Get("/edit", s.handleEdit)

	return r
}

func (s *server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		pkg.ErrorLog("encoding response", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleTables(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Assembly.RowCounts())
}

func (s *server) handleHeaps(w http.ResponseWriter, r *http.Request) {
	sizes := s.session.Assembly.HeapSizes()
	s.writeJSON(w, http.StatusOK, map[string]uint32{
		"strings":     sizes.Strings,
		"blobs":       sizes.Blobs,
		"guids":       sizes.GuidCount,
		"userStrings": sizes.UserStrings,
	})
}

// handleMetadata serves the committed blob, persisting it alongside.
func (s *server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	var blob []byte
	pkg.RLockWrap(s.session, func() {
		if s.session.Output != nil {
			blob = s.session.Output.Metadata
		}
	})
	if blob == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not committed"})
		return
	}

	if s.output_path != "" {
		if err := os.WriteFile(s.output_path, blob, 0644); err != nil {
			pkg.ErrorLog("writing output file", err)
		}
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

func (s *server) handleEdit(w http.ResponseWriter, r *http.Request) {
	ws, err := conn.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.ErrorLog("websocket upgrade", err)
		return
	}
	pkg.InfoLog("edit session connected from", ws.RemoteAddr())
	go conn.HandleConnection(s.session, ws)
}
