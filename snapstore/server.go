package snapstore

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/phanxgames/sketchpad"
)

const (
	// MaxUploadSize bounds multipart image uploads.
	MaxUploadSize = 10 << 20
	// maxSaveBody bounds a save request body.
	maxSaveBody = 32 << 20
)

// Server serves the snapshot store API.
type Server struct {
	store   *Store
	uploads *Uploads
}

// NewServer returns a server over store and uploads.
func NewServer(store *Store, uploads *Uploads) *Server {
	return &Server{store: store, uploads: uploads}
}

// Router returns the bare API routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/canvas/save", s.handleSave).Methods(http.MethodPost)
	r.HandleFunc("/api/canvas/load", s.handleLoad).Methods(http.MethodGet)
	r.HandleFunc("/api/upload", s.handleUpload).Methods(http.MethodPost)
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploads.Dir()))),
	).Methods(http.MethodGet, http.MethodHead)
	return r
}

// Handler returns the routes wrapped with CORS for any origin, panic
// recovery and request logging.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	logged := handlers.CustomLoggingHandler(io.Discard, s.Router(), logRequest)
	return cors(handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(logged))
}

func logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	sketchpad.Logger().Info("request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"bytes", p.Size,
		"took", time.Since(p.TimeStamp),
	)
}

type saveResponse struct {
	Message string `json:"message"`
	SaveResult
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var p sketchpad.SavePayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSaveBody)).Decode(&p); err != nil {
		http.Error(w, "Invalid canvas payload", http.StatusBadRequest)
		return
	}
	res, err := s.store.Save(r.Context(), &p)
	if err != nil {
		sketchpad.Logger().Error("save canvas", "error", err)
		http.Error(w, "Error saving canvas", http.StatusInternalServerError)
		return
	}
	sketchpad.Logger().Debug("canvas saved", "version", p.Version,
		"upserted", res.Upserted, "deleted", res.Deleted)
	writeJSON(w, http.StatusOK, saveResponse{Message: "Canvas saved successfully", SaveResult: res})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Load(r.Context())
	if err != nil {
		sketchpad.Logger().Error("load canvas", "error", err)
		http.Error(w, "Error loading canvas", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		http.Error(w, "Could not parse multipart form", http.StatusBadRequest)
		return
	}
	file, hdr, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Could not read uploaded file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name, err := s.uploads.Put(hdr.Filename, file)
	if errors.Is(err, ErrBadFilename) {
		http.Error(w, "Bad filename", http.StatusBadRequest)
		return
	}
	if err != nil {
		sketchpad.Logger().Error("store upload", "error", err)
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"filename": name})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		sketchpad.Logger().Warn("write response", "error", err)
	}
}
