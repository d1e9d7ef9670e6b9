package upload

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/StudyCore/studycore/internal/utils"
)

// MaxFileSize bounds a single upload.
const MaxFileSize = 10 << 20

// PublicPrefix is where stored files are served from.
const PublicPrefix = "/uploads/"

type Handler struct {
	dir string
}

// NewHandler stores files under dir, creating it if needed.
func NewHandler(dir string) (*Handler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Handler{dir: dir}, nil
}

type Response struct {
	URL string `json:"url"`
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, MaxFileSize+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "File too large (max 10 MB)", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > MaxFileSize {
		http.Error(w, "File too large (max 10 MB)", http.StatusRequestEntityTooLarge)
		return
	}

	name := utils.GenerateUUID() + safeExt(header.Filename)
	dst, err := os.Create(filepath.Join(h.dir, name))
	if err != nil {
		log.Printf("[upload] create failed: %v", err)
		http.Error(w, "Failed to store file", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, MaxFileSize)); err != nil {
		log.Printf("[upload] write failed: %v", err)
		os.Remove(dst.Name())
		http.Error(w, "Failed to store file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(Response{URL: path.Join(PublicPrefix, name)})
}

// Files serves stored uploads without directory listings.
func (h *Handler) Files() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix(strings.TrimSuffix(PublicPrefix, "/"), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	}))
}

// safeExt keeps a short alphanumeric extension from the client's filename.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
