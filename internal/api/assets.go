package api

import (
	"bytes"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/starford/odshub/internal/apperr"
	"github.com/starford/odshub/internal/checksum"
	"github.com/starford/odshub/internal/render"
	"github.com/starford/odshub/internal/storage"
)

// DefaultAssetsRoot is the store directory whose files are served as-is.
const DefaultAssetsRoot = "assets"

// assetTypes lists the extensions served from the assets directory.
var assetTypes = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".pdf": true, ".csv": true,
}

// AssetHandler serves static files (images, downloads) from the content
// store so pages can reference them without exposing the store.
type AssetHandler struct {
	store storage.Store
	root  string
}

// NewAssetHandler creates a handler for files under root in store.
func NewAssetHandler(store storage.Store, root string) *AssetHandler {
	if root == "" {
		root = DefaultAssetsRoot
	}
	return &AssetHandler{store: store, root: root}
}

// safeName validates the requested asset path and returns its store path.
func (h *AssetHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", errors.New("file name is required")
	}
	cleaned := path.Clean("/" + name)
	if cleaned != "/"+name || strings.Contains(name, "/.") || strings.HasPrefix(name, ".") {
		return "", errors.New("invalid file name: " + name)
	}
	if !assetTypes[strings.ToLower(path.Ext(cleaned))] {
		return "", errors.New("unsupported file type: " + name)
	}
	return path.Join(h.root, cleaned), nil
}

// ServeFile handles GET /assets/*.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := wildcardPath(r)
	p, err := h.safeName(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := h.store.Read(r.Context(), p)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Warn("serve asset failed", slog.String("path", p), slog.String("error", err.Error()))
		http.Error(w, "failed to fetch asset", http.StatusBadGateway)
		return
	}
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("ETag", checksum.ETag(checksum.Sum(data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	// ServeContent handles If-None-Match and range requests.
	http.ServeContent(w, r, path.Base(p), time.Time{}, bytes.NewReader(data))
}

// HighlightCSS handles GET /assets/highlight.css, the stylesheet for
// highlighted code blocks. The chroma style comes from ?style=.
func HighlightCSS(defaultStyle string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		style := r.URL.Query().Get("style")
		if style == "" {
			style = defaultStyle
		}
		var buf bytes.Buffer
		if err := render.WriteHighlightCSS(&buf, style); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(buf.Bytes())
	}
}
