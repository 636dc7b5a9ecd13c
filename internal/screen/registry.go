// Package screen keeps the static list of UI screens the server can serve.
package screen

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	dErrors "medplant/pkg/domain-errors"
	"medplant/pkg/platform/httputil"
)

// Screen maps a screen name to the entity routes that back it.
type Screen struct {
	Name       string `json:"name"`
	EntityType string `json:"entity_type"`
	Path       string `json:"path"`
}

// Registry is filled at startup and read afterwards.
type Registry struct {
	mu      sync.RWMutex
	screens map[string]Screen
}

func NewRegistry() *Registry {
	return &Registry{screens: make(map[string]Screen)}
}

// Register adds a screen. Names are case-insensitive and must be unique.
func (r *Registry) Register(s Screen) error {
	key := normalize(s.Name)
	if key == "" {
		return errors.New("screen name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.screens[key]; exists {
		return fmt.Errorf("screen %q already registered", s.Name)
	}
	r.screens[key] = s
	return nil
}

func (r *Registry) Lookup(name string) (Screen, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.screens[normalize(name)]
	return s, ok
}

// Names returns the registered screen names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.screens))
	for _, s := range r.screens {
		names = append(names, s.Name)
	}
	slices.Sort(names)
	return names
}

// Handler exposes the registry over HTTP.
type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Get("/{name}", h.HandleLookup)
}

func (h *Handler) HandleList(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, "", h.registry.Names())
}

// HandleLookup validates a screen name. Unknown names are 404.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	s, ok := h.registry.Lookup(chi.URLParam(r, "name"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "screen not found"))
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", s)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
