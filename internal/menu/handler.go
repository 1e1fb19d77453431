package menu

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cabildo-gob/cabildo/internal/platform/httpx"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// Handler serves the navigation tree filtered for the current principal.
type Handler struct {
	tree []Node
}

// NewHandler builds Handler instance over a static tree.
func NewHandler(tree []Node) *Handler {
	return &Handler{tree: tree}
}

// MountRoutes registers menu routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.getMenu)
}

func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	visible := Filter(h.tree, principal)
	if visible == nil {
		visible = []Node{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": visible})
}
