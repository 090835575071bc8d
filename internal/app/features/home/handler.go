package home

import (
	"net/http"

	"github.com/dalemusser/bloodlink/internal/app/directory"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler serves the landing page.
type Handler struct {
	Svc *directory.Service
	Log *zap.Logger
}

func NewHandler(svc *directory.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Svc: svc,
		Log: logger,
	}
}

type homeData struct {
	viewdata.BaseVM
	Stats     directory.Stats
	StatsOK   bool
	Groups    []string
	QuickLink string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing with live counters                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	data := h.buildData(r)
	templates.Render(w, r, "home", data)
}

func (h *Handler) buildData(r *http.Request) homeData {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "home stats")
	defer cancel()

	data := homeData{BaseVM: viewdata.NewBaseVM(r, "Donate blood, save lives", "/")}
	stats, err := h.Svc.Stats(ctx)
	if err != nil {
		// Counters are decorative; the page still renders without them.
		h.Log.Warn("home stats unavailable", zap.Error(err))
		return data
	}
	data.Stats = stats
	data.StatsOK = true
	return data
}
