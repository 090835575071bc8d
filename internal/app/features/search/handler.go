// Package search serves the donor directory search page.
package search

import (
	"net/http"

	"github.com/dalemusser/bloodlink/internal/app/directory"
	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/features/shared"
	"github.com/dalemusser/bloodlink/internal/app/system/formutil"
	"github.com/dalemusser/bloodlink/internal/app/system/normalize"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type Handler struct {
	Svc    *directory.Service
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(svc *directory.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		ErrLog: errLog,
		Log:    logger,
	}
}

type searchData struct {
	formutil.Base
	Groups   formutil.GroupSelect
	City     string
	Searched bool
	Donors   []shared.DonorCard
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /search?blood_group=&city=                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeSearch shows the filter form. A submitted form (even with both
// filters blank, which lists every donor) runs the search; a bare visit
// shows only the form.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	group := normalize.QueryParam(query.Get(r, "blood_group"))
	city := normalize.QueryParam(query.Get(r, "city"))

	data := searchData{
		Groups: formutil.BloodGroups(group),
		City:   city,
	}
	formutil.SetBase(&data.Base, r, "Find Donors", "/")

	if q := r.URL.Query(); !q.Has("blood_group") && !q.Has("city") {
		templates.Render(w, r, "search", data)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "search donors")
	defer cancel()

	donors, err := h.Svc.SearchDonors(ctx, directory.SearchFilter{
		BloodGroup: models.BloodGroup(group),
		City:       city,
	})
	if ve, ok := directory.AsValidation(err); ok {
		data.SetFieldErrors(ve.ByField())
		data.SetError(ve.Message())
		w.WriteHeader(http.StatusBadRequest)
		templates.Render(w, r, "search", data)
		return
	}
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "search donors", err, "Search failed. Please try again shortly.", "/search")
		return
	}

	data.Searched = true
	data.Donors = shared.DonorCards(donors)
	templates.Render(w, r, "search", data)
}
