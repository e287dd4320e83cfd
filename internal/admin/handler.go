// Package admin serves the moderation endpoints: reported content, the flag
// ledger and the orphaned image sweep.
package admin

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/spot-finder/backend/internal/models"
	"github.com/ayush/spot-finder/backend/internal/respond"
	"github.com/ayush/spot-finder/backend/internal/validation"
)

// Moderation lists reported content.
type Moderation interface {
	ListReportedSpots(ctx context.Context, minReports int) ([]models.Spot, error)
	ListReportedComments(ctx context.Context, minReports int) ([]models.Comment, error)
}

// FlagLister reads the flag ledger.
type FlagLister interface {
	List(ctx context.Context, targetType, targetID string) ([]models.Flag, error)
}

type Handler struct {
	moderation Moderation
	flags      FlagLister
	sweeper    *Sweeper
}

func NewHandler(moderation Moderation, flags FlagLister, sweeper *Sweeper) *Handler {
	return &Handler{moderation: moderation, flags: flags, sweeper: sweeper}
}

func minReports(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("min"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ReportedSpots lists spots with reports, most reported first.
func (h *Handler) ReportedSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.moderation.ListReportedSpots(r.Context(), minReports(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, spots)
}

// ReportedComments lists comments with reports, most reported first.
func (h *Handler) ReportedComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.moderation.ListReportedComments(r.Context(), minReports(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, comments)
}

// Flags lists who flagged a spot or comment and why.
func (h *Handler) Flags(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	if target != models.FlagTargetSpot && target != models.FlagTargetComment {
		respond.Message(w, http.StatusNotFound, "Unknown flag target "+target)
		return
	}
	id, err := validation.ID(chi.URLParam(r, "id"), "Target id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	flags, err := h.flags.List(r.Context(), target, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, flags)
}

// Sweep removes orphaned images. ?dryRun=true only reports them.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dryRun"))
	res, err := h.sweeper.Sweep(r.Context(), dryRun)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}
