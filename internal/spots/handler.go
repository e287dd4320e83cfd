package spots

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ayush/spot-finder/backend/internal/auth"
	"github.com/ayush/spot-finder/backend/internal/models"
	"github.com/ayush/spot-finder/backend/internal/respond"
	"github.com/ayush/spot-finder/backend/internal/validation"
)

const maxImageBytes = 10 << 20

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// FlagLedger remembers who flagged what, so a user can flag a target once.
type FlagLedger interface {
	Record(ctx context.Context, targetType, targetID, reporterID, reason string) (bool, error)
	Forget(ctx context.Context, targetType, targetID, reporterID string) error
	DeleteForTarget(ctx context.Context, targetType string, targetIDs ...string) error
}

// ImageHost stores and serves uploaded images.
type ImageHost interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	URL(key string) string
}

// Handler holds spot, comment, rating and image HTTP handlers.
type Handler struct {
	svc    *Service
	flags  FlagLedger
	images ImageHost
}

func NewHandler(svc *Service, flags FlagLedger, images ImageHost) *Handler {
	return &Handler{svc: svc, flags: flags, images: images}
}

// spotQuery reads the listing parameters. Tags may repeat or be comma
// separated.
func spotQuery(r *http.Request) models.SpotQuery {
	q := r.URL.Query()
	sq := models.SpotQuery{
		Keyword:   q.Get("keyword"),
		MinRating: q.Get("minRating"),
		FromDate:  q.Get("fromDate"),
		ToDate:    q.Get("toDate"),
	}
	var tags []any
	for _, v := range q["tags"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	if len(tags) > 0 {
		sq.Tags = tags
	}
	return sq
}

// List returns the visible spots matching the query string.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	spots, err := h.svc.GetAllSpots(r.Context(), spotQuery(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, spots)
}

// Create posts a new spot for the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.SpotRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	spot, err := h.svc.CreateSpot(r.Context(), req, auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, spot)
}

// Get returns a single spot.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	spot, err := h.svc.GetSpotByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, spot)
}

// ByUser lists the spots posted by a user.
func (h *Handler) ByUser(w http.ResponseWriter, r *http.Request) {
	spots, err := h.svc.GetSpotsByUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, spots)
}

// Update patches a spot owned by the current user.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.SpotRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	spot, err := h.svc.UpdateSpot(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, spot)
}

// Delete removes a spot owned by the current user, then clears the flags on
// the spot and on the comments the cascade removed.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var commentIDs []string
	if comments, err := h.svc.GetComments(r.Context(), id); err == nil {
		for _, c := range comments {
			commentIDs = append(commentIDs, c.ID.Hex())
		}
	}
	if err := h.svc.DeleteSpot(r.Context(), id, auth.UserID(r.Context())); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.flags.DeleteForTarget(r.Context(), models.FlagTargetSpot, id); err != nil {
		log.Warn().Err(err).Str("spot_id", id).Msg("flag cleanup failed")
	}
	if err := h.flags.DeleteForTarget(r.Context(), models.FlagTargetComment, commentIDs...); err != nil {
		log.Warn().Err(err).Str("spot_id", id).Msg("comment flag cleanup failed")
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// report records the flag first so a repeat flag never reaches apply.
func (h *Handler) report(w http.ResponseWriter, r *http.Request, target string, apply func(ctx context.Context, targetID, reporterID string) error) {
	targetID := chi.URLParam(r, "id")
	reporterID := auth.UserID(r.Context())

	var req models.ReportRequest
	if r.ContentLength != 0 && !respond.Decode(w, r, &req) {
		return
	}
	reason, err := validation.OptionalString(req.Reason, "Reason")
	if err == nil {
		err = validation.MaxLength(reason, "Reason", 500)
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if _, err := validation.ID(targetID, "Target id"); err != nil {
		respond.Error(w, r, err)
		return
	}

	recorded, err := h.flags.Record(r.Context(), target, targetID, reporterID, reason)
	if err != nil {
		log.Error().Err(err).Str("target", target).Str("target_id", targetID).Msg("flag ledger write failed")
		respond.Message(w, http.StatusInternalServerError, "Could not report "+target)
		return
	}
	if !recorded {
		respond.Message(w, http.StatusConflict, "You have already flagged this "+target)
		return
	}

	if err := apply(r.Context(), targetID, reporterID); err != nil {
		if ferr := h.flags.Forget(r.Context(), target, targetID, reporterID); ferr != nil {
			log.Warn().Err(ferr).Str("target_id", targetID).Msg("flag rollback failed")
		}
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "reported"})
}

// ReportSpot flags a spot.
func (h *Handler) ReportSpot(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, models.FlagTargetSpot, h.svc.ReportSpot)
}

// ReportComment flags a comment.
func (h *Handler) ReportComment(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, models.FlagTargetComment, h.svc.ReportComment)
}

// Comments lists a spot's comments.
func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.GetComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, comments)
}

// AddComment comments on a spot as the current user.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req models.CommentRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	c, err := h.svc.AddComment(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}

// UpdateComment edits one of the current user's comments.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req models.CommentRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	c, err := h.svc.UpdateComment(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

// DeleteComment removes one of the current user's comments.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteComment(r.Context(), id, auth.UserID(r.Context())); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.flags.DeleteForTarget(r.Context(), models.FlagTargetComment, id); err != nil {
		log.Warn().Err(err).Str("comment_id", id).Msg("flag cleanup failed")
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Ratings lists a spot's ratings.
func (h *Handler) Ratings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.svc.GetSpotRatings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, ratings)
}

// MyRating returns the current user's rating of a spot.
func (h *Handler) MyRating(w http.ResponseWriter, r *http.Request) {
	rating, err := h.svc.GetUserRating(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rating)
}

// Rate sets the current user's rating of a spot. Ratings submitted here
// must be whole numbers.
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	var req models.RatingRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if _, err := validation.Rating(req.Rating); err != nil {
		respond.Error(w, r, err)
		return
	}
	rating, err := h.svc.PutSpotRating(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), req.Rating, nil)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rating)
}

// Unrate removes the current user's rating of a spot.
func (h *Handler) Unrate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	rating, err := h.svc.GetUserRating(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.svc.DeleteSpotRating(r.Context(), rating.ID.Hex(), userID); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// UploadImage stores a multipart "image" file and returns its
// {public_id, url}.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "Image not provided")
		return
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		respond.Message(w, http.StatusBadRequest, "Image cannot be larger than 10 MB")
		return
	}
	sniff := make([]byte, 512)
	n, _ := io.ReadFull(file, sniff)
	contentType := http.DetectContentType(sniff[:n])
	ext, ok := imageTypes[contentType]
	if !ok {
		respond.Message(w, http.StatusBadRequest, "Image must be a JPEG, PNG, WebP or GIF file")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		respond.Message(w, http.StatusInternalServerError, "Image upload failed!")
		return
	}

	key := uuid.New().String() + ext
	if err := h.images.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		log.Error().Err(err).Str("public_id", key).Msg("image upload failed")
		respond.Message(w, http.StatusInternalServerError, "Image upload failed!")
		return
	}
	respond.JSON(w, http.StatusCreated, models.Image{PublicID: key, URL: h.images.URL(key)})
}

// ServeImage streams a stored image.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	key := path.Clean(chi.URLParam(r, "*"))
	if key == "." || strings.HasPrefix(key, "..") || strings.HasPrefix(key, "/") {
		respond.Message(w, http.StatusNotFound, "No image with id of "+key)
		return
	}
	obj, contentType, err := h.images.Open(r.Context(), key)
	if err != nil {
		respond.Message(w, http.StatusNotFound, "No image with id of "+key)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, obj); err != nil {
		log.Warn().Err(err).Str("public_id", key).Msg("image stream interrupted")
	}
}
