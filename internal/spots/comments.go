package spots

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/spot-finder/backend/internal/apperr"
	"github.com/ayush/spot-finder/backend/internal/models"
	"github.com/ayush/spot-finder/backend/internal/observability"
	"github.com/ayush/spot-finder/backend/internal/validation"
)

func (s *Service) loadComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("Could not get comment", err)
	}
	if c == nil {
		return nil, apperr.NotFound(fmt.Sprintf("No comment with id of %s", id.Hex()))
	}
	return c, nil
}

func commentBody(errs *validation.Errors, req models.CommentRequest) (string, *models.Image) {
	msg := validation.Pick(boundedString(req.Message, "Message", maxMessageLength)).Into(errs)
	img := validation.Pick(validation.OptionalImage(req.Image, "Image")).Into(errs)
	return msg, img
}

// AddComment posts a comment on a spot.
func (s *Service) AddComment(ctx context.Context, spotID, userID string, req models.CommentRequest) (*models.Comment, error) {
	var errs validation.Errors
	sid := validation.Pick(validation.ObjectID(spotID, "Spot id")).Into(&errs)
	uid := validation.Pick(validation.ObjectID(userID, "User id")).Into(&errs)
	msg, img := commentBody(&errs, req)
	if err := errs.Err(); err != nil {
		return nil, apperr.Validation(err)
	}

	if err := s.requireUser(ctx, uid); err != nil {
		return nil, err
	}
	if _, err := s.loadSpot(ctx, sid); err != nil {
		return nil, err
	}

	id, err := s.store.InsertComment(ctx, &models.Comment{
		SpotID:    sid,
		PosterID:  uid,
		Message:   msg,
		Image:     img,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, apperr.Persistence("Could not add comment", err)
	}
	return s.loadComment(ctx, id)
}

// GetComments lists a spot's comments, oldest first.
func (s *Service) GetComments(ctx context.Context, spotID string) ([]models.Comment, error) {
	sid, err := validation.ObjectID(spotID, "Spot id")
	if err != nil {
		return nil, apperr.Validation(err)
	}
	if _, err := s.loadSpot(ctx, sid); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, sid)
	if err != nil {
		return nil, apperr.Persistence("Could not get comments", err)
	}
	return comments, nil
}

// UpdateComment replaces a comment's message, which is always required.
// A given image replaces the current one; RemoveImage detaches it. Images
// that are replaced or detached are removed from the image host.
func (s *Service) UpdateComment(ctx context.Context, commentID, userID string, req models.CommentRequest) (*models.Comment, error) {
	var errs validation.Errors
	cid := validation.Pick(validation.ObjectID(commentID, "Comment id")).Into(&errs)
	uid := validation.Pick(validation.ObjectID(userID, "User id")).Into(&errs)
	msg, img := commentBody(&errs, req)
	if req.RemoveImage && img != nil {
		errs.Add("Image cannot be given together with removeImage")
	}
	if err := errs.Err(); err != nil {
		return nil, apperr.Validation(err)
	}

	c, err := s.loadComment(ctx, cid)
	if err != nil {
		return nil, err
	}
	if c.PosterID != uid {
		return nil, apperr.Forbidden(notOwner)
	}

	if err := s.store.UpdateComment(ctx, cid, msg, img, req.RemoveImage); err != nil {
		return nil, apperr.Persistence("Comment update failed!", err)
	}
	switch {
	case c.Image == nil:
	case req.RemoveImage:
		s.removeImages("comment image detached", *c.Image)
	case img != nil && c.Image.PublicID != img.PublicID:
		s.removeImages("comment image replaced", *c.Image)
	}
	return s.loadComment(ctx, cid)
}

// DeleteComment removes a comment and its image.
func (s *Service) DeleteComment(ctx context.Context, commentID, userID string) error {
	var errs validation.Errors
	cid := validation.Pick(validation.ObjectID(commentID, "Comment id")).Into(&errs)
	uid := validation.Pick(validation.ObjectID(userID, "User id")).Into(&errs)
	if err := errs.Err(); err != nil {
		return apperr.Validation(err)
	}

	c, err := s.loadComment(ctx, cid)
	if err != nil {
		return err
	}
	if c.PosterID != uid {
		return apperr.Forbidden(notOwner)
	}

	if err := s.store.DeleteComment(ctx, cid); err != nil {
		return apperr.Persistence("Comment deletion failed!", err)
	}
	if c.Image != nil {
		s.removeImages("comment deleted", *c.Image)
	}
	return nil
}

// ReportComment adds one report to a comment.
func (s *Service) ReportComment(ctx context.Context, commentID, reporterID string) error {
	cid, rid, err := reportIDs(commentID, "Comment id", reporterID)
	if err != nil {
		return err
	}
	if err := s.requireUser(ctx, rid); err != nil {
		return err
	}
	if _, err := s.loadComment(ctx, cid); err != nil {
		return err
	}
	if err := s.store.IncrementCommentReports(ctx, cid); err != nil {
		return apperr.Persistence("Could not report comment", err)
	}
	observability.Reports.WithLabelValues(models.FlagTargetComment).Inc()
	return nil
}

// ListReportedComments returns comments with at least minReports reports.
func (s *Service) ListReportedComments(ctx context.Context, minReports int) ([]models.Comment, error) {
	if minReports < 1 {
		minReports = 1
	}
	comments, err := s.store.ListReportedComments(ctx, minReports)
	if err != nil {
		return nil, apperr.Persistence("Could not get reported comments", err)
	}
	return comments, nil
}
