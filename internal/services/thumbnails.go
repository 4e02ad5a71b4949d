package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/giobyte8/newsroom/internal/models"
	"github.com/giobyte8/newsroom/internal/thumbfield"
)

var ErrUnknownField = errors.New("unknown image field")

// ReferenceCleaner drops the stored references to a file of an
// image field before the file is deleted.
type ReferenceCleaner interface {
	ClearFileReferences(ctx context.Context, field, fileName string) (int64, error)
}

// ThumbnailsService processes thumbnail requests coming from the
// message broker against the configured image fields.
type ThumbnailsService struct {
	fields   map[string]*thumbfield.Field
	cleaners []ReferenceCleaner
}

func NewThumbnailsService(fields ...*thumbfield.Field) *ThumbnailsService {
	byName := make(map[string]*thumbfield.Field, len(fields))
	for _, f := range fields {
		byName[f.Name()] = f
	}

	return &ThumbnailsService{fields: byName}
}

// AddReferenceCleaner registers c to run on every delete request
func (s *ThumbnailsService) AddReferenceCleaner(c ReferenceCleaner) {
	s.cleaners = append(s.cleaners, c)
}

// Fields returns the names of registered fields, sorted
func (s *ThumbnailsService) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProcessGenRequest rebuilds every thumbnail of the requested
// original, replacing the existing ones.
func (s *ThumbnailsService) ProcessGenRequest(
	ctx context.Context,
	req models.ThumbRequest,
) error {
	slog.Debug(
		"Processing thumbnails generation request",
		"requestId",
		req.ThumbRequestId,
		"field",
		req.Field,
		"fileName",
		req.FileName,
	)

	field, err := s.field(req)
	if err != nil {
		return err
	}

	thumbs, err := field.Regenerate(ctx, req.FileName)
	if err != nil {
		return err
	}

	slog.Info(
		"Thumbnails regenerated",
		"fileName",
		req.FileName,
		"count",
		len(thumbs),
	)
	return nil
}

// ProcessDelRequest detaches the original from its owners, then
// deletes it together with its thumbnails. Files that could not be
// deleted are logged and do not fail the request.
func (s *ThumbnailsService) ProcessDelRequest(
	ctx context.Context,
	req models.ThumbRequest,
) error {
	slog.Debug(
		"Processing thumbnails delete request",
		"requestId",
		req.ThumbRequestId,
		"field",
		req.Field,
		"fileName",
		req.FileName,
	)

	field, err := s.field(req)
	if err != nil {
		return err
	}

	for _, c := range s.cleaners {
		if _, err := c.ClearFileReferences(ctx, req.Field, req.FileName); err != nil {
			return fmt.Errorf("failed to clear references to %s: %w", req.FileName, err)
		}
	}

	result := field.Delete(ctx, req.FileName)
	for _, failed := range result.Failed() {
		slog.Warn(
			"File not deleted",
			"name",
			failed.Name,
			"error",
			failed.Err,
		)
	}

	return nil
}

func (s *ThumbnailsService) field(req models.ThumbRequest) (*thumbfield.Field, error) {
	if req.FileName == "" {
		return nil, fmt.Errorf("file name cannot be empty in request %s", req.ThumbRequestId)
	}

	field, ok := s.fields[req.Field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, req.Field)
	}
	return field, nil
}
