// Package thumbfield implements an image attachment that keeps one
// thumbnail per configured size next to the original file.
//
// For an original stored as "photo.jpg" and sizes 125x125 and
// 300x200 the storage ends up holding:
//
//	photo.jpg          (original file)
//	photo.125x125.jpg  (first thumbnail)
//	photo.300x200.jpg  (second thumbnail)
//
// Thumbnail names are derived from the name the storage actually
// used for the original, so a renamed original ("photo_1a2b3c4.jpg")
// gets matching thumbnails ("photo_1a2b3c4.125x125.jpg").
package thumbfield

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/giobyte8/newsroom/internal/storage"
	"github.com/giobyte8/newsroom/internal/telemetry/metrics"
	thumbsgen "github.com/giobyte8/newsroom/internal/thumbs_gen"
)

// Field is an image attachment definition. A field without sizes
// behaves as a plain attachment.
type Field struct {
	name      string
	sizes     []thumbsgen.Size
	storage   storage.Storage
	generator thumbsgen.ThumbsGenerator
	metrics   metrics.MetricsSvc
}

type SavedThumb struct {
	Size thumbsgen.Size
	Name string
}

type SaveResult struct {
	// Name the original was stored under
	Name   string
	Thumbs []SavedThumb
}

func NewField(
	name string,
	sizes []thumbsgen.Size,
	store storage.Storage,
	generator thumbsgen.ThumbsGenerator,
	metricsSvc metrics.MetricsSvc,
) *Field {
	if metricsSvc == nil {
		metricsSvc = metrics.NewNoopMetricsSvc()
	}

	return &Field{
		name:      name,
		sizes:     append([]thumbsgen.Size(nil), sizes...),
		storage:   store,
		generator: generator,
		metrics:   metricsSvc,
	}
}

func (f *Field) Name() string {
	return f.name
}

func (f *Field) Sizes() []thumbsgen.Size {
	return append([]thumbsgen.Size(nil), f.sizes...)
}

// Save stores the original content and one thumbnail per configured
// size. Sizes are processed in order and the first failure aborts
// the rest; files written by this call are then removed again so a
// failed save leaves nothing behind.
func (f *Field) Save(
	ctx context.Context,
	name string,
	content []byte,
) (*SaveResult, error) {
	if len(f.sizes) > 0 {
		if _, _, err := SplitName(name); err != nil {
			return nil, err
		}
	}

	actualName, err := f.storage.Save(ctx, name, content)
	if err != nil {
		return nil, fmt.Errorf("failed to save original %s: %w", name, err)
	}

	result := &SaveResult{Name: actualName}
	f.metrics.Increment(metrics.AttachmentSaved, map[string]string{
		"field":    f.name,
		"origSize": strconv.Itoa(len(content)),
	})

	if len(f.sizes) == 0 {
		return result, nil
	}

	written := []string{actualName}
	thumbs, err := f.saveThumbs(ctx, actualName, content, &written)
	if err != nil {
		f.rollback(ctx, written)
		return nil, err
	}

	result.Thumbs = thumbs
	return result, nil
}

// Regenerate rebuilds every thumbnail of an already stored original.
// Existing thumbnails are removed first.
func (f *Field) Regenerate(ctx context.Context, name string) ([]SavedThumb, error) {
	if len(f.sizes) == 0 {
		return nil, nil
	}

	content, err := f.storage.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read original %s: %w", name, err)
	}

	for _, outcome := range f.deleteThumbs(ctx, name) {
		if outcome.Err != nil && !errors.Is(outcome.Err, storage.ErrNotFound) {
			return nil, fmt.Errorf(
				"failed to remove existing thumbnail %s: %w",
				outcome.Name,
				outcome.Err,
			)
		}
	}

	var written []string
	thumbs, err := f.saveThumbs(ctx, name, content, &written)
	if err != nil {
		f.rollback(ctx, written)
		return nil, err
	}

	return thumbs, nil
}

// Delete removes the original and every thumbnail. It never fails,
// each removal is attempted regardless of the others and reported in
// the result.
func (f *Field) Delete(ctx context.Context, name string) *DeleteResult {
	result := &DeleteResult{
		Original: DeleteOutcome{Name: name},
	}

	if err := f.storage.Delete(ctx, name); err != nil {
		slog.Warn("Failed to delete original", "name", name, "error", err)
		result.Original.Err = err
	}

	result.Thumbs = f.deleteThumbs(ctx, name)
	return result
}

// URL resolves the public URL of the thumbnail of the given size.
// It reports false for an unset attachment.
func (f *Field) URL(name string, size thumbsgen.Size) (string, bool, error) {
	if name == "" {
		return "", false, nil
	}

	origURL, err := f.OriginalURL(name)
	if err != nil {
		return "", false, err
	}

	thumbURL, ok := URLFor(origURL, size)
	return thumbURL, ok, nil
}

// OriginalURL resolves the public URL of the original file.
func (f *Field) OriginalURL(name string) (string, error) {
	origURL, err := f.storage.URL(name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve url of %s: %w", name, err)
	}
	return origURL, nil
}

// URLs maps every configured size to its thumbnail URL. An unset
// attachment yields an empty map.
func (f *Field) URLs(name string) (map[thumbsgen.Size]string, error) {
	urls := make(map[thumbsgen.Size]string, len(f.sizes))
	for _, size := range f.sizes {
		thumbURL, ok, err := f.URL(name, size)
		if err != nil {
			return nil, err
		}
		if ok {
			urls[size] = thumbURL
		}
	}

	return urls, nil
}

func (f *Field) saveThumbs(
	ctx context.Context,
	origName string,
	content []byte,
	written *[]string,
) ([]SavedThumb, error) {
	_, ext, err := SplitName(origName)
	if err != nil {
		return nil, err
	}

	thumbs := make([]SavedThumb, 0, len(f.sizes))
	for _, size := range f.sizes {
		if err := ctx.Err(); err != nil {
			slog.Warn("Context cancelled during thumbs generation", "name", origName)
			return nil, err
		}

		thumbName, err := ThumbName(origName, size)
		if err != nil {
			return nil, err
		}

		thumbContent, err := f.generator.Generate(content, size, ext)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to create %s thumbnail for %s: %w",
				size,
				origName,
				err,
			)
		}

		savedName, err := f.storage.Save(ctx, thumbName, thumbContent)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to save thumbnail %s: %w",
				thumbName,
				err,
			)
		}
		*written = append(*written, savedName)

		if savedName != thumbName {
			return nil, fmt.Errorf(
				"%w: there is already a file named %s (stored as %s)",
				ErrNameCollision,
				thumbName,
				savedName,
			)
		}

		thumbs = append(thumbs, SavedThumb{Size: size, Name: savedName})
		f.metrics.Increment(metrics.ThumbCreated, map[string]string{
			"field":      f.name,
			"thumbSize":  strconv.Itoa(len(thumbContent)),
			"thumbWidth": strconv.Itoa(size.Width),
		})
		slog.Debug("Thumbnail saved", "field", f.name, "name", savedName)
	}

	return thumbs, nil
}

func (f *Field) deleteThumbs(ctx context.Context, origName string) []DeleteOutcome {
	outcomes := make([]DeleteOutcome, 0, len(f.sizes))
	for _, size := range f.sizes {
		outcome := DeleteOutcome{Size: size}

		thumbName, err := ThumbName(origName, size)
		if err != nil {
			outcome.Err = err
			outcomes = append(outcomes, outcome)
			continue
		}
		outcome.Name = thumbName

		if err := f.storage.Delete(ctx, thumbName); err != nil {
			slog.Debug("Failed to delete thumbnail", "name", thumbName, "error", err)
			outcome.Err = err
		} else {
			f.metrics.Increment(metrics.ThumbDeleted, map[string]string{
				"field": f.name,
			})
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (f *Field) rollback(ctx context.Context, names []string) {
	for _, name := range names {
		if err := f.storage.Delete(context.WithoutCancel(ctx), name); err != nil {
			slog.Warn("Failed to roll back saved file", "name", name, "error", err)
		}
	}
}
