package news

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/giobyte8/newsroom/internal/thumbfield"
)

// Directory entry images are stored under
const imageUploadDir = "news"

// EntryView is an entry together with the resolved URLs of its image
// and image thumbnails, keyed by "WxH".
type EntryView struct {
	*Entry
	ImageURL  string            `json:"imageUrl,omitempty"`
	ThumbURLs map[string]string `json:"thumbUrls,omitempty"`
}

type Service struct {
	repo       *Repository
	imageField *thumbfield.Field
}

func NewService(repo *Repository, imageField *thumbfield.Field) *Service {
	return &Service{
		repo:       repo,
		imageField: imageField,
	}
}

func (s *Service) Repository() *Repository {
	return s.repo
}

// SetImage attaches a new image to the entry. The original and its
// thumbnails are stored first, the previous image is removed once
// the entry points to the new one.
func (s *Service) SetImage(
	ctx context.Context,
	slug string,
	filename string,
	content []byte,
) (*EntryView, error) {
	entry, err := s.repo.GetEntry(ctx, slug)
	if err != nil {
		return nil, err
	}

	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return nil, fmt.Errorf("%w: empty file name", ErrInvalid)
	}

	saved, err := s.imageField.Save(ctx, path.Join(imageUploadDir, base), content)
	if err != nil {
		return nil, fmt.Errorf("failed to save image for entry %s: %w", slug, err)
	}

	if err := s.repo.SetEntryImage(ctx, slug, saved.Name); err != nil {
		s.imageField.Delete(ctx, saved.Name)
		return nil, err
	}

	if entry.Image != "" {
		s.deleteImage(ctx, entry.Image)
	}

	entry.Image = saved.Name
	slog.Info("Entry image updated", "entry", slug, "image", saved.Name)
	return s.view(entry)
}

// RemoveImage detaches and deletes the entry image together with
// its thumbnails.
func (s *Service) RemoveImage(ctx context.Context, slug string) (*thumbfield.DeleteResult, error) {
	entry, err := s.repo.GetEntry(ctx, slug)
	if err != nil {
		return nil, err
	}
	if entry.Image == "" {
		return &thumbfield.DeleteResult{}, nil
	}

	if err := s.repo.SetEntryImage(ctx, slug, ""); err != nil {
		return nil, err
	}

	return s.deleteImage(ctx, entry.Image), nil
}

// RegenerateThumbs rebuilds the thumbnails of the entry image.
func (s *Service) RegenerateThumbs(ctx context.Context, slug string) (*EntryView, error) {
	entry, err := s.repo.GetEntry(ctx, slug)
	if err != nil {
		return nil, err
	}
	if entry.Image == "" {
		return nil, fmt.Errorf("%w: entry %s has no image", ErrInvalid, slug)
	}

	if _, err := s.imageField.Regenerate(ctx, entry.Image); err != nil {
		return nil, fmt.Errorf("failed to regenerate thumbnails of %s: %w", slug, err)
	}
	return s.view(entry)
}

// ClearFileReferences detaches a file deleted out of band from the
// entries using it. Files of other fields are ignored.
func (s *Service) ClearFileReferences(ctx context.Context, field, fileName string) (int64, error) {
	if field != s.imageField.Name() {
		return 0, nil
	}

	n, err := s.repo.ClearImage(ctx, fileName)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("Entry images detached", "image", fileName, "entries", n)
	}
	return n, nil
}

// DeleteEntry removes the entry and, best effort, its image files.
func (s *Service) DeleteEntry(ctx context.Context, slug string) error {
	entry, err := s.repo.GetEntry(ctx, slug)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteEntry(ctx, slug); err != nil {
		return err
	}

	if entry.Image != "" {
		s.deleteImage(ctx, entry.Image)
	}
	return nil
}

func (s *Service) GetEntry(ctx context.Context, slug string) (*EntryView, error) {
	entry, err := s.repo.GetEntry(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.view(entry)
}

func (s *Service) ListEntries(ctx context.Context, opts ListOptions) ([]*EntryView, error) {
	entries, err := s.repo.ListEntries(ctx, opts)
	if err != nil {
		return nil, err
	}

	views := make([]*EntryView, 0, len(entries))
	for _, e := range entries {
		v, err := s.view(e)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) deleteImage(ctx context.Context, name string) *thumbfield.DeleteResult {
	result := s.imageField.Delete(ctx, name)
	for _, failed := range result.Failed() {
		slog.Warn(
			"Image file not deleted",
			"name", failed.Name,
			"error", failed.Err,
		)
	}
	return result
}

func (s *Service) view(entry *Entry) (*EntryView, error) {
	v := &EntryView{Entry: entry}
	if entry.Image == "" {
		return v, nil
	}

	imageURL, err := s.imageField.OriginalURL(entry.Image)
	if err != nil {
		return nil, err
	}
	v.ImageURL = imageURL

	urls, err := s.imageField.URLs(entry.Image)
	if err != nil {
		return nil, err
	}

	v.ThumbURLs = make(map[string]string, len(urls))
	for size, u := range urls {
		v.ThumbURLs[size.String()] = u
	}
	return v, nil
}
