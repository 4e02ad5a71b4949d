package news

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"reflect"
	"testing"

	"github.com/giobyte8/newsroom/internal/storage"
	"github.com/giobyte8/newsroom/internal/thumbfield"
	thumbsgen "github.com/giobyte8/newsroom/internal/thumbs_gen"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T) (*Service, *storage.MemoryStorage) {
	t.Helper()
	repo := newTestRepository(t)
	seedEntries(t, repo)

	store := storage.NewMemoryStorage("/media/")
	field := thumbfield.NewField(
		"news.entry.image",
		[]thumbsgen.Size{{Width: 125, Height: 125}, {Width: 300, Height: 200}},
		store,
		thumbsgen.NewImagingThumbsGenerator(),
		nil,
	)
	return NewService(repo, field), store
}

func TestService_SetImage(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	view, err := svc.SetImage(ctx, "meetup-in-oslo", "photo.jpg", jpegBytes(t, 640, 480))
	if err != nil {
		t.Fatalf("SetImage() error = %v", err)
	}

	if view.Image != "news/photo.jpg" || view.ImageURL != "/media/news/photo.jpg" {
		t.Errorf("image = %q url = %q", view.Image, view.ImageURL)
	}

	wantThumbs := map[string]string{
		"125x125": "/media/news/photo.125x125.jpg",
		"300x200": "/media/news/photo.300x200.jpg",
	}
	if !reflect.DeepEqual(view.ThumbURLs, wantThumbs) {
		t.Errorf("ThumbURLs = %v, want %v", view.ThumbURLs, wantThumbs)
	}

	wantNames := []string{"news/photo.125x125.jpg", "news/photo.300x200.jpg", "news/photo.jpg"}
	if got := store.Names(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("stored = %v, want %v", got, wantNames)
	}

	stored, _ := svc.GetEntry(ctx, "meetup-in-oslo")
	if stored.Image != "news/photo.jpg" {
		t.Errorf("persisted image = %q", stored.Image)
	}
}

func TestService_SetImageReplacesPrevious(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetImage(ctx, "meetup-in-oslo", "old.jpg", jpegBytes(t, 100, 100)); err != nil {
		t.Fatalf("SetImage(old) error = %v", err)
	}
	if _, err := svc.SetImage(ctx, "meetup-in-oslo", `C:\uploads\new.jpg`, jpegBytes(t, 100, 100)); err != nil {
		t.Fatalf("SetImage(new) error = %v", err)
	}

	wantNames := []string{"news/new.125x125.jpg", "news/new.300x200.jpg", "news/new.jpg"}
	if got := store.Names(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("stored = %v, want %v", got, wantNames)
	}
}

func TestService_SetImageErrors(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetImage(ctx, "missing", "a.jpg", jpegBytes(t, 10, 10)); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing entry error = %v, want ErrNotFound", err)
	}

	if _, err := svc.SetImage(ctx, "meetup-in-oslo", "noext", jpegBytes(t, 10, 10)); !errors.Is(err, thumbfield.ErrNaming) {
		t.Errorf("no extension error = %v, want ErrNaming", err)
	}

	if _, err := svc.SetImage(ctx, "meetup-in-oslo", "bad.jpg", []byte("nope")); !errors.Is(err, thumbsgen.ErrDecode) {
		t.Errorf("bad image error = %v, want ErrDecode", err)
	}

	if got := store.Names(); len(got) != 0 {
		t.Errorf("stored = %v, want none", got)
	}
}

func TestService_RemoveImageAndRegenerate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RegenerateThumbs(ctx, "meetup-in-oslo"); !errors.Is(err, ErrInvalid) {
		t.Errorf("RegenerateThumbs(no image) error = %v, want ErrInvalid", err)
	}

	if _, err := svc.SetImage(ctx, "meetup-in-oslo", "photo.png", jpegBytes(t, 50, 80)); err != nil {
		t.Fatalf("SetImage() error = %v", err)
	}
	if err := store.Delete(ctx, "news/photo.125x125.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := svc.RegenerateThumbs(ctx, "meetup-in-oslo"); err != nil {
		t.Fatalf("RegenerateThumbs() error = %v", err)
	}
	if ok, _ := store.Exists(ctx, "news/photo.125x125.png"); !ok {
		t.Error("thumbnail not regenerated")
	}

	result, err := svc.RemoveImage(ctx, "meetup-in-oslo")
	if err != nil {
		t.Fatalf("RemoveImage() error = %v", err)
	}
	if !result.OK() {
		t.Errorf("RemoveImage() failures: %+v", result.Failed())
	}
	if got := store.Names(); len(got) != 0 {
		t.Errorf("stored = %v, want none", got)
	}

	view, _ := svc.GetEntry(ctx, "meetup-in-oslo")
	if view.Image != "" || view.ThumbURLs != nil {
		t.Errorf("image still attached: %+v", view)
	}
}

func TestService_DeleteEntryRemovesFiles(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetImage(ctx, "meetup-in-oslo", "photo.jpg", jpegBytes(t, 64, 64)); err != nil {
		t.Fatalf("SetImage() error = %v", err)
	}

	if err := svc.DeleteEntry(ctx, "meetup-in-oslo"); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	if got := store.Names(); len(got) != 0 {
		t.Errorf("stored = %v, want none", got)
	}

	views, err := svc.ListEntries(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(views) != 2 {
		t.Errorf("ListEntries() = %d entries, want 2", len(views))
	}
}

func TestService_ClearFileReferences(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetImage(ctx, "meetup-in-oslo", "photo.jpg", jpegBytes(t, 64, 64)); err != nil {
		t.Fatalf("SetImage() error = %v", err)
	}

	if n, err := svc.ClearFileReferences(ctx, "gallery.photo", "news/photo.jpg"); err != nil || n != 0 {
		t.Errorf("other field: n = %d, err = %v, want 0 and nil", n, err)
	}

	n, err := svc.ClearFileReferences(ctx, "news.entry.image", "news/photo.jpg")
	if err != nil {
		t.Fatalf("ClearFileReferences() error = %v", err)
	}
	if n != 1 {
		t.Errorf("cleared %d entries, want 1", n)
	}

	view, _ := svc.GetEntry(ctx, "meetup-in-oslo")
	if view.Image != "" || view.ImageURL != "" || view.ThumbURLs != nil {
		t.Errorf("entry still references the file: %+v", view)
	}
}
