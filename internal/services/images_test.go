package services

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mixins/internal/models"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, root, rel string, w, h int) {
	t.Helper()
	dst := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, imaging.Save(imaging.New(w, h, color.NRGBA{R: 200, A: 255}), dst))
}

func imageSize(t *testing.T, path string) (int, int) {
	t.Helper()
	img, err := imaging.Open(path)
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestThumbnailPath(t *testing.T) {
	store := NewImageStore("/srv/media", "/media/")
	assert.Equal(t, "articles/tn_150x100_1_pic.png",
		store.ThumbnailPath("articles/pic.png", models.Size{Width: 150, Height: 100}, models.CropFit))
	assert.Equal(t, "tn_10x10_0_pic.png",
		store.ThumbnailPath("pic.png", models.Size{Width: 10, Height: 10}, models.CropNone))
	assert.Equal(t, "/media/articles/pic.png", store.URL("articles/pic.png"))
	assert.Equal(t, "", store.URL(""))
}

func TestCreateThumbnailCropModes(t *testing.T) {
	root := t.TempDir()
	store := NewImageStore(root, "/media")
	writeImage(t, root, "articles/pic.png", 400, 200)
	box := models.Size{Width: 100, Height: 100}

	url := store.Thumbnail("articles/pic.png", box, models.CropFit)
	assert.Equal(t, "/media/articles/tn_100x100_1_pic.png", url)
	w, h := imageSize(t, filepath.Join(root, "articles", "tn_100x100_1_pic.png"))
	assert.Equal(t, 100, w)
	assert.Equal(t, 100, h)

	url = store.Thumbnail("articles/pic.png", box, models.CropNone)
	assert.Equal(t, "/media/articles/tn_100x100_0_pic.png", url)
	w, h = imageSize(t, filepath.Join(root, "articles", "tn_100x100_0_pic.png"))
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestCreateThumbnailNeverEnlarges(t *testing.T) {
	root := t.TempDir()
	store := NewImageStore(root, "/media")
	writeImage(t, root, "small.png", 60, 300)
	box := models.Size{Width: 100, Height: 100}

	require.NoError(t, store.CreateThumbnail("small.png", box, models.CropFit))
	w, h := imageSize(t, filepath.Join(root, "tn_100x100_1_small.png"))
	assert.Equal(t, 60, w)
	assert.Equal(t, 100, h)

	writeImage(t, root, "tiny.png", 20, 10)
	require.NoError(t, store.CreateThumbnail("tiny.png", box, models.CropFit))
	w, h = imageSize(t, filepath.Join(root, "tn_100x100_1_tiny.png"))
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)

	require.NoError(t, store.CreateThumbnail("tiny.png", box, models.CropNone))
	w, h = imageSize(t, filepath.Join(root, "tn_100x100_0_tiny.png"))
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)
}

func TestThumbnailMissingImage(t *testing.T) {
	store := NewImageStore(t.TempDir(), "/media")
	box := models.Size{Width: 10, Height: 10}
	assert.Equal(t, "", store.Thumbnail("nope.png", box, models.CropFit))
	assert.Equal(t, "", store.Thumbnail("", box, models.CropFit))
	assert.Equal(t, "", store.RecordThumbnail(&models.Place{}, box, models.CropFit))
}

func TestResize(t *testing.T) {
	root := t.TempDir()
	store := NewImageStore(root, "/media")
	writeImage(t, root, "big.png", 400, 200)
	writeImage(t, root, "small.png", 40, 20)

	require.NoError(t, store.Resize("big.png", models.Size{Width: 200, Height: 200}))
	w, h := imageSize(t, filepath.Join(root, "big.png"))
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)

	require.NoError(t, store.Resize("small.png", models.Size{Width: 200, Height: 200}))
	w, h = imageSize(t, filepath.Join(root, "small.png"))
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)
}

func TestStore(t *testing.T) {
	root := t.TempDir()
	store := NewImageStore(root, "/media")

	_, err := store.Store("articles", "evil.exe", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	rel, err := store.Store("articles", "Photo.JPG", bytes.NewReader([]byte("data")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "articles/"))
	assert.True(t, strings.HasSuffix(rel, ".jpg"))
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))
}

func TestSaveThumbnailsNewImage(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	writeImage(t, s.Images.Root, "articles/cover.png", 2000, 1000)

	a := &models.Article{Title: "With image"}
	a.Image.Image = "articles/cover.png"
	require.NoError(t, s.Records.Save(ctx, a))

	w, h := imageSize(t, filepath.Join(s.Images.Root, "articles", "tn_150x150_1_cover.png"))
	assert.Equal(t, 150, w)
	assert.Equal(t, 150, h)
	w, h = imageSize(t, filepath.Join(s.Images.Root, "articles", "cover.png"))
	assert.Equal(t, 1024, w)
	assert.Equal(t, 512, h)

	assert.Equal(t, "/media/articles/tn_150x150_1_cover.png",
		s.Images.RecordThumbnail(a, models.Size{Width: 150, Height: 150}, models.CropFit))
}

func TestSetImage(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	a := newArticle(t, s, "Upload", nil, true)

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(300, 300, color.White), imaging.PNG))
	require.NoError(t, s.Records.SetImage(ctx, a, "up.png", &buf))
	assert.True(t, strings.HasPrefix(a.Image.Image, "articles/"))

	thumb := s.Images.ThumbnailPath(a.Image.Image, models.Size{Width: 150, Height: 150}, models.CropFit)
	_, err := os.Stat(filepath.Join(s.Images.Root, filepath.FromSlash(thumb)))
	assert.NoError(t, err)

	err = s.Records.SetImage(ctx, &models.Place{}, "x.png", &buf)
	assert.ErrorIs(t, err, ErrNotImageable)
}
