package services

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mixins/internal/models"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// ImageStore keeps uploaded images and their thumbnails under Root,
// served from BaseURL. Image paths on records are relative to Root and
// always use forward slashes.
type ImageStore struct {
	Root    string
	BaseURL string
}

func NewImageStore(root, baseURL string) *ImageStore {
	return &ImageStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *ImageStore) abs(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

// URL is the public URL of an image path.
func (s *ImageStore) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return s.BaseURL + "/" + strings.TrimLeft(rel, "/")
}

// ThumbnailPath names the thumbnail of rel: tn_<w>x<h>_<crop>_<name> in
// the same directory.
func (s *ImageStore) ThumbnailPath(rel string, size models.Size, crop models.CropMode) string {
	dir, name := path.Split(rel)
	return dir + fmt.Sprintf("tn_%dx%d_%d_%s", size.Width, size.Height, crop, name)
}

// CreateThumbnail writes the thumbnail of rel unless it already exists.
// CropNone fits the image inside the box; CropFit scales it to cover the
// box and cuts the overflow evenly from both sides. Neither enlarges an
// image smaller than the box.
func (s *ImageStore) CreateThumbnail(rel string, size models.Size, crop models.CropMode) error {
	src := s.abs(rel)
	dst := s.abs(s.ThumbnailPath(rel, size, crop))
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open %s: %w", rel, err)
	}

	switch crop {
	case models.CropFit:
		b := img.Bounds()
		if b.Dx() < size.Width || b.Dy() < size.Height {
			// 小图不放大，只裁剪
			img = imaging.CropCenter(img, min(b.Dx(), size.Width), min(b.Dy(), size.Height))
		} else {
			img = imaging.Fill(img, size.Width, size.Height, imaging.Center, imaging.Lanczos)
		}
	default:
		img = imaging.Fit(img, size.Width, size.Height, imaging.Lanczos)
	}

	if err := imaging.Save(img, dst); err != nil {
		return fmt.Errorf("save thumbnail of %s: %w", rel, err)
	}
	return nil
}

// Thumbnail returns the URL of rel's thumbnail, generating it on first
// use. It returns "" when there is no image or it can't be thumbnailed.
func (s *ImageStore) Thumbnail(rel string, size models.Size, crop models.CropMode) string {
	if rel == "" || size.Width <= 0 || size.Height <= 0 {
		return ""
	}
	thumb := s.ThumbnailPath(rel, size, crop)
	if _, err := os.Stat(s.abs(thumb)); err != nil {
		if err := s.CreateThumbnail(rel, size, crop); err != nil {
			return ""
		}
	}
	return s.URL(thumb)
}

// RecordThumbnail is Thumbnail for a record's image; records without an
// image component get "".
func (s *ImageStore) RecordThumbnail(rec models.Record, size models.Size, crop models.CropMode) string {
	img, ok := rec.(models.Imageable)
	if !ok {
		return ""
	}
	return s.Thumbnail(img.ImageFields().Image, size, crop)
}

// Resize shrinks rel in place so it fits inside box. Smaller images are
// left alone.
func (s *ImageStore) Resize(rel string, box models.Size) error {
	src := s.abs(rel)
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open %s: %w", rel, err)
	}
	b := img.Bounds()
	if b.Dx() <= box.Width && b.Dy() <= box.Height {
		return nil
	}
	if err := imaging.Save(imaging.Fit(img, box.Width, box.Height, imaging.Lanczos), src); err != nil {
		return fmt.Errorf("resize %s: %w", rel, err)
	}
	return nil
}

// Store copies an upload into dir under a random name and returns its
// path relative to Root.
func (s *ImageStore) Store(dir, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExts[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}

	rel := path.Join(dir, uuid.NewString()+ext)
	dst := s.abs(rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	return rel, nil
}
