package file

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"image"
	_ "image/gif" // profile images may be gif
	"image/jpeg"
	_ "image/png"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	"github.com/oklog/ulid/v2"
	"golang.org/x/image/draw"
)

const (
	// Photos larger than this on either side are scaled down before storing.
	maxImageDimension = 1280
	jpegQuality       = 80
)

var (
	photoExts      = []string{".jpg", ".jpeg", ".png"}
	profileExts    = []string{".jpg", ".jpeg", ".png", ".gif"}
	attachmentExts = []string{".jpg", ".jpeg", ".png", ".pdf", ".doc", ".docx"}

	ErrInvalidImageType      = apperror.BadRequest("invalid file type: only jpg, jpeg, png allowed")
	ErrInvalidProfileType    = apperror.BadRequest("invalid file type: only jpg, jpeg, png, gif allowed")
	ErrInvalidAttachmentType = apperror.BadRequest("invalid file type: only jpg, jpeg, png, pdf, doc, docx allowed")
	ErrUnreadableImage       = apperror.BadRequest("uploaded image could not be decoded")
)

type FileService interface {
	// UploadAttendancePhoto stores a check-in or check-out photo as JPEG.
	UploadAttendancePhoto(ctx context.Context, userID string, date time.Time, file io.Reader, filename string) (string, error)

	UploadLeaveAttachment(ctx context.Context, userID string, file io.Reader, filename string) (string, error)

	// UploadProfileImage stores a profile picture as JPEG.
	UploadProfileImage(ctx context.Context, userID string, file io.Reader, filename string) (string, error)

	DeleteFile(ctx context.Context, key string) error
	URL(key string) string
}

type fileServiceImpl struct {
	storage storage.FileStorage

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// newName returns a ULID so stored files sort by upload time.
func (s *fileServiceImpl) newName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

func (s *fileServiceImpl) UploadAttendancePhoto(ctx context.Context, userID string, date time.Time, file io.Reader, filename string) (string, error) {
	if !hasExt(filename, photoExts) {
		return "", ErrInvalidImageType
	}

	data, err := normalizeImage(file)
	if err != nil {
		return "", err
	}

	key := path.Join("attendance", userID, date.Format("2006-01-02"), s.newName()+".jpg")
	uploaded, err := s.storage.Upload(ctx, bytes.NewReader(data), key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload attendance photo: %w", err)
	}
	return uploaded, nil
}

func (s *fileServiceImpl) UploadLeaveAttachment(ctx context.Context, userID string, file io.Reader, filename string) (string, error) {
	if !hasExt(filename, attachmentExts) {
		return "", ErrInvalidAttachmentType
	}

	ext := strings.ToLower(filepath.Ext(filename))
	key := path.Join("leaves", userID, s.newName()+ext)
	uploaded, err := s.storage.Upload(ctx, file, key, contentType(ext))
	if err != nil {
		return "", fmt.Errorf("failed to upload leave attachment: %w", err)
	}
	return uploaded, nil
}

func (s *fileServiceImpl) UploadProfileImage(ctx context.Context, userID string, file io.Reader, filename string) (string, error) {
	if !hasExt(filename, profileExts) {
		return "", ErrInvalidProfileType
	}

	data, err := normalizeImage(file)
	if err != nil {
		return "", err
	}

	key := path.Join("profiles", userID, s.newName()+".jpg")
	uploaded, err := s.storage.Upload(ctx, bytes.NewReader(data), key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload profile image: %w", err)
	}
	return uploaded, nil
}

func (s *fileServiceImpl) DeleteFile(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

func (s *fileServiceImpl) URL(key string) string {
	return s.storage.URL(key)
}

// normalizeImage decodes any registered format and re-encodes it as JPEG,
// scaling it down when either side exceeds maxImageDimension.
func normalizeImage(r io.Reader) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, ErrUnreadableImage
	}

	img = downscale(img, maxImageDimension)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func downscale(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return src
	}

	if w >= h {
		h = h * maxSide / w
		w = maxSide
	} else {
		w = w * maxSide / h
		h = maxSide
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func hasExt(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

func contentType(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
