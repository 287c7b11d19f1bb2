// Package avatar validates, names, uploads and deletes profile pictures.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nfrund/opin/internal/domain"
)

// MaxSize is the largest accepted image, in bytes.
const MaxSize = 5 * 1024 * 1024

var (
	allowedTypes      = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	allowedExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}
	unsafeIDChars     = regexp.MustCompile(`[^a-zA-Z0-9-]`)
)

// Error is a user-facing avatar failure.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func invalid(msg string) error { return &Error{Message: msg} }

// Validate checks an uploaded file before it is stored.
func Validate(filename, contentType string, size int64) error {
	if !slices.Contains(allowedTypes, contentType) {
		return invalid("Please select a valid image file (JPEG, PNG, GIF, or WebP)")
	}
	if !slices.Contains(allowedExtensions, extension(filename)) {
		return invalid("File must have a valid image extension (.jpg, .jpeg, .png, .gif, or .webp)")
	}
	if size > MaxSize {
		return invalid("Image size must be less than 5MB")
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return invalid("Invalid file name")
	}
	return nil
}

func extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// FileName builds the stored name: <clean user id>-<unix millis>-<suffix>.<ext>.
func FileName(userID, original string, now time.Time, suffix string) string {
	ext := extension(original)
	if ext == "" {
		ext = "jpg"
	}
	clean := unsafeIDChars.ReplaceAllString(userID, "")
	return fmt.Sprintf("%s-%d-%s.%s", clean, now.UnixMilli(), suffix, ext)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// Service stores avatars in a domain.AvatarStore.
type Service struct {
	store  domain.AvatarStore
	now    func() time.Time
	suffix func() string
}

// NewService creates a Service.
func NewService(store domain.AvatarStore) *Service {
	return &Service{store: store, now: time.Now, suffix: randomSuffix}
}

// Upload is one file posted by the profile form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload validates and stores the avatar of userID and returns its public URL.
func (s *Service) Upload(ctx context.Context, userID string, up Upload) (string, error) {
	if userID == "" {
		return "", invalid("Authentication required to upload avatar")
	}
	if err := Validate(up.Filename, up.ContentType, up.Size); err != nil {
		return "", err
	}
	name := FileName(userID, up.Filename, s.now(), s.suffix())
	// Guard against a client lying about the size.
	body := io.LimitReader(up.Body, MaxSize+1)
	counted := &countingReader{r: body}
	if err := s.store.Upload(ctx, name, counted, up.ContentType); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	if counted.n > MaxSize {
		_ = s.store.Remove(ctx, name)
		return "", invalid("Image size must be less than 5MB")
	}
	return s.store.PublicURL(name), nil
}

// Delete removes the avatar at avatarURL. Only files named after userID can
// be deleted.
func (s *Service) Delete(ctx context.Context, userID, avatarURL string) error {
	if userID == "" {
		return invalid("Authentication required to delete avatar")
	}
	u, err := url.Parse(avatarURL)
	if err != nil || avatarURL == "" {
		return invalid("Invalid avatar URL format")
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return invalid("Invalid avatar URL: unable to extract filename")
	}
	if !strings.HasPrefix(name, userID+"-") {
		return invalid("Unauthorized: Cannot delete avatar that does not belong to you")
	}
	if err := s.store.Remove(ctx, name); err != nil {
		return fmt.Errorf("delete avatar: %w", err)
	}
	return nil
}

// Message returns the user-facing text of an avatar error.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return ""
}

// Initials returns the upper-cased first letters of both names.
func Initials(firstName, lastName string) string {
	return firstUpper(firstName) + firstUpper(lastName)
}

// InitialsFor falls back to the first letter of the email address.
func InitialsFor(u *domain.User) string {
	if u == nil {
		return ""
	}
	if in := Initials(u.Metadata.FirstName, u.Metadata.LastName); in != "" {
		return in
	}
	return firstUpper(u.Email)
}

func firstUpper(s string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
