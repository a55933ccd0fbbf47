package images

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/goliatone/go-imagelite/auth"
)

// UploadImageMessage is an upload candidate
type UploadImageMessage struct {
	Name        string   `json:"name" form:"name"`
	Tags        []string `json:"tags" form:"tags"`
	ContentType string   `json:"content_type"`
	File        []byte   `json:"file"`
	UploadedBy  string   `json:"uploaded_by"`
}

func (m UploadImageMessage) Type() string { return "image.upload" }

func (m UploadImageMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name,
			validation.Required,
			validation.By(notBlank),
			validation.Length(1, 150),
		),
		validation.Field(&m.File, validation.Required),
	)
}

func notBlank(value any) error {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

type Service struct {
	repo   Repository
	logger auth.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger auth.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		logger: auth.NewZapLogger(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Upload validates and stores an image. The format comes from the declared
// content type, falling back to sniffing the bytes.
func (s *Service) Upload(ctx context.Context, msg *UploadImageMessage) (*Image, error) {
	if msg == nil {
		return nil, auth.NewError(auth.ErrInvalidInput, "image cannot be nil", nil)
	}

	if err := msg.Validate(); err != nil {
		return nil, auth.NewValidationError(err)
	}

	ext, ok := ExtensionOfMediaType(msg.ContentType)
	if !ok {
		ext, ok = ExtensionOfMediaType(http.DetectContentType(msg.File))
	}
	if !ok {
		err := auth.NewError(auth.ErrInvalidInput, "unsupported image format", nil)
		err.Fields = map[string]string{"file": "must be a PNG, GIF or JPEG image"}
		return nil, err
	}

	image, err := s.repo.Save(ctx, &Image{
		Name:       strings.TrimSpace(msg.Name),
		Extension:  ext,
		Size:       int64(len(msg.File)),
		Tags:       JoinTags(msg.Tags),
		File:       msg.File,
		UploadedBy: msg.UploadedBy,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("image stored",
		"image_id", image.ID.String(),
		"size", image.Size,
		"extension", string(image.Extension),
		"uploaded_by", image.UploadedBy,
	)

	return image, nil
}

// Get returns the image with the given id, ErrNotFound when absent and
// ErrInvalidInput when id is not a UUID.
func (s *Service) Get(ctx context.Context, id string) (*Image, error) {
	if err := validation.Validate(id, validation.Required, is.UUID); err != nil {
		out := auth.NewError(auth.ErrInvalidInput, "invalid image id", err)
		out.Fields = map[string]string{"id": err.Error()}
		return nil, out
	}

	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, auth.NewError(auth.ErrInvalidInput, "invalid image id", err)
	}

	return s.repo.GetByID(ctx, uid)
}

// Search lists images by extension name and free text query. An unknown
// extension name does not filter.
func (s *Service) Search(ctx context.Context, extension, query string) ([]*Image, error) {
	images, err := s.repo.Search(ctx, SearchFilter{
		Extension: ExtensionOfName(extension),
		Query:     query,
	})
	if err != nil {
		return nil, fmt.Errorf("search images: %w", err)
	}
	return images, nil
}
