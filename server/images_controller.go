package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-imagelite/auth"
	"github.com/goliatone/go-imagelite/images"
)

type ImagesControllerRoutes struct {
	Collection string
	Item       string
}

type ImagesController struct {
	Images *images.Service
	Routes *ImagesControllerRoutes
}

func NewImagesController(service *images.Service) *ImagesController {
	return &ImagesController{
		Images: service,
		Routes: &ImagesControllerRoutes{
			Collection: "/images",
			Item:       "/images/:id",
		},
	}
}

func RegisterImageRoutes(app fiber.Router, controller *ImagesController) {
	app.Post(controller.Routes.Collection, controller.Upload)
	app.Get(controller.Routes.Collection, controller.Search)
	app.Get(controller.Routes.Item, controller.Show)
}

// ImageRecord is the search result entry
type ImageRecord struct {
	URL        string           `json:"url"`
	Name       string           `json:"name"`
	Extension  images.Extension `json:"extension"`
	Size       int64            `json:"size"`
	UploadDate time.Time        `json:"uploadDate"`
}

func (i *ImagesController) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		out := auth.NewError(auth.ErrInvalidInput, "file is required", err)
		out.Fields = map[string]string{"file": "cannot be blank"}
		return out
	}

	data, err := readFormFile(header)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	msg := &images.UploadImageMessage{
		Name:        c.FormValue("name"),
		Tags:        formValues(c, "tags"),
		ContentType: header.Header.Get(fiber.HeaderContentType),
		File:        data,
	}

	if user, ok := auth.FromContext(c.UserContext()); ok {
		msg.UploadedBy = user.Email
	}

	image, err := i.Images.Upload(c.UserContext(), msg)
	if err != nil {
		return err
	}

	c.Location(imageURL(c, image))
	return c.SendStatus(fiber.StatusCreated)
}

func (i *ImagesController) Show(c *fiber.Ctx) error {
	image, err := i.Images.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, image.Extension.MediaType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", image.FileName()))

	return c.Send(image.File)
}

func (i *ImagesController) Search(c *fiber.Ctx) error {
	found, err := i.Images.Search(c.UserContext(), c.Query("extension"), c.Query("query"))
	if err != nil {
		return err
	}

	records := make([]ImageRecord, 0, len(found))
	for _, image := range found {
		records = append(records, ImageRecord{
			URL:        imageURL(c, image),
			Name:       image.Name,
			Extension:  image.Extension,
			Size:       image.Size,
			UploadDate: image.UploadedAt,
		})
	}

	return c.JSON(records)
}

func imageURL(c *fiber.Ctx, image *images.Image) string {
	return c.BaseURL() + "/v1/images/" + image.ID.String()
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// formValues returns every value posted under key, so tags can be sent
// repeated or comma separated.
func formValues(c *fiber.Ctx, key string) []string {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		if v := c.FormValue(key); v != "" {
			return []string{v}
		}
		return nil
	}
	return form.Value[key]
}
