package images

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Image is a stored upload. File holds the raw bytes and is left out of
// search results.
type Image struct {
	bun.BaseModel `bun:"table:images,alias:img"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Extension     Extension `bun:"extension,notnull" json:"extension"`
	Size          int64     `bun:"size,notnull" json:"size"`
	Tags          string    `bun:"tags" json:"tags,omitempty"`
	File          []byte    `bun:"file" json:"-"`
	UploadedBy    string    `bun:"uploaded_by" json:"uploaded_by,omitempty"`
	UploadedAt    time.Time `bun:"uploaded_at,nullzero,notnull,default:current_timestamp" json:"uploaded_at"`
}

// FileName is the download name, the image name plus its format suffix.
func (i *Image) FileName() string {
	return i.Name + "." + i.Extension.FileExtension()
}

// TagList returns the tags as a slice
func (i *Image) TagList() []string {
	return SplitTags(i.Tags)
}

// JoinTags stores tags as a single comma separated column, dropping blanks.
func JoinTags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		for _, part := range strings.Split(tag, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return strings.Join(out, ",")
}

func SplitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	return strings.Split(tags, ",")
}

func prepareImageDefaults(record *Image) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.UploadedAt.IsZero() {
		record.UploadedAt = time.Now().UTC()
	}
	if record.Size == 0 {
		record.Size = int64(len(record.File))
	}
}
