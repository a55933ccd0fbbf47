package images

import (
	"mime"
	"strings"
)

// Extension is one of the supported image formats.
type Extension string

const (
	PNG  Extension = "PNG"
	GIF  Extension = "GIF"
	JPEG Extension = "JPEG"
)

var mediaTypes = map[Extension]string{
	PNG:  "image/png",
	GIF:  "image/gif",
	JPEG: "image/jpeg",
}

// Extensions lists the supported formats
func Extensions() []Extension {
	return []Extension{PNG, GIF, JPEG}
}

// MediaType returns the content type served for the extension.
func (e Extension) MediaType() string {
	if mt, ok := mediaTypes[e]; ok {
		return mt
	}
	return "application/octet-stream"
}

// FileExtension is the lower case suffix used in download file names.
func (e Extension) FileExtension() string {
	if e == JPEG {
		return "jpg"
	}
	return strings.ToLower(string(e))
}

func (e Extension) Valid() bool {
	_, ok := mediaTypes[e]
	return ok
}

// ExtensionOfName resolves a user supplied extension name, ignoring case.
// Unknown or empty names resolve to the empty Extension, meaning no filter.
func ExtensionOfName(name string) Extension {
	ext := Extension(strings.ToUpper(strings.TrimSpace(name)))
	if ext == "JPG" {
		return JPEG
	}
	if ext.Valid() {
		return ext
	}
	return ""
}

// ExtensionOfMediaType resolves a content type header value.
func ExtensionOfMediaType(contentType string) (Extension, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	for ext, candidate := range mediaTypes {
		if candidate == mt {
			return ext, true
		}
	}
	return "", false
}
