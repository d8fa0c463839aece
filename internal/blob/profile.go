package blob

import (
	"mime"
	"strings"

	"github.com/samber/lo"

	"chatbackend/internal/domain"
)

const maxUploadBytes = 10 * 1024 * 1024

// Profile is a validation policy for one kind of upload.
type Profile struct {
	Name         string
	noun         string
	MaxBytes     int64
	Allowed      []string
	Attachment   bool
	sizeLimitMsg string
}

var (
	ImageProfile = Profile{
		Name:     "image",
		noun:     "image",
		MaxBytes: maxUploadBytes,
		Allowed: []string{
			"image/jpeg",
			"image/png",
			"image/gif",
		},
		sizeLimitMsg: "Image size exceeds limit of 10 MB",
	}

	FileProfile = Profile{
		Name:     "file",
		noun:     "file",
		MaxBytes: maxUploadBytes,
		Allowed: []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/json",
			"text/xml",
			"application/zip",
			"text/csv",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		},
		Attachment:   true,
		sizeLimitMsg: "File size exceeds limit of 10MB",
	}
)

// Accepts reports whether the declared content type is allowed. Parameters
// such as charset are ignored.
func (p Profile) Accepts(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return lo.Contains(p.Allowed, strings.ToLower(mt))
}

func (p Profile) title() string {
	return strings.ToUpper(p.noun[:1]) + p.noun[1:]
}

// TooLarge is the validation error reported for an oversized upload.
func (p Profile) TooLarge() error {
	return domain.Validation("%s", p.sizeLimitMsg)
}
