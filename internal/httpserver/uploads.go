package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"coffeespot/internal/domain"
	"coffeespot/internal/storage"
	"github.com/gin-gonic/gin"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// formImage opens an optional image upload. The returned close func is never nil.
func formImage(c *gin.Context, field string, maxBytes int64) (*storage.Upload, func(), error) {
	const op = "http.upload"
	noop := func() {}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, domain.Invalid(op, "invalid multipart form")
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, noop, domain.Invalid(op, "%s exceeds the %d byte limit", field, maxBytes)
	}
	contentType := strings.ToLower(fh.Header.Get("Content-Type"))
	if !allowedImageTypes[contentType] {
		return nil, noop, domain.Invalid(op, "%s must be a jpeg, png, webp or gif image", field)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, domain.Internal(op, err)
	}
	return &storage.Upload{Filename: fh.Filename, ContentType: contentType, Body: f}, func() { _ = f.Close() }, nil
}

// formList reads a repeated form field; a single value may also be comma separated.
func formList(c *gin.Context, field string) ([]string, bool) {
	values, ok := c.GetPostFormArray(field)
	if !ok {
		values, ok = c.GetPostFormArray(field + "[]")
	}
	if !ok {
		return nil, false
	}
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out, true
}
