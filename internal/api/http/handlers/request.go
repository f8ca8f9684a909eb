package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/icondo/parcel-service/internal/auth"
	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/service"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

// decodeJSON strictly decodes the request body into dst. Unknown fields and
// trailing data are rejected.
func decodeJSON(c *fiber.Ctx, dst any) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return apperrors.NewValidationError("request body required", nil)
	}
	return decodeStrict(body, dst)
}

// decodeOptionalJSON accepts an empty body for endpoints whose fields are all optional.
func decodeOptionalJSON(c *fiber.Ctx, dst any) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return nil
	}
	return decodeStrict(body, dst)
}

func decodeStrict(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	if _, err := dec.Token(); err != io.EOF {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": "unexpected trailing data"})
	}
	return nil
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: c.Params(name)})
	}
	return id, nil
}

func principal(c *fiber.Ctx) (*domain.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok || p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

// multipartPhoto reads the "photo" form file, if any.
func multipartPhoto(c *fiber.Ctx, maxBytes int64) (*service.PhotoUpload, error) {
	fh, err := c.FormFile("photo")
	if err != nil {
		return nil, nil
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, apperrors.NewValidationError("photo is too large", map[string]any{"max_bytes": maxBytes})
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable photo", nil)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable photo", nil)
	}
	return &service.PhotoUpload{FileName: fh.Filename, Data: data}, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return bytes.HasPrefix(c.Request().Header.ContentType(), []byte(fiber.MIMEMultipartForm))
}
