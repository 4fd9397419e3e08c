package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/drive-service/internal/api/dto"
	"github.com/spec-kit/drive-service/internal/auth"
	"github.com/spec-kit/drive-service/internal/service"
	apperrors "github.com/spec-kit/drive-service/pkg/util"
)

// FilesHandler exposes the file transfer endpoints.
type FilesHandler struct {
	files *service.FileService
	usage *service.UsageService
}

// NewFilesHandler constructs handler.
func NewFilesHandler(fileService *service.FileService, usageService *service.UsageService) *FilesHandler {
	return &FilesHandler{files: fileService, usage: usageService}
}

// List handles GET /files.
func (h *FilesHandler) List(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	files, err := h.files.List(c.UserContext(), identity)
	if err != nil {
		return err
	}

	responses := make([]dto.FileResponse, 0, len(files))
	for i := range files {
		responses = append(responses, dto.NewFileResponse(&files[i]))
	}
	return c.JSON(responses)
}

// Usage handles GET /files/usage, reporting the caller's accumulated
// object count and byte usage.
func (h *FilesHandler) Usage(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	usage, err := h.usage.GetUsage(c.UserContext(), identity.SubjectID)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(usage)
}

// Upload handles POST /files/upload with a multipart "file" field.
// The part is streamed to the object store, not buffered.
func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("no file uploaded", nil)
	}

	part, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable file upload", nil)
	}
	defer part.Close()

	file, err := h.files.Upload(
		c.UserContext(),
		identity,
		header.Filename,
		header.Header.Get(fiber.HeaderContentType),
		part,
		header.Size,
	)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewFileResponse(file))
}

// Download handles GET /files/:id/download, streaming the object back
// with its stored content type and an attachment disposition.
func (h *FilesHandler) Download(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	file, stream, err := h.files.Download(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, file.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Set(fiber.HeaderContentLength, strconv.FormatInt(file.SizeBytes, 10))
	// SendStream closes the reader when the transfer finishes or the
	// client disconnects.
	return c.SendStream(stream, int(file.SizeBytes))
}

// Raw handles GET /files/raw/*, serving an object by its full key
// with an inline disposition so browsers can preview it. Only keys
// under the caller's own prefix are served.
func (h *FilesHandler) Raw(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	key, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return apperrors.NewValidationError("invalid object key", nil)
	}

	info, stream, err := h.files.Open(c.UserContext(), identity, key)
	if err != nil {
		return err
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentLength, strconv.FormatInt(info.Size, 10))
	return c.SendStream(stream, int(info.Size))
}

// Delete handles DELETE /files/:id.
func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.files.Delete(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "file deleted successfully"})
}
