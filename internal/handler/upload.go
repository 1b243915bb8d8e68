package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kaksaab/club-event-ticketing/internal/storage"
)

// UploadHandler accepts poster and logo images and stores them through
// the image store, which normalizes everything to bounded JPEGs.
type UploadHandler struct {
	Store *storage.ImageStore
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(store *storage.ImageStore) *UploadHandler {
	if store == nil {
		panic("nil store passed to NewUploadHandler")
	}
	return &UploadHandler{Store: store}
}

// UploadImage handles POST /api/upload/image.  Expects a multipart form
// with an "image" file part and responds with the public URL of the
// stored copy.
func (h *UploadHandler) UploadImage(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read upload"})
	}
	defer src.Close()

	url, err := h.Store.Save(src, "events")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported image file"})
	}
	return c.JSON(http.StatusOK, echo.Map{"imageUrl": url})
}
