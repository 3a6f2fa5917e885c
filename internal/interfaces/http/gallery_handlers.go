package http

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/foundry-fichas/internal/application/service"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
	"github.com/garyjia/foundry-fichas/pkg/utils"
)

// ListGallery handles GET /api/fichas/:id/gallery?stage=
func (h *Handlers) ListGallery(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	images, err := h.services.Gallery.List(c.Request.Context(), id, domainwf.StageKey(c.Query("stage")))
	if err != nil {
		h.respondError(c, "list_gallery", err)
		return
	}
	ok(c, images)
}

// UploadGalleryImage handles POST /api/fichas/:id/gallery
// (multipart field "image", optional form fields "stage" and "description")
func (h *Handlers) UploadGalleryImage(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "no image uploaded")
		return
	}
	content, err := readUpload(fh)
	if err != nil {
		h.logger.Error("Failed to read upload", "ficha_id", id, "name", fh.Filename, "error", err)
		badRequest(c, "failed to read uploaded file")
		return
	}

	img, err := h.services.Gallery.Upload(c.Request.Context(), actorFrom(c), id, service.GalleryUpload{
		Stage:       domainwf.StageKey(c.PostForm("stage")),
		Description: utils.SanitizeString(c.PostForm("description")),
		Name:        utils.SanitizeFilename(fh.Filename),
		Content:     content,
	})
	if err != nil {
		h.respondError(c, "upload_gallery", err)
		return
	}
	created(c, img)
}

// DownloadGalleryImage handles GET /api/fichas/:id/gallery/:imageID
func (h *Handlers) DownloadGalleryImage(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	imageID, valid := pathInt(c, "imageID")
	if !valid {
		return
	}

	img, content, err := h.services.Gallery.Open(c.Request.Context(), id, imageID)
	if err != nil {
		h.respondError(c, "download_gallery", err)
		return
	}
	serveImage(c, img.OriginalName, img.MimeType, content)
}

// DeleteGalleryImage handles DELETE /api/fichas/:id/gallery/:imageID
func (h *Handlers) DeleteGalleryImage(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	imageID, valid := pathInt(c, "imageID")
	if !valid {
		return
	}

	if err := h.services.Gallery.Delete(c.Request.Context(), id, imageID); err != nil {
		h.respondError(c, "delete_gallery", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// serveImage writes content inline under its original name. An empty
// contentType is derived from the name, then from the bytes.
func serveImage(c *gin.Context, name, contentType string, content []byte) {
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	if name != "" {
		c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	}
	c.Data(http.StatusOK, contentType, content)
}
