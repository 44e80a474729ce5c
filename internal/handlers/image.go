package handlers

import (
	"errors"
	"log"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"mixins/internal/middleware"
	"mixins/internal/models"
	"mixins/internal/services"

	"github.com/gin-gonic/gin"
)

// 盗链提醒 SVG 图片
const hotlinkSVG = `<svg width="200" height="200" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%" height="100%" fill="#f8f9fa"/>
  <text x="50%" y="50%" font-family="Arial" font-size="14" fill="#6c757d" text-anchor="middle">
    Image hosted for this site only
  </text>
</svg>`

const maxUploadSize = 10 << 20

// ImageHandler 图片处理 Handler
type ImageHandler struct {
	svc *services.Services
}

func NewImageHandler(svc *services.Services) *ImageHandler {
	return &ImageHandler{svc: svc}
}

// Upload handles POST /records/:contenttype/:id/image. Only the owner of
// the record may replace its image; the record is saved through the
// normal pipeline so the thumbnail and resize steps run.
func (h *ImageHandler) Upload(c *gin.Context) {
	ct, rec, ok := lookupRecord(c, h.svc)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "record not found"})
		return
	}
	if !ct.Caps.Has(models.CapImage) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "record has no image"})
		return
	}

	user := middleware.CurrentUser(c)
	owner, isOwned := rec.(models.Ownable)
	if !isOwned || owner.OwnerID() == nil || *owner.OwnerID() != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "not your record"})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no image uploaded"})
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "image larger than 10MB"})
		return
	}

	if err := h.svc.Records.SetImage(c.Request.Context(), rec, header.Filename, file); err != nil {
		if errors.Is(err, services.ErrUnsupportedImage) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		log.Printf("image upload for %s %d failed: %v", ct, rec.GetID(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "upload failed"})
		return
	}

	rel := rec.(models.Imageable).ImageFields().Image
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     h.svc.Images.URL(rel),
	})
}

// Media serves GET <MediaURL>/*filepath from the media root, answering
// hotlinks from other sites with a placeholder.
func (h *ImageHandler) Media(c *gin.Context) {
	rel := path.Clean("/" + c.Param("filepath"))
	if rel == "/" {
		c.Status(http.StatusNotFound)
		return
	}

	if !isAllowedRequest(c) {
		c.Header("Content-Type", "image/svg+xml")
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.String(http.StatusOK, hotlinkSVG)
		return
	}

	c.Header("Cache-Control", "public, max-age=604800")
	c.Header("Vary", "Sec-Fetch-Site, Sec-Fetch-Mode")
	c.File(filepath.Join(h.svc.Images.Root, filepath.FromSlash(strings.TrimPrefix(rel, "/"))))
}

// isAllowedRequest 使用 Sec-Fetch-* 头部检测是否为合法请求
func isAllowedRequest(c *gin.Context) bool {
	switch c.GetHeader("Sec-Fetch-Site") {
	// 旧浏览器、同源、同站、地址栏直接访问
	case "", "same-origin", "same-site", "none":
		return true
	}
	// 允许在新标签页打开图片
	return c.GetHeader("Sec-Fetch-Mode") == "navigate"
}
