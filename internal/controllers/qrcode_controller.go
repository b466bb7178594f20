package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"blog-be/internal/service"
)

type QRCodeController struct {
	feedService service.FeedService
	frontendURL string
}

func NewQRCodeController(feedService service.FeedService, frontendURL string) *QRCodeController {
	return &QRCodeController{
		feedService: feedService,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// GenerateQRCode handles GET /feed/post/:postId/qrcode - PNG linking to the post page
func (qc *QRCodeController) GenerateQRCode(c *gin.Context) {
	post, err := qc.feedService.GetPost(c.Request.Context(), c.Param("postId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	postURL := qc.frontendURL + "/post/" + post.ID

	// 256x256 pixels, medium error recovery
	qrCode, err := qrcode.New(postURL, qrcode.Medium)
	if err != nil {
		_ = c.Error(fmt.Errorf("failed to generate QR code: %w", err))
		return
	}

	pngData, err := qrCode.PNG(256)
	if err != nil {
		_ = c.Error(fmt.Errorf("failed to encode QR code: %w", err))
		return
	}

	c.Header("Content-Disposition", "inline; filename=qrcode.png")
	c.Data(http.StatusOK, "image/png", pngData)
}
