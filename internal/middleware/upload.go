package middleware

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"blog-be/internal/apperrors"
	"blog-be/internal/observability"
	"blog-be/internal/upload"
)

const (
	imageField      = "image"
	uploadKey       = "upload.image"
	multipartMemory = 8 << 20
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

// Upload intercepts multipart requests, persists a single accepted image from
// the "image" field and attaches it to the context. Files of any other type are
// dropped without failing the request.
func Upload(store upload.Store, maxBytes int64, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != binding.MIMEMultipartPOSTForm {
			c.Next()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				_ = c.Error(apperrors.New(apperrors.KindPayloadTooLarge, "Request body too large."))
				c.Abort()
				return
			}
			// Left for the handler's binding to reject.
			log.Debug("failed to parse multipart body", zap.Error(err))
			c.Next()
			return
		}

		headers := c.Request.MultipartForm.File[imageField]
		if len(headers) == 0 {
			c.Next()
			return
		}

		file, err := saveImage(store, headers[0])
		switch {
		case err != nil:
			observability.UploadsTotal.WithLabelValues("failed").Inc()
			_ = c.Error(apperrors.Internal(err))
			c.Abort()
			return
		case file == nil:
			observability.UploadsTotal.WithLabelValues("rejected").Inc()
			log.Debug("dropped upload with unsupported type",
				zap.String("filename", headers[0].Filename),
				zap.String("content_type", headers[0].Header.Get("Content-Type")),
			)
		default:
			observability.UploadsTotal.WithLabelValues("accepted").Inc()
			c.Set(uploadKey, file)
		}
		c.Next()
	}
}

// UploadedFile returns the image accepted by Upload, or nil.
func UploadedFile(c *gin.Context) *upload.File {
	v, ok := c.Get(uploadKey)
	if !ok {
		return nil
	}
	file, _ := v.(*upload.File)
	return file
}

// saveImage returns a nil file when the part is not an allowed image.
func saveImage(store upload.Store, fh *multipart.FileHeader) (*upload.File, error) {
	declared, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil || !allowedImageTypes[declared] {
		return nil, nil
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	// The declared type is client supplied; the bytes must agree with it.
	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to sniff upload: %w", err)
	}
	if !isImage(detected) {
		return nil, nil
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	return store.Save(imageField, fh.Filename, declared, src)
}

func isImage(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("image/png") || m.Is("image/jpeg") {
			return true
		}
	}
	return false
}
