package http

import (
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	maxUploadBytes = 8 << 20 // 8 MiB
	maxImageWidth  = 1024
	jpegQuality    = 80
)

// UploadDir returns the directory uploaded images are written to,
// creating it if needed.
func UploadDir() string {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("Error creating upload dir %s: %v", dir, err)
	}
	return dir
}

// UploadImage accepts a multipart "image" file, downscales it to at most
// maxImageWidth, re-encodes it as JPEG, and returns the public URL. The
// chat core treats the resulting URL as an opaque string on the post.
func (e *Env) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or oversized image file"})
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image format"})
		return
	}

	if img.Bounds().Dx() > maxImageWidth {
		// Height 0 preserves the aspect ratio.
		img = resize.Resize(maxImageWidth, 0, img, resize.Lanczos3)
	}

	name := uuid.NewString() + ".jpg"
	path := filepath.Join(UploadDir(), name)

	out, err := os.Create(path)
	if err != nil {
		log.Printf("Error creating upload file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		log.Printf("Error encoding upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": "/uploads/" + name})
}
