package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "butik/internal/log"
)

// Uploads persists multipart images under the media dir and hands relative
// path strings to the services. The core never touches the filesystem.
type Uploads struct {
	MediaDir string
}

// Save stores an uploaded image and returns its reference path
// ("images/<uuid><ext>").
func (u *Uploads) Save(c *fiber.Ctx, fh *multipart.FileHeader, prefix string) (string, error) {
	ct := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("only image files are allowed")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := prefix + "-" + uuid.NewString() + ext
	if err := os.MkdirAll(u.MediaDir, 0o755); err != nil {
		return "", err
	}
	if err := c.SaveFile(fh, filepath.Join(u.MediaDir, name)); err != nil {
		return "", err
	}
	return "images/" + name, nil
}

// Remove deletes a previously saved reference, best effort.
func (u *Uploads) Remove(c *fiber.Ctx, ref string) {
	if ref == "" {
		return
	}
	name := filepath.Base(ref)
	if err := os.Remove(filepath.Join(u.MediaDir, name)); err != nil && !os.IsNotExist(err) {
		applog.Error(c, "upload.remove.fail", err, map[string]any{"ref": ref})
	}
}
