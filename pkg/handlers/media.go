package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"iris-site/pkg/services"
)

func (s *Server) ListMedia(c *gin.Context) {
	files, err := s.Media.List(c.Request.Context())
	if err != nil {
		s.Log.Error("list media", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list media"})
		return
	}
	c.JSON(http.StatusOK, files)
}

func (s *Server) UploadMedia(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if s.MaxUpload > 0 && header.Size > s.MaxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable upload"})
		return
	}
	defer f.Close()

	info, err := s.Media.Upload(c.Request.Context(), header.Filename, f, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		s.Log.Error("upload media", zap.String("name", header.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}
	s.Log.Info("media uploaded", zap.String("id", info.ID), zap.Int64("size", info.Size), zap.String("user", currentUser(c).Username))
	c.JSON(http.StatusOK, info)
}

// DeleteMedia is best-effort: storage failures are logged and the client
// still gets 200.
func (s *Server) DeleteMedia(c *gin.Context) {
	var req struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if err := s.Media.Delete(c.Request.Context(), req.ID); err != nil {
		level := zap.WarnLevel
		if errors.Is(err, services.ErrInvalidMediaID) {
			level = zap.InfoLevel
		}
		s.Log.Log(level, "delete media", zap.String("id", req.ID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
