package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guiyumin/vgrab/internal/core/version"
)

const msgURLRequired = "URL is required!"

// FormatsRequest is the request body for POST /formats
type FormatsRequest struct {
	URL string `json:"url"`
}

// DownloadRequest is the request body for POST /download
type DownloadRequest struct {
	URL      string `json:"url"`
	FormatID string `json:"format_id,omitempty"`
}

// DownloadResponse is returned by a successful POST /download
type DownloadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// extractionContext detaches the request context so a client disconnect
// never aborts an extraction already in progress.
func extractionContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
		"backend": s.dl.Backend(),
	})
}

func (s *Server) handleFormats(c *gin.Context) {
	var req FormatsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgURLRequired})
		return
	}

	probe, err := s.dl.Formats(extractionContext(c), req.URL)
	if err != nil {
		log.Printf("[%s] formats %s: %v", c.GetString("request_id"), req.URL, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, probe)
}

func (s *Server) handleDownload(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgURLRequired})
		return
	}

	result, err := s.dl.Download(extractionContext(c), req.URL, req.FormatID)
	if err != nil {
		log.Printf("[%s] download %s: %v", c.GetString("request_id"), req.URL, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, DownloadResponse{
		Success:  true,
		Message:  "Download completed!",
		Filename: result.Filename,
	})
}

// handleStreamDownload downloads the best format and sends the file back as
// the response body. Errors are plain text.
func (s *Server) handleStreamDownload(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.String(http.StatusBadRequest, msgURLRequired)
		return
	}

	result, err := s.dl.Stream(extractionContext(c), url)
	if err != nil {
		log.Printf("[%s] download %s: %v", c.GetString("request_id"), url, err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	c.FileAttachment(result.Path, result.Filename)
}
