package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/usecase"
)

type DocumentUseCase interface {
	ListDocuments(ctx context.Context, query string, docType entity.DocumentType, limit, offset int) ([]entity.DocumentMetadata, error)
	GetDocument(ctx context.Context, documentID string) (*entity.DocumentMetadata, map[string]string, error)
	GetStatistics(ctx context.Context) (*entity.Statistics, error)
	CreateUploadURL(ctx context.Context, fileName, fileType string) (*usecase.UploadURL, error)
	Reprocess(ctx context.Context, documentID string) error
}

type DocumentHandler struct {
	UseCase DocumentUseCase
}

func NewDocumentHandler(u DocumentUseCase) *DocumentHandler {
	return &DocumentHandler{UseCase: u}
}

func (h *DocumentHandler) Register(g *gin.RouterGroup) {
	g.GET("/documents", h.ListDocuments)
	g.GET("/documents/:document_id", h.GetDocument)
	g.POST("/documents/:document_id/reprocess", h.Reprocess)
	g.GET("/statistics", h.GetStatistics)
	g.GET("/upload-url", h.GetUploadURL)
}

func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	docs, err := h.UseCase.ListDocuments(
		c.Request.Context(),
		c.Query("q"),
		entity.DocumentType(c.Query("type")),
		limit,
		offset,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *DocumentHandler) GetDocument(c *gin.Context) {
	documentID := c.Param("document_id")

	doc, fields, err := h.UseCase.GetDocument(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metadata": doc,
		"fields":   fields,
	})
}

func (h *DocumentHandler) GetStatistics(c *gin.Context) {
	stats, err := h.UseCase.GetStatistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *DocumentHandler) GetUploadURL(c *gin.Context) {
	fileName := c.Query("fileName")
	fileType := c.Query("fileType")
	if fileName == "" || fileType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters: fileName, fileType"})
		return
	}

	upload, err := h.UseCase.CreateUploadURL(c.Request.Context(), fileName, fileType)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidFileName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fileName"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating upload URL"})
		return
	}

	c.JSON(http.StatusOK, upload)
}

func (h *DocumentHandler) Reprocess(c *gin.Context) {
	documentID := c.Param("document_id")

	if err := h.UseCase.Reprocess(c.Request.Context(), documentID); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"document_id": documentID, "status": "requeued"})
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
