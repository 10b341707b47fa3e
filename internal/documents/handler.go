package documents

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Roshanbtech/Extractify/internal/shared/apperror"
	"github.com/Roshanbtech/Extractify/internal/shared/server/middleware"
	"github.com/Roshanbtech/Extractify/internal/shared/server/respond"
)

// uploadField is the multipart form field carrying the PDF.
const uploadField = "pdf"

// Handler exposes the document lifecycle over HTTP.
type Handler struct {
	Service        *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{Service: service, MaxUploadBytes: maxUploadBytes}
}

// Register mounts the document routes on the given group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	pdf := rg.Group("/pdf")
	pdf.POST("/upload", h.Upload)
	pdf.GET("/list", h.List)
	pdf.POST("/extract", h.Extract)
	pdf.GET("/download", h.Download)
	pdf.GET("/download-url", h.DownloadURL)
	pdf.DELETE("/delete", h.Delete)
}

// Upload accepts a multipart PDF upload and records it for the caller.
func (h *Handler) Upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		respond.AppError(c, apperror.Wrap(apperror.Validation, "pdf file is required", err))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		respond.AppError(c, apperror.New(apperror.Validation, "only PDF files are accepted"))
		return
	}

	doc, err := h.Service.Upload(c.Request.Context(), userID, header.Filename, file)
	if err != nil {
		respond.AppError(c, err)
		return
	}

	c.Set("publicId", doc.PublicID)
	respond.JSON(c, http.StatusCreated, UploadResponse{
		Message:  "file uploaded successfully",
		Document: toResponse(doc),
	})
}

// List returns the caller's documents in creation order.
func (h *Handler) List(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	docs, err := h.Service.List(c.Request.Context(), userID)
	if err != nil {
		respond.AppError(c, err)
		return
	}

	out := make([]SubdocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	respond.OK(c, ListResponse{Documents: out})
}

// Extract creates a new document from selected pages of an existing one.
func (h *Handler) Extract(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.AppError(c, apperror.Wrap(apperror.Validation, "invalid request body", err))
		return
	}

	doc, err := h.Service.Extract(c.Request.Context(), userID, req.PublicID, req.Pages, req.Order)
	if err != nil {
		respond.AppError(c, err)
		return
	}

	c.Set("publicId", doc.PublicID)
	respond.JSON(c, http.StatusCreated, ExtractResponse{
		Message:  "pages extracted successfully",
		Document: toResponse(doc),
	})
}

// Download streams the document's content through the API.
func (h *Handler) Download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	publicID := c.Query("publicId")

	dl, err := h.Service.OpenDownload(c.Request.Context(), userID, publicID)
	if err != nil {
		respond.AppError(c, err)
		return
	}
	defer dl.Body.Close()

	c.Set("publicId", dl.Doc.PublicID)
	c.Header("Content-Type", pdfContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Doc.OriginalName))
	if dl.Doc.SizeBytes > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", dl.Doc.SizeBytes))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, dl.Body); err != nil {
		// Headers already went out, nothing more to send.
		_ = c.Error(err)
	}
}

// DownloadURL mints a short-lived reference for direct content fetch.
func (h *Handler) DownloadURL(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	publicID := c.Query("publicId")

	ref, err := h.Service.PrepareDownload(c.Request.Context(), userID, publicID)
	if err != nil {
		respond.AppError(c, err)
		return
	}

	respond.OK(c, DownloadURLResponse{
		URL:              ref.URL,
		ExpiresInSeconds: int(ref.ExpiresIn.Seconds()),
	})
}

// Delete removes a document's content and catalog entry.
func (h *Handler) Delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow publicId via query for clients that cannot send a DELETE body.
		req.PublicID = c.Query("publicId")
	}
	if req.PublicID == "" {
		req.PublicID = c.Query("publicId")
	}

	if err := h.Service.Delete(c.Request.Context(), userID, req.PublicID); err != nil {
		respond.AppError(c, err)
		return
	}

	c.Set("publicId", req.PublicID)
	respond.OK(c, gin.H{"message": "file deleted successfully"})
}
