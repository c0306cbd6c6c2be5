package http

import (
	"net/http"
	"strings"

	apperrors "membership-backend/internal/common/errors"
	commonmw "membership-backend/internal/common/middleware"
	authmw "membership-backend/internal/features/auth/middleware"
	"membership-backend/internal/features/upload/storage"

	"github.com/gin-gonic/gin"
)

type UploadResponse struct {
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
}

type UploadHandler struct {
	storage storage.Storage
	baseURL string
}

func NewUploadHandler(storage storage.Storage, baseURL string) *UploadHandler {
	return &UploadHandler{
		storage: storage,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (h *UploadHandler) RegisterRoutes(router *gin.RouterGroup) {
	authed := router.Group("/uploads")
	authed.Use(authmw.RequireAuth())
	{
		authed.POST("", h.UploadImage)
	}
}

// @Summary Upload an image
// @Description Store an image file and return its public URL
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file"
// @Success 201 {object} UploadResponse "Stored file"
// @Failure 400 {object} middleware.ErrorResponse "Missing or non-image file"
// @Router /uploads [post]
func (h *UploadHandler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("file", "multipart field 'file' is required"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		commonmw.RespondError(c, apperrors.NewValidationError("file", "only image uploads are allowed"))
		return
	}

	f, err := header.Open()
	if err != nil {
		commonmw.RespondError(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to read uploaded file"))
		return
	}
	defer f.Close()

	stored, err := h.storage.Store(c.Request.Context(), header.Filename, f)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		FileName: stored,
		FileURL:  h.baseURL + "/" + stored,
	})
}
