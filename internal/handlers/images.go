package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"propadmin/internal/apperr"
	"propadmin/internal/logger"
	"propadmin/internal/services"
	helpers "propadmin/internal/utils/helpers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type imageUploader interface {
	UploadBatch(ctx context.Context, propertyID int64, files []services.UploadFile) (*services.UploadResult, error)
}

type ImageHandler struct {
	svc      imageUploader
	maxBytes int64
}

func NewImageHandler(svc imageUploader, maxBytes int64) *ImageHandler {
	return &ImageHandler{svc: svc, maxBytes: maxBytes}
}

type uploadResponse struct {
	Message string   `json:"message" example:"Images uploaded successfully"`
	Images  []string `json:"images"`
}

// Upload godoc
// @Summary Загрузка изображений объекта
// @Description Сохраняет каждый файл из поля images и записывает URL для объекта. Файлы, которые не удалось сохранить, пропускаются.
// @Tags images
// @Security ApiKeyAuth
// @Accept multipart/form-data
// @Produce json
// @Param property_id path int true "ID объекта"
// @Param images formData file true "Изображения (можно несколько)"
// @Success 200 {object} uploadResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /admin/upload-images/{property_id} [post]
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	propertyID, err := strconv.ParseInt(mux.Vars(r)["property_id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "invalid property id")
		return
	}

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			helpers.Error(w, http.StatusRequestEntityTooLarge, "request too large")
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			log.Warn("Не удалось разобрать multipart", zap.Error(err))
			helpers.Error(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["images"]
	}
	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadFileFromHeader(fh))
	}

	res, err := h.svc.UploadBatch(r.Context(), propertyID, files)
	switch {
	case err == nil:
		helpers.JSON(w, http.StatusOK, uploadResponse{Message: "Images uploaded successfully", Images: res.Locators})
	case errors.Is(err, apperr.ErrNoImages):
		helpers.Error(w, http.StatusBadRequest, "No images provided")
	default:
		log.Error("Ошибка загрузки изображений", zap.Int64("property_id", propertyID), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func uploadFileFromHeader(fh *multipart.FileHeader) services.UploadFile {
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return services.UploadFile{
		Filename:    fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
