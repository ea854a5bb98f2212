package handlers

import (
	"net/http"

	"backend/storage"
	"backend/utils"

	"github.com/gin-gonic/gin"
)

// UploadFile godoc
// @Summary      Upload a media file
// @Description  Stores the file under a unique name and returns the reference to use in job image payloads.
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Media file"
// @Success      200  {object}  models.APIResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/upload [post]
func UploadFile() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 50<<20) // 50 MB

		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "file not found")
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "unable to open file")
			return
		}
		defer src.Close()

		ref, err := storage.SaveUpload(src, fileHeader.Filename)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		utils.SuccessResponse(c, gin.H{"path": ref})
	}
}

// ServeFile godoc
// @Summary      Serve an uploaded file
// @Tags         files
// @Param        filename  path  string  true  "Stored file name"
// @Success      200  {file}  file
// @Failure      404  {object}  models.ErrorResponse
// @Router       /uploads/{filename} [get]
func ServeFile() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := storage.UploadPathPrefix + c.Param("filename")
		full, err := storage.ResolveLocalPath(ref)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		c.File(full)
	}
}
