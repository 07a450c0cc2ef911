package api

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"omniasr/internal/model"
	"omniasr/internal/transcribe"
	"omniasr/internal/utils"
)

const (
	kindHTTP       = "HTTPException"
	kindValidation = "ValidationError"
)

var (
	allowedMIMETypes = []string{
		"audio/mpeg", "audio/mp3", "audio/wav", "audio/wave", "audio/x-wav",
		"audio/mp4", "audio/webm", "audio/ogg", "video/mp4", "video/webm",
	}
	allowedExtensions = []string{".mp3", ".wav", ".mp4", ".webm", ".ogg", ".m4a", ".flac"}
)

type transcribeQuery struct {
	Language string `form:"language" binding:"required,langcode"`
}

// transcribe handles POST /transcribe?language=
func (h *Handler) transcribe(c *gin.Context) {
	h.handleTranscription(c, model.ModeStandard)
}

// transcribeLarge handles POST /transcribe_large?language=
func (h *Handler) transcribeLarge(c *gin.Context) {
	h.handleTranscription(c, model.ModeLarge)
}

func (h *Handler) handleTranscription(c *gin.Context, mode string) {
	reqID := utils.RequestID(c)

	var q transcribeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.Error(c, http.StatusUnprocessableEntity, kindValidation, err.Error())
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, http.StatusUnprocessableEntity, kindValidation, "file is required: "+err.Error())
		return
	}
	if file.Size > h.cfg.MaxFileSizeBytes() {
		utils.Error(c, http.StatusRequestEntityTooLarge, kindHTTP,
			fmt.Sprintf("File too large. Maximum size is %dMB", h.cfg.MaxFileSizeMB))
		return
	}

	data, err := readUpload(file)
	if err != nil {
		h.log.Errorw("failed to read upload", "request_id", reqID, "error", err)
		utils.Error(c, http.StatusBadRequest, kindHTTP, "failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		utils.Error(c, http.StatusBadRequest, kindHTTP, "Empty file uploaded")
		return
	}

	filename := file.Filename
	if filename == "" {
		filename = "audio.wav"
	}
	if msg, ok := h.checkFileType(data, filename); !ok {
		utils.Error(c, http.StatusBadRequest, kindHTTP, msg)
		return
	}

	ok, err := h.languageSupported(c.Request.Context(), q.Language)
	if err != nil {
		h.log.Errorw("failed to fetch languages", "request_id", reqID, "error", err)
		utils.Error(c, http.StatusInternalServerError, kindHTTP, "Failed to fetch supported languages")
		return
	}
	if !ok {
		utils.Error(c, http.StatusBadRequest, kindHTTP,
			fmt.Sprintf("Unsupported language: %s. Use /languages endpoint to get supported languages.", q.Language))
		return
	}

	result, err := h.service.Transcribe(c.Request.Context(), transcribe.Request{
		Audio:    data,
		Filename: filename,
		Language: q.Language,
		Mode:     mode,
	})
	if err != nil {
		h.log.Errorw("transcription failed", "request_id", reqID, "mode", mode, "error", err)
		utils.Error(c, statusFor(err), model.Kind(err), err.Error())
		return
	}

	if mode == model.ModeStandard && result.AudioDuration > h.cfg.ShortAudioLimit.Seconds() {
		utils.Error(c, http.StatusBadRequest, kindHTTP,
			fmt.Sprintf("File too long (%ss). Please use /transcribe_large for files > 40s.", formatSeconds(result.AudioDuration)))
		return
	}

	utils.Success(c, result)
}

// checkFileType accepts uploads whose detected MIME type or extension is
// allowed.
func (h *Handler) checkFileType(data []byte, filename string) (string, bool) {
	mtype := mimetype.Detect(data)
	h.log.Debugw("detected MIME type", "mime", mtype.String(), "filename", filename)
	if slices.ContainsFunc(allowedMIMETypes, func(m string) bool { return mtype.Is(m) }) {
		return "", true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if slices.Contains(allowedExtensions, ext) {
		return "", true
	}
	return fmt.Sprintf("Invalid file type: %s. Allowed types: %s", mtype.String(), strings.Join(allowedMIMETypes, ", ")), false
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func statusFor(err error) int {
	if errors.Is(err, model.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// formatSeconds renders whole numbers with one decimal, e.g. 50.0.
func formatSeconds(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
