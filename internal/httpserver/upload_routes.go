package httpserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"chatbackend/internal/blob"
	"chatbackend/internal/domain"
	"chatbackend/internal/service"
)

const (
	maxMultipartBytes  = 32 << 20
	multipartMemory    = 16 << 20
	octetStream        = "application/octet-stream"
	multipartFileField = "file"
)

// @Summary      Upload to chat
// @Description  Store an image or file and post it to the chat as a message
// @Tags         chat
// @Accept       multipart/form-data
// @Produce      json
// @Param        id         path      string  true  "Chat ID"
// @Param        sender_id  formData  string  true  "Sender user ID"
// @Param        file       formData  file    true  "Upload"
// @Success      200  {object}  domain.Message
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /chat/{id}/upload-image [post]
// @Router       /chat/{id}/upload-file [post]
//
// handleUpload accepts a multipart form with a sender_id field and a file
// part, stores the file and posts it to the chat.
// Size and type limits are enforced by the uploader. A body past the
// buffering cap is reported with the profile's size message.
func handleUpload(chatSvc *service.ChatService, profile blob.Profile, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(w, r, log, profile.TooLarge())
				return
			}
			writeError(w, r, log, domain.Validation("failed to parse multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		in := service.UploadInput{SenderID: r.FormValue("sender_id")}

		file, header, err := r.FormFile(multipartFileField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
			// Leave the body empty; the uploader reports what is missing.
		case err != nil:
			writeError(w, r, log, domain.Validation("failed to read %s", multipartFileField))
			return
		default:
			defer file.Close()
			body, err := io.ReadAll(io.LimitReader(file, profile.MaxBytes+1))
			if err != nil {
				writeError(w, r, log, domain.Validation("failed to read %s", multipartFileField))
				return
			}
			in.Filename = header.Filename
			in.Body = body
			in.Size = header.Size
			in.ContentType = header.Header.Get("Content-Type")
			if in.ContentType == "" || in.ContentType == octetStream {
				in.ContentType = mimetype.Detect(body).String()
			}
		}

		msg, err := chatSvc.Upload(r.Context(), chi.URLParam(r, "id"), profile, in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}
