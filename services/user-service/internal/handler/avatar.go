package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/usecase"
)

const (
	avatarFormField         = "file"
	defaultTransferEncoding = "7bit"
)

// UploadAvatar streams the "file" part of a multipart body to the avatar store
// of the authenticated user.
func (h *UserHTTPHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+1<<20)

	reader, err := r.MultipartReader()
	if err != nil {
		h.writeError(w, r, fileFieldError("file must be sent as multipart/form-data"))
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.writeError(w, r, fileFieldError("malformed multipart body"))
			return
		}

		if part.FormName() != avatarFormField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		encoding := part.Header.Get("Content-Transfer-Encoding")
		if encoding == "" {
			encoding = defaultTransferEncoding
		}

		result, err := h.avatarUsecase.UploadAvatar(r.Context(), actorID(r), usecase.AvatarFile{
			Filename: part.FileName(),
			Mimetype: part.Header.Get("Content-Type"),
			Encoding: encoding,
			Content:  part,
		})
		_ = part.Close()
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				h.writeError(w, r, fileFieldError("file is too large"))
				return
			}
			h.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
		return
	}

	h.writeError(w, r, fileFieldError("file is a required field"))
}

func fileFieldError(message string) error {
	return &usecase.ValidationError{Fields: map[string]string{avatarFormField: message}}
}
