package service

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// MaxUploadBytes caps the request body for every prediction endpoint.
const MaxUploadBytes = 32 << 20

// uploadFields are the multipart field names accepted for the image, in order.
var uploadFields = []string{"file", "image"}

// readImagePayload extracts the raw image bytes from a JSON, multipart or
// raw request body.
func readImagePayload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	var data []byte
	switch mediaType {
	case "application/json":
		data, err = handleJSONRequest(r)
	case "multipart/form-data":
		data, err = handleMultipartRequest(r)
	default:
		data, err = handleRawRequest(r)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrPayloadTooLarge
		}
		return nil, err
	}
	return data, nil
}

func handleJSONRequest(r *http.Request) ([]byte, error) {
	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, invalidInput("invalid_request", MsgInvalidRequest, err)
	}
	if req.Image == "" {
		return nil, invalidInput("no_file", MsgNoFile, nil)
	}

	encoded := req.Image
	// Browsers hand out data URLs from FileReader.readAsDataURL.
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, invalidInput("invalid_request", MsgInvalidRequest, err)
	}
	return data, nil
}

func handleMultipartRequest(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, invalidInput("invalid_request", MsgInvalidRequest, err)
	}
	defer r.MultipartForm.RemoveAll()

	for _, field := range uploadFields {
		file, _, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, invalidInput("invalid_request", MsgInvalidRequest, err)
		}
		return readFormFile(file)
	}

	return nil, invalidInput("no_file", MsgNoFile, nil)
}

func readFormFile(file multipart.File) ([]byte, error) {
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, invalidInput("invalid_request", MsgInvalidRequest, err)
	}
	return data, nil
}

func handleRawRequest(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, invalidInput("invalid_request", MsgInvalidRequest, err)
	}
	return data, nil
}
