package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"wechat-cli/internal/envelope"
	"wechat-cli/internal/wechat"
)

// maxUploadBytes bounds in-memory multipart parsing; WeChat caps video
// material at 10MB.
const maxUploadBytes = 32 << 20

type handlers struct {
	tokens TokenManager
	api    API
}

func (h *handlers) getToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Token(r.Context())
	writeResult(r.Context(), w, token, err)
}

func (h *handlers) refreshToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Refresh(r.Context())
	writeResult(r.Context(), w, token, err)
}

// uploadMaterial accepts a multipart form with a "media" file part, an
// optional "description" JSON part for videos, and a "type" query parameter.
// The upload is spooled to a temp file so the client wrapper can stream it
// upstream.
func (h *handlers) uploadMaterial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mediaType := wechat.MediaType(r.URL.Query().Get("type"))
	if mediaType == "" {
		writeEnvelope(ctx, w, envelope.Invalid("type query parameter is required"), http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeEnvelope(ctx, w, envelope.Invalid("invalid multipart form: "+err.Error()), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("media")
	if err != nil {
		writeEnvelope(ctx, w, envelope.Invalid("media file part is required"), http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	var desc *wechat.VideoDescription
	if raw := r.FormValue("description"); raw != "" {
		desc = &wechat.VideoDescription{}
		if err := json.Unmarshal([]byte(raw), desc); err != nil {
			writeEnvelope(ctx, w, envelope.Invalid("invalid description: "+err.Error()), http.StatusBadRequest)
			return
		}
	}

	tempFile, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		writeResult(ctx, w, nil, err)
		return
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()

	_, err = io.Copy(tempFile, file)
	if closeErr := tempFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		writeResult(ctx, w, nil, err)
		return
	}

	result, err := h.api.UploadMaterial(ctx, tempName, mediaType, desc)
	writeResult(ctx, w, result, err)
}

func (h *handlers) listMaterial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mediaType := wechat.MediaType(r.URL.Query().Get("type"))
	if mediaType == "" {
		mediaType = wechat.MediaImage
	}
	offset := queryInt(r, "offset", 0)
	count := queryInt(r, "count", 20)

	list, err := h.api.ListMaterial(ctx, mediaType, offset, count)
	writeResult(ctx, w, list, err)
}

func (h *handlers) countMaterial(w http.ResponseWriter, r *http.Request) {
	count, err := h.api.CountMaterial(r.Context())
	writeResult(r.Context(), w, count, err)
}

func (h *handlers) addDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Articles []wechat.Article `json:"articles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeEnvelope(ctx, w, envelope.Invalid("invalid request body: "+err.Error()), http.StatusBadRequest)
		return
	}
	if len(payload.Articles) == 0 {
		writeEnvelope(ctx, w, envelope.Invalid("at least one article is required"), http.StatusBadRequest)
		return
	}

	mediaID, err := h.api.AddDraft(ctx, payload.Articles)
	writeResult(ctx, w, map[string]string{"media_id": mediaID}, err)
}

func (h *handlers) listDrafts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	offset := queryInt(r, "offset", 0)
	count := queryInt(r, "count", 20)
	noContent := r.URL.Query().Get("no_content") == "1"

	list, err := h.api.ListDrafts(ctx, offset, count, noContent)
	writeResult(ctx, w, list, err)
}

func (h *handlers) countDrafts(w http.ResponseWriter, r *http.Request) {
	total, err := h.api.CountDrafts(r.Context())
	writeResult(r.Context(), w, map[string]int{"total_count": total}, err)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
