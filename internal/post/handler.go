package post

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/imagefeed/service/internal/middleware"
	"github.com/imagefeed/service/internal/response"
)

// multipartMemory is how much of a multipart body is held in memory before
// net/http spills it to disk.
const multipartMemory = 8 << 20

// Handler holds HTTP handlers for post endpoints.
type Handler struct {
	svc      *Service
	maxBytes int64
}

// NewHandler creates a post Handler accepting uploads up to maxBytes.
func NewHandler(svc *Service, maxBytes int64) *Handler {
	return &Handler{svc: svc, maxBytes: maxBytes}
}

type feedResponse struct {
	Posts []View `json:"posts"`
}

// Upload godoc
//
//	@Summary		Upload a post
//	@Description	Store an image or video with a caption. Content types starting with video/ are recorded as video, everything else as image.
//	@Tags			posts
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"Image or video"
//	@Param			caption	formData	string	true	"Caption"
//	@Success		201		{object}	Post
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if r.ContentLength > h.maxBytes {
		response.RequestTooLarge(w, "upload exceeds size limit")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RequestTooLarge(w, "upload exceeds size limit")
			return
		}
		response.BadRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	captions, present := r.MultipartForm.Value["caption"]
	if !present || len(captions) == 0 {
		response.BadRequest(w, "caption is required")
		return
	}

	p, err := h.svc.Upload(r.Context(), id.ID, Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Caption:     captions[0],
		Body:        file,
	})
	if err != nil {
		response.InternalErrorMessage(w, err.Error())
		return
	}

	response.JSON(w, http.StatusCreated, p)
}

// Feed godoc
//
//	@Summary		List feed
//	@Description	All posts newest first, each with the author's email and whether the caller owns it.
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	feedResponse
//	@Failure		401	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/feed [get]
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	views, err := h.svc.Feed(r.Context(), id.ID)
	if err != nil {
		log.Error().Err(err).Msg("feed failed")
		response.InternalError(w)
		return
	}

	response.JSON(w, http.StatusOK, feedResponse{Posts: views})
}

// Delete godoc
//
//	@Summary		Delete a post
//	@Description	Only the owner may delete a post.
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			postID	path		string	true	"Post UUID"
//	@Success		200		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/posts/{postID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	err := h.svc.Delete(r.Context(), id.ID, chi.URLParam(r, "postID"))
	switch {
	case err == nil:
		response.Success(w, "Post deleted successfully")
	case errors.Is(err, ErrInvalidID):
		// Unparsable ids share the 500 answer of other failures; no row is touched.
		response.InternalErrorMessage(w, "invalid post id")
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "Post not found")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Not authorized to delete this post")
	default:
		log.Error().Err(err).Msg("delete failed")
		response.InternalErrorMessage(w, "error deleting post")
	}
}
