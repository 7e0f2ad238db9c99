package user

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/imagefeed/service/internal/middleware"
	"github.com/imagefeed/service/internal/response"
)

// Handler serves the account endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Profile is the public view of an account.
type Profile struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func profileOf(u *User) Profile {
	return Profile{
		ID:         u.ID.String(),
		Email:      u.Email,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// GetMe godoc
//
//	@Summary		Current account
//	@Description	Profile of the account the bearer token was issued to.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=Profile}
//	@Failure		401	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	u, err := h.svc.GetByID(r.Context(), id.ID)
	switch {
	case h.svc.IsNotFound(err):
		response.NotFound(w, "account not found")
	case err != nil:
		log.Error().Err(err).Str("user_id", id.ID.String()).Msg("load account failed")
		response.InternalError(w)
	case !u.IsActive:
		response.Forbidden(w, "account disabled")
	default:
		response.OK(w, profileOf(u))
	}
}
