package auth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/imagefeed/service/internal/response"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type credentialsRequest struct {
	Email    string `json:"email"    example:"jane@example.com"`
	Password string `json:"password" example:"correct-horse"`
}

type loginData struct {
	AccessToken string `json:"access_token" example:"eyJhbGci..."`
	TokenType   string `json:"token_type"   example:"bearer"`
}

type registerData struct {
	Token string      `json:"token" example:"eyJhbGci..."`
	User  interface{} `json:"user"`
}

// Register godoc
//
//	@Summary		Register new user
//	@Description	Create an account from an email and a password of at least 8 characters. Issues a JWT token on success.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credentialsRequest	true	"Email and password"
//	@Success		201		{object}	response.Envelope{data=registerData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	token, u, err := h.svc.Register(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrInvalidEmail):
		response.BadRequest(w, "invalid email address")
		return
	case errors.Is(err, ErrWeakPassword):
		response.BadRequest(w, "password must be at least 8 characters")
		return
	case errors.Is(err, ErrEmailTaken):
		response.Conflict(w, "REGISTER_USER_ALREADY_EXISTS")
		return
	case err != nil:
		log.Error().Err(err).Msg("register failed")
		response.InternalError(w)
		return
	}

	response.Created(w, registerData{Token: token, User: u})
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Exchange credentials for a bearer token. Accepts a JSON body or an OAuth2 password form (username, password).
//	@Tags			auth
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		credentialsRequest	true	"Email and password"
//	@Success		200		{object}	response.Envelope{data=loginData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/jwt/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		response.BadRequest(w, "LOGIN_BAD_CREDENTIALS")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("login failed")
		response.InternalError(w)
		return
	}

	response.OK(w, loginData{AccessToken: token, TokenType: "bearer"})
}

func decodeCredentials(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Email = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		return req, nil
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}
