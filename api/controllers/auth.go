package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/teahouse-backend/api/responses"
	"github.com/angelmondragon/teahouse-backend/api/validators"
	userssvc "github.com/angelmondragon/teahouse-backend/internal/users"
	"github.com/angelmondragon/teahouse-backend/pkg/auth"
	"github.com/angelmondragon/teahouse-backend/pkg/config"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account and immediately issues a session token.
func Register(svc userssvc.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), userssvc.RegisterInput{
			Email:    payload.Email,
			Name:     payload.Name,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := auth.MintSessionToken(jwtCfg, time.Now().UTC(), user.Email, user.Name, user.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{Token: token, User: user})
	}
}

func Login(svc userssvc.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Authenticate(r.Context(), payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := auth.MintSessionToken(jwtCfg, time.Now().UTC(), user.Email, user.Name, user.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponse{Token: token, User: user})
	}
}
