package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/api/validators"
	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	"github.com/angelmondragon/packfinderz-storefront/pkg/backend"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// SessionService is the session manager surface used by the handlers.
type SessionService interface {
	State() session.State
	Login(ctx context.Context, email, password, role string) (session.State, error)
	Register(ctx context.Context, input session.RegisterInput) (session.State, error)
	Logout(ctx context.Context) error
	UpdateUser(ctx context.Context, identity session.Identity) (session.State, error)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type registerRequest struct {
	Role      string `json:"role" validate:"required"`
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Phone     string `json:"phone,omitempty"`
	StoreName string `json:"storeName,omitempty"`
}

// updateUserRequest carries the editable profile fields. Id and role stay with the session.
type updateUserRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
	StoreID string `json:"storeId,omitempty"`
}

type logoutResponse struct {
	Status   enums.SessionStatus `json:"status"`
	Redirect string              `json:"redirect"`
}

func SessionGet(svc SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.State())
	}
}

func SessionLogin(svc SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.Login(r.Context(), req.Email, req.Password, req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

func SessionRegister(svc SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.Register(r.Context(), session.RegisterInput{
			Role: req.Role,
			Registration: backend.Registration{
				Name:      req.Name,
				Email:     req.Email,
				Password:  req.Password,
				Phone:     req.Phone,
				StoreName: req.StoreName,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, state)
	}
}

// SessionLogout always ends the session; slot cleanup failures are only logged.
func SessionLogout(svc SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Logout(r.Context()); err != nil && logg != nil {
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "logout cleanup incomplete")
		}
		responses.WriteSuccess(w, logoutResponse{
			Status:   enums.SessionStatusUnauthenticated,
			Redirect: session.LoginPath,
		})
	}
}

func SessionUpdateUser(svc SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.UpdateUser(r.Context(), session.Identity{
			Email:   req.Email,
			Name:    req.Name,
			Phone:   req.Phone,
			Avatar:  req.Avatar,
			StoreID: req.StoreID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}
