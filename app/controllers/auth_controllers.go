package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/rincon/app/repositories"
	"github.com/shashiranjanraj/rincon/app/services"
	"github.com/shashiranjanraj/rincon/pkg/auth"
	appctx "github.com/shashiranjanraj/rincon/pkg/ctx"
	"github.com/shashiranjanraj/rincon/pkg/event"
	"github.com/shashiranjanraj/rincon/pkg/logger"
	"github.com/shashiranjanraj/rincon/pkg/middleware"
)

const usersResource = "usuarios"

var userLabels = Masculine("Usuario")

type AuthController struct {
	service *services.AuthService
	events  Notifier
}

func NewAuthController(service *services.AuthService, events Notifier) *AuthController {
	return &AuthController{service: service, events: events}
}

type loginInput struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenBody struct {
	Token string `json:"token"`
}

// Register is POST /registro.
func (ac *AuthController) Register(c *appctx.Context) {
	var in services.UserInput
	if !c.BindJSON(&in) {
		return
	}
	id, err := ac.service.Register(c.Context(), in, caller(c))
	if err != nil {
		ac.fail(c, err)
		return
	}
	ac.notify(event.Created, id)
	c.Created(id)
}

// Login is POST /login.
func (ac *AuthController) Login(c *appctx.Context) {
	var in loginInput
	if !c.BindJSON(&in) {
		return
	}
	token, err := ac.service.Login(c.Context(), in.Email, in.Password)
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.Success(tokenBody{Token: token})
}

func (ac *AuthController) Index(c *appctx.Context) {
	users, err := ac.service.List(c.Context())
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.Success(users)
}

func (ac *AuthController) Show(c *appctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound(userLabels.NotFound)
		return
	}
	user, err := ac.service.Find(c.Context(), id)
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.Success(user)
}

// Update is PUT /usuarios/{id}.
func (ac *AuthController) Update(c *appctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound(userLabels.NotFound)
		return
	}
	var in services.UserInput
	if !c.BindJSON(&in) {
		return
	}
	if err := ac.service.Update(c.Context(), id, in, caller(c)); err != nil {
		ac.fail(c, err)
		return
	}
	ac.notify(event.Updated, id)
	c.Message(userLabels.Updated)
}

// Destroy is DELETE /usuarios/{id}.
func (ac *AuthController) Destroy(c *appctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound(userLabels.NotFound)
		return
	}
	if err := ac.service.Delete(c.Context(), id); err != nil {
		ac.fail(c, err)
		return
	}
	ac.notify(event.Deleted, id)
	c.Message(userLabels.Deleted)
}

func (ac *AuthController) notify(action string, id uint) {
	if ac.events != nil {
		ac.events.FireAsync(event.Change(usersResource, action, id))
	}
}

func (ac *AuthController) fail(c *appctx.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrWrongPassword):
		c.Unauthorized(err.Error())
	case errors.Is(err, services.ErrAdminRequired):
		c.Forbidden(err.Error())
	case errors.Is(err, repositories.ErrNotFound):
		c.NotFound(userLabels.NotFound)
	default:
		logger.WithCtx(c.Context()).Error("auth: request failed", "error", err)
		c.Error(http.StatusInternalServerError, err.Error())
	}
}

func caller(c *appctx.Context) *auth.Claims {
	claims, _ := middleware.ClaimsFromCtx(c.R)
	return claims
}
