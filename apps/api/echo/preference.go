package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/moringapair/backend/core/preference"
	"github.com/moringapair/backend/core/user"
)

type preferenceApi struct {
	svc      preference.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerPreferenceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := preferenceApi{
		svc:      deps.PrefSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	pg := g.Group("/learning-preferences", jwt)
	pg.POST("", api.save)

	dg := pg.Group("/:user_id", ctxUserOrMentorMiddleware(api.userSvc, "user_id"))
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
}

// save upserts the preferences of the context user.
func (api *preferenceApi) save(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data preference.SavePreference
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SavePreference")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	pref, created, err := api.svc.Save(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving preferences")
	}
	if created {
		return ctx.JSON(http.StatusCreated, pref)
	}
	return ctx.JSON(http.StatusOK, pref)
}

func (api *preferenceApi) retrieve(ctx echo.Context) error {
	usr, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	pref, err := api.svc.Get(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting preferences")
	}
	return ctx.JSON(http.StatusOK, pref)
}

func (api *preferenceApi) destroy(ctx echo.Context) error {
	usr, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting preferences")
	}
	return ctx.NoContent(http.StatusNoContent)
}
