package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/moringapair/backend/core/feedback"
	"github.com/moringapair/backend/core/user"
)

type feedbackApi struct {
	svc      feedback.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerFeedbackAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := feedbackApi{
		svc:      deps.FeedbackSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	fg := g.Group("/feedback", jwt)
	fg.POST("", api.submit, studentMiddleware())
	fg.GET("", api.query, mentorMiddleware())
	fg.GET("/mine", api.queryMine)
}

func (api *feedbackApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data feedback.NewFeedback
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	fb, err := api.svc.Submit(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting feedback")
	}
	return ctx.JSON(http.StatusCreated, fb)
}

func (api *feedbackApi) query(ctx echo.Context) error {
	week, err := intQueryParam(ctx, "week")
	if err != nil {
		return err
	}
	return api.respond(ctx, feedback.QueryFilter{Week: week})
}

func (api *feedbackApi) queryMine(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return api.respond(ctx, feedback.QueryFilter{StudentID: usr.ID})
}

func (api *feedbackApi) respond(ctx echo.Context, filter feedback.QueryFilter) error {
	fbs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	if fbs == nil {
		fbs = []feedback.Feedback{}
	}
	return ctx.JSON(http.StatusOK, fbs)
}
