package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/moringapair/backend/core/pairing"
	"github.com/moringapair/backend/core/user"
)

type pairingApi struct {
	svc     pairing.ServiceInterface
	userSvc user.ServiceInterface
}

func registerPairingAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := pairingApi{
		svc:     deps.PairsSvc,
		userSvc: deps.UserSvc,
	}

	pg := g.Group("/pairs", jwt)
	pg.GET("", api.query)
	pg.POST("/generate", api.generate, mentorMiddleware())

	g.GET("/pairings/current", api.current, jwt)
}

type GenerateRequest struct {
	Seed *int64 `json:"seed"`
}

func (api *pairingApi) generate(ctx echo.Context) error {
	var data GenerateRequest
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to GenerateRequest")
		}
	}

	res, err := api.svc.GenerateNextWeek(ctx.Request().Context(), data.Seed)
	if err != nil {
		return errors.Wrap(err, "generating pairs")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *pairingApi) query(ctx echo.Context) error {
	week, err := intQueryParam(ctx, "week")
	if err != nil {
		return err
	}

	records, err := api.svc.List(ctx.Request().Context(), week)
	if err != nil {
		return errors.Wrap(err, "querying pairs")
	}
	if records == nil {
		records = []pairing.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *pairingApi) current(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cur, err := api.svc.Current(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting current pairing")
	}
	return ctx.JSON(http.StatusOK, cur)
}
