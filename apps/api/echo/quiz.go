package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/moringapair/backend/core/quiz"
	"github.com/moringapair/backend/core/user"
)

type quizApi struct {
	svc      quiz.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := quizApi{
		svc:      deps.QuizSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}
	mentor := mentorMiddleware()

	qg := g.Group("/quiz", jwt)
	qg.GET("", api.query)
	qg.POST("", api.create, mentor)

	dg := qg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, mentor)
	dg.DELETE("", api.destroy, mentor)

	dg.POST("/questions", api.addQuestion, mentor)
	dg.PUT("/questions/:question_id", api.updateQuestion, mentor)
	dg.DELETE("/questions/:question_id", api.deleteQuestion, mentor)

	dg.POST("/submit", api.submit, studentMiddleware())
	dg.GET("/results", api.queryResults, mentor)
	dg.GET("/answers", api.queryAnswers)

	g.GET("/student/results", api.queryStudentResults, jwt)
}

// Quizzes

func (api *quizApi) create(ctx echo.Context) error {
	var data quiz.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	qz, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *quizApi) query(ctx echo.Context) error {
	quizzes, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	if quizzes == nil {
		quizzes = []quiz.Quiz{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	qz, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting quiz")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsMentor { // students do not get to see the answers
		for i := range qz.Questions {
			qz.Questions[i].CorrectAnswer = ""
		}
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data quiz.UpdateQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuiz")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	qz, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Questions

func (api *quizApi) addQuestion(ctx echo.Context) error {
	quizID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data quiz.NewQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	qn, err := api.svc.AddQuestion(ctx.Request().Context(), quizID, data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusCreated, qn)
}

func (api *quizApi) updateQuestion(ctx echo.Context) error {
	quizID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "question_id")
	if err != nil {
		return err
	}

	var data quiz.UpdateQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	qn, err := api.svc.UpdateQuestion(ctx.Request().Context(), quizID, id, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, qn)
}

func (api *quizApi) deleteQuestion(ctx echo.Context) error {
	quizID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "question_id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteQuestion(ctx.Request().Context(), quizID, id); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Submissions

func (api *quizApi) submit(ctx echo.Context) error {
	quizID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data quiz.Submission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	answers, err := data.Parse()
	if err != nil {
		return err
	}

	res, err := api.svc.Submit(ctx.Request().Context(), quizID, usr.ID, answers)
	if err != nil {
		return errors.Wrap(err, "submitting answers")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *quizApi) queryResults(ctx echo.Context) error {
	quizID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	results, err := api.svc.QueryResults(ctx.Request().Context(), quizID)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	if results == nil {
		results = []quiz.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *quizApi) queryAnswers(ctx echo.Context) error {
	quizID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	answers, err := api.svc.QueryStudentAnswers(ctx.Request().Context(), usr.ID, quizID)
	if err != nil {
		return errors.Wrap(err, "querying answers")
	}
	if answers == nil {
		answers = []quiz.Answer{}
	}
	return ctx.JSON(http.StatusOK, answers)
}

func (api *quizApi) queryStudentResults(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	results, err := api.svc.QueryStudentResults(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying student results")
	}
	if results == nil {
		results = []quiz.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}
