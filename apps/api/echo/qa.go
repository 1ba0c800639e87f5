package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/keneanapp/kenean/core/qa"
	"github.com/keneanapp/kenean/core/user"
)

type questionApi struct {
	svc      qa.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerQuestionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc qa.Service,
	userSvc user.Service,
	validate *validator.Validate,
) {
	api := questionApi{svc: svc, userSvc: userSvc, validate: validate}

	staff := []echo.MiddlewareFunc{jwt, staffMiddleware()}
	optJWT := optionalJWT()

	qg := g.Group("/questions")
	qg.GET("", api.queryAnswered)
	qg.POST("", api.submit, jwt)
	qg.GET("/mine", api.queryMine, jwt)
	qg.GET("/all", api.queryAll, staff...)
	qg.GET("/pending-count", api.pendingCount, staff...)
	qg.GET("/:id", api.retrieve, optJWT)
	qg.DELETE("/:id", api.destroy, staff...)
	qg.POST("/:id/claim", api.claim, staff...)
	qg.POST("/:id/unclaim", api.unclaim, staff...)
	qg.POST("/:id/discuss", api.discuss, staff...)
	qg.POST("/:id/answer", api.answer, staff...)
	qg.GET("/:id/answer", api.retrieveAnswer)
	qg.GET("/:id/discussions", api.queryDiscussions, staff...)
	qg.POST("/:id/discussions", api.addDiscussion, staff...)

	ag := g.Group("/answers", staff...)
	ag.PUT("/:id", api.updateAnswer)
	ag.DELETE("/:id", api.destroyAnswer)
	ag.POST("/:id/attachments", api.addAttachment)
	ag.DELETE("/:id/attachments", api.removeAttachment)

	dg := g.Group("/discussions", staff...)
	dg.PUT("/:id", api.updateDiscussion)
	dg.DELETE("/:id", api.destroyDiscussion)
}

// questionListQuery binds the list endpoints' query params.
type questionListQuery struct {
	Status   string `query:"status"`
	LessonID string `query:"lesson_id"`
	Limit    int    `query:"limit"`
	Offset   int    `query:"offset"`
}

func (q questionListQuery) filter() *qa.QuestionFilter {
	return &qa.QuestionFilter{
		Status:   qa.Status(q.Status),
		LessonID: q.LessonID,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
}

// actor resolves the authenticated user making the request.
func (api *questionApi) actor(ctx echo.Context) (user.User, error) {
	return getContextUser(ctx, api.userSvc)
}

// Handlers

func (api *questionApi) submit(ctx echo.Context) error {
	var data qa.SubmitQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	q, err := api.svc.Submit(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "submitting question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *questionApi) queryAnswered(ctx echo.Context) error {
	var query questionListQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding list query")
	}

	page, err := api.svc.QueryAnswered(ctx.Request().Context(), query.filter())
	if err != nil {
		return errors.Wrap(err, "querying answered questions")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *questionApi) queryMine(ctx echo.Context) error {
	var query questionListQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding list query")
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	page, err := api.svc.QueryMine(ctx.Request().Context(), actor, query.filter())
	if err != nil {
		return errors.Wrap(err, "querying own questions")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *questionApi) queryAll(ctx echo.Context) error {
	var query questionListQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding list query")
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	page, err := api.svc.QueryAll(ctx.Request().Context(), actor, query.filter())
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *questionApi) pendingCount(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	count, err := api.svc.PendingCount(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "counting pending questions")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": count})
}

func (api *questionApi) retrieve(ctx echo.Context) error {
	// anonymous callers get the answered-only view
	var actor user.User
	if _, err := getContextClaims(ctx); err == nil {
		if actor, err = api.actor(ctx); err != nil {
			return errors.Wrap(err, "getting context user")
		}
	}

	q, err := api.svc.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *questionApi) destroy(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *questionApi) claim(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	q, err := api.svc.Claim(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "claiming question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *questionApi) unclaim(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	q, err := api.svc.Unclaim(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "unclaiming question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *questionApi) discuss(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	q, err := api.svc.StartDiscussing(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "moving question to discussion")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *questionApi) answer(ctx echo.Context) error {
	var data qa.SubmitAnswer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitAnswer")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ans, err := api.svc.Answer(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "answering question")
	}
	return ctx.JSON(http.StatusCreated, ans)
}

func (api *questionApi) retrieveAnswer(ctx echo.Context) error {
	ans, err := api.svc.GetAnswerByQuestion(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding answer")
	}
	return ctx.JSON(http.StatusOK, ans)
}

func (api *questionApi) queryDiscussions(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	discussions, err := api.svc.QueryDiscussions(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying discussions")
	}
	if discussions == nil {
		discussions = []qa.Discussion{}
	}
	return ctx.JSON(http.StatusOK, discussions)
}

func (api *questionApi) addDiscussion(ctx echo.Context) error {
	var data qa.AddDiscussion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddDiscussion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	disc, err := api.svc.Discuss(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding discussion comment")
	}
	return ctx.JSON(http.StatusCreated, disc)
}

func (api *questionApi) updateAnswer(ctx echo.Context) error {
	var data qa.AnswerPatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnswerPatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ans, err := api.svc.UpdateAnswer(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating answer")
	}
	return ctx.JSON(http.StatusOK, ans)
}

func (api *questionApi) destroyAnswer(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.DeleteAnswer(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting answer")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *questionApi) addAttachment(ctx echo.Context) error {
	var data qa.AddAttachment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddAttachment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ans, err := api.svc.AddAttachment(ctx.Request().Context(), actor, ctx.Param("id"), data.URL)
	if err != nil {
		return errors.Wrap(err, "adding attachment")
	}
	return ctx.JSON(http.StatusOK, ans)
}

func (api *questionApi) removeAttachment(ctx echo.Context) error {
	var data qa.AddAttachment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddAttachment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ans, err := api.svc.RemoveAttachment(ctx.Request().Context(), actor, ctx.Param("id"), data.URL)
	if err != nil {
		return errors.Wrap(err, "removing attachment")
	}
	return ctx.JSON(http.StatusOK, ans)
}

func (api *questionApi) updateDiscussion(ctx echo.Context) error {
	var data qa.AddDiscussion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddDiscussion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	disc, err := api.svc.UpdateDiscussion(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating discussion comment")
	}
	return ctx.JSON(http.StatusOK, disc)
}

func (api *questionApi) destroyDiscussion(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.DeleteDiscussion(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting discussion comment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
