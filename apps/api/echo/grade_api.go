package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core/grade"
	"github.com/hsuniversity/classroom/core/user"
)

type gradeApi struct {
	svc      *grade.Service
	validate *validator.Validate
}

// registerGradeAPI mounts the grade endpoints on g, which must be behind the authentication gate.
func registerGradeAPI(g *echo.Group, deps ServerDeps) {
	api := gradeApi{
		svc:      deps.GradeSvc,
		validate: deps.Validate,
	}
	staffOnly := requireRoles(deps.Logger, user.RoleAdmin, user.RoleLecturer)

	g.POST("/:classId/student/:studentId", api.set, staffOnly)
	g.GET("/:classId/student/:studentId", api.retrieve)
	g.GET("/:classId", api.list, staffOnly)
}

func (api *gradeApi) set(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var data grade.SetGrades
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetGrades")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.Set(ctx.Request().Context(), id.User, ctx.Param("classId"), ctx.Param("studentId"), data)
	if err != nil {
		return errors.Wrap(err, "setting grades")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Grades updated successfully", "grade": g})
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	g, err := api.svc.Get(ctx.Request().Context(), id.User, ctx.Param("classId"), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "retrieving grades")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) list(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	grades, err := api.svc.ListForClass(ctx.Request().Context(), id.User, ctx.Param("classId"))
	if err != nil {
		return errors.Wrap(err, "listing grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}
