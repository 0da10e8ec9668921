package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core/class"
	"github.com/hsuniversity/classroom/core/user"
)

type classApi struct {
	svc      *class.Service
	validate *validator.Validate
}

// registerClassAPI mounts the class endpoints on g, which must be behind the authentication gate.
func registerClassAPI(g *echo.Group, deps ServerDeps) {
	api := classApi{
		svc:      deps.ClassSvc,
		validate: deps.Validate,
	}
	adminOnly := requireRoles(deps.Logger, user.RoleAdmin)
	staffOnly := requireRoles(deps.Logger, user.RoleAdmin, user.RoleLecturer)
	studentOnly := requireRoles(deps.Logger, user.RoleStudent)

	g.POST("", api.create, staffOnly)
	g.GET("", api.query)
	g.GET("/enrolled", api.query, studentOnly)

	// detail endpoints
	g.GET("/:classId", api.retrieve)
	g.PUT("/:classId", api.update, staffOnly)
	g.DELETE("/:classId", api.destroy, adminOnly)

	// roster endpoints
	g.POST("/:classId/students", api.addStudent, staffOnly)
	g.GET("/:classId/students", api.listStudents)
	g.DELETE("/:classId/students/:studentId", api.removeStudent, staffOnly)
}

func (api *classApi) create(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var data class.NewClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), id.User, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Class created successfully", "classId": cls.ID})
}

func (api *classApi) query(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	classes, err := api.svc.Query(ctx.Request().Context(), id.User)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	cls, err := api.svc.Get(ctx.Request().Context(), id.User, ctx.Param("classId"))
	if err != nil {
		return errors.Wrap(err, "retrieving class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var data class.NewClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if _, err = api.svc.Update(ctx.Request().Context(), id.User, ctx.Param("classId"), data); err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Class updated successfully"})
}

func (api *classApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("classId")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Class and related students deleted successfully"})
}

func (api *classApi) addStudent(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var data class.NewRosterEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRosterEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.AddStudent(ctx.Request().Context(), id.User, ctx.Param("classId"), data)
	if err != nil {
		return errors.Wrap(err, "adding student")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Student added to class successfully", "student": entry})
}

func (api *classApi) listStudents(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.ListStudents(ctx.Request().Context(), id.User, ctx.Param("classId"))
	if err != nil {
		return errors.Wrap(err, "listing class students")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"students": students})
}

func (api *classApi) removeStudent(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	err = api.svc.RemoveStudent(ctx.Request().Context(), id.User, ctx.Param("classId"), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "removing student")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Student removed from class successfully"})
}
