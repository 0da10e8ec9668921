package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/class"
	"github.com/hsuniversity/classroom/core/user"
)

type userApi struct {
	svc      user.ServiceInterface
	classSvc *class.Service
	validate *validator.Validate
}

// registerUserAPI mounts the user endpoints on g, which must be behind the authentication gate.
func registerUserAPI(g *echo.Group, deps ServerDeps) {
	api := userApi{
		svc:      deps.UserSvc,
		classSvc: deps.ClassSvc,
		validate: deps.Validate,
	}
	adminOnly := requireRoles(deps.Logger, user.RoleAdmin)
	staffOnly := requireRoles(deps.Logger, user.RoleAdmin, user.RoleLecturer)

	g.GET("", api.query, adminOnly)
	g.GET("/lecturers", api.listLecturers, adminOnly)
	g.GET("/students", api.listStudents, adminOnly)
	g.PUT("/:uid", api.update)
	g.DELETE("/:uid", api.destroy, adminOnly)
	g.POST("/class/:classId/students", api.enroll, staffOnly)
}

func (api *userApi) query(ctx echo.Context) error {
	var filter user.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	users, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) listByRole(ctx echo.Context, role user.Role) error {
	summaries, err := api.svc.ListByRole(ctx.Request().Context(), role)
	if err != nil {
		return errors.Wrapf(err, "listing %ss", role)
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *userApi) listLecturers(ctx echo.Context) error {
	return api.listByRole(ctx, user.RoleLecturer)
}

func (api *userApi) listStudents(ctx echo.Context) error {
	return api.listByRole(ctx, user.RoleStudent)
}

func (api *userApi) update(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	uid := ctx.Param("uid")
	if id.ID != uid && !id.IsAdmin() {
		return core.ErrPermissionDenied
	}

	reqCtx := ctx.Request().Context()
	usr, err := api.svc.GetByID(reqCtx, uid)
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if !id.IsAdmin() {
		// `Role` and `Active` can only be changed by admins
		data.Role = ""
		data.Active = nil
	}
	if err = data.Validate(reqCtx, usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.Update(reqCtx, usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "User updated successfully", "user": usr})
}

func (api *userApi) destroy(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), ctx.Param("uid"), id.User); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "User deleted successfully"})
}

func (api *userApi) enroll(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var data class.EnrollStudents
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollStudents")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.classSvc.EnrollStudents(ctx.Request().Context(), id.User, ctx.Param("classId"), data.StudentIDs); err != nil {
		return errors.Wrap(err, "enrolling students")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Students added successfully"})
}
