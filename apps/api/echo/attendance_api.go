package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core/attendance"
	"github.com/hsuniversity/classroom/core/user"
)

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

// registerAttendanceAPI mounts the attendance endpoints on g, which must be behind the authentication gate.
// `:id` is a class id on POST & GET, and an attendance record id on PUT.
func registerAttendanceAPI(g *echo.Group, deps ServerDeps) {
	api := attendanceApi{
		svc:      deps.AttendanceSvc,
		validate: deps.Validate,
	}
	staffOnly := requireRoles(deps.Logger, user.RoleAdmin, user.RoleLecturer)

	g.POST("/:id", api.create, staffOnly)
	g.GET("/:id", api.list)
	g.PUT("/:id", api.update, staffOnly)
}

func (api *attendanceApi) create(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var data attendance.NewRecord
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Create(ctx.Request().Context(), id.User, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating attendance record")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Attendance created successfully", "attendanceId": rec.ID})
}

func (api *attendanceApi) list(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	if id.IsStudent() {
		views, err := api.svc.ListForStudent(reqCtx, id.User, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "listing own attendance")
		}
		return ctx.JSON(http.StatusOK, views)
	}

	recs, err := api.svc.ListForClass(reqCtx, id.User, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing attendance")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	id, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var data attendance.UpdateRecord
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if _, err = api.svc.Update(ctx.Request().Context(), id.User, ctx.Param("id"), data); err != nil {
		return errors.Wrap(err, "updating attendance record")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Attendance updated successfully"})
}
