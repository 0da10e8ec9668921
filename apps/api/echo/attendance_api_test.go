package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsuniversity/classroom/core/attendance"
	"github.com/hsuniversity/classroom/core/user"
)

func TestAttendanceAPI(t *testing.T) {
	env := setup(t)
	lect := env.createUser(t, "Lect", "lect@hsu.cd", user.RoleLecturer)
	other := env.createUser(t, "Other", "other@hsu.cd", user.RoleLecturer)
	ada := env.createUser(t, "Ada", "ada@hsu.cd", user.RoleStudent)
	bob := env.createUser(t, "Bob", "bob@hsu.cd", user.RoleStudent)
	cleo := env.createUser(t, "Cleo", "cleo@hsu.cd", user.RoleStudent)
	cls := env.createClass(t, lect, "Algebra", ada, bob)
	path := "/api/attendance/" + cls.ID
	lectToken := env.getToken(t, lect)

	newRecord := func(date string, statuses ...attendance.StudentStatus) []byte {
		return marchallObj(t, attendance.NewRecord{Date: date, Students: statuses})
	}
	present := func(usr user.User) attendance.StudentStatus {
		return attendance.StudentStatus{StudentID: usr.ID, Status: attendance.StatusPresent}
	}

	runHTTPTests(t, env, []httpTest{
		{
			name:     "student may not record",
			method:   http.MethodPost,
			path:     path,
			body:     newRecord("2024-03-01", present(ada)),
			token:    env.getToken(t, ada),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: "Permission denied"}),
		},
		{
			name:     "another lecturer may not record",
			method:   http.MethodPost,
			path:     path,
			body:     newRecord("2024-03-01", present(ada)),
			token:    env.getToken(t, other),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: "Permission denied"}),
		},
		{
			name:     "bad date",
			method:   http.MethodPost,
			path:     path,
			body:     newRecord("01/03/2024", present(ada)),
			token:    lectToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errorResponse{
				Message: "date must be a date formatted as YYYY-MM-DD",
				Errors:  map[string]string{"date": "date must be a date formatted as YYYY-MM-DD"},
			}),
		},
		{
			name:     "bad status",
			method:   http.MethodPost,
			path:     path,
			body:     newRecord("2024-03-01", attendance.StudentStatus{StudentID: ada.ID, Status: "asleep"}),
			token:    lectToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errorResponse{
				Message: "status must be one of present, absent, late or excused",
				Errors:  map[string]string{"status": "status must be one of present, absent, late or excused"},
			}),
		},
		{
			name:     "student outside the class",
			method:   http.MethodPost,
			path:     path,
			body:     newRecord("2024-03-01", present(ada), present(cleo)),
			token:    lectToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errorResponse{Message: "Invalid student IDs", InvalidIDs: []string{cleo.ID}}),
		},
		{
			name:     "unknown class",
			method:   http.MethodPost,
			path:     "/api/attendance/nope",
			body:     newRecord("2024-03-01", present(ada)),
			token:    lectToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: "Class not found"}),
		},
	})

	create := func(t *testing.T, body []byte) string {
		req, rec := newAuthRequest(http.MethodPost, path, lectToken, body)
		env.serve(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var res struct {
			Message      string `json:"message"`
			AttendanceID string `json:"attendanceId"`
		}
		unmarchall(t, rec, &res)
		assert.Equal(t, "Attendance created successfully", res.Message)
		return res.AttendanceID
	}

	first := create(t, newRecord("2024-03-01", present(ada), attendance.StudentStatus{StudentID: bob.ID, Status: attendance.StatusAbsent}))
	second := create(t, newRecord("2024-03-08", present(bob)))

	t.Run("staff see every record, latest first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, lectToken)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var recs []attendance.Record
		unmarchall(t, rec, &recs)
		require.Len(t, recs, 2)
		assert.Equal(t, second, recs[0].ID)
		assert.Equal(t, first, recs[1].ID)
		assert.Equal(t, lect.ID, recs[1].CreatedBy)
		assert.Len(t, recs[1].Students, 2)
	})

	t.Run("students see their own entries only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, env.getToken(t, ada))
		env.serve(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallList(t, attendance.StudentView{ID: first, Date: "2024-03-01", Status: attendance.StatusPresent}),
		}, rec)
	})

	runHTTPTests(t, env, []httpTest{
		{
			name:     "outsider may not read",
			method:   http.MethodGet,
			path:     path,
			token:    env.getToken(t, cleo),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: "Permission denied"}),
		},
		{
			name:     "another lecturer may not read",
			method:   http.MethodGet,
			path:     path,
			token:    env.getToken(t, other),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: "Permission denied"}),
		},
		{
			name:     "update unknown record",
			method:   http.MethodPut,
			path:     "/api/attendance/nope",
			body:     marchallObj(t, attendance.UpdateRecord{Students: []attendance.StudentStatus{present(ada)}}),
			token:    lectToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: "Attendance record not found"}),
		},
		{
			name:     "update by another lecturer",
			method:   http.MethodPut,
			path:     "/api/attendance/" + first,
			body:     marchallObj(t, attendance.UpdateRecord{Students: []attendance.StudentStatus{present(ada)}}),
			token:    env.getToken(t, other),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: "Permission denied"}),
		},
		{
			name:   "update",
			method: http.MethodPut,
			path:   "/api/attendance/" + first,
			body: marchallObj(t, attendance.UpdateRecord{Students: []attendance.StudentStatus{
				{StudentID: ada.ID, Status: attendance.StatusLate, Note: "bus strike"},
			}}),
			token:    lectToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, httpErr{Message: "Attendance updated successfully"}),
		},
	})

	req, rec := newAuthRequest(http.MethodGet, path, env.getToken(t, ada))
	env.serve(req, rec)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallList(t, attendance.StudentView{ID: first, Date: "2024-03-01", Status: attendance.StatusLate, Note: "bus strike"}),
	}, rec)
}
