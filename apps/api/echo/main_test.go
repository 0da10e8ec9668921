package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/attendance"
	"github.com/hsuniversity/classroom/core/auth"
	"github.com/hsuniversity/classroom/core/class"
	"github.com/hsuniversity/classroom/core/grade"
	"github.com/hsuniversity/classroom/core/user"
	emailsvc "github.com/hsuniversity/classroom/services/email"
	federatedsvc "github.com/hsuniversity/classroom/services/federated"
	metricsvc "github.com/hsuniversity/classroom/services/metrics"
	inmemdb "github.com/hsuniversity/classroom/storage/database/inmem"
	testutil "github.com/hsuniversity/classroom/tests"
)

const testPassword = "Pa55word!"

func TestMain(m *testing.M) {
	core.ParseEmailTemplates(testutil.NewLogger(core.NewTestConfig()))
	os.Exit(m.Run())
}

type testEnv struct {
	conf      *core.Config
	logger    core.Logger
	deps      ServerDeps
	app       *Server
	usrRepo   user.Repository
	classRepo class.Repository
	usrSvc    *user.Service
	classSvc  *class.Service
	mailSvc   *emailsvc.ConsoleServiceMock
	tokens    *auth.TokenManager
	google    federatedsvc.StaticVerifier
}

// setup wires a fresh server on top of an empty in-memory database.
func setup(t *testing.T, confOpts ...func(conf *core.Config)) *testEnv {
	t.Helper()
	conf := core.NewTestConfig()
	for _, opt := range confOpts {
		opt(conf)
	}
	logger := testutil.NewLogger(conf)

	db := inmemdb.Open()
	env := &testEnv{
		conf:      conf,
		logger:    logger,
		usrRepo:   inmemdb.NewUserRepository(db),
		classRepo: inmemdb.NewClassRepository(db),
		mailSvc:   emailsvc.NewConsoleServiceMock(conf, logger),
		tokens:    auth.NewTokenManager(conf.SecretKey, conf.Auth.Issuer, conf.Auth.TokenTTL),
		google:    federatedsvc.StaticVerifier{},
	}
	env.usrSvc = user.NewService(env.usrRepo, env.mailSvc, conf)
	env.classSvc = class.NewService(env.classRepo, env.usrSvc)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	class.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)

	registry := prometheus.NewRegistry()
	env.deps = ServerDeps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       env.usrSvc,
		ClassSvc:      env.classSvc,
		AttendanceSvc: attendance.NewService(inmemdb.NewAttendanceRepository(db), env.classSvc),
		GradeSvc:      grade.NewService(inmemdb.NewGradeRepository(db), env.classSvc),
		Tokens:        env.tokens,
		Federated:     env.google,
		Metrics:       metricsvc.NewCollector(registry),
		Gatherer:      registry,
		Validate:      validate,
		Translator:    translator,
	}
	env.app = NewServer(env.deps)
	return env
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (env *testEnv) createUser(t *testing.T, name, email string, role user.Role) user.User {
	return testutil.CreateUser(t, env.usrRepo, name, email, testPassword, role, true)
}

func (env *testEnv) createClass(t *testing.T, lecturer user.User, name string, students ...user.User) class.Class {
	t.Helper()
	ctx := context.Background()
	cls, err := env.classSvc.Create(ctx, lecturer, class.NewClass{Name: name})
	require.NoError(t, err)
	if len(students) > 0 {
		ids := make([]string, 0, len(students))
		for _, s := range students {
			ids = append(ids, s.ID)
		}
		require.NoError(t, env.classSvc.EnrollStudents(ctx, lecturer, cls.ID, ids))
	}
	cls, err = env.classRepo.GetClassByID(ctx, cls.ID)
	require.NoError(t, err)
	return cls
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := env.tokens.Issue(usr)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func (env *testEnv) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	env.app.ServeHTTP(rec, req)
}

type httpErr struct {
	Message string `json:"message"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarchall(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, env *testEnv, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestHome(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	env.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to HSU Classroom API!", rec.Body.String())

	runHTTPTests(t, env, []httpTest{
		{
			name:     "api test",
			method:   http.MethodGet,
			path:     "/api-test",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, httpErr{Message: "API is working"}),
		},
		{
			name:     "unknown route",
			method:   http.MethodGet,
			path:     "/api/nope",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: "Not Found"}),
		},
	})
}
