package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/darasahq/shule/core"
	"github.com/darasahq/shule/core/session"
	"github.com/darasahq/shule/services/api"
	logsvc "github.com/darasahq/shule/services/logger"
	"github.com/darasahq/shule/storage/inmem"
)

var store *inmem.Store

// setup wires the full stack (API client + session context) against a fake
// backend and an in-memory store.
func setup(t *testing.T) *app {
	e := echo.New()
	e.POST("/auth/login", func(c echo.Context) error {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			TenantID string `json:"tenant_id"`
		}
		if err := c.Bind(&req); err != nil {
			return err
		}
		if req.Password != "good" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
		}
		if req.Email == "multi@test.cd" && req.TenantID == "" {
			return c.JSON(http.StatusOK, echo.Map{
				"requires_tenant_choice": true,
				"tenants": []echo.Map{
					{"id": "s1", "name": "North Campus"},
					{"id": "s2", "name": "South Campus"},
				},
			})
		}
		tid := req.TenantID
		if tid == "" {
			tid = "s1"
		}
		return c.JSON(http.StatusOK, echo.Map{
			"access_token":     "at-1",
			"refresh_token":    "rt-1",
			"user":             echo.Map{"id": "u1", "email": req.Email, "name": "Awe"},
			"permissions":      []string{"attendance.manage", "student.read"},
			"enabled_features": []string{"attendance"},
			"tenant_id":        tid,
		})
	})
	e.GET("/auth/enabled-features", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"enabled_features": []string{"attendance"}})
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	cfg := &core.Config{Env: "TEST", TestMode: true, FeatureRefreshThrottle: time.Minute}
	cfg.API.BaseURL = srv.URL
	cfg.API.Timeout = 5 * time.Second

	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	store = inmem.NewStore()
	client := api.NewClient(cfg, logger)
	sess := session.NewContext(cfg, store, client, logger)
	client.BindCredentials(sess)
	if err := sess.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	return &app{cfg: cfg, log: logger, client: client, sess: sess}
}

type cliTest struct {
	name       string
	args       []string // without program name
	stdin      string
	wantErrStr string
	wantOut    []string // substrings the output must contain
	extra      interface{}
}

func execute(t *testing.T, a *app, tt cliTest) string {
	t.Helper()
	var out strings.Builder
	root := a.rootCmd()
	root.SetArgs(tt.args)
	root.SetIn(strings.NewReader(tt.stdin))
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()
	if tt.wantErrStr != "" {
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("Execute() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	} else if err != nil {
		t.Errorf("Execute() unexpected error = %v", err)
	}
	for _, want := range tt.wantOut {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	return out.String()
}

func login(t *testing.T, a *app, email string) {
	t.Helper()
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("good"), nil }
	execute(t, a, cliTest{args: []string{"login", "--email", email}})
	if !a.sess.IsAuthenticated() {
		t.Fatal("login failed to authenticate the session")
	}
}

func Test_cli_login(t *testing.T) {
	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no email flag", args: []string{"login"}, wantErrStr: `required flag(s) "email" not set`},
		{name: "wrong password", args: []string{"login", "--email", "awe@test.cd"},
			extra: extra{pwd: "bad"}, wantErrStr: "Invalid email or password"},
		{name: "login", args: []string{"login", "--email", "awe@test.cd"},
			extra: extra{pwd: "good"}, wantOut: []string{"Signed in as awe@test.cd"}},
		{name: "login uppercase email is cleaned", args: []string{"login", "--email", "AWE@Test.cd"},
			extra: extra{pwd: "good"}, wantOut: []string{"Signed in as awe@test.cd"}},
		{name: "tenant choice", args: []string{"login", "--email", "multi@test.cd"}, stdin: "2\n",
			extra: extra{pwd: "good"},
			wantOut: []string{
				"[1] North Campus (s1)",
				"[2] South Campus (s2)",
				"Signed in as multi@test.cd",
			}},
		{name: "tenant choice retries on junk", args: []string{"login", "--email", "multi@test.cd"},
			stdin: "9\n1\n", extra: extra{pwd: "good"},
			wantOut: []string{"not a valid choice", "Signed in as multi@test.cd"}},
	}
	for _, tt := range tests {
		a := setup(t)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			execute(t, a, tt)
		})
	}
}

func Test_cli_whoami(t *testing.T) {
	a := setup(t)
	execute(t, a, cliTest{args: []string{"whoami"}, wantOut: []string{"Not signed in"}})

	login(t, a, "awe@test.cd")
	execute(t, a, cliTest{args: []string{"whoami"}, wantOut: []string{
		"Awe <awe@test.cd>",
		"School: s1",
		"Grants: 2 permissions",
	}})
}

func Test_cli_can(t *testing.T) {
	a := setup(t)
	execute(t, a, cliTest{
		args:    []string{"can", "attendance.read"},
		wantOut: []string{"attendance.read: denied"},
	})

	login(t, a, "awe@test.cd")
	tests := []cliTest{
		{name: "no args", args: []string{"can"}, wantErrStr: "requires at least 1 arg(s), only received 0"},
		{name: "literal grant", args: []string{"can", "student.read"}, wantOut: []string{"student.read: allowed"}},
		{name: "resource manage implies action", args: []string{"can", "attendance.read"},
			wantOut: []string{"attendance.read: allowed"}},
		{name: "not granted", args: []string{"can", "user.create"}, wantOut: []string{"user.create: denied"}},
		{name: "several at once", args: []string{"can", "student.read", "fee.manage"},
			wantOut: []string{"student.read: allowed", "fee.manage: denied"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execute(t, a, tt)
		})
	}
}

func Test_cli_features(t *testing.T) {
	a := setup(t)
	login(t, a, "awe@test.cd")

	out := execute(t, a, cliTest{args: []string{"features"}, wantOut: []string{"[x] attendance"}})
	if strings.Contains(out, "[x] transport") {
		t.Error("transport is not in the plan and must not be marked enabled")
	}
}

func Test_cli_logout(t *testing.T) {
	a := setup(t)
	login(t, a, "awe@test.cd")
	if store.Len() == 0 {
		t.Fatal("login left nothing in the store")
	}

	execute(t, a, cliTest{args: []string{"logout"}, wantOut: []string{"Signed out"}})
	if store.Len() != 0 {
		t.Errorf("store still holds %d keys after logout", store.Len())
	}
	execute(t, a, cliTest{args: []string{"whoami"}, wantOut: []string{"Not signed in"}})

	// signing out twice is fine
	execute(t, a, cliTest{args: []string{"logout"}, wantOut: []string{"Signed out"}})
}
