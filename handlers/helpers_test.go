// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/testutil"
)

var (
	testAdmin   = testutil.Identity("admin-1", auth.RoleAdmin)
	testStudent = testutil.Identity("student-1", auth.RoleStudent)
)

// serve runs h behind WithIdentity, as the router does, with id's bearer
// token on the request. The zero Identity sends no token.
func serve(t *testing.T, h http.HandlerFunc, req *http.Request, id auth.Identity) *httptest.ResponseRecorder {
	t.Helper()

	if !id.IsZero() {
		for k, v := range testutil.BearerHeader(t, id) {
			req.Header.Set(k, v)
		}
	}

	w := httptest.NewRecorder()
	middleware.WithIdentity(testutil.GetTestConfig().TokenSecret, h)(w, req)
	return w
}

func startBody(title string) models.StartElectionRequest {
	now := time.Now()
	return models.StartElectionRequest{
		Title:       title,
		Description: "Student Development Council",
		StartTime:   now.Add(-time.Minute),
		EndTime:     now.Add(24 * time.Hour),
	}
}
