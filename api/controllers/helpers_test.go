package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arnaszs/servizas/api/middleware"
	"github.com/arnaszs/servizas/pkg/enums"
	"github.com/arnaszs/servizas/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

type requestOpts struct {
	body     string
	params   map[string]string
	clientID *uuid.UUID
	staff    bool
}

func serve(t *testing.T, h http.HandlerFunc, method, target string, opts requestOpts) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if opts.body != "" {
		body = strings.NewReader(opts.body)
	}
	req := httptest.NewRequest(method, target, body)

	routeCtx := chi.NewRouteContext()
	for k, v := range opts.params {
		routeCtx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	if opts.staff {
		ctx = middleware.WithRole(ctx, enums.ActorRoleStaff)
	} else if opts.clientID != nil {
		ctx = middleware.WithRole(ctx, enums.ActorRoleClient)
		ctx = middleware.WithClientID(ctx, *opts.clientID)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d got %d: %s", want, rec.Code, rec.Body.String())
	}
}
