// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/testutil"
)

func createSailing(t *testing.T, app *testApp) store.Sailing {
	t.Helper()
	sl, err := store.New(app.db).CreateSailing(context.Background(), store.CreateSailingParams{
		StartDate: "2026-06-01",
		EndDate:   "2026-06-03",
		Crew:      "Lag 1",
	})
	if err != nil {
		t.Fatalf("CreateSailing: %v", err)
	}
	return sl
}

func TestFlexID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"id": 12}`, "12"},
		{`{"id": "12"}`, "12"},
		{`{"id": ""}`, ""},
		{`{"id": null}`, ""},
		{`{}`, ""},
	}
	for _, tt := range tests {
		var v struct {
			ID flexID `json:"id"`
		}
		if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if v.ID.String() != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, v.ID, tt.want)
		}
	}

	var v struct {
		ID flexID `json:"id"`
	}
	if err := json.Unmarshal([]byte(`{"id": [1]}`), &v); err == nil {
		t.Error("array id should be rejected")
	}
}

func TestSailingsCreate(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)

	rec := app.serve(postForm(RouteSailings+RouteSuffixNew, url.Values{
		"csrf_token": {app.token(t)},
		"startdatum": {"2026-07-01"},
		"slutdatum":  {"2026-07-05"},
		"skeppslag":  {"Sommarlaget"},
	}))

	if rec.Code != http.StatusSeeOther || !strings.HasPrefix(rec.Header().Get("Location"), RouteSailings+"/") {
		t.Fatalf("status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	if f := app.flash(t); f.Message != "Sommarlaget skapad" {
		t.Errorf("flash = %+v", f)
	}
}

func TestSailingsCreate_EndBeforeStart(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)

	rec := app.serve(postForm(RouteSailings+RouteSuffixNew, url.Values{
		"csrf_token": {app.token(t)},
		"startdatum": {"2026-07-05"},
		"slutdatum":  {"2026-07-01"},
		"skeppslag":  {"Baklänges"},
	}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Slutdatum får inte vara före startdatum.") {
		t.Error("end date error missing")
	}
}

func TestSailingsSave(t *testing.T) {
	tests := []struct {
		name      string
		withToken bool
		wantCode  int
	}{
		{"valid token saves", true, http.StatusSeeOther},
		{"missing token is forbidden", false, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.admin(t)
			sl := createSailing(t, app)

			values := url.Values{
				"id":         {fmt.Sprint(sl.ID)},
				"startdatum": {"2026-06-01"},
				"slutdatum":  {"2026-06-04"},
				"skeppslag":  {"Lag 2"},
			}
			if tt.withToken {
				values.Set("csrf_token", app.token(t))
			}
			req := postForm(RouteSailingsSave, values)
			req.Header.Set("X-Requested-With", "XMLHttpRequest")
			rec := app.serve(req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			got, err := store.New(app.db).GetSailing(context.Background(), sl.ID)
			if err != nil {
				t.Fatal(err)
			}
			saved := got.Crew == "Lag 2"
			if saved != tt.withToken {
				t.Errorf("crew = %q, saved = %v", got.Crew, saved)
			}
		})
	}
}

func TestSailingsParticipants(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)
	sl := createSailing(t, app)
	m := testutil.CreateMember(t, app.db, "Karin", "Segel")

	// Ids as strings, the way a form serializer sends them.
	add := map[string]any{
		"segling_id":     fmt.Sprint(sl.ID),
		"segling_person": fmt.Sprint(m.ID),
		"segling_roll":   "",
	}
	rec := app.serve(postJSON(RouteSailingsMember, app.token(t), add))
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.serve(postJSON(RouteSailingsMember, app.token(t), add))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "Medlemmen är redan tillagd på seglingen." {
		t.Errorf("message = %v", body["message"])
	}

	// Numbers work too.
	rec = app.serve(postJSON(RouteSailingsMemDel, app.token(t), map[string]any{
		"segling_id": sl.ID,
		"medlem_id":  m.ID,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d: %s", rec.Code, rec.Body.String())
	}
	ok, err := store.New(app.db).HasParticipant(context.Background(), sl.ID, m.ID)
	if err != nil || ok {
		t.Errorf("participant still present: %v %v", ok, err)
	}
}

func TestSailingsParticipants_BadID(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)

	rec := app.serve(postJSON(RouteSailingsMember, app.token(t), map[string]any{
		"segling_id": "abc", "segling_person": 1,
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSailingsEdit(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)
	sl := createSailing(t, app)

	rec := app.serve(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/segling/%d", sl.ID), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Lag 1") {
		t.Error("crew missing from edit page")
	}
}

func TestSailingsDelete(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)
	sl := createSailing(t, app)

	rec := app.serve(postJSON(fmt.Sprintf("/segling/delete/%d", sl.ID), app.token(t), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if f, ok := app.sess.PopFlash(context.Background()); ok {
		t.Errorf("JSON endpoint set a flash: %+v", f)
	}
}
