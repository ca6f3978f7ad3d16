package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/guardian/guardian/internal/handler/dto"
	"github.com/guardian/guardian/internal/model"
	"github.com/guardian/guardian/internal/service"
)

type fakeChildren struct {
	children  []*model.ChildSummary
	err       error
	renamedID string
	newName   string
	unlinked  string
}

func (f *fakeChildren) ListChildren(ctx context.Context, caller *model.Caller) ([]*model.ChildSummary, error) {
	return f.children, f.err
}

func (f *fakeChildren) RenameChild(ctx context.Context, caller *model.Caller, childID, fullName string) error {
	f.renamedID, f.newName = childID, fullName
	return f.err
}

func (f *fakeChildren) UnlinkChild(ctx context.Context, caller *model.Caller, childID string) error {
	f.unlinked = childID
	return f.err
}

func childrenRouter(svc ChildrenManager) http.Handler {
	h := NewChildrenHandler(svc, discardLogger())
	r := chi.NewRouter()
	r.Get("/children", h.List)
	r.Patch("/children/{id}", h.Rename)
	r.Delete("/children/{id}", h.Unlink)
	return r
}

func TestChildrenHandler_List(t *testing.T) {
	lat, lng, battery := 51.5, -0.12, 80
	recorded := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &fakeChildren{children: []*model.ChildSummary{
		{ID: "c1", FullName: "Kid One", Latitude: &lat, Longitude: &lng, Battery: &battery, RecordedAt: &recorded},
		{ID: "c2", FullName: "Kid Two"},
	}}

	rec := httptest.NewRecorder()
	childrenRouter(svc).ServeHTTP(rec, withCaller(httptest.NewRequest(http.MethodGet, "/children", nil), "p1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.ListResponse[dto.ChildResponse]
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 children, got %d", len(resp.Data))
	}
	first := resp.Data[0]
	if first.LastLocation == nil || first.LastLocation.Latitude != lat || *first.LastLocation.BatteryLevel != 80 {
		t.Errorf("unexpected location: %+v", first.LastLocation)
	}
	if resp.Data[1].LastLocation != nil {
		t.Error("child without reports should have no location")
	}
}

func TestChildrenHandler_Rename(t *testing.T) {
	svc := &fakeChildren{}
	req := withCaller(httptest.NewRequest(http.MethodPatch, "/children/c1", strings.NewReader(`{"fullName":"New Name"}`)), "p1")
	rec := httptest.NewRecorder()
	childrenRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if svc.renamedID != "c1" || svc.newName != "New Name" {
		t.Errorf("renamed %q to %q", svc.renamedID, svc.newName)
	}
}

func TestChildrenHandler_UnlinkNotFound(t *testing.T) {
	svc := &fakeChildren{err: &service.Error{Kind: service.KindNotFound, Message: "child not found"}}
	req := withCaller(httptest.NewRequest(http.MethodDelete, "/children/c9", nil), "p1")
	rec := httptest.NewRecorder()
	childrenRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
	if svc.unlinked != "c9" {
		t.Errorf("unlinked %q", svc.unlinked)
	}
}
