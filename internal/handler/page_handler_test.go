package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/middleware"
	"github.com/arborhq/arbor-backend/internal/service"
	"github.com/arborhq/arbor-backend/internal/testutil"
	"github.com/arborhq/arbor-backend/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const testBaseHost = "arbor.app"

// setupAuthContext injects an authenticated user into the echo context the
// same way the auth middleware does
func setupAuthContext(c echo.Context, userID uuid.UUID) {
	ctx := context.WithValue(c.Request().Context(), middleware.Auth0IDKey, "auth0|"+userID.String())
	ctx = context.WithValue(ctx, middleware.UserIDKey, userID)
	c.SetRequest(c.Request().WithContext(ctx))
}

type handlerFixture struct {
	e               *echo.Echo
	pageRepo        *testutil.MockPageRepository
	wsRepo          *testutil.MockWorkspaceRepository
	grantRepo       *testutil.MockCollabGrantRepository
	addrRepo        *testutil.MockPublicAddressRepository
	pageService     *service.PageService
	accessService   *service.AccessService
	addressService  *service.AddressService
	resolverService *service.ResolverService
	owner           uuid.UUID
	workspace       *domain.Workspace
	privateRoot     *domain.Page
	publicRoot      *domain.Page
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		e:         echo.New(),
		pageRepo:  testutil.NewMockPageRepository(),
		wsRepo:    testutil.NewMockWorkspaceRepository(),
		grantRepo: testutil.NewMockCollabGrantRepository(),
		addrRepo:  testutil.NewMockPublicAddressRepository(),
		owner:     uuid.New(),
	}
	f.pageService = service.NewPageService(f.pageRepo, f.wsRepo, f.addrRepo)
	f.accessService = service.NewAccessService(f.pageRepo, f.wsRepo, f.grantRepo)
	f.addressService = service.NewAddressService(f.addrRepo, f.pageRepo, f.wsRepo)
	f.resolverService = service.NewResolverService(f.pageRepo, f.addrRepo, testBaseHost)

	ws, err := f.wsRepo.Create(&domain.Workspace{OwnerUserID: f.owner, Name: "Test"})
	if err != nil {
		t.Fatalf("Expected no error creating workspace, got %v", err)
	}
	private := &domain.Page{ID: uuid.New(), WorkspaceID: ws.ID, Name: "Private", ShortID: util.NewShortID(), RootKind: domain.RootKindPrivate}
	public := &domain.Page{ID: uuid.New(), WorkspaceID: ws.ID, Name: "Public", ShortID: util.NewShortID(), RootKind: domain.RootKindPublic}
	if _, err := f.pageRepo.Create(private); err != nil {
		t.Fatalf("Expected no error creating private root, got %v", err)
	}
	if _, err := f.pageRepo.Create(public); err != nil {
		t.Fatalf("Expected no error creating public root, got %v", err)
	}
	ws.PrivateRootPageID = &private.ID
	ws.PublicRootPageID = &public.ID

	f.workspace = ws
	f.privateRoot = private
	f.publicRoot = public
	return f
}

func (f *handlerFixture) pageHandler() *PageHandler {
	return NewPageHandler(f.pageService, f.accessService, f.resolverService)
}

func (f *handlerFixture) jsonRequest(method, target, body string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, f.e.NewContext(req, rec)
}

func TestCreatePage_Created(t *testing.T) {
	f := newHandlerFixture(t)
	h := f.pageHandler()

	body := `{"workspaceId":"` + f.workspace.ID.String() + `","parentId":"` + f.privateRoot.ID.String() + `","name":"Notes"}`
	rec, c := f.jsonRequest(http.MethodPost, "/api/v1/pages", body)
	setupAuthContext(c, f.owner)

	if err := h.CreatePage(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp PageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Name != "Notes" {
		t.Errorf("Expected name 'Notes', got %q", resp.Name)
	}
	if resp.ParentID == nil || *resp.ParentID != f.privateRoot.ID.String() {
		t.Errorf("Expected parent %s, got %v", f.privateRoot.ID, resp.ParentID)
	}
	if resp.ShortID == "" {
		t.Error("Expected a generated short id")
	}
}

func TestCreatePage_GuestForbidden(t *testing.T) {
	f := newHandlerFixture(t)
	h := f.pageHandler()

	body := `{"workspaceId":"` + f.workspace.ID.String() + `","parentId":"` + f.privateRoot.ID.String() + `","name":"Notes"}`
	rec, c := f.jsonRequest(http.MethodPost, "/api/v1/pages", body)
	setupAuthContext(c, uuid.New()) // not the owner, no grants

	if err := h.CreatePage(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rec.Code)
	}
}

func TestCreatePage_Unauthenticated(t *testing.T) {
	f := newHandlerFixture(t)
	h := f.pageHandler()

	rec, c := f.jsonRequest(http.MethodPost, "/api/v1/pages", `{"name":"Notes"}`)
	// No auth context

	if err := h.CreatePage(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetPage_NotFound(t *testing.T) {
	f := newHandlerFixture(t)
	h := f.pageHandler()

	rec, c := f.jsonRequest(http.MethodGet, "/api/v1/pages/x", "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	setupAuthContext(c, f.owner)

	if err := h.GetPage(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestUpdateTitle_EmptyNameRejected(t *testing.T) {
	f := newHandlerFixture(t)
	h := f.pageHandler()

	page, err := f.pageService.CreatePage(f.workspace.ID, service.CreatePageInput{Name: "Notes", ParentID: f.privateRoot.ID})
	if err != nil {
		t.Fatalf("Expected no error creating page, got %v", err)
	}

	rec, c := f.jsonRequest(http.MethodPatch, "/api/v1/pages/x/title", `{"name":"   "}`)
	c.SetParamNames("id")
	c.SetParamValues(page.ID.String())
	setupAuthContext(c, f.owner)

	if err := h.UpdateTitle(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestDeletePage_RootRejected(t *testing.T) {
	f := newHandlerFixture(t)
	h := f.pageHandler()

	rec, c := f.jsonRequest(http.MethodDelete, "/api/v1/pages/x", "")
	c.SetParamNames("id")
	c.SetParamValues(f.privateRoot.ID.String())
	setupAuthContext(c, f.owner)

	if err := h.DeletePage(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
