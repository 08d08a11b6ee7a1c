package controller_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/controller"
	appdto "github.com/vibast-solutions/ms-go-contacts/app/dto"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/service"

	"github.com/labstack/echo/v4"
)

type fakeContactService struct {
	contact  *entity.Contact
	contacts []*entity.Contact
	err      error

	userID    uint64
	contactID uint64
	input     *appdto.ContactInput
	term      string
}

func (s *fakeContactService) Create(_ context.Context, userID uint64, input *appdto.ContactInput) (*entity.Contact, error) {
	s.userID, s.input = userID, input
	return s.contact, s.err
}

func (s *fakeContactService) Get(_ context.Context, userID, contactID uint64) (*entity.Contact, error) {
	s.userID, s.contactID = userID, contactID
	return s.contact, s.err
}

func (s *fakeContactService) List(_ context.Context, userID uint64) ([]*entity.Contact, error) {
	s.userID = userID
	return s.contacts, s.err
}

func (s *fakeContactService) Search(_ context.Context, userID uint64, term string) ([]*entity.Contact, error) {
	s.userID, s.term = userID, term
	return s.contacts, s.err
}

func (s *fakeContactService) Update(_ context.Context, userID, contactID uint64, input *appdto.ContactInput) (*entity.Contact, error) {
	s.userID, s.contactID, s.input = userID, contactID, input
	return s.contact, s.err
}

func (s *fakeContactService) Delete(_ context.Context, userID, contactID uint64) error {
	s.userID, s.contactID = userID, contactID
	return s.err
}

func (s *fakeContactService) UpcomingBirthdays(_ context.Context, userID uint64) ([]*entity.Contact, error) {
	s.userID = userID
	return s.contacts, s.err
}

func sampleContact() *entity.Contact {
	return &entity.Contact{
		ID:          7,
		UserID:      1,
		FirstName:   "Bob",
		LastName:    "Smith",
		Email:       "bob@x.com",
		PhoneNumber: "123456",
		Birthday:    time.Date(1990, time.June, 14, 0, 0, 0, 0, time.UTC),
		OtherInfo:   sql.NullString{String: "colleague", Valid: true},
	}
}

func contactContext(e *echo.Echo, req *http.Request, principal *entity.User) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	if principal != nil {
		ctx.Set("user", principal)
	}
	return ctx, rec
}

func TestContactCreate_Success(t *testing.T) {
	svc := &fakeContactService{contact: sampleContact()}
	ctrl := controller.NewContactController(svc)

	e := echo.New()
	body := `{"first_name":"Bob","last_name":"Smith","email":"bob@x.com","phone_number":"123456","birthday":"1990-06-14","other_info":"colleague"}`
	ctx, rec := contactContext(e, jsonRequest(http.MethodPost, "/api/contacts", body), &entity.User{ID: 1})

	if err := ctrl.Create(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.userID != 1 {
		t.Fatalf("expected user ID 1, got %d", svc.userID)
	}
	if svc.input == nil || svc.input.FirstName != "Bob" || !svc.input.Birthday.Equal(time.Date(1990, time.June, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected input: %+v", svc.input)
	}
	if svc.input.OtherInfo == nil || *svc.input.OtherInfo != "colleague" {
		t.Fatalf("other_info not carried: %+v", svc.input.OtherInfo)
	}

	payload := decodeBody(t, rec)
	if payload["birthday"] != "1990-06-14" {
		t.Fatalf("expected formatted birthday, got %v", payload["birthday"])
	}
	if payload["other_info"] != "colleague" {
		t.Fatalf("expected other_info, got %v", payload["other_info"])
	}
}

func TestContactCreate_Validation(t *testing.T) {
	ctrl := controller.NewContactController(&fakeContactService{})
	e := echo.New()

	tests := []struct {
		name string
		body string
	}{
		{"missing names", `{"email":"bob@x.com","phone_number":"123456","birthday":"1990-06-14"}`},
		{"missing email", `{"first_name":"Bob","last_name":"Smith","phone_number":"123456","birthday":"1990-06-14"}`},
		{"phone too long", `{"first_name":"Bob","last_name":"Smith","email":"bob@x.com","phone_number":"1234567890123","birthday":"1990-06-14"}`},
		{"bad birthday", `{"first_name":"Bob","last_name":"Smith","email":"bob@x.com","phone_number":"123456","birthday":"14/06/1990"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, rec := contactContext(e, jsonRequest(http.MethodPost, "/api/contacts", tt.body), &entity.User{ID: 1})
			if err := ctrl.Create(ctx); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestContactCreate_MissingPrincipal(t *testing.T) {
	ctrl := controller.NewContactController(&fakeContactService{})
	e := echo.New()

	body := `{"first_name":"Bob","last_name":"Smith","email":"bob@x.com","phone_number":"123456","birthday":"1990-06-14"}`
	ctx, rec := contactContext(e, jsonRequest(http.MethodPost, "/api/contacts", body), nil)

	if err := ctrl.Create(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestContactGet(t *testing.T) {
	e := echo.New()

	t.Run("found", func(t *testing.T) {
		svc := &fakeContactService{contact: sampleContact()}
		ctrl := controller.NewContactController(svc)

		ctx, rec := contactContext(e, httptest.NewRequest(http.MethodGet, "/", nil), &entity.User{ID: 1})
		ctx.SetParamNames("id")
		ctx.SetParamValues("7")

		if err := ctrl.Get(ctx); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if svc.contactID != 7 {
			t.Fatalf("expected contact ID 7, got %d", svc.contactID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := controller.NewContactController(&fakeContactService{err: service.ErrContactNotFound})

		ctx, rec := contactContext(e, httptest.NewRequest(http.MethodGet, "/", nil), &entity.User{ID: 1})
		ctx.SetParamNames("id")
		ctx.SetParamValues("42")

		if err := ctrl.Get(ctx); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		ctrl := controller.NewContactController(&fakeContactService{})

		ctx, rec := contactContext(e, httptest.NewRequest(http.MethodGet, "/", nil), &entity.User{ID: 1})
		ctx.SetParamNames("id")
		ctx.SetParamValues("not-a-number")

		if err := ctrl.Get(ctx); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestContactList(t *testing.T) {
	svc := &fakeContactService{contacts: []*entity.Contact{sampleContact()}}
	ctrl := controller.NewContactController(svc)

	e := echo.New()
	ctx, rec := contactContext(e, httptest.NewRequest(http.MethodGet, "/api/contacts", nil), &entity.User{ID: 3})

	if err := ctrl.List(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.userID != 3 {
		t.Fatalf("expected user ID 3, got %d", svc.userID)
	}
}

func TestContactList_EmptyRendersArray(t *testing.T) {
	ctrl := controller.NewContactController(&fakeContactService{})

	e := echo.New()
	ctx, rec := contactContext(e, httptest.NewRequest(http.MethodGet, "/api/contacts", nil), &entity.User{ID: 1})

	if err := ctrl.List(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", body)
	}
}

func TestContactSearch(t *testing.T) {
	e := echo.New()

	t.Run("passes term", func(t *testing.T) {
		svc := &fakeContactService{contacts: []*entity.Contact{sampleContact()}}
		ctrl := controller.NewContactController(svc)

		ctx, rec := contactContext(e, httptest.NewRequest(http.MethodGet, "/api/contacts/search?q=bob", nil), &entity.User{ID: 1})

		if err := ctrl.Search(ctx); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if svc.term != "bob" {
			t.Fatalf("expected term bob, got %q", svc.term)
		}
	})

	t.Run("missing term", func(t *testing.T) {
		ctrl := controller.NewContactController(&fakeContactService{})

		ctx, rec := contactContext(e, httptest.NewRequest(http.MethodGet, "/api/contacts/search", nil), &entity.User{ID: 1})

		if err := ctrl.Search(ctx); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestContactUpdate_NotFound(t *testing.T) {
	ctrl := controller.NewContactController(&fakeContactService{err: service.ErrContactNotFound})

	e := echo.New()
	body := `{"first_name":"Bob","last_name":"Smith","email":"bob@x.com","phone_number":"123456","birthday":"1990-06-14"}`
	ctx, rec := contactContext(e, jsonRequest(http.MethodPut, "/", body), &entity.User{ID: 1})
	ctx.SetParamNames("id")
	ctx.SetParamValues("42")

	if err := ctrl.Update(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestContactDelete(t *testing.T) {
	e := echo.New()

	t.Run("success", func(t *testing.T) {
		svc := &fakeContactService{}
		ctrl := controller.NewContactController(svc)

		ctx, rec := contactContext(e, httptest.NewRequest(http.MethodDelete, "/", nil), &entity.User{ID: 1})
		ctx.SetParamNames("id")
		ctx.SetParamValues("7")

		if err := ctrl.Delete(ctx); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if svc.contactID != 7 {
			t.Fatalf("expected contact ID 7, got %d", svc.contactID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := controller.NewContactController(&fakeContactService{err: service.ErrContactNotFound})

		ctx, rec := contactContext(e, httptest.NewRequest(http.MethodDelete, "/", nil), &entity.User{ID: 1})
		ctx.SetParamNames("id")
		ctx.SetParamValues("42")

		if err := ctrl.Delete(ctx); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestContactUpcomingBirthdays(t *testing.T) {
	svc := &fakeContactService{contacts: []*entity.Contact{sampleContact()}}
	ctrl := controller.NewContactController(svc)

	e := echo.New()
	ctx, rec := contactContext(e, httptest.NewRequest(http.MethodGet, "/api/contacts/upcoming_birthdays", nil), &entity.User{ID: 9})

	if err := ctrl.UpcomingBirthdays(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.userID != 9 {
		t.Fatalf("expected user ID 9, got %d", svc.userID)
	}
}
