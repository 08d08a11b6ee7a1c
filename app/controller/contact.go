package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	appdto "github.com/vibast-solutions/ms-go-contacts/app/dto"
	dto "github.com/vibast-solutions/ms-go-contacts/app/dto/http"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/middleware"
	"github.com/vibast-solutions/ms-go-contacts/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const birthdayLayout = "2006-01-02"

type contactService interface {
	Create(ctx context.Context, userID uint64, input *appdto.ContactInput) (*entity.Contact, error)
	Get(ctx context.Context, userID, contactID uint64) (*entity.Contact, error)
	List(ctx context.Context, userID uint64) ([]*entity.Contact, error)
	Search(ctx context.Context, userID uint64, term string) ([]*entity.Contact, error)
	Update(ctx context.Context, userID, contactID uint64, input *appdto.ContactInput) (*entity.Contact, error)
	Delete(ctx context.Context, userID, contactID uint64) error
	UpcomingBirthdays(ctx context.Context, userID uint64) ([]*entity.Contact, error)
}

type ContactController struct {
	contactService contactService
}

func NewContactController(contactService contactService) *ContactController {
	return &ContactController{contactService: contactService}
}

func (c *ContactController) Create(ctx echo.Context) error {
	user, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	input, err := bindContactInput(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	contact, err := c.contactService.Create(ctx.Request().Context(), user.ID, input)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Create contact failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"contact_id": contact.ID,
	}).Info("Contact created")
	return ctx.JSON(http.StatusCreated, contactResponse(contact))
}

func (c *ContactController) Get(ctx echo.Context) error {
	user, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	contactID, err := contactIDParam(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid contact id"})
	}

	contact, err := c.contactService.Get(ctx.Request().Context(), user.ID, contactID)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "contact not found"})
		}
		logrus.WithError(err).WithField("user_id", user.ID).Error("Get contact failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, contactResponse(contact))
}

func (c *ContactController) List(ctx echo.Context) error {
	user, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	contacts, err := c.contactService.List(ctx.Request().Context(), user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("List contacts failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, contactResponses(contacts))
}

func (c *ContactController) Search(ctx echo.Context) error {
	user, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	term := ctx.QueryParam("q")
	if term == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "query parameter q is required"})
	}

	contacts, err := c.contactService.Search(ctx.Request().Context(), user.ID, term)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Search contacts failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, contactResponses(contacts))
}

func (c *ContactController) Update(ctx echo.Context) error {
	user, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	contactID, err := contactIDParam(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid contact id"})
	}

	input, err := bindContactInput(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	contact, err := c.contactService.Update(ctx.Request().Context(), user.ID, contactID, input)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "contact not found"})
		}
		logrus.WithError(err).WithField("user_id", user.ID).Error("Update contact failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"contact_id": contact.ID,
	}).Info("Contact updated")
	return ctx.JSON(http.StatusOK, contactResponse(contact))
}

func (c *ContactController) Delete(ctx echo.Context) error {
	user, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	contactID, err := contactIDParam(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid contact id"})
	}

	if err := c.contactService.Delete(ctx.Request().Context(), user.ID, contactID); err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "contact not found"})
		}
		logrus.WithError(err).WithField("user_id", user.ID).Error("Delete contact failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"contact_id": contactID,
	}).Info("Contact deleted")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "contact deleted"})
}

func (c *ContactController) UpcomingBirthdays(ctx echo.Context) error {
	user, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	contacts, err := c.contactService.UpcomingBirthdays(ctx.Request().Context(), user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Upcoming birthdays failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, contactResponses(contacts))
}

func bindContactInput(ctx echo.Context) (*appdto.ContactInput, error) {
	var req dto.ContactRequest
	if err := ctx.Bind(&req); err != nil {
		return nil, errors.New("invalid request body")
	}

	if req.FirstName == "" || req.LastName == "" {
		return nil, errors.New("first_name and last_name are required")
	}
	if req.Email == "" {
		return nil, errors.New("email is required")
	}
	if req.PhoneNumber == "" || len(req.PhoneNumber) > 12 {
		return nil, errors.New("phone_number is required and must be at most 12 characters")
	}

	birthday, err := time.Parse(birthdayLayout, req.Birthday)
	if err != nil {
		return nil, errors.New("birthday must use the YYYY-MM-DD format")
	}

	return &appdto.ContactInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Birthday:    birthday,
		OtherInfo:   req.OtherInfo,
	}, nil
}

func contactIDParam(ctx echo.Context) (uint64, error) {
	return strconv.ParseUint(ctx.Param("id"), 10, 64)
}

func contactResponse(contact *entity.Contact) dto.ContactResponse {
	resp := dto.ContactResponse{
		ID:          contact.ID,
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		Email:       contact.Email,
		PhoneNumber: contact.PhoneNumber,
		Birthday:    contact.Birthday.Format(birthdayLayout),
	}
	if contact.OtherInfo.Valid {
		info := contact.OtherInfo.String
		resp.OtherInfo = &info
	}
	return resp
}

func contactResponses(contacts []*entity.Contact) []dto.ContactResponse {
	responses := make([]dto.ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		responses = append(responses, contactResponse(contact))
	}
	return responses
}
