package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/dto"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/repository"
)

var ErrContactNotFound = errors.New("contact not found")

const birthdayWindowDays = 7

// ContactService holds the per-user address book operations. Every
// operation is scoped to the owning user; a contact belonging to someone
// else behaves exactly like a missing one.
type ContactService struct {
	contactRepo *repository.ContactRepository
}

func NewContactService(contactRepo *repository.ContactRepository) *ContactService {
	return &ContactService{contactRepo: contactRepo}
}

func (s *ContactService) Create(ctx context.Context, userID uint64, input *dto.ContactInput) (*entity.Contact, error) {
	now := time.Now()
	contact := &entity.Contact{
		UserID:      userID,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Birthday:    input.Birthday,
		OtherInfo:   nullString(input.OtherInfo),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *ContactService) Get(ctx context.Context, userID, contactID uint64) (*entity.Contact, error) {
	contact, err := s.contactRepo.FindByID(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}
	return contact, nil
}

func (s *ContactService) List(ctx context.Context, userID uint64) ([]*entity.Contact, error) {
	return s.contactRepo.FindAll(ctx, userID)
}

func (s *ContactService) Search(ctx context.Context, userID uint64, term string) ([]*entity.Contact, error) {
	return s.contactRepo.Search(ctx, userID, term)
}

// Update assigns the editable fields explicitly and writes the row back.
func (s *ContactService) Update(ctx context.Context, userID, contactID uint64, input *dto.ContactInput) (*entity.Contact, error) {
	contact, err := s.contactRepo.FindByID(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}

	contact.FirstName = input.FirstName
	contact.LastName = input.LastName
	contact.Email = input.Email
	contact.PhoneNumber = input.PhoneNumber
	contact.Birthday = input.Birthday
	contact.OtherInfo = nullString(input.OtherInfo)

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *ContactService) Delete(ctx context.Context, userID, contactID uint64) error {
	rows, err := s.contactRepo.Delete(ctx, userID, contactID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrContactNotFound
	}
	return nil
}

// UpcomingBirthdays returns the contacts whose birthday falls within the
// next seven days. The Birthday field of each returned contact carries the
// congratulation date rather than the stored birth date.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID uint64) ([]*entity.Contact, error) {
	contacts, err := s.contactRepo.FindAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	return upcomingBirthdays(contacts, time.Now()), nil
}

func upcomingBirthdays(contacts []*entity.Contact, now time.Time) []*entity.Contact {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	result := []*entity.Contact{}
	for _, contact := range contacts {
		next := nextBirthday(contact.Birthday, today)

		days := int(next.Sub(today).Hours() / 24)
		if days < 0 || days > birthdayWindowDays {
			continue
		}

		// congratulation moves to the following Saturday when the
		// birthday lands on a weekday
		if wd := next.Weekday(); wd != time.Saturday && wd != time.Sunday {
			next = next.AddDate(0, 0, int(time.Saturday-wd))
		}

		c := *contact
		c.Birthday = next
		result = append(result, &c)
	}
	return result
}

func nextBirthday(birthday, today time.Time) time.Time {
	next := birthdayInYear(birthday, today.Year())
	if next.Before(today) {
		next = birthdayInYear(birthday, today.Year()+1)
	}
	return next
}

// birthdayInYear maps a Feb 29 birth date to Feb 28 in non-leap years.
func birthdayInYear(birthday time.Time, year int) time.Time {
	month, day := birthday.Month(), birthday.Day()
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
