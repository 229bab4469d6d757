package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nexconsult/fssp-api/internal/models"
)

var (
	innPattern      = regexp.MustCompile(`^\d{10}(\d{2})?$`)
	birthdayPattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	ipNumberPattern = regexp.MustCompile(`^\d{1,7}/\d{2}/(?:\d{2,3}/\d{2}|\d{5}-(?:ИП|СД|СВ))$`)
)

// ValidationError reports a malformed query field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateINN checks a 10 or 12 digit taxpayer number and returns it trimmed
func ValidateINN(inn string) (string, error) {
	inn = strings.TrimSpace(inn)
	if !innPattern.MatchString(inn) {
		return "", &ValidationError{Field: "inn", Message: "must contain 10 or 12 digits"}
	}
	return inn, nil
}

// ValidateBirthday checks a DD.MM.YYYY date between 1900 and now
func ValidateBirthday(birthday string, now time.Time) (string, error) {
	birthday = strings.TrimSpace(birthday)
	if !birthdayPattern.MatchString(birthday) {
		return "", &ValidationError{Field: "birthday", Message: "must be in DD.MM.YYYY format"}
	}

	date, err := time.Parse("02.01.2006", birthday)
	if err != nil {
		return "", &ValidationError{Field: "birthday", Message: "is not a valid date"}
	}
	if date.After(now) {
		return "", &ValidationError{Field: "birthday", Message: "cannot be in the future"}
	}
	if date.Year() < 1900 {
		return "", &ValidationError{Field: "birthday", Message: "year must be 1900 or later"}
	}

	return birthday, nil
}

// ValidateIPNumber checks an enforcement proceeding number such as 123/45/67890-ИП
func ValidateIPNumber(number string) (string, error) {
	number = strings.TrimSpace(number)
	if !ipNumberPattern.MatchString(number) {
		return "", &ValidationError{
			Field:   "ip_number",
			Message: "must look like 12345/24/12345-ИП or 12345/24/123/45",
		}
	}
	return number, nil
}

// ValidateName trims a name part and rejects blanks
func ValidateName(field, value string) (string, error) {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return "", &ValidationError{Field: field, Message: "is required"}
	}
	return value, nil
}

// ValidatePerson builds a debtor query. A blank patronymic is sent as empty.
func ValidatePerson(lastName, firstName, patronymic, birthday string, now time.Time) (models.PersonQuery, error) {
	var err error
	if lastName, err = ValidateName("last_name", lastName); err != nil {
		return models.PersonQuery{}, err
	}
	if firstName, err = ValidateName("first_name", firstName); err != nil {
		return models.PersonQuery{}, err
	}
	if birthday, err = ValidateBirthday(birthday, now); err != nil {
		return models.PersonQuery{}, err
	}
	if patronymic, err = ValidateName("patronymic", patronymic); err != nil {
		patronymic = ""
	}

	return models.PersonQuery{
		LastName:   lastName,
		FirstName:  firstName,
		Patronymic: patronymic,
		Birthday:   birthday,
	}, nil
}
