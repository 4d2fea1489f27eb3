package book

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinPublicationYear = 1000
	MaxPublicationYear = 2024
)

var validate *validator.Validate

var (
	isbn10Pattern = regexp.MustCompile(`^\d{9}[\dXx]$`)
	isbn13Pattern = regexp.MustCompile(`^\d{13}$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("isbn_format", validateISBN)
}

// rules per public field name, shared by create and update.
var rules = map[string]string{
	"title":            "required,max=200",
	"author":           "required,max=100",
	"ISBN":             "required,isbn_format",
	"genre":            "required,max=50",
	"publication_year": fmt.Sprintf("gte=%d,lte=%d", MinPublicationYear, MaxPublicationYear),
}

func validateISBN(fl validator.FieldLevel) bool {
	return ValidISBN(fl.Field().String())
}

// NormalizeISBN strips hyphens and spaces.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	return strings.ReplaceAll(isbn, " ", "")
}

// ValidISBN reports whether isbn is a 10 or 13 digit ISBN once hyphens and
// spaces are removed. ISBN-10 may end in X.
func ValidISBN(isbn string) bool {
	isbn = NormalizeISBN(isbn)
	switch len(isbn) {
	case 10:
		return isbn10Pattern.MatchString(isbn)
	case 13:
		return isbn13Pattern.MatchString(isbn)
	}
	return false
}

func checkField(field string, value any) error {
	err := validate.Var(value, rules[field])
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: field, Reason: err.Error()}
	}
	fe := verrs[0]
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "cannot be empty or just whitespace"
	case "max":
		reason = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "isbn_format":
		reason = "must be a valid ISBN (10 or 13 digits)"
	case "gte", "lte":
		reason = fmt.Sprintf("must be between %d and %d", MinPublicationYear, MaxPublicationYear)
	default:
		reason = "is invalid"
	}
	return &ValidationError{Field: field, Reason: reason}
}

func normalizeString(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if err := checkField(field, value); err != nil {
		return "", err
	}
	return value, nil
}

// Normalize validates the input and returns a book with trimmed strings.
// The ISBN is kept as given.
func (in Input) Normalize() (Book, error) {
	var (
		b   Book
		err error
	)
	if b.Title, err = normalizeString("title", in.Title); err != nil {
		return Book{}, err
	}
	if b.Author, err = normalizeString("author", in.Author); err != nil {
		return Book{}, err
	}
	if err = checkField("ISBN", in.ISBN); err != nil {
		return Book{}, err
	}
	b.ISBN = in.ISBN
	if b.Genre, err = normalizeString("genre", in.Genre); err != nil {
		return Book{}, err
	}
	if err = checkField("publication_year", in.PublicationYear); err != nil {
		return Book{}, err
	}
	b.PublicationYear = in.PublicationYear
	return b, nil
}

func normalizeOptionalString(field string, o Optional[string], trim bool) (Optional[string], error) {
	if !o.Set {
		return o, nil
	}
	if o.Null {
		return o, &ValidationError{Field: field, Reason: "must not be null"}
	}
	v := o.Value
	if trim {
		v = strings.TrimSpace(v)
	}
	if err := checkField(field, v); err != nil {
		return o, err
	}
	return Some(v), nil
}

// Normalize validates every present field with the create rules.
func (p Patch) Normalize() (Patch, error) {
	var (
		out Patch
		err error
	)
	if out.Title, err = normalizeOptionalString("title", p.Title, true); err != nil {
		return Patch{}, err
	}
	if out.Author, err = normalizeOptionalString("author", p.Author, true); err != nil {
		return Patch{}, err
	}
	if out.ISBN, err = normalizeOptionalString("ISBN", p.ISBN, false); err != nil {
		return Patch{}, err
	}
	if out.Genre, err = normalizeOptionalString("genre", p.Genre, true); err != nil {
		return Patch{}, err
	}
	if p.PublicationYear.Set {
		if p.PublicationYear.Null {
			return Patch{}, &ValidationError{Field: "publication_year", Reason: "must not be null"}
		}
		if err = checkField("publication_year", p.PublicationYear.Value); err != nil {
			return Patch{}, err
		}
		out.PublicationYear = Some(p.PublicationYear.Value)
	}
	return out, nil
}
