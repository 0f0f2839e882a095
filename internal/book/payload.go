package book

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Violation describes one problem with a request payload.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a payload does not match the book schema.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "invalid book payload: " + strings.Join(msgs, "; ")
}

type fieldsPayload struct {
	AmazonURL *string `json:"amazon_url" validate:"required,min=1,max=2048"`
	Author    *string `json:"author" validate:"required,min=1,max=255"`
	Language  *string `json:"language" validate:"required,min=1,max=255"`
	Pages     *int    `json:"pages" validate:"required,gte=1,lte=2147483647"`
	Publisher *string `json:"publisher" validate:"required,min=1,max=255"`
	Title     *string `json:"title" validate:"required,min=1,max=255"`
	Year      *int    `json:"year" validate:"required,gte=0,lte=9999"`
}

func (p *fieldsPayload) targets() map[string]any {
	return map[string]any{
		"amazon_url": &p.AmazonURL,
		"author":     &p.Author,
		"language":   &p.Language,
		"pages":      &p.Pages,
		"publisher":  &p.Publisher,
		"title":      &p.Title,
		"year":       &p.Year,
	}
}

func (p *fieldsPayload) fields() Fields {
	return Fields{
		AmazonURL: *p.AmazonURL,
		Author:    *p.Author,
		Language:  *p.Language,
		Pages:     *p.Pages,
		Publisher: *p.Publisher,
		Title:     *p.Title,
		Year:      *p.Year,
	}
}

type createPayload struct {
	ISBN *string `json:"isbn" validate:"required,min=1,max=32,excludesall=/"`
	fieldsPayload
}

type updatePayload struct {
	// Accepted so clients may send a full book back; the path ISBN wins.
	ISBN *string `json:"isbn"`
	fieldsPayload
}

// DecodeCreate reads a create payload. Every book field must be present with
// the right JSON type and no other keys are allowed.
func DecodeCreate(r io.Reader) (Book, error) {
	var p createPayload
	targets := p.fieldsPayload.targets()
	targets["isbn"] = &p.ISBN
	if err := decodeStrict(r, &p, targets); err != nil {
		return Book{}, err
	}
	return p.fields().WithISBN(*p.ISBN), nil
}

// DecodeUpdate reads an update payload. It has the same shape as a create
// payload except that isbn is optional and ignored.
func DecodeUpdate(r io.Reader) (Fields, error) {
	var p updatePayload
	targets := p.fieldsPayload.targets()
	targets["isbn"] = &p.ISBN
	if err := decodeStrict(r, &p, targets); err != nil {
		return Fields{}, err
	}
	return p.fields(), nil
}

// decodeStrict decodes each key of a JSON object into its target, collecting
// unknown keys and type mismatches, then runs the struct validator on dst.
// The body must hold exactly one JSON object. A body cut off by
// http.MaxBytesReader is returned as the *http.MaxBytesError.
func decodeStrict(r io.Reader, dst any, targets map[string]any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return maxErr
		}
		return fmt.Errorf("read request body: %w", err)
	}

	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return &ValidationError{Violations: []Violation{{Message: "request body must be a single JSON object"}}}
	}

	var violations []Violation
	reported := make(map[string]bool)
	for key, value := range raw {
		target, ok := targets[key]
		if !ok {
			violations = append(violations, Violation{Field: key, Message: fmt.Sprintf("%s is not an allowed field", key)})
			reported[key] = true
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			violations = append(violations, Violation{Field: key, Message: typeMessage(key, target)})
			reported[key] = true
		}
	}

	if err := validate.Struct(dst); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range verrs {
			if reported[fe.Field()] {
				continue
			}
			violations = append(violations, Violation{Field: fe.Field(), Message: ruleMessage(fe)})
			reported[fe.Field()] = true
		}
	}

	if len(violations) == 0 {
		return nil
	}
	sort.Slice(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })
	return &ValidationError{Violations: violations}
}

func typeMessage(field string, target any) string {
	switch target.(type) {
	case **int:
		return fmt.Sprintf("%s must be an integer", field)
	default:
		return fmt.Sprintf("%s must be a string", field)
	}
}

func ruleMessage(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "excludesall":
		return fmt.Sprintf("%s must not contain any of %q", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
