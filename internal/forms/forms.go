// Package forms holds the user-input records submitted by the web client and
// the CLI, validated before any request is built.
package forms

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/richtext"
)

// Login is the sign-in form. Both fields only need to be present.
type Login struct {
	Email    string `form:"email" json:"email" validate:"required" label:"Email"`
	Password string `form:"password" json:"password" validate:"required" label:"Password"`
}

// Signup is the account creation form
type Signup struct {
	Username        string      `form:"username" validate:"notblank" label:"Username"`
	Name            string      `form:"name" validate:"notblank" label:"Name"`
	Email           string      `form:"email" validate:"required,email" label:"Email"`
	Password        string      `form:"password" validate:"required" label:"Password"`
	ConfirmPassword string      `form:"confirm_password" validate:"eqfield=Password" msg:"Passwords do not match"`
	Picture         *api.Upload `form:"-"`
}

// Request converts the form to the backend signup payload
func (s Signup) Request() api.SignupRequest {
	return api.SignupRequest{
		Username:       strings.TrimSpace(s.Username),
		Name:           strings.TrimSpace(s.Name),
		Email:          strings.TrimSpace(s.Email),
		Password:       s.Password,
		ProfilePicture: s.Picture,
	}
}

// Article is the write/edit form. Content is editor HTML.
type Article struct {
	Title   string      `form:"title" validate:"notblank" label:"Title"`
	Content string      `form:"content" validate:"notblankhtml" label:"Content"`
	TagIDs  []string    `form:"tags"`
	Image   *api.Upload `form:"-"`
}

// Request converts the form to the backend article payload
func (a Article) Request() api.ArticleRequest {
	return api.ArticleRequest{
		Title:   strings.TrimSpace(a.Title),
		Content: a.Content,
		TagIDs:  a.TagIDs,
		Image:   a.Image,
	}
}

// Comment is the add/edit comment form
type Comment struct {
	Text string `form:"text" json:"text" validate:"notblank" msg:"Comment cannot be empty"`
}

// Errors maps form fields to human readable messages
type Errors struct {
	Fields map[string]string
}

func (e *Errors) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, e.Fields[field])
	}
	return strings.Join(messages, "; ")
}

// Get returns the message for a field, or ""
func (e *Errors) Get(field string) string {
	if e == nil {
		return ""
	}
	return e.Fields[field]
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		// Whitespace-only input counts as missing
		validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})

		// An editor left with only empty markup counts as missing
		validate.RegisterValidation("notblankhtml", func(fl validator.FieldLevel) bool {
			return richtext.PlainText(fl.Field().String()) != ""
		})
	})
	return validate
}

// Validate checks a form. It returns nil or *Errors.
func Validate(form any) error {
	err := instance().Struct(form)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	formType := reflect.TypeOf(form)
	for formType.Kind() == reflect.Pointer {
		formType = formType.Elem()
	}

	out := &Errors{Fields: make(map[string]string, len(validationErrors))}
	for _, fe := range validationErrors {
		field, _ := formType.FieldByName(fe.StructField())
		name := field.Tag.Get("form")
		if name == "" || name == "-" {
			name = strings.ToLower(fe.StructField())
		}
		if _, seen := out.Fields[name]; seen {
			continue
		}
		out.Fields[name] = message(field, fe)
	}
	return out
}

func message(field reflect.StructField, fe validator.FieldError) string {
	if msg := field.Tag.Get("msg"); msg != "" {
		return msg
	}

	label := field.Tag.Get("label")
	if label == "" {
		label = fe.StructField()
	}

	switch fe.Tag() {
	case "required", "notblank", "notblankhtml":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	default:
		return fmt.Sprintf("%s is invalid (%s)", label, fe.Tag())
	}
}
