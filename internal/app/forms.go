package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"flashdeck/internal/deck"
)

// DeckForm is the raw input for a new deck.
type DeckForm struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

// DeckUpdateForm is the raw input for a partial deck update. Nil fields are
// left untouched. Root moves the deck to the top level and wins over ParentID.
type DeckUpdateForm struct {
	Title       *string
	Description *string
	Color       *string
	ParentID    *string
	Root        bool
}

// CardForm is the raw input for adding or editing a card.
type CardForm struct {
	Question string `json:"question" validate:"required,max=1000"`
	Answer   string `json:"answer" validate:"required,max=1000"`
}

// FieldError is one failed rule on one field.
type FieldError struct {
	Field string
	Msg   string
}

// FormError collects every failed rule of a form.
type FormError struct {
	Fields []FieldError
}

func (e *FormError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Msg
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// Validator checks forms before they reach the deck service.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator reporting fields by their json names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// DeckInput validates f and converts it. Palette names are accepted as colours.
func (val *Validator) DeckInput(f DeckForm) (deck.DeckInput, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Color = deck.ResolveColor(strings.TrimSpace(f.Color))
	if err := val.check(val.v.Struct(f)); err != nil {
		return deck.DeckInput{}, err
	}
	return deck.DeckInput{Title: f.Title, Description: f.Description, Color: f.Color}, nil
}

// DeckPatch validates f and converts it.
func (val *Validator) DeckPatch(f DeckUpdateForm) (deck.DeckPatch, error) {
	var patch deck.DeckPatch
	var fields []FieldError

	if f.Title != nil {
		title := strings.TrimSpace(*f.Title)
		if err := val.v.Var(title, "required,max=120"); err != nil {
			fields = append(fields, fieldErrors("title", err)...)
		}
		patch.Title = &title
	}
	if f.Description != nil {
		if err := val.v.Var(*f.Description, "max=500"); err != nil {
			fields = append(fields, fieldErrors("description", err)...)
		}
		patch.Description = f.Description
	}
	if f.Color != nil {
		color := deck.ResolveColor(strings.TrimSpace(*f.Color))
		if err := val.v.Var(color, "required,hexcolor"); err != nil {
			fields = append(fields, fieldErrors("color", err)...)
		}
		patch.Color = &color
	}
	switch {
	case f.Root:
		root := ""
		patch.ParentID = &root
	case f.ParentID != nil:
		patch.ParentID = f.ParentID
	}

	if len(fields) > 0 {
		return deck.DeckPatch{}, &FormError{Fields: fields}
	}
	return patch, nil
}

// CardInput validates f and converts it.
func (val *Validator) CardInput(f CardForm) (deck.CardInput, error) {
	f.Question = strings.TrimSpace(f.Question)
	f.Answer = strings.TrimSpace(f.Answer)
	if err := val.check(val.v.Struct(f)); err != nil {
		return deck.CardInput{}, err
	}
	return deck.CardInput{Question: f.Question, Answer: f.Answer}, nil
}

func (val *Validator) check(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := &FormError{}
	for _, e := range verrs {
		fe.Fields = append(fe.Fields, FieldError{Field: e.Field(), Msg: message(e.Field(), e.Tag(), e.Param())})
	}
	return fe
}

// fieldErrors converts the result of a single-variable check.
func fieldErrors(field string, err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: field, Msg: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, FieldError{Field: field, Msg: message(field, e.Tag(), e.Param())})
	}
	return out
}

func message(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, param)
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex colour like #ffcb91 or a palette name", field)
	default:
		return fmt.Sprintf("%s failed %s", field, tag)
	}
}
