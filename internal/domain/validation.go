package domain

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateCreate checks the fields a new blog post needs before it is sent.
func (p BlogPatch) ValidateCreate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Content, validation.Required),
		validation.Field(&p.Slug, validation.Match(slugPattern).Error("must be lowercase words separated by hyphens")),
		validation.Field(&p.Status, validation.In(toAny(BlogStatuses)...)),
	)
}

// Validate checks only the fields that are present.
func (p BlogPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&p.Slug, validation.NilOrNotEmpty, validation.Match(slugPattern).Error("must be lowercase words separated by hyphens")),
		validation.Field(&p.Status, validation.In(toAny(BlogStatuses)...)),
	)
}

// ValidateCreate checks a demo request submitted from the public site.
func (p DemoBookingPatch) ValidateCreate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&p.Email, validation.Required, is.EmailFormat),
		validation.Field(&p.Company, validation.Length(0, 160)),
		validation.Field(&p.Phone, validation.Length(0, 40)),
		validation.Field(&p.Message, validation.Length(0, 4000)),
		validation.Field(&p.Status, validation.Nil),
	)
}

// Validate checks an operator update. Visitor-supplied fields cannot change.
func (p DemoBookingPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Nil),
		validation.Field(&p.Email, validation.Nil),
		validation.Field(&p.Company, validation.Nil),
		validation.Field(&p.Phone, validation.Nil),
		validation.Field(&p.Message, validation.Nil),
		validation.Field(&p.PreferredDate, validation.Nil),
		validation.Field(&p.Status, validation.In(toAny(BookingStatuses)...)),
		validation.Field(&p.AdminNotes, validation.Length(0, 4000)),
	)
}

func (p MediaPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Filename, validation.NilOrNotEmpty),
		validation.Field(&p.Status, validation.In(toAny(MediaStatuses)...)),
	)
}

func (p UserPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&p.Role, validation.In(toAny(UserRoles)...)),
		validation.Field(&p.Status, validation.In(toAny(UserStatuses)...)),
	)
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
