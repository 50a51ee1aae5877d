package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/leomatch/internal/db"
)

// Update lists every user-editable profile field. Nil fields are left as they are;
// a pointer to "" clears the field.
type Update struct {
	DisplayName     *string `json:"display_name,omitempty" validate:"omitempty,max=128"`
	PhotoRef        *string `json:"photo_ref,omitempty" validate:"omitempty,max=255"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=1024"`
	Contact         *string `json:"contact,omitempty" validate:"omitempty,max=64"`
	Gender          *string `json:"gender,omitempty" validate:"omitempty,oneof=m f other"`
	PreferredGender *string `json:"preferred_gender,omitempty" validate:"omitempty,oneof=m f other any"`
	Country         *string `json:"country,omitempty" validate:"omitempty,max=64"`
	City            *string `json:"city,omitempty" validate:"omitempty,max=64"`
}

// genderAliases maps accepted spellings onto stored values.
var genderAliases = map[string]string{
	"m": "m", "male": "m", "man": "m", "hombre": "m",
	"f": "f", "female": "f", "woman": "f", "mujer": "f",
	"other": "other", "otro": "other",
	db.AnyGender: db.AnyGender, "all": db.AnyGender, "todos": db.AnyGender, "*": db.AnyGender,
}

// Field names accepted by SetField, in prompt order.
const (
	FieldPhoto           = "photo"
	FieldDescription     = "description"
	FieldContact         = "contact"
	FieldGender          = "gender"
	FieldPreferredGender = "preferred_gender"
	FieldCountry         = "country"
	FieldCity            = "city"
	FieldDisplayName     = "display_name"
)

// Fields is the editable field list shown by the edit flow.
var Fields = []string{
	FieldPhoto, FieldDescription, FieldContact, FieldGender,
	FieldPreferredGender, FieldCountry, FieldCity, FieldDisplayName,
}

// SetField sets one field by name.
func (u *Update) SetField(name, value string) error {
	switch name {
	case FieldPhoto:
		u.PhotoRef = &value
	case FieldDescription:
		u.Description = &value
	case FieldContact:
		u.Contact = &value
	case FieldGender:
		u.Gender = &value
	case FieldPreferredGender:
		u.PreferredGender = &value
	case FieldCountry:
		u.Country = &value
	case FieldCity:
		u.City = &value
	case FieldDisplayName:
		u.DisplayName = &value
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidUpdate, name)
	}
	return nil
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return len(u.Columns()) == 0
}

// Normalize trims every field, lower-cases location and gender values and
// resolves gender aliases. Unknown genders are kept so Validate rejects them.
func (u *Update) Normalize() {
	for _, f := range []*string{u.DisplayName, u.PhotoRef, u.Description, u.Contact} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	for _, f := range []*string{u.Country, u.City} {
		if f != nil {
			*f = strings.ToLower(strings.TrimSpace(*f))
		}
	}
	for _, f := range []*string{u.Gender, u.PreferredGender} {
		if f == nil {
			continue
		}
		v := strings.ToLower(strings.TrimSpace(*f))
		if alias, ok := genderAliases[v]; ok {
			v = alias
		}
		*f = v
	}
}

// Validate checks the struct tags.
func (u Update) Validate(v *validator.Validate) error {
	err := v.Struct(u)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidUpdate, strings.Join(msgs, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
}

// Columns maps the set fields onto profile columns.
func (u Update) Columns() map[string]any {
	cols := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	set("display_name", u.DisplayName)
	set("photo_ref", u.PhotoRef)
	set("description", u.Description)
	set("contact", u.Contact)
	set("gender", u.Gender)
	set("preferred_gender", u.PreferredGender)
	set("country", u.Country)
	set("city", u.City)
	return cols
}
