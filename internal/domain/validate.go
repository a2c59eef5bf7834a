package domain

import (
	"regexp"
	"time"
)

// ValidationContext carries the cross-field inputs validation needs: the
// clock and the session owner's email (for the self-invite rule).
type ValidationContext struct {
	Now       func() time.Time
	UserEmail string
}

func (vc ValidationContext) now() time.Time {
	if vc.Now == nil {
		return time.Now()
	}
	return vc.Now()
}

// Age bounds for the date-of-birth rule.
const (
	MinAge = 18
	MaxAge = 120
)

// MaxWeddingYearsAhead bounds how far out a wedding date may be set.
const MaxWeddingYearsAhead = 10

// namePattern accepts letters, spaces, hyphens and apostrophes.
var namePattern = regexp.MustCompile(`^[\p{L}][\p{L} '-]*$`)

// emailPattern is a syntactic check only; deliverability is out of scope.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validation messages. Exposed as constants so the HTTP layer and tests
// can match on them without duplicating strings.
const (
	MsgFirstNameRequired     = "first name is required"
	MsgNameFormat            = "use 2-50 letters, spaces, hyphens or apostrophes"
	MsgDateOfBirthRequired   = "date of birth is required"
	MsgDateOfBirthFormat     = "enter the date as YYYY-MM-DD"
	MsgTooYoung              = "you must be at least 18 years old"
	MsgTooOld                = "please enter a valid date of birth"
	MsgGenderRequired        = "gender is required"
	MsgGenderInvalid         = "select a gender option"
	MsgMaritalRequired       = "relationship status is required"
	MsgMaritalInvalid        = "select a relationship status"
	MsgCityRequired          = "city is required when a country is selected"
	MsgWeddingDateFormat     = "enter the date as YYYY-MM-DD"
	MsgWeddingDatePast       = "wedding date cannot be in the past"
	MsgWeddingDateTooFar     = "wedding date cannot be more than 10 years away"
	MsgPartnerEmailRequired  = "partner email is required when your partner uses the app"
	MsgPartnerEmailFormat    = "enter a valid email address"
	MsgPartnerEmailIsOwn     = "you cannot use your own email for your partner"
)

// ValidateField maps a single field's current draft value, plus any sibling
// fields its rule depends on, to an error message. An empty string means
// valid. Pure: identical inputs always yield identical results.
func ValidateField(f Field, d Draft, vc ValidationContext) string {
	switch f {
	case FieldFirstName:
		v := d.Get(f)
		if v == "" {
			return MsgFirstNameRequired
		}
		return validateName(v)
	case FieldLastName, FieldPartnerName:
		if v := d.Get(f); v != "" {
			return validateName(v)
		}
	case FieldDateOfBirth:
		return validateDateOfBirth(d.Get(f), vc.now())
	case FieldGender:
		v := d.Get(f)
		if v == "" {
			return MsgGenderRequired
		}
		for _, g := range Genders {
			if Gender(v) == g {
				return ""
			}
		}
		return MsgGenderInvalid
	case FieldMaritalStatus:
		v := d.Get(f)
		if v == "" {
			return MsgMaritalRequired
		}
		for _, m := range MaritalStatuses {
			if MaritalStatus(v) == m {
				return ""
			}
		}
		return MsgMaritalInvalid
	case FieldCity:
		if d.Get(FieldCountry) != "" && d.Get(FieldCity) == "" {
			return MsgCityRequired
		}
	case FieldWeddingDate:
		if v := d.Get(f); v != "" {
			return validateWeddingDate(v, vc.now())
		}
	case FieldPartnerEmail:
		return validatePartnerEmail(d, vc)
	}
	return ""
}

// ValidateStep aggregates the rules for every field the step owns,
// regardless of touched state. The result carries an entry per invalid
// field; an empty map means the step is valid.
func ValidateStep(step Step, d Draft, vc ValidationContext) map[Field]string {
	errs := make(map[Field]string)
	for _, f := range StepFields(step) {
		if msg := ValidateField(f, d, vc); msg != "" {
			errs[f] = msg
		}
	}
	return errs
}

func validateName(v string) string {
	runes := []rune(v)
	if len(runes) < 2 || len(runes) > 50 || !namePattern.MatchString(v) {
		return MsgNameFormat
	}
	return ""
}

func validateDateOfBirth(v string, now time.Time) string {
	if v == "" {
		return MsgDateOfBirthRequired
	}
	dob, err := time.Parse(DateFormat, v)
	if err != nil {
		return MsgDateOfBirthFormat
	}
	// Boundary-exact: born exactly MinAge years ago passes, one day later
	// fails; born exactly MaxAge years ago passes, one day earlier fails.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if dob.After(today.AddDate(-MinAge, 0, 0)) {
		return MsgTooYoung
	}
	if dob.Before(today.AddDate(-MaxAge, 0, 0)) {
		return MsgTooOld
	}
	return ""
}

func validateWeddingDate(v string, now time.Time) string {
	wd, err := time.Parse(DateFormat, v)
	if err != nil {
		return MsgWeddingDateFormat
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if wd.Before(today) {
		return MsgWeddingDatePast
	}
	if wd.After(today.AddDate(MaxWeddingYearsAhead, 0, 0)) {
		return MsgWeddingDateTooFar
	}
	return ""
}

func validatePartnerEmail(d Draft, vc ValidationContext) string {
	if !d.PartnerUsingApp() {
		return ""
	}
	v := d.Get(FieldPartnerEmail)
	if v == "" {
		return MsgPartnerEmailRequired
	}
	if !emailPattern.MatchString(v) {
		return MsgPartnerEmailFormat
	}
	if NormalizeEmail(v) == NormalizeEmail(vc.UserEmail) && vc.UserEmail != "" {
		return MsgPartnerEmailIsOwn
	}
	return ""
}
