package domain

import (
	"strings"
	"time"
)

// Gender represents the enumerated gender choices on a profile.
type Gender string

const (
	GenderFemale         Gender = "female"
	GenderMale           Gender = "male"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

// Genders lists the valid gender values.
var Genders = []Gender{GenderFemale, GenderMale, GenderPreferNotToSay}

// MaritalStatus represents the enumerated relationship stages.
type MaritalStatus string

const (
	MaritalEngaged   MaritalStatus = "engaged"
	MaritalMarried   MaritalStatus = "married"
	MaritalPartnered MaritalStatus = "partnered"
)

// MaritalStatuses lists the valid marital status values.
var MaritalStatuses = []MaritalStatus{MaritalEngaged, MaritalMarried, MaritalPartnered}

// DateFormat is the wire and storage format for calendar dates.
const DateFormat = "2006-01-02"

// Profile is the durable record the wizard persists. Required attributes
// are plain values; optional attributes are pointers, collapsed to SQL
// NULL at the storage boundary.
type Profile struct {
	UserID        string
	Email         string
	FirstName     string
	LastName      *string
	DateOfBirth   time.Time
	Age           *int
	Gender        Gender
	MaritalStatus MaritalStatus
	Country       *string
	City          *string
	PartnerName   *string
	WeddingDate   *time.Time
	PartnerUsing  *bool
	PartnerEmail  *string
	PartnerID     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Complete reports whether the profile satisfies the downstream routing
// gate: first name, date of birth, gender and marital status all set.
func (p Profile) Complete() bool {
	return p.FirstName != "" &&
		!p.DateOfBirth.IsZero() &&
		p.Gender != "" &&
		p.MaritalStatus != ""
}

// AgeAt returns the calendar age in whole years at the given instant.
func AgeAt(birth, at time.Time) int {
	years := at.Year() - birth.Year()
	anniversary := time.Date(birth.Year()+years, birth.Month(), birth.Day(), 0, 0, 0, 0, at.Location())
	if at.Before(anniversary) {
		years--
	}
	return years
}

// Field names a single wizard input.
type Field string

const (
	FieldFirstName     Field = "first_name"
	FieldLastName      Field = "last_name"
	FieldDateOfBirth   Field = "date_of_birth"
	FieldGender        Field = "gender"
	FieldMaritalStatus Field = "marital_status"
	FieldCountry       Field = "country"
	FieldCity          Field = "city"
	FieldPartnerName   Field = "partner_name"
	FieldWeddingDate   Field = "wedding_date"
	FieldPartnerUsing  Field = "partner_using_app"
	FieldPartnerEmail  Field = "partner_email"
)

// Fields lists every wizard input in display order.
var Fields = []Field{
	FieldFirstName, FieldLastName,
	FieldDateOfBirth, FieldGender, FieldMaritalStatus,
	FieldCountry, FieldCity,
	FieldPartnerName, FieldWeddingDate, FieldPartnerUsing, FieldPartnerEmail,
}

// KnownField reports whether f names a wizard input.
func KnownField(f Field) bool {
	for _, known := range Fields {
		if known == f {
			return true
		}
	}
	return false
}

// Draft holds the raw string values the user has entered, keyed by field.
// Dates use DateFormat; the partner_using_app flag uses "true"/"false".
type Draft map[Field]string

// Get returns the trimmed value of a field, "" when unset.
func (d Draft) Get(f Field) string {
	return strings.TrimSpace(d[f])
}

// PartnerUsingApp reports whether the partner-uses-the-app flag is set.
func (d Draft) PartnerUsingApp() bool {
	return d.Get(FieldPartnerUsing) == "true"
}

// SeedDraft pre-populates a draft from an existing profile so the wizard
// carries edit/resume semantics. A zero profile yields an empty draft.
func SeedDraft(p Profile) Draft {
	d := make(Draft)
	set := func(f Field, v string) {
		if v != "" {
			d[f] = v
		}
	}
	set(FieldFirstName, p.FirstName)
	if p.LastName != nil {
		set(FieldLastName, *p.LastName)
	}
	if !p.DateOfBirth.IsZero() {
		set(FieldDateOfBirth, p.DateOfBirth.Format(DateFormat))
	}
	set(FieldGender, string(p.Gender))
	set(FieldMaritalStatus, string(p.MaritalStatus))
	if p.Country != nil {
		set(FieldCountry, *p.Country)
	}
	if p.City != nil {
		set(FieldCity, *p.City)
	}
	if p.PartnerName != nil {
		set(FieldPartnerName, *p.PartnerName)
	}
	if p.WeddingDate != nil {
		set(FieldWeddingDate, p.WeddingDate.Format(DateFormat))
	}
	if p.PartnerUsing != nil {
		if *p.PartnerUsing {
			d[FieldPartnerUsing] = "true"
		} else {
			d[FieldPartnerUsing] = "false"
		}
	}
	if p.PartnerEmail != nil {
		set(FieldPartnerEmail, *p.PartnerEmail)
	}
	return d
}

// BuildProfile assembles the durable record from a validated draft.
// Optional fields left blank collapse to nil rather than empty strings.
// The caller is responsible for having validated the draft; unparsable
// dates are treated as absent.
func BuildProfile(d Draft, userID, email string, now func() time.Time) Profile {
	if now == nil {
		now = time.Now
	}
	ts := now().UTC()

	p := Profile{
		UserID:        userID,
		Email:         email,
		FirstName:     d.Get(FieldFirstName),
		Gender:        Gender(d.Get(FieldGender)),
		MaritalStatus: MaritalStatus(d.Get(FieldMaritalStatus)),
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}

	if dob, err := time.Parse(DateFormat, d.Get(FieldDateOfBirth)); err == nil {
		p.DateOfBirth = dob
		age := AgeAt(dob, ts)
		p.Age = &age
	}

	p.LastName = optString(d.Get(FieldLastName))
	p.Country = optString(d.Get(FieldCountry))
	p.City = optString(d.Get(FieldCity))
	p.PartnerName = optString(d.Get(FieldPartnerName))

	if wd, err := time.Parse(DateFormat, d.Get(FieldWeddingDate)); err == nil {
		p.WeddingDate = &wd
	}

	if raw := d.Get(FieldPartnerUsing); raw != "" {
		using := raw == "true"
		p.PartnerUsing = &using
	}
	if p.PartnerUsing != nil && *p.PartnerUsing {
		p.PartnerEmail = optString(NormalizeEmail(d.Get(FieldPartnerEmail)))
	}

	return p
}

// NormalizeEmail lowercases and trims an address for comparison and storage.
// Normalization is ASCII trim plus lowercase; no Unicode folding.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
