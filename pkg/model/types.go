package model

import (
	"fmt"
	"strings"
	"time"
)

// Sex of a horse. Exactly two values are recognized.
type Sex string

const (
	SexFemale Sex = "female"
	SexMale   Sex = "male"
)

// IsValid returns true if the sex is a recognized value
func (s Sex) IsValid() bool {
	return s == SexFemale || s == SexMale
}

// ParseSex accepts any casing ("FEMALE", "male", ...).
func ParseSex(s string) (Sex, error) {
	switch Sex(strings.ToLower(strings.TrimSpace(s))) {
	case SexFemale:
		return SexFemale, nil
	case SexMale:
		return SexMale, nil
	}
	return "", fmt.Errorf("invalid sex: %q", s)
}

// UnmarshalText lets JSON/YAML decoders accept the upper-case wire form.
func (s *Sex) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = ""
		return nil
	}
	parsed, err := ParseSex(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without time-of-day or zone.
type Date struct {
	time.Time
}

// NewDate builds a Date in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses YYYY-MM-DD, falling back to RFC 3339 timestamps which
// browsers tend to send for date fields.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected %s", s, DateLayout)
	}
	return DateOf(t), nil
}

// String returns the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// After reports whether d is a later day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD", RFC 3339 strings and null.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Horse is a stored horse record. Parents and owner are references by id.
type Horse struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DateOfBirth Date   `json:"dateOfBirth"`
	Sex         Sex    `json:"sex"`
	OwnerID     *int64 `json:"ownerId,omitempty"`
	FatherID    *int64 `json:"fatherId,omitempty"`
	MotherID    *int64 `json:"motherId,omitempty"`
}

// Clone creates a deep copy of the horse
func (h Horse) Clone() Horse {
	clone := h
	clone.OwnerID = cloneID(h.OwnerID)
	clone.FatherID = cloneID(h.FatherID)
	clone.MotherID = cloneID(h.MotherID)
	return clone
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// Ref returns a pointer to id, for filling the optional reference fields.
func Ref(id int64) *int64 {
	return &id
}

// Owner is a person owning horses.
type Owner struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

// FullName joins the non-empty name parts.
func (o Owner) FullName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{o.FirstName, o.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// HorseSearch narrows a horse listing. Zero fields do not filter.
type HorseSearch struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	BornBefore  *Date  `json:"bornBefore,omitempty"`
	Sex         Sex    `json:"sex,omitempty"`
	OwnerName   string `json:"ownerName,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (s HorseSearch) IsEmpty() bool {
	return s.Name == "" && s.Description == "" && s.BornBefore == nil &&
		s.Sex == "" && s.OwnerName == "" && s.Limit == 0
}
