package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxNameLen        = 255
	maxDescriptionLen = 4095
	maxEmailLen       = 255
)

var mailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validate checks the horse's own fields. now decides what "in the future"
// means for the birth date. Violations are ErrInvalidInput.
func (h Horse) Validate(now time.Time) error {
	var msgs []string

	if !h.Sex.IsValid() {
		msgs = append(msgs, "No sex given")
	}
	if h.DateOfBirth.IsZero() {
		msgs = append(msgs, "Horse date of birth is missing")
	} else if h.DateOfBirth.After(DateOf(now)) {
		msgs = append(msgs, "Horse birth is in the future")
	}
	switch {
	case h.Name == "":
		msgs = append(msgs, "Horse name is not set")
	case strings.TrimSpace(h.Name) == "":
		msgs = append(msgs, "Horse name is given but blank")
	}
	if utf8.RuneCountInString(h.Name) > maxNameLen {
		msgs = append(msgs, "Horse name too long: longer than 255 characters")
	}
	if h.Description != "" && strings.TrimSpace(h.Description) == "" {
		msgs = append(msgs, "Horse description is given but blank")
	}
	if utf8.RuneCountInString(h.Description) > maxDescriptionLen {
		msgs = append(msgs, "Horse description too long: longer than 4095 characters")
	}

	if len(msgs) > 0 {
		return &Error{Op: "validate horse", ID: h.ID, Kind: ErrInvalidInput, Messages: msgs}
	}
	return nil
}

// ValidateParents checks the parent constellation of h. father and mother
// are the stored records referenced by h, nil when not set. Violations are
// ErrConflict.
func ValidateParents(h Horse, father, mother *Horse) error {
	var msgs []string

	if father != nil {
		self := h.ID != 0 && father.ID == h.ID
		if self {
			msgs = append(msgs, "The father of the horse cannot be the horse itself")
		}
		if father.Sex != SexMale {
			msgs = append(msgs, "The father has to be a male")
		}
		if !self && !h.DateOfBirth.After(father.DateOfBirth) {
			msgs = append(msgs, "The father has to be born before the child")
		}
	}
	if mother != nil {
		self := h.ID != 0 && mother.ID == h.ID
		if self {
			msgs = append(msgs, "The mother of the horse cannot be the horse itself")
		}
		if mother.Sex != SexFemale {
			msgs = append(msgs, "The mother has to be a female")
		}
		if !self && !h.DateOfBirth.After(mother.DateOfBirth) {
			msgs = append(msgs, "The mother has to be born before the child")
		}
	}

	if len(msgs) > 0 {
		return &Error{Op: "validate parents", ID: h.ID, Kind: ErrConflict, Messages: msgs}
	}
	return nil
}

// ValidateSexChange rejects changing the sex of a horse that already has
// offspring, since that would invalidate the children's parent roles.
func ValidateSexChange(old, updated Horse, hasChildren bool) error {
	if hasChildren && old.Sex != updated.Sex {
		return Newf("validate parents", ErrConflict, "Cannot change sex of horse which has children")
	}
	return nil
}

// Validate checks the owner's fields. Violations are ErrInvalidInput.
func (o Owner) Validate() error {
	var msgs []string
	msgs = appendOwnerName(msgs, o.FirstName, "firstname")
	msgs = appendOwnerName(msgs, o.LastName, "lastname")
	if o.Email != "" {
		if strings.TrimSpace(o.Email) == "" {
			msgs = append(msgs, "Owner email is given but blank")
		}
		if utf8.RuneCountInString(o.Email) > maxEmailLen {
			msgs = append(msgs, "Owner email too long: longer than 255 characters")
		}
		if !mailPattern.MatchString(o.Email) {
			msgs = append(msgs, "Owner email is not in a valid format")
		}
	}
	if len(msgs) > 0 {
		return &Error{Op: "validate owner", ID: o.ID, Kind: ErrInvalidInput, Messages: msgs}
	}
	return nil
}

func appendOwnerName(msgs []string, name, field string) []string {
	if name == "" {
		return append(msgs, "Owner "+field+" is missing")
	}
	if strings.TrimSpace(name) == "" {
		msgs = append(msgs, "Owner "+field+" is given but blank")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		msgs = append(msgs, "Owner "+field+" too long: longer than 255 characters")
	}
	return msgs
}

// ParseHorseID parses a horse id from user or route input. Anything that is
// not a positive decimal integer is ErrInvalidInput.
func ParseHorseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, &Error{Op: "parse id", Kind: ErrInvalidInput, Messages: []string{"Invalid horse id given"}, Err: err}
	}
	return id, nil
}

// MaxGenerations bounds the depth of one tree request.
const MaxGenerations = 64

// ValidateTreeRequest checks the arguments of an ancestor fetch before any
// query is made.
func ValidateTreeRequest(id int64, generations int) error {
	var msgs []string
	if id <= 0 {
		msgs = append(msgs, "No valid ID given")
	}
	if generations < 1 {
		msgs = append(msgs, "Ancestor generations must be at least 1")
	}
	if generations > MaxGenerations {
		msgs = append(msgs, fmt.Sprintf("Ancestor generations must be at most %d", MaxGenerations))
	}
	if len(msgs) > 0 {
		return &Error{Op: "tree", ID: id, Kind: ErrInvalidInput, Messages: msgs}
	}
	return nil
}
