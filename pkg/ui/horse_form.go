package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

// HorseCreatedMsg is returned after the create form was submitted.
type HorseCreatedMsg struct {
	Horse  model.Horse
	Err    error
	Values HorseFormValues
}

// HorseFormValues are the raw strings bound to the form fields.
type HorseFormValues struct {
	Name        string
	Description string
	Born        string
	Sex         string
	Owner       string
	Father      string
	Mother      string
}

// Horse converts the form values. Parse failures are ErrInvalidInput
// with one message per bad field; the store applies the full validation.
func (v HorseFormValues) Horse() (model.Horse, error) {
	var msgs []string
	h := model.Horse{
		Name:        strings.TrimSpace(v.Name),
		Description: strings.TrimSpace(v.Description),
	}
	if v.Born != "" {
		d, err := model.ParseDate(v.Born)
		if err != nil {
			msgs = append(msgs, "Date of birth must look like 2006-01-02")
		} else {
			h.DateOfBirth = d
		}
	}
	if v.Sex != "" {
		sex, err := model.ParseSex(v.Sex)
		if err != nil {
			msgs = append(msgs, "No sex given")
		} else {
			h.Sex = sex
		}
	}
	for _, ref := range []struct {
		label string
		raw   string
		dst   **int64
	}{
		{"Owner", v.Owner, &h.OwnerID},
		{"Father", v.Father, &h.FatherID},
		{"Mother", v.Mother, &h.MotherID},
	} {
		id, err := parseOptionalID(ref.raw)
		if err != nil {
			msgs = append(msgs, ref.label+" id must be a positive number")
			continue
		}
		*ref.dst = id
	}
	if len(msgs) > 0 {
		return model.Horse{}, &model.Error{Op: "create horse", Kind: model.ErrInvalidInput, Messages: msgs}
	}
	return h, nil
}

func parseOptionalID(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid id %q", s)
	}
	return &id, nil
}

// HorseFormModel wraps a huh form that creates one horse.
type HorseFormModel struct {
	ctx       context.Context
	store     store.RecordStore
	form      *huh.Form
	values    *HorseFormValues
	submitted bool
}

// NewHorseFormModel builds the form, prefilled with values.
func NewHorseFormModel(ctx context.Context, s store.RecordStore, values HorseFormValues) *HorseFormModel {
	v := &values
	if v.Sex == "" {
		v.Sex = string(model.SexFemale)
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&v.Name).Validate(requireText("Horse name is not set")),
			huh.NewText().Title("Description").Value(&v.Description).Lines(3),
			huh.NewInput().Title("Date of birth").Placeholder(model.DateLayout).Value(&v.Born).
				Validate(func(s string) error {
					if _, err := model.ParseDate(s); err != nil {
						return fmt.Errorf("use the form %s", model.DateLayout)
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Sex").Value(&v.Sex).Options(
				huh.NewOption("♀ female", string(model.SexFemale)),
				huh.NewOption("♂ male", string(model.SexMale)),
			),
		),
		huh.NewGroup(
			huh.NewInput().Title("Owner id").Description("optional").Value(&v.Owner).Validate(validateOptionalID),
			huh.NewInput().Title("Father id").Description("optional").Value(&v.Father).Validate(validateOptionalID),
			huh.NewInput().Title("Mother id").Description("optional").Value(&v.Mother).Validate(validateOptionalID),
		),
	).WithShowHelp(true)

	return &HorseFormModel{ctx: ctx, store: s, form: form, values: v}
}

func requireText(msg string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s", msg)
		}
		return nil
	}
}

func validateOptionalID(s string) error {
	_, err := parseOptionalID(s)
	return err
}

// Init starts the form.
func (f *HorseFormModel) Init() tea.Cmd {
	return f.form.Init()
}

// Update forwards to the form and submits once it completes.
func (f *HorseFormModel) Update(msg tea.Msg) tea.Cmd {
	m, cmd := f.form.Update(msg)
	if form, ok := m.(*huh.Form); ok {
		f.form = form
	}
	switch f.form.State {
	case huh.StateCompleted:
		if !f.submitted {
			f.submitted = true
			return tea.Batch(cmd, f.Submit())
		}
	case huh.StateAborted:
		return Navigate(ViewList)
	}
	return cmd
}

// Submit sends the current values to the store.
func (f *HorseFormModel) Submit() tea.Cmd {
	ctx, s, values := f.ctx, f.store, *f.values
	return func() tea.Msg {
		h, err := values.Horse()
		if err != nil {
			return HorseCreatedMsg{Err: err, Values: values}
		}
		created, err := s.CreateHorse(ctx, h)
		return HorseCreatedMsg{Horse: created, Err: err, Values: values}
	}
}

// Values returns the current field values.
func (f *HorseFormModel) Values() HorseFormValues {
	return *f.values
}

// View renders the form.
func (f *HorseFormModel) View() string {
	return f.form.View()
}
