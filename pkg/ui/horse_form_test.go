package ui

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

func TestHorseFormValuesHorse(t *testing.T) {
	h, err := HorseFormValues{
		Name:   "  Carla ",
		Born:   "2015-06-01",
		Sex:    "Female",
		Owner:  "3",
		Mother: " 42 ",
	}.Horse()
	if err != nil {
		t.Fatal(err)
	}
	if h.Name != "Carla" || h.Sex != model.SexFemale || h.DateOfBirth != model.NewDate(2015, time.June, 1) {
		t.Errorf("got %+v", h)
	}
	if h.OwnerID == nil || *h.OwnerID != 3 || h.MotherID == nil || *h.MotherID != 42 || h.FatherID != nil {
		t.Errorf("references = owner %v, father %v, mother %v", h.OwnerID, h.FatherID, h.MotherID)
	}
}

func TestHorseFormValuesCollectsAllErrors(t *testing.T) {
	_, err := HorseFormValues{Name: "X", Born: "1.6.2015", Sex: "pony", Father: "-1", Mother: "abc"}.Horse()
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	want := []string{
		"Date of birth must look like 2006-01-02",
		"No sex given",
		"Father id must be a positive number",
		"Mother id must be a positive number",
	}
	if got := model.MessagesOf(err); !slices.Equal(got, want) {
		t.Errorf("messages = %q", got)
	}
}

func TestHorseFormDefaultsToFemale(t *testing.T) {
	f := NewHorseFormModel(context.Background(), newFakeStore(), HorseFormValues{})
	if f.Values().Sex != string(model.SexFemale) {
		t.Errorf("sex = %q", f.Values().Sex)
	}
}

func TestHorseFormSubmitParseErrorSkipsStore(t *testing.T) {
	fs := newFakeStore()
	f := NewHorseFormModel(context.Background(), fs, HorseFormValues{Name: "X", Born: "soon"})
	msg := f.Submit()().(HorseCreatedMsg)
	if msg.Err == nil || len(fs.created) != 0 {
		t.Errorf("err %v, created %d", msg.Err, len(fs.created))
	}
	if msg.Values.Born != "soon" {
		t.Error("submitted values not returned")
	}
}
