package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

// SeedResult names the ids created by Seed.
type SeedResult struct {
	Owners []model.Owner
	Horses map[string]model.Horse
}

type seedHorse struct {
	name, father, mother, owner string
	sex                         model.Sex
	born                        model.Date
	description                 string
}

// Seed fills an empty store with a small three-generation family so the
// tree view has something to show. Parents are created before children.
func Seed(ctx context.Context, s RecordStore) (SeedResult, error) {
	res := SeedResult{Horses: make(map[string]model.Horse)}
	owners := map[string]model.Owner{}
	for _, o := range []model.Owner{
		{FirstName: "Anna", LastName: "Huber", Email: "anna.huber@example.org"},
		{FirstName: "Lukas", LastName: "Berger"},
	} {
		created, err := s.CreateOwner(ctx, o)
		if err != nil {
			return res, fmt.Errorf("seed owner %s: %w", o.FullName(), err)
		}
		owners[o.FirstName] = created
		res.Owners = append(res.Owners, created)
	}

	day := func(y int, m time.Month, d int) model.Date { return model.NewDate(y, m, d) }
	horses := []seedHorse{
		{name: "Northwind", sex: model.SexMale, born: day(2004, time.April, 2), owner: "Lukas"},
		{name: "Silver Fern", sex: model.SexFemale, born: day(2005, time.May, 19)},
		{name: "Kestrel", sex: model.SexMale, born: day(2006, time.March, 11)},
		{name: "Moonlit Bay", sex: model.SexFemale, born: day(2006, time.June, 30), owner: "Anna"},
		{name: "Alice", sex: model.SexFemale, born: day(2012, time.February, 14),
			father: "Northwind", mother: "Silver Fern", owner: "Anna",
			description: "Calm mare, good with foals."},
		{name: "Storm Warden", sex: model.SexMale, born: day(2011, time.August, 5),
			father: "Kestrel", mother: "Moonlit Bay", owner: "Lukas"},
		{name: "Bob", sex: model.SexMale, born: day(2018, time.May, 1),
			father: "Storm Warden", mother: "Alice", owner: "Anna",
			description: "Bay gelding prospect."},
	}
	for _, sh := range horses {
		h := model.Horse{Name: sh.name, Description: sh.description, Sex: sh.sex, DateOfBirth: sh.born}
		if sh.owner != "" {
			h.OwnerID = model.Ref(owners[sh.owner].ID)
		}
		if sh.father != "" {
			h.FatherID = model.Ref(res.Horses[sh.father].ID)
		}
		if sh.mother != "" {
			h.MotherID = model.Ref(res.Horses[sh.mother].ID)
		}
		created, err := s.CreateHorse(ctx, h)
		if err != nil {
			return res, fmt.Errorf("seed horse %s: %w", sh.name, err)
		}
		res.Horses[sh.name] = created
	}
	return res, nil
}
