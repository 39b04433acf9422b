package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// dateColumn scans DATE columns regardless of whether the driver hands back
// text (sqlite) or time.Time (postgres).
type dateColumn struct {
	date model.Date
}

func (d *dateColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.date = model.Date{}
	case time.Time:
		d.date = model.DateOf(v)
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported date value %T", src)
	}
	return nil
}

func (d *dateColumn) parse(s string) error {
	// sqlite may hand back "2006-01-02 00:00:00+00:00" for values written
	// by other tools.
	if len(s) > len(model.DateLayout) {
		s = s[:len(model.DateLayout)]
	}
	parsed, err := model.ParseDate(s)
	if err != nil {
		return err
	}
	d.date = parsed
	return nil
}

func scanHorse(row rowScanner) (model.Horse, error) {
	var (
		h                     model.Horse
		description           sql.NullString
		born                  dateColumn
		sex                   string
		owner, father, mother sql.NullInt64
	)
	if err := row.Scan(&h.ID, &h.Name, &description, &born, &sex, &owner, &father, &mother); err != nil {
		return model.Horse{}, err
	}
	parsedSex, err := model.ParseSex(sex)
	if err != nil {
		return model.Horse{}, fmt.Errorf("horse %d: %w", h.ID, err)
	}
	h.Description = description.String
	h.DateOfBirth = born.date
	h.Sex = parsedSex
	h.OwnerID = idOf(owner)
	h.FatherID = idOf(father)
	h.MotherID = idOf(mother)
	return h, nil
}

func scanHorses(rows *sql.Rows) ([]model.Horse, error) {
	defer func() { _ = rows.Close() }()
	var horses []model.Horse
	for rows.Next() {
		h, err := scanHorse(rows)
		if err != nil {
			return nil, err
		}
		horses = append(horses, h)
	}
	return horses, rows.Err()
}

func idOf(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return model.Ref(v.Int64)
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// sexValue is the stored form, upper case like the REST wire format.
func sexValue(s model.Sex) string {
	return strings.ToUpper(string(s))
}
