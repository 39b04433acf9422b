package sqlstore

import (
	"testing"
	"time"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

func TestDateColumn_Scan(t *testing.T) {
	want := model.NewDate(2012, time.February, 14)
	tests := []struct {
		name string
		src  any
	}{
		{"text", "2012-02-14"},
		{"bytes", []byte("2012-02-14")},
		{"timestamp text", "2012-02-14 00:00:00+00:00"},
		{"time", time.Date(2012, 2, 14, 15, 4, 5, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d dateColumn
			if err := d.Scan(tt.src); err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if !d.date.Equal(want.Time) {
				t.Errorf("date = %v, want %v", d.date, want)
			}
		})
	}

	var d dateColumn
	if err := d.Scan(nil); err != nil || !d.date.IsZero() {
		t.Errorf("nil scan = %v, %v", d.date, err)
	}
	if err := d.Scan(42); err == nil {
		t.Error("expected error for int")
	}
}

func TestNullHelpers(t *testing.T) {
	if nullID(nil).Valid {
		t.Error("nullID(nil) should be invalid")
	}
	if v := nullID(model.Ref(3)); !v.Valid || v.Int64 != 3 {
		t.Errorf("nullID(3) = %+v", v)
	}
	if nullString("").Valid {
		t.Error("empty string should be NULL")
	}
	if sexValue(model.SexFemale) != "FEMALE" {
		t.Error("sexValue mismatch")
	}
}
