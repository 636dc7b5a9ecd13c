// Package models holds the plant entities managed through the request pipeline.
package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Base carries identity, plant ownership and bookkeeping shared by every entity.
type Base struct {
	ID         int64      `json:"id"`
	PlantID    *int64     `json:"plant_id,omitempty"`
	CreatedBy  string     `json:"created_by,omitempty" sanitize:"-" validate:"-"`
	CreatedOn  time.Time  `json:"created_on" validate:"-"`
	ModifiedBy string     `json:"modified_by,omitempty" sanitize:"-" validate:"-"`
	ModifiedOn *time.Time `json:"modified_on,omitempty" validate:"-"`
}

// Meta exposes the shared fields to the pipeline and repositories.
func (b *Base) Meta() *Base { return b }

// Stamp records creation. ModifiedBy and ModifiedOn are cleared.
func (b *Base) Stamp(by string, on time.Time) {
	b.CreatedBy = by
	b.CreatedOn = on
	b.ModifiedBy = ""
	b.ModifiedOn = nil
}

// Touch records a modification.
func (b *Base) Touch(by string, on time.Time) {
	b.ModifiedBy = by
	b.ModifiedOn = &on
}

// Date is a calendar date without time of day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		d.Time = time.Time{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return &time.ParseError{Layout: dateLayout, Value: s}
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// YearsUntil returns whole years from d until on.
func (d Date) YearsUntil(on time.Time) int {
	years := on.Year() - d.Year()
	if on.Month() < d.Month() || (on.Month() == d.Month() && on.Day() < d.Day()) {
		years--
	}
	return years
}

// Value stores zero dates as NULL.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}
