package refectory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"campus/internal/clock"
)

// Status is the lifecycle state of a form
type Status string

const (
	StatusScheduled    Status = "scheduled"
	StatusOpenToAnswer Status = "openToAnswer"
	StatusOpen         Status = "open"
	StatusClosed       Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusOpenToAnswer, StatusOpen, StatusClosed:
		return true
	}
	return false
}

// Menu holds the optional text served at each meal
type Menu struct {
	Breakfast      *string `json:"breakfast"`
	Lunch          *string `json:"lunch"`
	AfternoonSnack *string `json:"afternoonSnack"`
	Dinner         *string `json:"dinner"`
	NightSnack     *string `json:"nightSnack"`
}

// Form is one day's meal reservation record
type Form struct {
	ID               string    `json:"id"`
	Status           Status    `json:"status"`
	VigencyDate      time.Time `json:"vigencyDate"`
	StartAnswersDate time.Time `json:"startAnswersDate"`
	MenuURL          *string   `json:"menuUrl"`
	Menu             Menu      `json:"menu"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CurrentForm is the form currently taking answers or being served, seen
// from one user
type CurrentForm struct {
	Form
	HasAnswered bool `json:"hasAnswered"`
}

// Flag is an opt-in meal selection, serialized as 0 or 1
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "1", "true":
		*f = true
	case "0", "false", "null":
		*f = false
	default:
		return fmt.Errorf("meal flag must be 0 or 1, got %s", data)
	}
	return nil
}

// Int returns the flag as 0 or 1
func (f Flag) Int() int {
	if f {
		return 1
	}
	return 0
}

// Meals is the set of meals a user opts into for a form
type Meals struct {
	Breakfast      Flag `json:"breakfast"`
	Lunch          Flag `json:"lunch"`
	AfternoonSnack Flag `json:"afternoonSnack"`
	Dinner         Flag `json:"dinner"`
	NightSnack     Flag `json:"nightSnack"`
}

// Answer is a single user's meal selection for one form
type Answer struct {
	ID        string    `json:"id"`
	FormID    string    `json:"refectoryId"`
	UserID    int64     `json:"userId"`
	Meals               // flattened on the wire
	CreatedAt time.Time `json:"createdAt"`
}

// Date is a calendar day sent by clients. It accepts "2006-01-02", RFC 3339
// timestamps and unix milliseconds.
type Date struct {
	time.Time
	dayOnly bool
}

// DateOf wraps an instant; its calendar day is taken in the campus location
func DateOf(t time.Time) Date {
	return Date{Time: t}
}

// Midnight anchors the date to the start of its day in loc
func (d Date) Midnight(loc *time.Location) time.Time {
	if d.dayOnly {
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	}
	return clock.Midnight(d.Time, loc)
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		return fmt.Errorf("date is required")
	}
	if raw[0] != '"' {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid date %s", raw)
		}
		*d = Date{Time: time.UnixMilli(ms)}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

// ParseDate reads a date in YYYY-MM-DD or RFC 3339 form
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return Date{Time: t, dayOnly: true}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Date{Time: t}, nil
	}
	return Date{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
}

// VigencyDateInput is one entry of a create batch
type VigencyDateInput struct {
	VigencyDate Date `json:"vigencyDate"`
}

// CreateFormsRequest creates one form per vigency date sharing the same menu
type CreateFormsRequest struct {
	VigencyDates []VigencyDateInput `json:"vigencyDates"`
	MenuURL      *string            `json:"menuUrl" binding:"omitempty,url"`
	Menu         Menu               `json:"menu"`
}

// MenuPatch carries a partial menu update
type MenuPatch struct {
	Breakfast      Patch[string] `json:"breakfast"`
	Lunch          Patch[string] `json:"lunch"`
	AfternoonSnack Patch[string] `json:"afternoonSnack"`
	Dinner         Patch[string] `json:"dinner"`
	NightSnack     Patch[string] `json:"nightSnack"`
}

// UpdateFormRequest is a partial update; absent fields keep their value
type UpdateFormRequest struct {
	VigencyDate Patch[Date]   `json:"vigencyDate"`
	MenuURL     Patch[string] `json:"menuUrl"`
	Menu        MenuPatch     `json:"menu"`
}

// UpdateMenuURLRequest sets the menu link on every form
type UpdateMenuURLRequest struct {
	MenuURL string `json:"menuUrl" binding:"required,url"`
}

// ListFilter narrows a form listing. A nil Status excludes closed forms.
type ListFilter struct {
	VigencyDate *Date
	Status      *Status
}

// MealTotals sums each meal across the answers of a form
type MealTotals struct {
	Breakfast      int `json:"totalBreakfast"`
	Lunch          int `json:"totalLunch"`
	AfternoonSnack int `json:"totalAfternoonSnack"`
	Dinner         int `json:"totalDinner"`
	NightSnack     int `json:"totalNightSnack"`
	Total          int `json:"total"`
}

func (m *MealTotals) add(meals Meals) {
	m.Breakfast += meals.Breakfast.Int()
	m.Lunch += meals.Lunch.Int()
	m.AfternoonSnack += meals.AfternoonSnack.Int()
	m.Dinner += meals.Dinner.Int()
	m.NightSnack += meals.NightSnack.Int()
	m.Total = m.Breakfast + m.Lunch + m.AfternoonSnack + m.Dinner + m.NightSnack
}

// RosterEntry is one answering user in a report
type RosterEntry struct {
	Name      string `json:"name"`
	TypeLabel string `json:"type"`
	Meals
}

// TypeCount is the number of answering users of one type
type TypeCount struct {
	Type  string `json:"userType"`
	Label string `json:"type"`
	Total int    `json:"total"`
}

// Summary is the aggregate payload mailed to refectory managers
type Summary struct {
	FormID           string        `json:"id"`
	Status           Status        `json:"status"`
	VigencyDate      time.Time     `json:"vigencyDate"`
	StartAnswersDate time.Time     `json:"startAnswersDate"`
	Totals           MealTotals    `json:"totals"`
	Users            []RosterEntry `json:"users"`
}

// FormReport is the reporter output for one form. A nil Summary means the
// form has nothing to report and Recipients is empty.
type FormReport struct {
	FormID        string      `json:"refectoryId"`
	Summary       *Summary    `json:"answers"`
	PerType       []TypeCount `json:"answersPerUser"`
	Recipients    []string    `json:"to"`
	Attachment    []byte      `json:"-"`
	FormattedDate string      `json:"formattedDate"`
}

//   This project is the monolithic backend API for the campus services team.
//   API Copyright (C) 2025 OpenSourceDUTH
//       This program is free software: you can redistribute it and/or modify
//       it under the terms of the GNU General Public License as published by
//       the Free Software Foundation, either version 3 of the License, or
//       (at your option) any later version.

//       This program is distributed in the hope that it will be useful,
//       but WITHOUT ANY WARRANTY; without even the implied warranty of
//       MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//       GNU General Public License for more details.

//       You should have received a copy of the GNU General Public License
//       along with this program.  If not, see <https://www.gnu.org/licenses/>.
