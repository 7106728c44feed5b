package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the calendar-date format used for entry dates and ranges.
// Lexical order of strings in this layout equals chronological order.
const DateLayout = "2006-01-02"

type (
	// TimeEntry is a single logged interval. Duration is in minutes.
	TimeEntry struct {
		ID             string    `json:"id"`
		UserID         string    `json:"userId"`
		Date           string    `json:"date"`
		StartTime      string    `json:"startTime"`
		EndTime        string    `json:"endTime"`
		MainCategoryID string    `json:"mainCategoryId"`
		SubCategoryID  string    `json:"subCategoryId"`
		Description    string    `json:"description"`
		Duration       int       `json:"duration"`
		CreatedAt      time.Time `json:"createdAt"`
		UpdatedAt      time.Time `json:"updatedAt"`
	}

	// EntryDraft carries the user-editable fields of an entry.
	EntryDraft struct {
		Date           string `json:"date"`
		StartTime      string `json:"startTime"`
		EndTime        string `json:"endTime"`
		MainCategoryID string `json:"mainCategoryId"`
		SubCategoryID  string `json:"subCategoryId"`
		Description    string `json:"description"`
	}

	// DateRange is an inclusive range of calendar dates in DateLayout.
	DateRange struct {
		Start string `json:"startDate"`
		End   string `json:"endDate"`
	}
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidTime         = errors.New("invalid time of day")
	ErrNonPositiveDuration = errors.New("end time must be after start time")
	ErrEmptyMainCategory   = errors.New("empty main category")
	ErrEmptySubCategory    = errors.New("empty sub-category")
	ErrDescriptionTooLong  = errors.New("description too long (max 500 characters)")
	ErrEmptyUser           = errors.New("empty user id")
	ErrEntryNotFound       = errors.New("time entry not found")
)

const maxDescriptionLen = 500

// Contains reports whether date lies within the range, bounds included.
func (r DateRange) Contains(date string) bool {
	return date >= r.Start && date <= r.End
}

// ParseClock converts an "HH:MM" time of day into minutes since midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, ErrInvalidTime
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, ErrInvalidTime
	}
	mins, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 || mins < 0 || mins > 59 {
		return 0, ErrInvalidTime
	}
	return hours*60 + mins, nil
}

// DurationMinutes returns end minus start in minutes. The result may be
// zero or negative; callers decide whether that is acceptable.
func DurationMinutes(start, end string) (int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}

// ValidDate reports whether s is a real calendar date in DateLayout.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// Validate checks the draft fields that do not depend on reference data.
func (d EntryDraft) Validate() error {
	if !ValidDate(d.Date) {
		return ErrInvalidDate
	}
	dur, err := DurationMinutes(d.StartTime, d.EndTime)
	if err != nil {
		return err
	}
	if dur <= 0 {
		return ErrNonPositiveDuration
	}
	if strings.TrimSpace(d.MainCategoryID) == "" {
		return ErrEmptyMainCategory
	}
	if strings.TrimSpace(d.SubCategoryID) == "" {
		return ErrEmptySubCategory
	}
	if utf8.RuneCountInString(d.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// Validate checks a stored entry, including the derived duration.
func (e TimeEntry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUser
	}
	if err := e.Draft().Validate(); err != nil {
		return err
	}
	dur, _ := DurationMinutes(e.StartTime, e.EndTime)
	if e.Duration != dur {
		return errors.New("duration does not match start and end time")
	}
	return nil
}

// Draft returns the user-editable part of the entry.
func (e TimeEntry) Draft() EntryDraft {
	return EntryDraft{
		Date:           e.Date,
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		MainCategoryID: e.MainCategoryID,
		SubCategoryID:  e.SubCategoryID,
		Description:    e.Description,
	}
}

// Apply copies the draft onto the entry and recomputes the duration.
// ID, UserID and CreatedAt are left untouched.
func (e *TimeEntry) Apply(d EntryDraft) error {
	dur, err := DurationMinutes(d.StartTime, d.EndTime)
	if err != nil {
		return err
	}
	e.Date = d.Date
	e.StartTime = d.StartTime
	e.EndTime = d.EndTime
	e.MainCategoryID = d.MainCategoryID
	e.SubCategoryID = d.SubCategoryID
	e.Description = d.Description
	e.Duration = dur
	return nil
}
