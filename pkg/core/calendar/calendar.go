package calendar

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

const (
	DateLayout = "2006-01-02"

	// MakeupWindowDays is the number of consecutive days offered for makeup exams
	MakeupWindowDays = 7
)

// holidayLayouts are tried in order when reading holiday tables
var holidayLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
}

// ExpandExamDays resolves the exam days for a run.
//
// When rule is set, its occurrences replace days entirely. The rule must carry
// DTSTART and be bounded by COUNT or UNTIL. Holidays are then removed and the
// result is sorted and de-duplicated. An empty result is a validation error.
func ExpandExamDays(days []string, rule string, holidays []string) ([]string, error) {
	candidates := days

	if strings.TrimSpace(rule) != "" {
		occurrences, err := RuleOccurrences(rule)
		if err != nil {
			return nil, err
		}
		candidates = occurrences
	}

	holidaySet := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		holidaySet[h] = true
	}

	result := make([]string, 0, len(candidates))
	for _, day := range candidates {
		if _, err := time.Parse(DateLayout, day); err != nil {
			return nil, model.NewValidationError("exam_days", "invalid date %q", day)
		}
		if holidaySet[day] {
			continue
		}
		result = append(result, day)
	}

	slices.Sort(result)
	result = slices.Compact(result)

	if len(result) == 0 {
		return nil, model.NewValidationError("exam_days", "no exam days left after removing holidays")
	}

	return result, nil
}

// DateRange returns every day from start to end inclusive
func DateRange(start, end string) ([]string, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, model.NewValidationError("start_date", "invalid date %q", start)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, model.NewValidationError("end_date", "invalid date %q", end)
	}
	if to.Before(from) {
		return nil, model.NewValidationError("end_date", "%s is before start date %s", end, start)
	}

	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days, nil
}

// ParseSlotTemplates reads comma separated HH:MM-HH:MM ranges such as
// "09:00-12:00,14:00-17:00"
func ParseSlotTemplates(raw string) ([]model.SlotTemplate, error) {
	var templates []model.SlotTemplate
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		startTime, endTime, ok := strings.Cut(part, "-")
		startTime, endTime = strings.TrimSpace(startTime), strings.TrimSpace(endTime)
		if !ok || !validClock(startTime) || !validClock(endTime) {
			return nil, model.NewValidationError("exam_slots", "invalid slot %q, want HH:MM-HH:MM", part)
		}
		if endTime <= startTime {
			return nil, model.NewValidationError("exam_slots", "slot %q ends before it starts", part)
		}
		templates = append(templates, model.SlotTemplate{StartTime: startTime, EndTime: endTime})
	}

	if len(templates) == 0 {
		return nil, model.NewValidationError("exam_slots", "at least one slot is required")
	}
	return templates, nil
}

func validClock(s string) bool {
	t, err := time.Parse("15:04", s)
	return err == nil && t.Format("15:04") == s
}

// RuleOccurrences returns the dates produced by a bounded RRULE string such as
// "FREQ=DAILY;BYDAY=MO,TU,WE,TH,FR;DTSTART=20240501T000000Z;COUNT=10"
func RuleOccurrences(rule string) ([]string, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, model.NewValidationError("exam_days_rule", "invalid rrule: %v", err)
	}
	if opt.Dtstart.IsZero() {
		return nil, model.NewValidationError("exam_days_rule", "rrule must set DTSTART")
	}
	if opt.Count == 0 && opt.Until.IsZero() {
		return nil, model.NewValidationError("exam_days_rule", "rrule must be bounded by COUNT or UNTIL")
	}

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, model.NewValidationError("exam_days_rule", "invalid rrule: %v", err)
	}

	occurrences := r.All()
	days := make([]string, len(occurrences))
	for i, occurrence := range occurrences {
		days[i] = occurrence.Format(DateLayout)
	}
	return days, nil
}

// BuildSlots builds the day-major slot table. Slot index i is the value a gene
// takes in the optimizer.
func BuildSlots(days []string, templates []model.SlotTemplate) []model.TimeSlot {
	slots := make([]model.TimeSlot, 0, len(days)*len(templates))
	for _, day := range days {
		for _, tmpl := range templates {
			slots = append(slots, model.TimeSlot{
				Date:      day,
				StartTime: tmpl.StartTime,
				EndTime:   tmpl.EndTime,
			})
		}
	}
	return slots
}

// MakeupWindow returns the candidate makeup slots: one per (day, template)
// for MakeupWindowDays days starting bufferDays after start, in chronological
// order
func MakeupWindow(start string, bufferDays int, templates []model.SlotTemplate) ([]model.TimeSlot, error) {
	startDate, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid makeup start date %q: %w", start, err)
	}

	days := make([]string, 0, MakeupWindowDays)
	for offset := bufferDays; offset < bufferDays+MakeupWindowDays; offset++ {
		days = append(days, startDate.AddDate(0, 0, offset).Format(DateLayout))
	}

	return BuildSlots(days, templates), nil
}

// ParseHolidayDate normalises a holiday date written in any supported layout.
// Returns false if no layout matches.
func ParseHolidayDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range holidayLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d.Format(DateLayout), true
		}
	}
	return "", false
}
