package calendar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

var twoSlots = []model.SlotTemplate{
	{StartTime: "09:00", EndTime: "12:00"},
	{StartTime: "14:00", EndTime: "17:00"},
}

func TestExpandExamDays_ExplicitListRemovesHolidays(t *testing.T) {
	days, err := ExpandExamDays(
		[]string{"2024-05-03", "2024-05-01", "2024-05-02", "2024-05-01"},
		"",
		[]string{"2024-05-02"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01", "2024-05-03"}, days)
}

func TestExpandExamDays_RuleReplacesList(t *testing.T) {
	// Weekdays only, starting Wednesday 2024-05-01
	days, err := ExpandExamDays(
		[]string{"2030-01-01"},
		"FREQ=DAILY;BYDAY=MO,TU,WE,TH,FR;DTSTART=20240501T000000Z;COUNT=5",
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01", "2024-05-02", "2024-05-03", "2024-05-06", "2024-05-07"}, days)
}

func TestExpandExamDays_AllHolidays(t *testing.T) {
	_, err := ExpandExamDays([]string{"2024-05-01"}, "", []string{"2024-05-01"})

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "exam_days", verr.Field)
}

func TestExpandExamDays_InvalidDate(t *testing.T) {
	_, err := ExpandExamDays([]string{"01/05/2024"}, "", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestRuleOccurrences_Unbounded(t *testing.T) {
	_, err := RuleOccurrences("FREQ=DAILY;DTSTART=20240501T000000Z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COUNT or UNTIL")
}

func TestRuleOccurrences_MissingStart(t *testing.T) {
	_, err := RuleOccurrences("FREQ=DAILY;COUNT=3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DTSTART")
}

func TestRuleOccurrences_Until(t *testing.T) {
	days, err := RuleOccurrences("FREQ=DAILY;DTSTART=20240501T000000Z;UNTIL=20240503T000000Z")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01", "2024-05-02", "2024-05-03"}, days)
}

func TestRuleOccurrences_Invalid(t *testing.T) {
	_, err := RuleOccurrences("NOT_A_RULE")
	assert.Error(t, err)
}

func TestBuildSlots_DayMajor(t *testing.T) {
	slots := BuildSlots([]string{"2024-05-01", "2024-05-02"}, twoSlots)

	require.Len(t, slots, 4)
	assert.Equal(t, model.TimeSlot{Date: "2024-05-01", StartTime: "09:00", EndTime: "12:00"}, slots[0])
	assert.Equal(t, model.TimeSlot{Date: "2024-05-01", StartTime: "14:00", EndTime: "17:00"}, slots[1])
	assert.Equal(t, model.TimeSlot{Date: "2024-05-02", StartTime: "09:00", EndTime: "12:00"}, slots[2])
	assert.Equal(t, "2024-05-02_14:00-17:00", slots[3].Key())
}

func TestMakeupWindow(t *testing.T) {
	slots, err := MakeupWindow("2024-05-01", 2, twoSlots)
	require.NoError(t, err)

	require.Len(t, slots, MakeupWindowDays*2)
	assert.Equal(t, "2024-05-03", slots[0].Date)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "2024-05-03", slots[1].Date)
	assert.Equal(t, "14:00", slots[1].StartTime)
	assert.Equal(t, "2024-05-09", slots[len(slots)-1].Date)
}

func TestMakeupWindow_ZeroBufferCrossesMonth(t *testing.T) {
	slots, err := MakeupWindow("2024-05-30", 0, twoSlots[:1])
	require.NoError(t, err)

	require.Len(t, slots, MakeupWindowDays)
	assert.Equal(t, "2024-05-30", slots[0].Date)
	assert.Equal(t, "2024-06-05", slots[6].Date)
}

func TestMakeupWindow_BadStart(t *testing.T) {
	_, err := MakeupWindow("May 1st", 2, twoSlots)
	assert.Error(t, err)
}

func TestParseHolidayDate(t *testing.T) {
	d, ok := ParseHolidayDate("2024-03-26")
	assert.True(t, ok)
	assert.Equal(t, "2024-03-26", d)

	d, ok = ParseHolidayDate("26/03/2024")
	assert.True(t, ok)
	assert.Equal(t, "2024-03-26", d)

	// Day-first wins when both layouts parse
	d, ok = ParseHolidayDate("04/03/2024")
	assert.True(t, ok)
	assert.Equal(t, "2024-03-04", d)

	d, ok = ParseHolidayDate("26-03-2024")
	assert.True(t, ok)
	assert.Equal(t, "2024-03-26", d)

	_, ok = ParseHolidayDate("next tuesday")
	assert.False(t, ok)
}

func TestDateRange(t *testing.T) {
	days, err := DateRange("2024-04-29", "2024-05-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-04-29", "2024-04-30", "2024-05-01", "2024-05-02"}, days)

	days, err = DateRange("2024-05-01", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01"}, days)
}

func TestDateRange_Invalid(t *testing.T) {
	var verr *model.ValidationError

	_, err := DateRange("2024-05-03", "2024-05-01")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "end_date", verr.Field)

	_, err = DateRange("05/01/2024", "2024-05-01")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "start_date", verr.Field)
}

func TestParseSlotTemplates(t *testing.T) {
	templates, err := ParseSlotTemplates(" 09:00-12:00, 14:00 - 17:00 ")
	require.NoError(t, err)
	assert.Equal(t, twoSlots, templates)
}

func TestParseSlotTemplates_Invalid(t *testing.T) {
	for _, raw := range []string{"", "9:00-12:00", "09:00", "12:00-09:00", "09:00-25:00"} {
		_, err := ParseSlotTemplates(raw)

		var verr *model.ValidationError
		require.True(t, errors.As(err, &verr), raw)
		assert.Equal(t, "exam_slots", verr.Field, raw)
	}
}
