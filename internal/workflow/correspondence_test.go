package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeDueDates(t *testing.T) {
	c := newCase()
	c.ReportSentDate = timePtr(date(2024, 1, 1))
	c.TwelveWeekUpdateRequestedDate = timePtr(date(2024, 3, 25))
	c.SevenDayNoContactEmailSentDate = timePtr(date(2023, 12, 1))

	dates := ComputeDueDates(c)
	require.NotNil(t, dates.ReportFollowupWeek1)
	assert.Equal(t, date(2024, 1, 8), *dates.ReportFollowupWeek1)
	assert.Equal(t, date(2024, 1, 29), *dates.ReportFollowupWeek4)
	assert.Equal(t, date(2024, 3, 25), *dates.ReportFollowupWeek12)
	assert.Equal(t, date(2024, 4, 1), *dates.TwelveWeekOneWeekChaser)
	assert.Equal(t, date(2024, 4, 22), *dates.TwelveWeekFourWeekChaser)
	assert.Equal(t, date(2023, 12, 8), *dates.NoContactOneWeekChaser)
	assert.Equal(t, date(2023, 12, 29), *dates.NoContactFourWeekChaser)
}

func TestComputeDueDatesWithoutSentDate(t *testing.T) {
	dates := ComputeDueDates(newCase())
	assert.Nil(t, dates.ReportFollowupWeek1)
	assert.Nil(t, dates.TwelveWeekOneWeekChaser)
	assert.Nil(t, dates.NoContactOneWeekChaser)
}

func TestPendingReminders(t *testing.T) {
	c := newCase()
	c.ReportSentDate = timePtr(date(2024, 1, 1))

	assert.Empty(t, PendingReminders(c, date(2024, 1, 7)))

	reminders := PendingReminders(c, date(2024, 1, 8))
	require.Len(t, reminders, 1)
	assert.Equal(t, StepReportOneWeekFollowup, reminders[0].Step)

	reminders = PendingReminders(c, date(2024, 1, 29))
	require.Len(t, reminders, 2)

	c.ReportFollowupWeek1SentDate = timePtr(date(2024, 1, 8))
	reminders = PendingReminders(c, date(2024, 1, 29))
	require.Len(t, reminders, 1)
	assert.Equal(t, StepReportFourWeekFollowup, reminders[0].Step)
}

func TestAcknowledgementExtinguishesPhase(t *testing.T) {
	c := newCase()
	c.ReportSentDate = timePtr(date(2024, 1, 1))
	c.ReportAcknowledgedDate = timePtr(date(2024, 1, 3))

	assert.Empty(t, PendingReminders(c, date(2024, 2, 1)))

	reminders := PendingReminders(c, date(2024, 3, 25))
	require.Len(t, reminders, 1)
	assert.Equal(t, StepTwelveWeekUpdateRequest, reminders[0].Step)

	c.TwelveWeekUpdateRequestedDate = timePtr(date(2024, 3, 25))
	reminders = PendingReminders(c, date(2024, 4, 1))
	require.Len(t, reminders, 1)
	assert.Equal(t, StepTwelveWeekOneWeekChaser, reminders[0].Step)

	c.TwelveWeekCorrespondenceAcknowledgedDate = timePtr(date(2024, 3, 30))
	assert.Empty(t, PendingReminders(c, date(2024, 4, 30)))
}

func TestCheckOverdue(t *testing.T) {
	c := newCase()
	c.ReportSentDate = timePtr(date(2024, 1, 1))

	assert.Nil(t, CheckOverdue(c, models.StatusInReportCorrespondence, date(2024, 1, 5)))

	overdue := CheckOverdue(c, models.StatusInReportCorrespondence, date(2024, 1, 9))
	require.NotNil(t, overdue)
	assert.Equal(t, StepReportOneWeekFollowup, overdue.Step)

	c.ReportFollowupWeek1SentDate = timePtr(date(2024, 1, 8))
	c.ReportFollowupWeek4SentDate = timePtr(date(2024, 1, 29))
	assert.Nil(t, CheckOverdue(c, models.StatusInReportCorrespondence, date(2024, 2, 2)))

	overdue = CheckOverdue(c, models.StatusInReportCorrespondence, date(2024, 2, 5))
	require.NotNil(t, overdue)
	assert.Equal(t, StepReportAcknowledged, overdue.Step)
}

func TestCheckOverdueNoContactRequiresCorrespondenceProcess(t *testing.T) {
	c := newCase()
	c.SevenDayNoContactEmailSentDate = timePtr(date(2024, 1, 1))

	assert.Nil(t, CheckOverdue(c, models.StatusReportReadyToSend, date(2024, 2, 1)))

	c.EnableCorrespondenceProcess = true
	overdue := CheckOverdue(c, models.StatusReportReadyToSend, date(2024, 1, 9))
	require.NotNil(t, overdue)
	assert.Equal(t, StepNoContactOneWeekChaser, overdue.Step)
}

func TestNextActionDueDate(t *testing.T) {
	c := newCase()
	c.ReportSentDate = timePtr(date(2024, 1, 1))

	next := NextActionDueDate(c, models.StatusInReportCorrespondence)
	require.NotNil(t, next)
	assert.Equal(t, date(2024, 1, 8), *next)

	c.ReportFollowupWeek1SentDate = timePtr(date(2024, 1, 8))
	next = NextActionDueDate(c, models.StatusInReportCorrespondence)
	assert.Equal(t, date(2024, 1, 29), *next)

	c.ReportFollowupWeek4SentDate = timePtr(date(2024, 1, 30))
	next = NextActionDueDate(c, models.StatusInReportCorrespondence)
	assert.Equal(t, date(2024, 2, 6), *next)

	next = NextActionDueDate(c, models.StatusInProbationPeriod)
	assert.Equal(t, date(2024, 3, 25), *next)

	assert.Nil(t, NextActionDueDate(c, models.StatusComplete))
}

func TestEnableCorrespondence(t *testing.T) {
	c := newCase()
	assert.False(t, EnableCorrespondence(c))
	c.CorrespondenceNotes = "called"
	assert.True(t, EnableCorrespondence(c))
	c.CorrespondenceNotes = ""
	c.NoPSBContact = models.BooleanYes
	assert.True(t, EnableCorrespondence(c))
	c.NoPSBContact = models.BooleanNo
	c.NoPSBContactNotes = "no reply"
	assert.True(t, EnableCorrespondence(c))
}

func TestSentDateCoversEveryStep(t *testing.T) {
	c := newCase()
	for _, step := range CorrespondenceSteps {
		assert.NotNil(t, SentDate(&c, step), step)
	}
	assert.Nil(t, SentDate(&c, "unknown"))
}
