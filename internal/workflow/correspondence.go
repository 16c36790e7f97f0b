package workflow

import (
	"time"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

const (
	OneWeek     = 7 * 24 * time.Hour
	FourWeeks   = 28 * 24 * time.Hour
	TwelveWeeks = 84 * 24 * time.Hour
)

// CorrespondenceStep names one dated correspondence action on a case.
type CorrespondenceStep string

const (
	StepSevenDayNoContactEmail   CorrespondenceStep = "seven-day-no-contact-email"
	StepNoContactOneWeekChaser   CorrespondenceStep = "no-contact-one-week-chaser"
	StepNoContactFourWeekChaser  CorrespondenceStep = "no-contact-four-week-chaser"
	StepReportSent               CorrespondenceStep = "report-sent"
	StepReportOneWeekFollowup    CorrespondenceStep = "report-one-week-followup"
	StepReportFourWeekFollowup   CorrespondenceStep = "report-four-week-followup"
	StepReportAcknowledged       CorrespondenceStep = "report-acknowledged"
	StepTwelveWeekUpdateRequest  CorrespondenceStep = "twelve-week-update-request"
	StepTwelveWeekOneWeekChaser  CorrespondenceStep = "twelve-week-one-week-chaser"
	StepTwelveWeekFourWeekChaser CorrespondenceStep = "twelve-week-four-week-chaser"
	StepTwelveWeekAcknowledged   CorrespondenceStep = "twelve-week-acknowledged"
)

// CorrespondenceSteps lists every step in workflow order.
var CorrespondenceSteps = []CorrespondenceStep{
	StepSevenDayNoContactEmail,
	StepNoContactOneWeekChaser,
	StepNoContactFourWeekChaser,
	StepReportSent,
	StepReportOneWeekFollowup,
	StepReportFourWeekFollowup,
	StepReportAcknowledged,
	StepTwelveWeekUpdateRequest,
	StepTwelveWeekOneWeekChaser,
	StepTwelveWeekFourWeekChaser,
	StepTwelveWeekAcknowledged,
}

// SentDate returns a pointer to the case field recording the step, or nil
// when the step is unknown.
func SentDate(c *models.Case, step CorrespondenceStep) **time.Time {
	switch step {
	case StepSevenDayNoContactEmail:
		return &c.SevenDayNoContactEmailSentDate
	case StepNoContactOneWeekChaser:
		return &c.NoContactOneWeekChaserSentDate
	case StepNoContactFourWeekChaser:
		return &c.NoContactFourWeekChaserSentDate
	case StepReportSent:
		return &c.ReportSentDate
	case StepReportOneWeekFollowup:
		return &c.ReportFollowupWeek1SentDate
	case StepReportFourWeekFollowup:
		return &c.ReportFollowupWeek4SentDate
	case StepReportAcknowledged:
		return &c.ReportAcknowledgedDate
	case StepTwelveWeekUpdateRequest:
		return &c.TwelveWeekUpdateRequestedDate
	case StepTwelveWeekOneWeekChaser:
		return &c.TwelveWeek1WeekChaserSentDate
	case StepTwelveWeekFourWeekChaser:
		return &c.TwelveWeek4WeekChaserSentDate
	case StepTwelveWeekAcknowledged:
		return &c.TwelveWeekCorrespondenceAcknowledgedDate
	}
	return nil
}

// DueDates are the chaser deadlines derived from the sent dates of a case.
type DueDates struct {
	NoContactOneWeekChaser   *time.Time `json:"noContactOneWeekChaserDueDate"`
	NoContactFourWeekChaser  *time.Time `json:"noContactFourWeekChaserDueDate"`
	ReportFollowupWeek1      *time.Time `json:"reportFollowupWeek1DueDate"`
	ReportFollowupWeek4      *time.Time `json:"reportFollowupWeek4DueDate"`
	ReportFollowupWeek12     *time.Time `json:"reportFollowupWeek12DueDate"`
	TwelveWeekOneWeekChaser  *time.Time `json:"twelveWeek1WeekChaserDueDate"`
	TwelveWeekFourWeekChaser *time.Time `json:"twelveWeek4WeekChaserDueDate"`
}

func plus(t *time.Time, d time.Duration) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Add(d)
	return &v
}

// ComputeDueDates derives every chaser due date of a case.
func ComputeDueDates(c models.Case) DueDates {
	return DueDates{
		NoContactOneWeekChaser:   plus(c.SevenDayNoContactEmailSentDate, OneWeek),
		NoContactFourWeekChaser:  plus(c.SevenDayNoContactEmailSentDate, FourWeeks),
		ReportFollowupWeek1:      plus(c.ReportSentDate, OneWeek),
		ReportFollowupWeek4:      plus(c.ReportSentDate, FourWeeks),
		ReportFollowupWeek12:     plus(c.ReportSentDate, TwelveWeeks),
		TwelveWeekOneWeekChaser:  plus(c.TwelveWeekUpdateRequestedDate, OneWeek),
		TwelveWeekFourWeekChaser: plus(c.TwelveWeekUpdateRequestedDate, FourWeeks),
	}
}

// Reminder is a correspondence action that is due and not yet sent.
type Reminder struct {
	Step    CorrespondenceStep `json:"step"`
	DueDate time.Time          `json:"dueDate"`
	Label   string             `json:"label"`
}

type pendingStep struct {
	step  CorrespondenceStep
	due   *time.Time
	sent  *time.Time
	label string
}

func due(today time.Time, p pendingStep) bool {
	return p.due != nil && p.sent == nil && !day(today).Before(day(*p.due))
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PendingReminders lists the chasers that are due on today and not sent.
// Acknowledgement extinguishes the chasers of its phase.
func PendingReminders(c models.Case, today time.Time) []Reminder {
	dates := ComputeDueDates(c)
	phases := [][]pendingStep{}

	if c.ReportSentDate == nil && c.NoPSBContact != models.BooleanYes {
		phases = append(phases, []pendingStep{
			{StepNoContactOneWeekChaser, dates.NoContactOneWeekChaser, c.NoContactOneWeekChaserSentDate, "No contact details 1-week chaser due"},
			{StepNoContactFourWeekChaser, dates.NoContactFourWeekChaser, c.NoContactFourWeekChaserSentDate, "No contact details 4-week chaser due"},
		})
	}
	if c.ReportAcknowledgedDate == nil {
		phases = append(phases, []pendingStep{
			{StepReportOneWeekFollowup, dates.ReportFollowupWeek1, c.ReportFollowupWeek1SentDate, "1-week follow-up to report due"},
			{StepReportFourWeekFollowup, dates.ReportFollowupWeek4, c.ReportFollowupWeek4SentDate, "4-week follow-up to report due"},
		})
	}
	phases = append(phases, []pendingStep{
		{StepTwelveWeekUpdateRequest, dates.ReportFollowupWeek12, c.TwelveWeekUpdateRequestedDate, "12-week update request due"},
	})
	if c.TwelveWeekCorrespondenceAcknowledgedDate == nil {
		phases = append(phases, []pendingStep{
			{StepTwelveWeekOneWeekChaser, dates.TwelveWeekOneWeekChaser, c.TwelveWeek1WeekChaserSentDate, "1-week follow-up to 12-week update due"},
			{StepTwelveWeekFourWeekChaser, dates.TwelveWeekFourWeekChaser, c.TwelveWeek4WeekChaserSentDate, "4-week follow-up to 12-week update due"},
		})
	}

	reminders := make([]Reminder, 0)
	for _, phase := range phases {
		for _, p := range phase {
			if due(today, p) {
				reminders = append(reminders, Reminder{Step: p.step, DueDate: *p.due, Label: p.label})
			}
		}
	}
	return reminders
}

// Overdue explains why a case needs attention, or is nil when it does not.
type Overdue struct {
	Step  CorrespondenceStep `json:"step"`
	Label string             `json:"label"`
}

func sentBefore(t *time.Time, cutoff time.Time) bool {
	return t != nil && !day(*t).After(day(cutoff))
}

// CheckOverdue reports whether the current correspondence phase of a case has
// a missed deadline on today.
func CheckOverdue(c models.Case, status models.CaseStatusCode, today time.Time) *Overdue {
	dates := ComputeDueDates(c)
	sevenDaysAgo := today.Add(-OneWeek)

	switch status {
	case models.StatusReportReadyToSend:
		if !c.EnableCorrespondenceProcess {
			return nil
		}
		if sentBefore(c.SevenDayNoContactEmailSentDate, sevenDaysAgo) &&
			c.NoContactOneWeekChaserSentDate == nil && c.NoContactFourWeekChaserSentDate == nil {
			return &Overdue{StepNoContactOneWeekChaser, "No contact details response overdue"}
		}
		if due(today, pendingStep{due: dates.NoContactOneWeekChaser, sent: c.NoContactOneWeekChaserSentDate}) {
			return &Overdue{StepNoContactOneWeekChaser, "No contact details response overdue"}
		}
		if due(today, pendingStep{due: dates.NoContactFourWeekChaser, sent: c.NoContactFourWeekChaserSentDate}) {
			return &Overdue{StepNoContactFourWeekChaser, "No contact details response overdue"}
		}
		if sentBefore(c.NoContactFourWeekChaserSentDate, sevenDaysAgo) {
			return &Overdue{StepNoContactFourWeekChaser, "No contact details response overdue"}
		}
	case models.StatusInReportCorrespondence:
		if due(today, pendingStep{due: dates.ReportFollowupWeek1, sent: c.ReportFollowupWeek1SentDate}) {
			return &Overdue{StepReportOneWeekFollowup, "1-week follow-up to report due"}
		}
		if c.ReportFollowupWeek1SentDate != nil &&
			due(today, pendingStep{due: dates.ReportFollowupWeek4, sent: c.ReportFollowupWeek4SentDate}) {
			return &Overdue{StepReportFourWeekFollowup, "4-week follow-up to report due"}
		}
		if sentBefore(c.ReportFollowupWeek4SentDate, sevenDaysAgo) {
			return &Overdue{StepReportAcknowledged, "4-week follow-up to report sent, case needs to progress"}
		}
	case models.StatusInProbationPeriod:
		if due(today, pendingStep{due: dates.ReportFollowupWeek12, sent: c.TwelveWeekUpdateRequestedDate}) {
			return &Overdue{StepTwelveWeekUpdateRequest, "12-week update due"}
		}
	case models.StatusInTwelveWeekCorrespondence:
		if due(today, pendingStep{due: dates.TwelveWeekOneWeekChaser, sent: c.TwelveWeek1WeekChaserSentDate}) {
			return &Overdue{StepTwelveWeekOneWeekChaser, "1-week follow-up to 12-week update due"}
		}
		if c.TwelveWeek1WeekChaserSentDate != nil &&
			due(today, pendingStep{due: dates.TwelveWeekFourWeekChaser, sent: c.TwelveWeek4WeekChaserSentDate}) {
			return &Overdue{StepTwelveWeekFourWeekChaser, "4-week follow-up to 12-week update due"}
		}
		if sentBefore(c.TwelveWeek4WeekChaserSentDate, sevenDaysAgo) {
			return &Overdue{StepTwelveWeekAcknowledged, "4-week follow-up to 12-week update sent, case needs to progress"}
		}
	}
	return nil
}

// NextActionDueDate returns when the next correspondence action of the
// current status falls due, or nil when the status has none.
func NextActionDueDate(c models.Case, status models.CaseStatusCode) *time.Time {
	dates := ComputeDueDates(c)
	switch status {
	case models.StatusReportReadyToSend:
		switch {
		case dates.NoContactOneWeekChaser != nil && c.NoContactOneWeekChaserSentDate == nil:
			return dates.NoContactOneWeekChaser
		case dates.NoContactFourWeekChaser != nil && c.NoContactFourWeekChaserSentDate == nil:
			return dates.NoContactFourWeekChaser
		case c.NoContactFourWeekChaserSentDate != nil:
			return plus(c.NoContactFourWeekChaserSentDate, OneWeek)
		}
	case models.StatusInReportCorrespondence:
		switch {
		case c.ReportFollowupWeek1SentDate == nil:
			return dates.ReportFollowupWeek1
		case c.ReportFollowupWeek4SentDate == nil:
			return dates.ReportFollowupWeek4
		default:
			return plus(c.ReportFollowupWeek4SentDate, OneWeek)
		}
	case models.StatusInProbationPeriod:
		return dates.ReportFollowupWeek12
	case models.StatusInTwelveWeekCorrespondence:
		switch {
		case c.TwelveWeek1WeekChaserSentDate == nil:
			return dates.TwelveWeekOneWeekChaser
		case c.TwelveWeek4WeekChaserSentDate == nil:
			return dates.TwelveWeekFourWeekChaser
		default:
			return plus(c.TwelveWeek4WeekChaserSentDate, OneWeek)
		}
	}
	return nil
}

// EnableCorrespondence reports whether the correspondence process must be on
// for the case.
func EnableCorrespondence(c models.Case) bool {
	return c.CorrespondenceNotes != "" || c.NoPSBContact == models.BooleanYes || c.NoPSBContactNotes != ""
}
