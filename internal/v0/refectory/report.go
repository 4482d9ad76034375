package refectory

import (
	"context"
	"fmt"

	"campus/internal/auth"
)

// RecipientSource resolves the report addressees
type RecipientSource interface {
	ActiveEmailsWithRole(ctx context.Context, role string) ([]string, error)
}

// Notifier delivers a form report. Implementations must not retry.
type Notifier interface {
	SendFormAnswers(ctx context.Context, recipients []string, attachment []byte,
		formattedDate string, totals MealTotals, perType []TypeCount) error
}

const (
	LabelStudent  = "Student"
	LabelTae      = "Technical-Administrative Staff"
	LabelTeaching = "Teaching Staff"
)

// typeGroup maps a raw user type to its report key and label. Unknown
// codes count as teaching staff.
func typeGroup(userType string) (key, label string) {
	switch auth.UserType(userType) {
	case auth.UserTypeStudent:
		return string(auth.UserTypeStudent), LabelStudent
	case auth.UserTypeEmployeeTae:
		return string(auth.UserTypeEmployeeTae), LabelTae
	default:
		return string(auth.UserTypeEmployeeTeacher), LabelTeaching
	}
}

var typeOrder = []string{
	string(auth.UserTypeStudent),
	string(auth.UserTypeEmployeeTae),
	string(auth.UserTypeEmployeeTeacher),
}

// Reporter aggregates the answers of the forms being answered or served
type Reporter struct {
	forms      *FormStore
	answers    *AnswerStore
	recipients RecipientSource
}

func NewReporter(forms *FormStore, answers *AnswerStore, recipients RecipientSource) *Reporter {
	return &Reporter{forms: forms, answers: answers, recipients: recipients}
}

type formAggregate struct {
	totals MealTotals
	roster []RosterEntry
	byType map[string]*TypeCount
}

// Build returns one report per form in openToAnswer or open. Totals, roster
// and per-type counts all come from a single pass over the answer rows.
func (r *Reporter) Build(ctx context.Context) ([]FormReport, error) {
	forms, err := r.forms.Reportable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reportable forms: %w", err)
	}

	aggs := make(map[string]*formAggregate, len(forms))
	for _, f := range forms {
		aggs[f.ID] = &formAggregate{byType: map[string]*TypeCount{}}
	}

	err = r.answers.EachReportRow(ctx, func(row ReportRow) error {
		agg, ok := aggs[row.FormID]
		if !ok {
			// status changed after the form list was read
			return nil
		}
		key, label := typeGroup(row.UserType)
		agg.totals.add(row.Meals)
		agg.roster = append(agg.roster, RosterEntry{Name: row.UserName, TypeLabel: label, Meals: row.Meals})
		tc, ok := agg.byType[key]
		if !ok {
			tc = &TypeCount{Type: key, Label: label}
			agg.byType[key] = tc
		}
		tc.Total++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate answers: %w", err)
	}

	var (
		recipients []string
		loaded     bool
	)
	reports := make([]FormReport, 0, len(forms))
	for _, f := range forms {
		agg := aggs[f.ID]
		report := FormReport{
			FormID:        f.ID,
			PerType:       agg.perType(),
			Recipients:    []string{},
			FormattedDate: f.VigencyDate.Format("02/01/2006"),
		}

		if agg.totals.Total > 0 {
			if !loaded {
				loaded = true
				recipients, err = r.recipients.ActiveEmailsWithRole(ctx, string(auth.RoleRefectoryManager))
				if err != nil {
					return nil, fmt.Errorf("load recipients: %w", err)
				}
			}
			report.Recipients = recipients
			report.Summary = &Summary{
				FormID:           f.ID,
				Status:           f.Status,
				VigencyDate:      f.VigencyDate,
				StartAnswersDate: f.StartAnswersDate,
				Totals:           agg.totals,
				Users:            agg.roster,
			}
			report.Attachment, err = buildSpreadsheet(report.Summary, report.PerType)
			if err != nil {
				return nil, err
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (a *formAggregate) perType() []TypeCount {
	counts := []TypeCount{}
	for _, key := range typeOrder {
		if tc, ok := a.byType[key]; ok {
			counts = append(counts, *tc)
		}
	}
	return counts
}
