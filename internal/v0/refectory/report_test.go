package refectory

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"campus/internal/auth"

	"github.com/xuri/excelize/v2"
)

func TestReportSuppressedWithoutMeals(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, time.Date(2025, 3, 10, 10, 0, 0, 0, campus), Options{})
	fx.user(t, "Manager", "manager@campus.test", auth.UserTypeEmployeeTae, auth.RoleRefectoryManager)
	u := fx.user(t, "Eva", "eva@campus.test", auth.UserTypeStudent)
	form := fx.create(t, day(2025, 3, 11))[0]

	reports, err := fx.engine.reporter.Build(ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	if reports[0].Summary != nil || len(reports[0].Recipients) != 0 {
		t.Errorf("empty form report = %+v, want nil payload and no recipients", reports[0])
	}

	// an answer that opts out of every meal still totals zero
	if _, err := fx.engine.SubmitAnswer(ctx, u.ID, form.ID, Meals{}); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	reports, _ = fx.engine.reporter.Build(ctx)
	if reports[0].Summary != nil || len(reports[0].Recipients) != 0 {
		t.Errorf("zero total report = %+v", reports[0])
	}

	if err := fx.engine.DispatchReport(ctx); err != nil {
		t.Fatalf("DispatchReport: %v", err)
	}
	if len(fx.notifier.sent) != 0 {
		t.Errorf("sent %d reports for an empty form", len(fx.notifier.sent))
	}
}

func TestReportAggregates(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, time.Date(2025, 3, 10, 10, 0, 0, 0, campus), Options{})
	fx.user(t, "Manager", "manager@campus.test", auth.UserTypeEmployeeTae, auth.RoleRefectoryManager)
	fx.user(t, "Admin", "admin@campus.test", auth.UserTypeEmployeeTae, auth.RolePermissionManager)
	fx.user(t, "Former", "former@campus.test", auth.UserTypeEmployeeTae, auth.RoleRefectoryManager)
	inactive := false
	former, _ := fx.users.GetUserByEmail(ctx, "former@campus.test")
	if err := fx.users.UpdateUser(ctx, former.ID, nil, nil, &inactive); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	ana := fx.user(t, "Ana", "ana@campus.test", auth.UserTypeStudent)
	bia := fx.user(t, "Bia", "bia@campus.test", auth.UserTypeEmployeeTae)
	caio := fx.user(t, "Caio", "caio@campus.test", auth.UserTypeEmployeeTeacher)
	dora := fx.user(t, "Dora", "dora@campus.test", auth.UserTypeStudent)

	forms := fx.create(t, day(2025, 3, 11), day(2025, 3, 14))
	form := forms[0]

	answers := map[int64]Meals{
		ana.ID:  {Breakfast: true, AfternoonSnack: true},
		bia.ID:  {Lunch: true, Dinner: true},
		caio.ID: {Breakfast: true, Lunch: true, NightSnack: true},
		dora.ID: {Lunch: true},
	}
	for uid, m := range answers {
		if _, err := fx.engine.SubmitAnswer(ctx, uid, form.ID, m); err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
	}

	reports, err := fx.engine.reporter.Build(ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// the scheduled form is not reportable
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	r := reports[0]
	if r.Summary == nil {
		t.Fatal("summary is nil")
	}

	want := MealTotals{Breakfast: 2, Lunch: 3, AfternoonSnack: 1, Dinner: 1, NightSnack: 1, Total: 8}
	if r.Summary.Totals != want {
		t.Errorf("totals = %+v, want %+v", r.Summary.Totals, want)
	}

	names := []string{}
	for _, u := range r.Summary.Users {
		names = append(names, u.Name+"/"+u.TypeLabel)
	}
	wantNames := []string{"Ana/Student", "Bia/Technical-Administrative Staff", "Caio/Teaching Staff", "Dora/Student"}
	if len(names) != len(wantNames) {
		t.Fatalf("roster = %v", names)
	}
	for i := range wantNames {
		if names[i] != wantNames[i] {
			t.Errorf("roster = %v, want %v", names, wantNames)
			break
		}
	}

	wantTypes := []TypeCount{
		{Type: "student", Label: LabelStudent, Total: 2},
		{Type: "employeeTae", Label: LabelTae, Total: 1},
		{Type: "employeeTeacher", Label: LabelTeaching, Total: 1},
	}
	if len(r.PerType) != len(wantTypes) {
		t.Fatalf("per type = %+v", r.PerType)
	}
	for i := range wantTypes {
		if r.PerType[i] != wantTypes[i] {
			t.Errorf("per type[%d] = %+v, want %+v", i, r.PerType[i], wantTypes[i])
		}
	}

	// inactive managers and users without the manager role are left out
	if len(r.Recipients) != 1 || r.Recipients[0] != "manager@campus.test" {
		t.Errorf("recipients = %v", r.Recipients)
	}
	if r.FormattedDate != "11/03/2025" {
		t.Errorf("formatted date = %q", r.FormattedDate)
	}

	book, err := excelize.OpenReader(bytes.NewReader(r.Attachment))
	if err != nil {
		t.Fatalf("attachment is not a workbook: %v", err)
	}
	defer book.Close()
	name, _ := book.GetCellValue(rosterSheet, "A2")
	lunch, _ := book.GetCellValue(rosterSheet, "D2")
	if name != "Ana" || lunch != "NO" {
		t.Errorf("first roster row = %q / %q", name, lunch)
	}
	total, _ := book.GetCellValue(totalsSheet, "B7")
	if total != "8" {
		t.Errorf("total cell = %q, want 8", total)
	}
}

func TestTypeGroupFallsBackToTeaching(t *testing.T) {
	tests := map[string]string{
		"student":         LabelStudent,
		"employeeTae":     LabelTae,
		"employeeTeacher": LabelTeaching,
		"visitor":         LabelTeaching,
	}
	for in, want := range tests {
		if _, got := typeGroup(in); got != want {
			t.Errorf("typeGroup(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDispatchReport(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, time.Date(2025, 3, 10, 10, 0, 0, 0, campus), Options{})
	fx.user(t, "Manager", "manager@campus.test", auth.UserTypeEmployeeTae, auth.RoleRefectoryManager)
	u := fx.user(t, "Ana", "ana@campus.test", auth.UserTypeStudent)
	form := fx.create(t, day(2025, 3, 11))[0]
	if _, err := fx.engine.SubmitAnswer(ctx, u.ID, form.ID, Meals{Dinner: true}); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	if err := fx.engine.DispatchReport(ctx); err != nil {
		t.Fatalf("DispatchReport: %v", err)
	}
	if len(fx.notifier.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(fx.notifier.sent))
	}
	sent := fx.notifier.sent[0]
	if sent.totals.Dinner != 1 || sent.totals.Total != 1 {
		t.Errorf("totals = %+v", sent.totals)
	}
	if len(sent.to) != 1 || sent.to[0] != "manager@campus.test" {
		t.Errorf("to = %v", sent.to)
	}
	if len(sent.file) == 0 {
		t.Error("attachment is empty")
	}

	fx.notifier.err = errors.New("smtp down")
	if err := fx.engine.DispatchReport(ctx); !errors.Is(err, ErrInternal) {
		t.Errorf("delivery failure: err = %v, want ErrInternal", err)
	}
}
