package refectory

import (
	"context"
	"errors"
	"strings"
	"time"

	"campus/internal/clock"
	"campus/internal/v0/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options tunes deployment dependent engine behaviour
type Options struct {
	// Location is the campus time zone; vigency dates are midnights in it
	Location *time.Location
	// AcceptAnswersWhileOpen also admits answers once service has opened
	AcceptAnswersWhileOpen bool
}

// Engine drives the form lifecycle: creation and edits from managers,
// answers from users and the scheduled status sweeps.
type Engine struct {
	forms      *FormStore
	answers    *AnswerStore
	reporter   *Reporter
	notifier   Notifier
	clock      clock.Clock
	logger     *zap.Logger
	loc        *time.Location
	acceptOpen bool
	newID      func() string
}

func NewEngine(forms *FormStore, answers *AnswerStore, reporter *Reporter, notifier Notifier,
	clk clock.Clock, logger *zap.Logger, opts Options) *Engine {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		forms:      forms,
		answers:    answers,
		reporter:   reporter,
		notifier:   notifier,
		clock:      clk,
		logger:     logger,
		loc:        loc,
		acceptOpen: opts.AcceptAnswersWhileOpen,
		newID:      uuid.NewString,
	}
}

// internal logs the underlying failure and hides it behind ErrInternal
func (e *Engine) internal(op string, err error, fields ...zap.Field) error {
	e.logger.Error(op+" failed", append(fields, zap.Error(err))...)
	return ErrInternal
}

func (e *Engine) now() time.Time {
	return e.clock.Now().In(e.loc)
}

// initialStatus opens a form for answers straight away when its answer
// window has already started
func initialStatus(startAnswers, now time.Time) Status {
	if !startAnswers.After(now) {
		return StatusOpenToAnswer
	}
	return StatusScheduled
}

func (e *Engine) accepting(s Status) bool {
	return s == StatusOpenToAnswer || (e.acceptOpen && s == StatusOpen)
}

// Create inserts one form per requested date. The batch is all or nothing.
func (e *Engine) Create(ctx context.Context, req CreateFormsRequest) ([]Form, error) {
	if len(req.VigencyDates) == 0 {
		return nil, ErrEmptyBatch
	}
	now := e.now()

	dates := make([]time.Time, 0, len(req.VigencyDates))
	seen := make(map[int64]bool, len(req.VigencyDates))
	for _, in := range req.VigencyDates {
		d := in.VigencyDate.Midnight(e.loc)
		if seen[d.UnixMilli()] {
			return nil, ErrDuplicateInBatch
		}
		if now.After(d) {
			return nil, ErrPastVigencyDate
		}
		seen[d.UnixMilli()] = true
		dates = append(dates, d)
	}

	taken, err := e.forms.TakenVigencyDates(ctx, dates, "")
	if err != nil {
		return nil, e.internal("check vigency dates", err)
	}
	if len(taken) > 0 {
		return nil, ErrVigencyDateExists
	}

	menuURL := blankToNil(req.MenuURL)
	menu := Menu{
		Breakfast:      blankToNil(req.Menu.Breakfast),
		Lunch:          blankToNil(req.Menu.Lunch),
		AfternoonSnack: blankToNil(req.Menu.AfternoonSnack),
		Dinner:         blankToNil(req.Menu.Dinner),
		NightSnack:     blankToNil(req.Menu.NightSnack),
	}

	forms := make([]Form, 0, len(dates))
	for _, d := range dates {
		start := d.AddDate(0, 0, -1)
		forms = append(forms, Form{
			ID:               e.newID(),
			Status:           initialStatus(start, now),
			VigencyDate:      d,
			StartAnswersDate: start,
			MenuURL:          menuURL,
			Menu:             menu,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	if err := e.forms.InsertBatch(ctx, forms); err != nil {
		if errors.Is(err, ErrVigencyDateExists) {
			return nil, err
		}
		return nil, e.internal("insert refectory batch", err, zap.Int("forms", len(forms)))
	}

	e.logger.Info("refectories created", zap.Int("forms", len(forms)))
	return forms, nil
}

// Update applies a partial update to a form that is not open
func (e *Engine) Update(ctx context.Context, id string, req UpdateFormRequest) (*Form, error) {
	f, err := e.forms.Get(ctx, id)
	if errors.Is(err, ErrFormNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, e.internal("load refectory", err, zap.String("refectoryId", id))
	}
	if f.Status == StatusOpen {
		return nil, ErrFormOpen
	}
	if req.VigencyDate.Clear {
		return nil, ErrVigencyDateCleared
	}

	now := e.now()
	if req.VigencyDate.Set {
		d := req.VigencyDate.Value.Midnight(e.loc)
		if now.After(d) {
			return nil, ErrPastVigencyDate
		}
		if !d.Equal(f.VigencyDate) {
			taken, err := e.forms.TakenVigencyDates(ctx, []time.Time{d}, f.ID)
			if err != nil {
				return nil, e.internal("check vigency dates", err, zap.String("refectoryId", id))
			}
			if len(taken) > 0 {
				return nil, ErrVigencyDateExists
			}
			f.VigencyDate = d
			f.StartAnswersDate = d.AddDate(0, 0, -1)
			f.Status = initialStatus(f.StartAnswersDate, now)
		}
	}

	Apply(&f.MenuURL, trimPatch(req.MenuURL))
	req.Menu.ApplyMenu(&f.Menu)
	f.UpdatedAt = now

	n, err := e.forms.Update(ctx, f)
	if errors.Is(err, ErrVigencyDateExists) {
		return nil, err
	}
	if err != nil {
		return nil, e.internal("update refectory", err, zap.String("refectoryId", id))
	}
	if n == 0 {
		// the form was opened or deleted since it was read
		current, err := e.forms.Get(ctx, id)
		if errors.Is(err, ErrFormNotFound) {
			return nil, err
		}
		if err == nil && current.Status == StatusOpen {
			return nil, ErrFormOpen
		}
		return nil, e.internal("update refectory", errors.New("no rows written"), zap.String("refectoryId", id))
	}
	return f, nil
}

// SubmitAnswer records the meal selection of userID for a form taking answers
func (e *Engine) SubmitAnswer(ctx context.Context, userID int64, formID string, meals Meals) (*Answer, error) {
	f, err := e.forms.Get(ctx, formID)
	if errors.Is(err, ErrFormNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, e.internal("load refectory", err, zap.String("refectoryId", formID))
	}
	if !e.accepting(f.Status) {
		return nil, ErrNotAccepting
	}

	a := &Answer{
		ID:        e.newID(),
		FormID:    f.ID,
		UserID:    userID,
		Meals:     meals,
		CreatedAt: e.now(),
	}
	err = e.answers.Insert(ctx, a)
	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, ErrAlreadyAnswered):
		return nil, err
	case errors.Is(err, errMissingReference):
		if _, getErr := e.forms.Get(ctx, formID); errors.Is(getErr, ErrFormNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, ErrUserNotFound
	default:
		return nil, e.internal("insert answer", err, zap.String("refectoryId", formID), zap.Int64("userId", userID))
	}
}

// Current returns the form taking answers, or being served, together with
// whether userID already answered it. It returns nil when there is none.
func (e *Engine) Current(ctx context.Context, userID int64) (*CurrentForm, error) {
	f, err := e.forms.Current(ctx)
	if err != nil {
		return nil, e.internal("load current refectory", err)
	}
	if f == nil {
		return nil, nil
	}
	answered, err := e.answers.Exists(ctx, userID, f.ID)
	if err != nil {
		return nil, e.internal("load user answer", err, zap.String("refectoryId", f.ID))
	}
	return &CurrentForm{Form: *f, HasAnswered: answered}, nil
}

// List pages through forms; closed ones are hidden unless asked for by status
func (e *Engine) List(ctx context.Context, filter ListFilter, p common.Pagination) (common.Page[Form], error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return common.Page[Form]{}, ErrInvalidStatus
	}
	var vigency *time.Time
	if filter.VigencyDate != nil {
		d := filter.VigencyDate.Midnight(e.loc)
		vigency = &d
	}

	forms, total, err := e.forms.List(ctx, vigency, filter.Status, p.PerPage, p.Skip)
	if err != nil {
		return common.Page[Form]{}, e.internal("list refectories", err)
	}
	return common.NewPage(forms, p, total), nil
}

func (e *Engine) Get(ctx context.Context, id string) (*Form, error) {
	f, err := e.forms.Get(ctx, id)
	if errors.Is(err, ErrFormNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, e.internal("load refectory", err, zap.String("refectoryId", id))
	}
	return f, nil
}

// Delete removes a form and its answers
func (e *Engine) Delete(ctx context.Context, id string) error {
	n, err := e.forms.Delete(ctx, id)
	if err != nil {
		return e.internal("delete refectory", err, zap.String("refectoryId", id))
	}
	if n == 0 {
		return ErrFormNotFound
	}
	e.logger.Info("refectory deleted", zap.String("refectoryId", id))
	return nil
}

// UpdateMenuURL points every form at the same menu link
func (e *Engine) UpdateMenuURL(ctx context.Context, url string) (int64, error) {
	n, err := e.forms.SetMenuURL(ctx, strings.TrimSpace(url), e.now())
	if err != nil {
		return 0, e.internal("update menu url", err)
	}
	return n, nil
}

// Reports builds the answer reports of the forms being answered or served
func (e *Engine) Reports(ctx context.Context) ([]FormReport, error) {
	reports, err := e.reporter.Build(ctx)
	if err != nil {
		return nil, e.internal("build refectory report", err)
	}
	return reports, nil
}

// RunDailySweep closes served forms, then opens scheduled forms whose answer
// window has started. Running it twice without time passing is a no-op.
func (e *Engine) RunDailySweep(ctx context.Context) error {
	now := e.now()

	closed, err := e.forms.CloseServed(ctx, now)
	if err != nil {
		e.logger.Error("daily sweep: close served forms", zap.Error(err))
		return err
	}
	opened, err := e.forms.OpenForAnswers(ctx, now)
	if err != nil {
		e.logger.Error("daily sweep: open answer windows", zap.Error(err))
		return err
	}

	e.logger.Info("daily sweep done", zap.Int64("closed", closed), zap.Int64("openedToAnswer", opened))
	return nil
}

// RunServiceOpening opens for service the forms taking answers whose vigency
// date has arrived
func (e *Engine) RunServiceOpening(ctx context.Context) error {
	opened, err := e.forms.OpenForService(ctx, e.now())
	if err != nil {
		e.logger.Error("service opening failed", zap.Error(err))
		return err
	}
	e.logger.Info("service opening done", zap.Int64("opened", opened))
	return nil
}

// RunWeeklyPurge deletes closed forms together with their answers
func (e *Engine) RunWeeklyPurge(ctx context.Context) error {
	purged, err := e.forms.PurgeClosed(ctx)
	if err != nil {
		e.logger.Error("weekly purge failed", zap.Error(err))
		return err
	}
	e.logger.Info("weekly purge done", zap.Int64("purged", purged))
	return nil
}

// DispatchReport mails each non-empty form report. A failed aggregation is
// logged and skipped for this cycle. Delivery is not retried.
func (e *Engine) DispatchReport(ctx context.Context) error {
	reports, err := e.reporter.Build(ctx)
	if err != nil {
		e.logger.Error("report aggregation failed, nothing sent", zap.Error(err))
		return nil
	}

	var failed bool
	for _, r := range reports {
		if r.Summary == nil || len(r.Recipients) == 0 {
			e.logger.Debug("nothing to report", zap.String("refectoryId", r.FormID))
			continue
		}
		err := e.notifier.SendFormAnswers(ctx, r.Recipients, r.Attachment, r.FormattedDate, r.Summary.Totals, r.PerType)
		if err != nil {
			e.logger.Error("report delivery failed",
				zap.String("refectoryId", r.FormID),
				zap.Strings("to", r.Recipients),
				zap.Error(err))
			failed = true
			continue
		}
		e.logger.Info("report sent",
			zap.String("refectoryId", r.FormID),
			zap.Int("recipients", len(r.Recipients)),
			zap.Int("total", r.Summary.Totals.Total))
	}
	if failed {
		return ErrInternal
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func trimPatch(p Patch[string]) Patch[string] {
	if p.Set {
		p.Value = strings.TrimSpace(p.Value)
	}
	return p
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
