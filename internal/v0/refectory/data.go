package refectory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// FormStore persists refectory forms. Dates are stored as unix milliseconds.
type FormStore struct {
	db  *sql.DB
	loc *time.Location
}

// NewFormStore creates a form store rendering dates in loc
func NewFormStore(db *sql.DB, loc *time.Location) *FormStore {
	if loc == nil {
		loc = time.Local
	}
	return &FormStore{db: db, loc: loc}
}

const formColumns = `id, status, vigency_date, start_answers_date, menu_url,
	menu_breakfast, menu_lunch, menu_afternoon_snack, menu_dinner, menu_night_snack,
	created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func (s *FormStore) scanForm(row scanner) (*Form, error) {
	var (
		f                                   Form
		vigency, startAnswers, created, upd int64
		menuURL                             sql.NullString
		menu                                [5]sql.NullString
	)
	err := row.Scan(&f.ID, &f.Status, &vigency, &startAnswers, &menuURL,
		&menu[0], &menu[1], &menu[2], &menu[3], &menu[4], &created, &upd)
	if err != nil {
		return nil, err
	}
	f.VigencyDate = s.fromMillis(vigency)
	f.StartAnswersDate = s.fromMillis(startAnswers)
	f.CreatedAt = s.fromMillis(created)
	f.UpdatedAt = s.fromMillis(upd)
	f.MenuURL = nullString(menuURL)
	f.Menu = Menu{
		Breakfast:      nullString(menu[0]),
		Lunch:          nullString(menu[1]),
		AfternoonSnack: nullString(menu[2]),
		Dinner:         nullString(menu[3]),
		NightSnack:     nullString(menu[4]),
	}
	return &f, nil
}

func (s *FormStore) fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(s.loc)
}

func (s *FormStore) scanForms(rows *sql.Rows) ([]Form, error) {
	defer rows.Close()
	forms := []Form{}
	for rows.Next() {
		f, err := s.scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, *f)
	}
	return forms, rows.Err()
}

// InsertBatch inserts every form in a single transaction
func (s *FormStore) InsertBatch(ctx context.Context, forms []Form) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO refectories (`+formColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range forms {
		_, err := stmt.ExecContext(ctx, f.ID, f.Status,
			f.VigencyDate.UnixMilli(), f.StartAnswersDate.UnixMilli(), f.MenuURL,
			f.Menu.Breakfast, f.Menu.Lunch, f.Menu.AfternoonSnack, f.Menu.Dinner, f.Menu.NightSnack,
			f.CreatedAt.UnixMilli(), f.UpdatedAt.UnixMilli())
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return ErrVigencyDateExists
		}
		if err != nil {
			return fmt.Errorf("insert refectory %s: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refectory batch: %w", err)
	}
	return nil
}

// TakenVigencyDates returns which of dates already belong to a form other
// than excludeID
func (s *FormStore) TakenVigencyDates(ctx context.Context, dates []time.Time, excludeID string) ([]time.Time, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(dates)+1)
	for _, d := range dates {
		args = append(args, d.UnixMilli())
	}
	args = append(args, excludeID)

	query := `SELECT vigency_date FROM refectories
		WHERE vigency_date IN (` + placeholders(len(dates)) + `) AND id <> ?`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taken []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, err
		}
		taken = append(taken, s.fromMillis(ms))
	}
	return taken, rows.Err()
}

// Get returns a form by id or ErrFormNotFound
func (s *FormStore) Get(ctx context.Context, id string) (*Form, error) {
	f, err := s.scanForm(s.db.QueryRowContext(ctx, `SELECT `+formColumns+` FROM refectories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFormNotFound
	}
	return f, err
}

// List returns one page of forms matching the filter and the total match
// count. A nil status excludes closed forms.
func (s *FormStore) List(ctx context.Context, vigency *time.Time, status *Status, limit, offset int) ([]Form, int, error) {
	var (
		where []string
		args  []any
	)
	if vigency != nil {
		where = append(where, "vigency_date = ?")
		args = append(args, vigency.UnixMilli())
	}
	if status != nil {
		where = append(where, "status = ?")
		args = append(args, *status)
	} else {
		where = append(where, "status <> ?")
		args = append(args, StatusClosed)
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM refectories`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+formColumns+` FROM refectories`+clause+` ORDER BY vigency_date LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	forms, err := s.scanForms(rows)
	return forms, total, err
}

// Current returns the form taking answers, falling back to the one being
// served, or nil when there is none
func (s *FormStore) Current(ctx context.Context) (*Form, error) {
	f, err := s.scanForm(s.db.QueryRowContext(ctx, `
		SELECT `+formColumns+` FROM refectories
		WHERE status IN (?, ?)
		ORDER BY CASE status WHEN ? THEN 0 ELSE 1 END, vigency_date
		LIMIT 1
	`, StatusOpenToAnswer, StatusOpen, StatusOpenToAnswer))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return f, err
}

// Reportable lists the forms in openToAnswer or open, earliest first
func (s *FormStore) Reportable(ctx context.Context) ([]Form, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+formColumns+` FROM refectories
		WHERE status IN (?, ?)
		ORDER BY vigency_date
	`, StatusOpenToAnswer, StatusOpen)
	if err != nil {
		return nil, err
	}
	return s.scanForms(rows)
}

// Update writes f unless the stored form is open. It returns the number of
// rows written.
func (s *FormStore) Update(ctx context.Context, f *Form) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE refectories SET
			status = ?, vigency_date = ?, start_answers_date = ?, menu_url = ?,
			menu_breakfast = ?, menu_lunch = ?, menu_afternoon_snack = ?,
			menu_dinner = ?, menu_night_snack = ?, updated_at = ?
		WHERE id = ? AND status <> ?
	`, f.Status, f.VigencyDate.UnixMilli(), f.StartAnswersDate.UnixMilli(), f.MenuURL,
		f.Menu.Breakfast, f.Menu.Lunch, f.Menu.AfternoonSnack,
		f.Menu.Dinner, f.Menu.NightSnack, f.UpdatedAt.UnixMilli(),
		f.ID, StatusOpen)
	if isConstraint(err, sqlite3.ErrConstraintUnique) {
		return 0, ErrVigencyDateExists
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a form and, through the foreign key, its answers
func (s *FormStore) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM refectories WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetMenuURL replaces the menu link on every form
func (s *FormStore) SetMenuURL(ctx context.Context, url string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE refectories SET menu_url = ?, updated_at = ?", url, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CloseServed moves open forms whose vigency date is due to closed
func (s *FormStore) CloseServed(ctx context.Context, now time.Time) (int64, error) {
	return s.transition(ctx, StatusOpen, StatusClosed, "vigency_date", now)
}

// OpenForAnswers moves scheduled forms whose answer window is due to
// openToAnswer
func (s *FormStore) OpenForAnswers(ctx context.Context, now time.Time) (int64, error) {
	return s.transition(ctx, StatusScheduled, StatusOpenToAnswer, "start_answers_date", now)
}

// OpenForService moves openToAnswer forms whose vigency date is due to open
func (s *FormStore) OpenForService(ctx context.Context, now time.Time) (int64, error) {
	return s.transition(ctx, StatusOpenToAnswer, StatusOpen, "vigency_date", now)
}

// dateColumn is always one of the constants passed by the callers above
func (s *FormStore) transition(ctx context.Context, from, to Status, dateColumn string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE refectories SET status = ?, updated_at = ? WHERE status = ? AND `+dateColumn+` <= ?`,
		to, now.UnixMilli(), from, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%s -> %s: %w", from, to, err)
	}
	return res.RowsAffected()
}

// PurgeClosed deletes every closed form
func (s *FormStore) PurgeClosed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM refectories WHERE status = ?", StatusClosed)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullString(n sql.NullString) *string {
	if n.Valid {
		return &n.String
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == code
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
