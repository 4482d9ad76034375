package refectory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

// errMissingReference means the form or the user of an answer is gone
var errMissingReference = errors.New("answer references a missing form or user")

// AnswerStore persists per-user answers. The (user, form) pair is unique.
type AnswerStore struct {
	db  *sql.DB
	loc *time.Location
}

func NewAnswerStore(db *sql.DB, loc *time.Location) *AnswerStore {
	if loc == nil {
		loc = time.Local
	}
	return &AnswerStore{db: db, loc: loc}
}

// Insert stores a new answer. A second answer for the same pair fails with
// ErrAlreadyAnswered and leaves the first one untouched.
func (s *AnswerStore) Insert(ctx context.Context, a *Answer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refectory_answers
			(id, refectory_id, user_id, breakfast, lunch, afternoon_snack, dinner, night_snack, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.FormID, a.UserID,
		a.Breakfast.Int(), a.Lunch.Int(), a.AfternoonSnack.Int(), a.Dinner.Int(), a.NightSnack.Int(),
		a.CreatedAt.UnixMilli())
	switch {
	case isConstraint(err, sqlite3.ErrConstraintUnique):
		return ErrAlreadyAnswered
	case isConstraint(err, sqlite3.ErrConstraintForeignKey):
		return errMissingReference
	}
	return err
}

// Find returns the answer of userID for formID, or nil when there is none
func (s *AnswerStore) Find(ctx context.Context, userID int64, formID string) (*Answer, error) {
	var (
		a                          Answer
		b, l, as, d, ns, createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, refectory_id, user_id, breakfast, lunch, afternoon_snack, dinner, night_snack, created_at
		FROM refectory_answers WHERE user_id = ? AND refectory_id = ?
	`, userID, formID).Scan(&a.ID, &a.FormID, &a.UserID, &b, &l, &as, &d, &ns, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Meals = Meals{
		Breakfast:      b == 1,
		Lunch:          l == 1,
		AfternoonSnack: as == 1,
		Dinner:         d == 1,
		NightSnack:     ns == 1,
	}
	a.CreatedAt = time.UnixMilli(createdAt).In(s.loc)
	return &a, nil
}

// Exists reports whether userID already answered formID
func (s *AnswerStore) Exists(ctx context.Context, userID int64, formID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM refectory_answers WHERE user_id = ? AND refectory_id = ?",
		userID, formID).Scan(&n)
	return n > 0, err
}

// ReportRow is one answer joined with its form and user
type ReportRow struct {
	FormID   string
	UserName string
	UserType string
	Meals    Meals
}

// EachReportRow streams every answer tied to a form in openToAnswer or open,
// ordered by vigency date then user name
func (s *AnswerStore) EachReportRow(ctx context.Context, fn func(ReportRow) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.refectory_id, u.name, u.type,
			a.breakfast, a.lunch, a.afternoon_snack, a.dinner, a.night_snack
		FROM refectory_answers a
		JOIN refectories r ON r.id = a.refectory_id
		JOIN users u ON u.id = a.user_id
		WHERE r.status IN (?, ?)
		ORDER BY r.vigency_date, u.name, a.created_at
	`, StatusOpenToAnswer, StatusOpen)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row             ReportRow
			b, l, as, d, ns int64
		)
		if err := rows.Scan(&row.FormID, &row.UserName, &row.UserType, &b, &l, &as, &d, &ns); err != nil {
			return err
		}
		row.Meals = Meals{
			Breakfast:      b == 1,
			Lunch:          l == 1,
			AfternoonSnack: as == 1,
			Dinner:         d == 1,
			NightSnack:     ns == 1,
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}
