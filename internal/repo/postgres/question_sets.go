package postgres

import (
	"context"
	"errors"

	"github.com/Abhinav5603/generator-1/internal/domain/questionset"
	"github.com/Abhinav5603/generator-1/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionSetsRepo stores each set as a single row; the string lists live in
// JSONB columns so a set is written and read as one document.
type QuestionSetsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewQuestionSetsRepo(pool *pgxpool.Pool, prom *observability.Prom) *QuestionSetsRepo {
	return &QuestionSetsRepo{pool: pool, prom: prom}
}

const questionSetColumns = `id, user_id, questions, expected_answers, skills, source, created_at`

func (r *QuestionSetsRepo) Create(ctx context.Context, qs questionset.QuestionSet) error {
	if err := qs.Validate(); err != nil {
		return err
	}

	return r.prom.ObserveDB("question_sets.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO question_sets (`+questionSetColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			qs.ID,
			qs.UserID,
			orEmpty(qs.Questions),
			orEmpty(qs.ExpectedAnswers),
			orEmpty(qs.Skills),
			string(qs.Source),
			qs.CreatedAt,
		)
		return err
	})
}

func (r *QuestionSetsRepo) GetByID(ctx context.Context, id string) (questionset.QuestionSet, error) {
	var qs questionset.QuestionSet

	err := r.prom.ObserveDB("question_sets.get_by_id", func() error {
		return scanQuestionSet(r.pool.QueryRow(ctx,
			`SELECT `+questionSetColumns+` FROM question_sets WHERE id = $1`, id,
		), &qs)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return questionset.QuestionSet{}, questionset.ErrNotFound
		}
		return questionset.QuestionSet{}, err
	}

	return qs, nil
}

// ListByUser returns userID's sets newest first. limit <= 0 means no limit.
func (r *QuestionSetsRepo) ListByUser(ctx context.Context, userID string, limit int) ([]questionset.QuestionSet, error) {
	query := `SELECT ` + questionSetColumns + ` FROM question_sets
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{userID}

	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	out := make([]questionset.QuestionSet, 0)

	err := r.prom.ObserveDB("question_sets.list_by_user", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var qs questionset.QuestionSet
			if err := scanQuestionSet(rows, &qs); err != nil {
				return err
			}
			out = append(out, qs)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanQuestionSet(row pgx.Row, qs *questionset.QuestionSet) error {
	var source string

	err := row.Scan(
		&qs.ID,
		&qs.UserID,
		&qs.Questions,
		&qs.ExpectedAnswers,
		&qs.Skills,
		&source,
		&qs.CreatedAt,
	)
	qs.Source = questionset.Source(source)
	return err
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
