package postgres

import (
	"context"

	"github.com/Abhinav5603/generator-1/internal/domain/submission"
	"github.com/Abhinav5603/generator-1/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubmissionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSubmissionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SubmissionsRepo {
	return &SubmissionsRepo{pool: pool, prom: prom}
}

func (r *SubmissionsRepo) Create(ctx context.Context, s submission.Submission) error {
	return r.prom.ObserveDB("answer_submissions.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO answer_submissions (
				id, user_id, question_set_id, question_index, question,
				user_answer, expected_answer, feedback, feedback_source, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			s.ID, s.UserID, s.QuestionSetID, s.QuestionIndex, s.Question,
			s.UserAnswer, s.ExpectedAnswer, s.Feedback, string(s.FeedbackSource), s.CreatedAt,
		)
		return err
	})
}

// ListByUserAndSet returns userID's submissions against one set, newest first.
func (r *SubmissionsRepo) ListByUserAndSet(ctx context.Context, userID, questionSetID string) ([]submission.Submission, error) {
	out := make([]submission.Submission, 0)

	err := r.prom.ObserveDB("answer_submissions.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, user_id, question_set_id, question_index, question,
				user_answer, expected_answer, feedback, feedback_source, created_at
			FROM answer_submissions
			WHERE user_id = $1 AND question_set_id = $2
			ORDER BY created_at DESC, id DESC`,
			userID, questionSetID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s submission.Submission
			var source string

			if err := rows.Scan(
				&s.ID, &s.UserID, &s.QuestionSetID, &s.QuestionIndex, &s.Question,
				&s.UserAnswer, &s.ExpectedAnswer, &s.Feedback, &source, &s.CreatedAt,
			); err != nil {
				return err
			}

			s.FeedbackSource = submission.FeedbackSource(source)
			out = append(out, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}
