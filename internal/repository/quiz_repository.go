package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const quizColumns = `id, title, time_limit_seconds, passing_score_normal, passing_score_to_watch, practice, created_at`

// QuizRepository handles quiz definitions and their questions.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

// GetWithQuestions retrieves a quiz and its questions ordered by order_num.
func (r *QuizRepository) GetWithQuestions(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id,
	).Scan(&q.ID, &q.Title, &q.TimeLimitSeconds, &q.PassingScoreNormal, &q.PassingScoreToWatch, &q.Practice, &q.CreatedAt)
	if err != nil {
		return nil, err
	}

	questions, err := r.listQuestions(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	q.Questions = questions[id]
	return q, nil
}

// GetMany retrieves several quizzes with their questions, keyed by id.
// Unknown ids are silently absent from the result.
func (r *QuizRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Quiz, error) {
	out := make(map[uuid.UUID]*model.Quiz, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		q := &model.Quiz{}
		if err := rows.Scan(&q.ID, &q.Title, &q.TimeLimitSeconds, &q.PassingScoreNormal,
			&q.PassingScoreToWatch, &q.Practice, &q.CreatedAt); err != nil {
			return nil, err
		}
		out[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	questions, err := r.listQuestions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, q := range out {
		q.Questions = questions[id]
	}
	return out, nil
}

func (r *QuizRepository) listQuestions(ctx context.Context, quizIDs []uuid.UUID) (map[uuid.UUID][]model.Question, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id, quiz_id, prompt, options, correct_answer_text, points, order_num
		 FROM quiz_questions
		 WHERE quiz_id = ANY($1)
		 ORDER BY quiz_id, order_num ASC, id ASC`, quizIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]model.Question, len(quizIDs))
	for rows.Next() {
		var (
			q   model.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Prompt, &raw, &q.CorrectAnswerText, &q.Points, &q.OrderNum); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of question %s: %w", q.ID, err)
		}
		out[q.QuizID] = append(out[q.QuizID], q)
	}
	return out, rows.Err()
}

// Create inserts a quiz and its questions. Call inside a transaction so a
// failing question leaves no partial quiz behind.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	db := conn(ctx, r.pool)
	if err := db.QueryRow(ctx,
		`INSERT INTO quizzes (title, time_limit_seconds, passing_score_normal, passing_score_to_watch, practice)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		q.Title, q.TimeLimitSeconds, q.PassingScoreNormal, q.PassingScoreToWatch, q.Practice,
	).Scan(&q.ID, &q.CreatedAt); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}

	for i := range q.Questions {
		question := &q.Questions[i]
		question.QuizID = q.ID
		options, err := json.Marshal(question.Options)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		if err := db.QueryRow(ctx,
			`INSERT INTO quiz_questions (quiz_id, prompt, options, correct_answer_text, points, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			q.ID, question.Prompt, options, question.CorrectAnswerText, question.Points, question.OrderNum,
		).Scan(&question.ID); err != nil {
			return fmt.Errorf("insert question %d: %w", i+1, err)
		}
	}
	return nil
}
