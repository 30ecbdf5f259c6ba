package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
)

type questionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) ports.QuestionRepository {
	return &questionRepository{
		db: db,
	}
}

func (r *questionRepository) ListRecent(ctx context.Context, limit, offset int) ([]*domain.Question, error) {
	query := `
		SELECT id, question_text, published_at
		FROM questions
		ORDER BY published_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func (r *questionRepository) ListAll(ctx context.Context) ([]*domain.Question, error) {
	query := `
		SELECT id, question_text, published_at
		FROM questions
		ORDER BY published_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all questions: %w", err)
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func (r *questionRepository) CountQuestions(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

func (r *questionRepository) GetQuestion(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	query := `SELECT id, question_text, published_at FROM questions WHERE id = ?`

	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

func (r *questionRepository) ListChoices(ctx context.Context, questionID uuid.UUID) ([]domain.Choice, error) {
	query := `
		SELECT id, question_id, choice_text, votes, created_at
		FROM choices
		WHERE question_id = ?
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, questionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get choices: %w", err)
	}
	defer rows.Close()

	choices := []domain.Choice{}
	for rows.Next() {
		c, err := scanChoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		choices = append(choices, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating choices: %w", err)
	}
	return choices, nil
}

func (r *questionRepository) GetChoice(ctx context.Context, questionID, choiceID uuid.UUID) (*domain.Choice, error) {
	query := `
		SELECT id, question_id, choice_text, votes, created_at
		FROM choices
		WHERE id = ? AND question_id = ?
	`
	c, err := scanChoice(r.db.QueryRowContext(ctx, query, choiceID.String(), questionID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrChoiceNotFound
		}
		return nil, fmt.Errorf("failed to get choice: %w", err)
	}
	return c, nil
}

func (r *questionRepository) PreviousQuestion(ctx context.Context, ref *domain.Question) (*domain.Question, error) {
	query := `
		SELECT id, question_text, published_at
		FROM questions
		WHERE published_at < ?
		ORDER BY published_at DESC, id DESC
		LIMIT 1
	`
	return r.adjacent(ctx, query, ref)
}

func (r *questionRepository) NextQuestion(ctx context.Context, ref *domain.Question) (*domain.Question, error) {
	query := `
		SELECT id, question_text, published_at
		FROM questions
		WHERE published_at > ?
		ORDER BY published_at ASC, id ASC
		LIMIT 1
	`
	return r.adjacent(ctx, query, ref)
}

func (r *questionRepository) adjacent(ctx context.Context, query string, ref *domain.Question) (*domain.Question, error) {
	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, ref.PublishedAt.UnixNano()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get adjacent question: %w", err)
	}
	return q, nil
}

func (r *questionRepository) IncrementVotes(ctx context.Context, questionID, choiceID uuid.UUID) (int64, error) {
	query := `
		UPDATE choices
		SET votes = votes + 1
		WHERE id = ? AND question_id = ?
		RETURNING votes
	`

	var votes int64
	err := r.db.QueryRowContext(ctx, query, choiceID.String(), questionID.String()).Scan(&votes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrChoiceNotFound
		}
		return 0, fmt.Errorf("failed to increment votes: %w", err)
	}
	return votes, nil
}

func (r *questionRepository) SaveQuestion(ctx context.Context, question *domain.Question, choices []domain.Choice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO questions (id, question_text, published_at) VALUES (?, ?, ?)`,
		question.ID.String(), question.Text, question.PublishedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}

	for _, c := range choices {
		if _, err := tx.ExecContext(ctx, insertChoiceQuery, choiceArgs(&c)...); err != nil {
			return fmt.Errorf("failed to insert choice: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *questionRepository) AddChoice(ctx context.Context, choice *domain.Choice) error {
	if _, err := r.db.ExecContext(ctx, insertChoiceQuery, choiceArgs(choice)...); err != nil {
		return fmt.Errorf("failed to insert choice: %w", err)
	}
	return nil
}

func (r *questionRepository) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM choices WHERE question_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete choices: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if affected == 0 {
		return domain.ErrQuestionNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const insertChoiceQuery = `
	INSERT INTO choices (id, question_id, choice_text, votes, created_at)
	VALUES (?, ?, ?, ?, ?)
`

func choiceArgs(c *domain.Choice) []any {
	return []any{c.ID.String(), c.QuestionID.String(), c.Text, c.Votes, c.CreatedAt.UnixNano()}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(s scanner) (*domain.Question, error) {
	var (
		q           domain.Question
		publishedAt int64
	)
	if err := s.Scan(&q.ID, &q.Text, &publishedAt); err != nil {
		return nil, err
	}
	q.PublishedAt = time.Unix(0, publishedAt).UTC()
	return &q, nil
}

func scanChoice(s scanner) (*domain.Choice, error) {
	var (
		c         domain.Choice
		createdAt int64
	)
	if err := s.Scan(&c.ID, &c.QuestionID, &c.Text, &c.Votes, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	return &c, nil
}

func scanQuestions(rows *sql.Rows) ([]*domain.Question, error) {
	questions := []*domain.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	return questions, nil
}
