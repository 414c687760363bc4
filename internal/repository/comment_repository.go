package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskflow/helpdesk-portal/internal/domain"
)

// CommentRepository manages ticket thread entries.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

// queryRower is satisfied by both the pool and a transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

const commentColumns = `id, ticket_id, parent_comment_id, author_id, comment_type, is_internal, content,
               COALESCE(metadata, '{}'::jsonb), created_at`

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	return insertComment(ctx, r.pool, comment)
}

func insertComment(ctx context.Context, q queryRower, comment *domain.Comment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, parent_comment_id, author_id, comment_type, is_internal, content, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return q.QueryRow(ctx, query,
		comment.TicketID,
		comment.ParentCommentID,
		comment.AuthorID,
		comment.Type,
		comment.IsInternal,
		comment.Content,
		comment.Metadata,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM ticket_comments WHERE id=$1`
	return scanComment(r.pool.QueryRow(ctx, query, id))
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *comment)
	}
	return result, rows.Err()
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var comment domain.Comment
	if err := row.Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.ParentCommentID,
		&comment.AuthorID,
		&comment.Type,
		&comment.IsInternal,
		&comment.Content,
		&comment.Metadata,
		&comment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}
