package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskflow/helpdesk-portal/internal/domain"
)

// ErrConcurrentUpdate is returned when a conditional write lost a race.
var ErrConcurrentUpdate = errors.New("ticket changed concurrently")

// TicketFilter captures search parameters. OwnerID matches the requester or
// creator, InvolvedID the assignee or creator.
type TicketFilter struct {
	OwnerID      *string
	InvolvedID   *string
	DepartmentID *string
	AssigneeID   *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence. Methods taking comments
// write the ticket and its system comments in a single transaction.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket, comments ...*domain.Comment) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ChangeStatus(ctx context.Context, ticket *domain.Ticket, from domain.TicketStatus, comment *domain.Comment) error
	ChangeAssignee(ctx context.Context, ticket *domain.Ticket, comment *domain.Comment) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, title, description, status, priority, department_id,
               requester_id, assignee_id, created_by_id, created_at, updated_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, comments ...*domain.Comment) error {
	const query = `
        INSERT INTO tickets (external_key, title, description, status, priority, department_id, requester_id, assignee_id, created_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			ticket.ExternalKey,
			ticket.Title,
			ticket.Description,
			ticket.Status,
			ticket.Priority,
			ticket.DepartmentID,
			ticket.RequesterID,
			ticket.AssigneeID,
			ticket.CreatedByID,
		).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
			return err
		}
		for _, comment := range comments {
			comment.TicketID = ticket.ID
			if err := insertComment(ctx, tx, comment); err != nil {
				return fmt.Errorf("insert %s comment: %w", comment.Type, err)
			}
		}
		return nil
	})
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, department_id=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.DepartmentID,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

// ChangeStatus moves ticket from status `from` to ticket.Status and records
// comment atomically. The update only applies while the stored status still
// equals from.
func (r *ticketRepository) ChangeStatus(ctx context.Context, ticket *domain.Ticket, from domain.TicketStatus, comment *domain.Comment) error {
	const query = `
        UPDATE tickets SET status=$1, closed_at=$2, updated_at=NOW()
        WHERE id=$3 AND status=$4
        RETURNING updated_at`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query, ticket.Status, ticket.ClosedAt, ticket.ID, from).Scan(&ticket.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConcurrentUpdate
		}
		if err != nil {
			return err
		}
		comment.TicketID = ticket.ID
		return insertComment(ctx, tx, comment)
	})
}

// ChangeAssignee stores ticket.AssigneeID and records comment atomically.
func (r *ticketRepository) ChangeAssignee(ctx context.Context, ticket *domain.Ticket, comment *domain.Comment) error {
	const query = `
        UPDATE tickets SET assignee_id=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, ticket.AssigneeID, ticket.ID).Scan(&ticket.UpdatedAt); err != nil {
			return err
		}
		comment.TicketID = ticket.ID
		return insertComment(ctx, tx, comment)
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(requester_id=$%d OR created_by_id=$%d)", n, n))
	}
	if filter.InvolvedID != nil {
		args = append(args, *filter.InvolvedID)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(assignee_id=$%d OR created_by_id=$%d)", n, n))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.DepartmentID,
		&ticket.RequesterID,
		&ticket.AssigneeID,
		&ticket.CreatedByID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
