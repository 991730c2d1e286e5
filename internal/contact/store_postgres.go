// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/alumniportal/internal/platform/database/schema"
	"github.com/taibuivan/alumniportal/internal/platform/dberr"
	"github.com/taibuivan/alumniportal/internal/platform/postgres"
)

// PostgresStore implements [Store] using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres implementation of the inbox.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Create inserts a new message.

Returns:
  - error: apperr.Conflict on a duplicate id, or a wrapped execution failure
*/
func (store *PostgresStore) Create(ctx context.Context, message *Message) error {
	table := schema.ContactMessage
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		table.Table, strings.Join(table.Columns(), ", "),
	)

	_, err := store.pool.Exec(ctx, query,
		message.ID, message.Name, message.Email, message.Subject,
		message.Message, message.IPAddress, message.IsRead, message.CreatedAt,
	)
	return dberr.Wrap(err, "Contact message")
}

/*
List returns a page of messages, newest first, and the total matching count.
*/
func (store *PostgresStore) List(ctx context.Context, filter Filter) ([]*Message, int, error) {
	table := schema.ContactMessage

	where := ""
	if filter.UnreadOnly {
		where = fmt.Sprintf("WHERE %s = FALSE", table.IsRead)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, table.Table, where)
	if err := store.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Contact message")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY %s DESC
		LIMIT $1 OFFSET $2`,
		strings.Join(table.Columns(), ", "), table.Table, where, table.CreatedAt,
	)

	rows, err := store.pool.Query(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Contact message")
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Message, error) {
		var message Message
		var ipAddress *string
		err := row.Scan(
			&message.ID, &message.Name, &message.Email, &message.Subject,
			&message.Message, &ipAddress, &message.IsRead, &message.CreatedAt,
		)
		if ipAddress != nil {
			message.IPAddress = *ipAddress
		}
		return &message, err
	})
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Contact message")
	}

	return messages, total, nil
}

/*
MarkRead flags a message as read.

Returns:
  - error: apperr.NotFound when no message has the id
*/
func (store *PostgresStore) MarkRead(ctx context.Context, id string) error {
	table := schema.ContactMessage
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE WHERE %s = $1`, table.Table, table.IsRead, table.ID)

	tag, err := store.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "Contact message")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Contact message")
	}
	return nil
}

// Ping verifies the database is reachable.
func (store *PostgresStore) Ping(ctx context.Context) error {
	return postgres.Ping(ctx, store.pool)
}
