package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
)

type notificationRepository struct{ pool *pgxpool.Pool }

func NewNotificationRepository(pool *pgxpool.Pool) repository.NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `id, subject, body, audience, recipients, delivered, failed, created_at`

func scanNotification(row pgx.Row, extra ...any) (model.Notification, error) {
	var n model.Notification
	dest := []any{&n.ID, &n.Subject, &n.Body, &n.Audience, &n.Recipients, &n.Delivered, &n.Failed, &n.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n model.Notification) (model.Notification, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Notification{}, err
	}
	if n.Recipients == nil {
		n.Recipients = []string{}
	}
	out, err := scanNotification(getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO notifications (subject, body, audience, recipients, delivered, failed)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+notificationColumns,
		n.Subject, n.Body, n.Audience, n.Recipients, n.Delivered, n.Failed,
	))
	if err != nil {
		return model.Notification{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *notificationRepository) List(ctx context.Context, p repository.Page) (repository.PageResult[model.Notification], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.Notification]{}, err
	}
	limit, offset := sanitizeLimitOffset(p.Limit, p.Offset)
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+notificationColumns+`, COUNT(*) OVER() AS total
		 FROM notifications
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return repository.PageResult[model.Notification]{}, repository.MapPgError(err)
	}
	defer rows.Close()

	res := repository.PageResult[model.Notification]{Items: make([]model.Notification, 0, limit)}
	for rows.Next() {
		var total int
		n, err := scanNotification(rows, &total)
		if err != nil {
			return repository.PageResult[model.Notification]{}, repository.MapPgError(err)
		}
		res.Items = append(res.Items, n)
		res.Total = total
	}
	return res, repository.MapPgError(rows.Err())
}

var _ repository.NotificationRepository = (*notificationRepository)(nil)
