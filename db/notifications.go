package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"assistance/internal/apperr"
	"assistance/models"
)

// Фильтры списка уведомлений: new — только непрочитанные, old — только
// прочитанные, пустая строка — все
const (
	NotificationFilterNew = "new"
	NotificationFilterOld = "old"
)

// emitNotificationTx добавляет уведомление в рамках транзакции вызывающей
// операции: без фиксации изменения нет и уведомления, и наоборот
func emitNotificationTx(ctx context.Context, tx *sqlx.Tx, userID int, ntype string, affectedObjectID int, message string) error {
	query := `
        INSERT INTO notification (user_id, type, affected_object_id, message, checked)
        VALUES ($1, $2, $3, $4, FALSE)`
	_, err := tx.ExecContext(ctx, query, userID, ntype, affectedObjectID, message)
	return err
}

// ListNotifications возвращает уведомления пользователя с их состоянием на
// момент чтения и тут же, в той же транзакции, помечает перечисленные
// прочитанными. Ответ несет флаги до переворота: клиент один раз вызывает
// список и этим же подтверждает прочтение.
//
// Две конкурентные выборки одного пользователя могут обе увидеть уведомления
// непрочитанными — это принятое поведение, а не дефект: повторный
// последовательный вызов обязан показать ноль новых.
func (s *Storage) ListNotifications(ctx context.Context, userID int, filter string) ([]models.Notification, error) {
	if filter != "" && filter != NotificationFilterNew && filter != NotificationFilterOld {
		return nil, apperr.Validation("unknown notification_type %q, allowed: new, old", filter)
	}

	notifications := []models.Notification{}
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `SELECT * FROM notification WHERE user_id=$1`
		switch filter {
		case NotificationFilterNew:
			query += ` AND checked=FALSE`
		case NotificationFilterOld:
			query += ` AND checked=TRUE`
		}
		query += ` ORDER BY created_at DESC`

		if err := tx.SelectContext(ctx, &notifications, query, userID); err != nil {
			return err
		}

		// сначала сформирован ответ с текущими статусами, потом переворот
		ids := make([]int, 0, len(notifications))
		for _, n := range notifications {
			if !n.Checked {
				ids = append(ids, n.ID)
			}
		}
		return markSeenTx(ctx, tx, ids)
	})
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func markSeenTx(ctx context.Context, tx *sqlx.Tx, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE notification SET checked=TRUE WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(query), args...)
	return err
}
