package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"assistance/internal/apperr"
	"assistance/internal/taskflow"
	"assistance/models"
)

// Операции движка заданий. Каждая выполняется одной транзакцией: либо все
// изменения сущностей и уведомления фиксируются вместе, либо ничего.
// Строка задания берется с блокировкой FOR UPDATE, поэтому конкурентные
// попытки назначения сериализуются и двойное назначение невозможно.

func getTaskForUpdateTx(ctx context.Context, tx *sqlx.Tx, id int) (*models.Task, error) {
	t := &models.Task{}
	err := tx.GetContext(ctx, t, taskSelect+` WHERE t.id=$1 FOR UPDATE OF t`, id)
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	return t, nil
}

func getUserByUsernameTx(ctx context.Context, tx *sqlx.Tx, username string) (*models.User, error) {
	u := &models.User{}
	err := tx.GetContext(ctx, u, `SELECT * FROM users WHERE username=$1`, username)
	if err != nil {
		return nil, notFound(err, "user", username)
	}
	return u, nil
}

// AssignImplementer назначает исполнителя на задание: переводит задание в
// InProgress, принимает выбранную заявку, отклоняет остальные и рассылает
// уведомления — все атомарно. Назначать может только автор задания.
func (s *Storage) AssignImplementer(ctx context.Context, taskID int, actor, implementer string) (*taskflow.AssignResult, error) {
	var res *taskflow.AssignResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		task, err := getTaskForUpdateTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if taskflow.RoleOf(actor, *task) != taskflow.RoleAuthor {
			return apperr.Permission("only the task author can assign an implementer")
		}

		apps, err := getApplicationsForTaskTx(ctx, tx, taskID)
		if err != nil {
			return err
		}

		res, err = taskflow.Assign(*task, apps, implementer)
		if err != nil {
			return err
		}

		// compare-and-set по прежнему состоянию: при проигрыше гонки
		// обновится ноль строк
		cas, err := tx.ExecContext(ctx, `
            UPDATE task SET implementer_id=$1, status=$2, updated_at=NOW()
            WHERE id=$3 AND implementer_id IS NULL AND status=$4`,
			res.Accepted.ApplicantID, models.TaskStatusInProgress,
			taskID, models.TaskStatusAccepting)
		if err != nil {
			return err
		}
		if n, err := cas.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return apperr.Conflict("task (id = %d) was assigned concurrently", taskID)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE application SET status=$1, updated_at=NOW() WHERE id=$2`,
			models.ApplicationStatusAccepted, res.Accepted.ID); err != nil {
			return err
		}
		for _, rejected := range res.Rejected {
			if _, err := tx.ExecContext(ctx,
				`UPDATE application SET status=$1, updated_at=NOW() WHERE id=$2`,
				models.ApplicationStatusRejected, rejected.ID); err != nil {
				return err
			}
		}

		// уведомления в той же транзакции: автору, исполнителю и каждому
		// отклоненному заявителю
		if err := emitNotificationTx(ctx, tx, *task.AuthorID,
			models.NotificationImplementerSet, taskID,
			"Вы успешно назначили исполнителя на задание"); err != nil {
			return err
		}
		if err := emitNotificationTx(ctx, tx, res.Accepted.ApplicantID,
			models.NotificationApplicationAccepted, taskID,
			"Вас назначили исполнителем на задание"); err != nil {
			return err
		}
		for _, rejected := range res.Rejected {
			if err := emitNotificationTx(ctx, tx, rejected.ApplicantID,
				models.NotificationApplicationRejected, taskID,
				"Ваша заявка на задание отклонена"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CloseTask закрывает задание по точной фразе подтверждения
func (s *Storage) CloseTask(ctx context.Context, taskID int, actor, confirm string) (*models.Task, error) {
	var closed models.Task
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		task, err := getTaskForUpdateTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if taskflow.RoleOf(actor, *task) != taskflow.RoleAuthor {
			return apperr.Permission("only the task author can close the task")
		}

		closed, err = taskflow.Close(*task, confirm, time.Now().UTC())
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE task SET status=$1, closed_at=$2, updated_at=NOW() WHERE id=$3`,
			closed.Status, closed.ClosedAt, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &closed, nil
}

// SubmitReview сохраняет отзыв и в той же транзакции пополняет накопители
// рейтинга оцененной стороны: автор оценивает исполнителя, исполнитель —
// автора. Нормализованное значение нигде не хранится.
func (s *Storage) SubmitReview(ctx context.Context, taskID int, actor, reviewType, message string, rating int) (*models.Review, error) {
	review := &models.Review{
		TaskID:           taskID,
		ReviewType:       reviewType,
		Message:          message,
		Rating:           rating,
		ReviewerUsername: actor,
	}
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		task, err := getTaskForUpdateTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		reviewer, err := getUserByUsernameTx(ctx, tx, actor)
		if err != nil {
			return err
		}

		role, err := taskflow.CheckReview(*task, actor, reviewType, rating)
		if err != nil {
			return err
		}
		targetID, err := taskflow.ReviewTarget(*task, role)
		if err != nil {
			return err
		}

		review.ReviewerID = reviewer.ID
		err = tx.QueryRowContext(ctx, `
            INSERT INTO review (reviewer_id, task_id, review_type, message, rating)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id, created_at`,
			review.ReviewerID, review.TaskID, review.ReviewType, review.Message, review.Rating).
			Scan(&review.ID, &review.CreatedAt)
		if isUniqueViolation(err) {
			return apperr.Validation("you have already reviewed this task (id = %d)", taskID)
		}
		if err != nil {
			return err
		}

		var counters string
		if role == taskflow.RoleAuthor {
			// автор оценивает качество работы исполнителя
			counters = `implementer_rating = implementer_rating + $1,
                        implementer_review_count = implementer_review_count + 1`
		} else {
			// исполнитель оценивает надежность автора
			counters = `author_rating = author_rating + $1,
                        author_review_count = author_review_count + 1`
		}
		_, err = tx.ExecContext(ctx, fmt.Sprintf(
			`UPDATE users SET %s, updated_at=NOW() WHERE id=$2`, counters),
			rating, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *Storage) GetReviewsForTask(ctx context.Context, taskID int) ([]models.Review, error) {
	reviews := []models.Review{}
	query := `
        SELECT r.*, u.username AS reviewer_username
        FROM review r
        JOIN users u ON r.reviewer_id = u.id
        WHERE r.task_id = $1
        ORDER BY r.created_at DESC`
	err := s.db.SelectContext(ctx, &reviews, query, taskID)
	return reviews, err
}
