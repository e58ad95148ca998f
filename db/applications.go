package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"assistance/internal/apperr"
	"assistance/models"
)

// applicationSelect подтягивает имя заявителя и его накопители рейтинга
// как исполнителя
const applicationSelect = `
    SELECT ap.*,
        u.username AS applicant_username,
        u.implementer_rating AS applicant_rating_sum,
        u.implementer_review_count AS applicant_rating_count
    FROM application ap
    JOIN users u ON ap.applicant_id = u.id`

// applicantOrder сортирует заявки по убыванию нормализованного рейтинга
// заявителя: лучших исполнителей показываем первыми
const applicantOrder = `
    ORDER BY CASE WHEN u.implementer_review_count = 0 THEN 0
             ELSE u.implementer_rating::float / u.implementer_review_count END DESC,
             ap.created_at ASC`

func (s *Storage) CreateApplication(ctx context.Context, a *models.Application) error {
	query := `
        INSERT INTO application (applicant_id, task_id, message)
        VALUES ($1, $2, $3)
        RETURNING id, status, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, a.ApplicantID, a.TaskID, a.Message).
		Scan(&a.ID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Validation("you have already applied for this task (id = %d)", a.TaskID)
	}
	return err
}

func (s *Storage) GetApplicationsForTask(ctx context.Context, taskID int) ([]models.Application, error) {
	apps := []models.Application{}
	query := applicationSelect + ` WHERE ap.task_id = $1` + applicantOrder
	err := s.db.SelectContext(ctx, &apps, query, taskID)
	return apps, err
}

func (s *Storage) GetUserApplications(ctx context.Context, username string, limit, offset int) ([]models.Application, error) {
	apps := []models.Application{}
	query := applicationSelect + `
        WHERE u.username = $1
        ORDER BY ap.created_at DESC
        LIMIT $2 OFFSET $3`
	err := s.db.SelectContext(ctx, &apps, query, username, limit, offset)
	return apps, err
}

func getApplicationsForTaskTx(ctx context.Context, tx *sqlx.Tx, taskID int) ([]models.Application, error) {
	apps := []models.Application{}
	query := applicationSelect + ` WHERE ap.task_id = $1` + applicantOrder
	err := tx.SelectContext(ctx, &apps, query, taskID)
	return apps, err
}
