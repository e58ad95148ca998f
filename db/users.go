package db

import (
	"context"

	"assistance/internal/apperr"
	"assistance/models"
)

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	query := `
        INSERT INTO users (username, password_hash, email)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, u.Username, u.PasswordHash, u.Email).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Validation("username %s is already taken", u.Username)
	}
	return err
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	query := `SELECT * FROM users WHERE username=$1`
	err := s.db.GetContext(ctx, u, query, username)
	if err != nil {
		return nil, notFound(err, "user", username)
	}
	return u, nil
}

func (s *Storage) GetUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	users := []models.User{}
	query := `SELECT * FROM users ORDER BY username ASC LIMIT $1 OFFSET $2`
	err := s.db.SelectContext(ctx, &users, query, limit, offset)
	return users, err
}

func (s *Storage) UpdateUserProfile(ctx context.Context, u *models.User) error {
	query := `
        UPDATE users
        SET first_name=$1, last_name=$2, biography=$3, profile_image=$4,
            stage_of_study=$5, course_of_study=$6, updated_at=NOW()
        WHERE username=$7`
	_, err := s.db.ExecContext(ctx, query,
		u.FirstName, u.LastName, u.Biography, u.ProfileImage,
		u.StageOfStudy, u.CourseOfStudy, u.Username)
	return err
}

func (s *Storage) UpdateUserContacts(ctx context.Context, u *models.User) error {
	query := `
        UPDATE users
        SET contact_phone=$1, contact_email=$2, contact_tg=$3, contact_vk=$4, updated_at=NOW()
        WHERE username=$5`
	_, err := s.db.ExecContext(ctx, query,
		u.ContactPhone, u.ContactEmail, u.ContactTg, u.ContactVk, u.Username)
	return err
}

func (s *Storage) UpdateUserSettings(ctx context.Context, u *models.User) error {
	query := `
        UPDATE users
        SET show_contacts=$1, send_email_notifications=$2, updated_at=NOW()
        WHERE username=$3`
	_, err := s.db.ExecContext(ctx, query, u.ShowContacts, u.SendEmailNotifications, u.Username)
	return err
}

// UserTaskCounts — статистика пользователя по заданиям и заявкам
type UserTaskCounts struct {
	AuthoredActive     int `db:"authored_active"`
	AuthoredTotal      int `db:"authored_total"`
	ImplementedActive  int `db:"implemented_active"`
	ImplementedTotal   int `db:"implemented_total"`
	ApplicationsActive int `db:"applications_active"`
	ApplicationsTotal  int `db:"applications_total"`
}

func (s *Storage) GetUserTaskCounts(ctx context.Context, userID int) (*UserTaskCounts, error) {
	c := &UserTaskCounts{}
	query := `
        SELECT
            (SELECT COUNT(1) FROM task WHERE author_id=$1 AND status IN ('Accepting', 'InProgress')) AS authored_active,
            (SELECT COUNT(1) FROM task WHERE author_id=$1) AS authored_total,
            (SELECT COUNT(1) FROM task WHERE implementer_id=$1 AND status='InProgress') AS implemented_active,
            (SELECT COUNT(1) FROM task WHERE implementer_id=$1) AS implemented_total,
            (SELECT COUNT(1) FROM application WHERE applicant_id=$1 AND status='Sent') AS applications_active,
            (SELECT COUNT(1) FROM application WHERE applicant_id=$1) AS applications_total`
	err := s.db.GetContext(ctx, c, query, userID)
	return c, err
}
