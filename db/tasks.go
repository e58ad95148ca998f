package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"assistance/internal/apperr"
	"assistance/models"
)

// taskSelect подтягивает к заданию имена сторон, накопители рейтинга автора
// и количество заявок
const taskSelect = `
    SELECT t.*,
        a.username AS author_username,
        i.username AS implementer_username,
        COALESCE(a.author_rating, 0) AS author_rating_sum,
        COALESCE(a.author_review_count, 0) AS author_rating_count,
        (SELECT COUNT(1) FROM application ap WHERE ap.task_id = t.id) AS applications_amount
    FROM task t
    LEFT JOIN users a ON t.author_id = a.id
    LEFT JOIN users i ON t.implementer_id = i.id`

func (s *Storage) CreateTask(ctx context.Context, t *models.Task, tagIDs []int) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO task
                (author_id, title, price, stage_of_study, course_of_study, subject_id,
                 description, status, stop_accepting_at, expires_at)
            VALUES
                ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
            RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query,
			t.AuthorID, t.Title, t.Price, t.StageOfStudy, t.CourseOfStudy, t.SubjectID,
			t.Description, t.Status, t.StopAccepting, t.ExpiresAt).
			Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return err
		}
		return setTaskTags(ctx, tx, t.ID, tagIDs)
	})
}

func (s *Storage) GetTask(ctx context.Context, id int) (*models.Task, error) {
	t := &models.Task{}
	err := s.db.GetContext(ctx, t, taskSelect+` WHERE t.id=$1`, id)
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	return t, nil
}

// TaskFilter — фильтры списка заданий. DateField проверяется по
// models.TaskDateFieldNames до подстановки в запрос, произвольные имена
// колонок сюда не попадают.
type TaskFilter struct {
	Tags         []string
	StageOfStudy string
	SubjectID    int
	DateField    string
	After        *time.Time
	Before       *time.Time
	Limit        int
	Offset       int
}

func (f *TaskFilter) Validate() error {
	if f.DateField != "" {
		if _, ok := models.TaskDateFieldNames[f.DateField]; !ok {
			return apperr.Validation("unknown date field %q, allowed: created_at, updated_at, stop_accepting_at, expires_at, closed_at", f.DateField)
		}
	}
	return nil
}

func (s *Storage) GetTasks(ctx context.Context, f TaskFilter) ([]models.Task, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Tags) > 0 {
		placeholders := make([]string, len(f.Tags))
		for i, name := range f.Tags {
			placeholders[i] = arg(name)
		}
		conds = append(conds, fmt.Sprintf(
			`t.id IN (SELECT tt.task_id FROM task_tags tt JOIN task_tag g ON tt.tag_id = g.id WHERE g.name IN (%s))`,
			strings.Join(placeholders, ", ")))
	}
	if f.StageOfStudy != "" {
		conds = append(conds, "t.stage_of_study = "+arg(f.StageOfStudy))
	}
	if f.SubjectID > 0 {
		conds = append(conds, "t.subject_id = "+arg(f.SubjectID))
	}
	if f.DateField != "" {
		// имя колонки уже проверено по списку допустимых
		if f.After != nil {
			conds = append(conds, fmt.Sprintf("t.%s >= %s", f.DateField, arg(*f.After)))
		}
		if f.Before != nil {
			conds = append(conds, fmt.Sprintf("t.%s <= %s", f.DateField, arg(*f.Before)))
		}
	}

	query := taskSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.created_at DESC"
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)

	tasks := []models.Task{}
	err := s.db.SelectContext(ctx, &tasks, query, args...)
	return tasks, err
}

func (s *Storage) GetUserTasks(ctx context.Context, username string, limit, offset int) ([]models.Task, error) {
	query := taskSelect + `
        WHERE a.username = $1
        ORDER BY t.created_at DESC
        LIMIT $2 OFFSET $3`
	tasks := []models.Task{}
	err := s.db.SelectContext(ctx, &tasks, query, username, limit, offset)
	return tasks, err
}

func (s *Storage) UpdateTask(ctx context.Context, t *models.Task, tagIDs []int) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            UPDATE task
            SET title=$1, price=$2, stage_of_study=$3, course_of_study=$4, subject_id=$5,
                description=$6, stop_accepting_at=$7, expires_at=$8, updated_at=NOW()
            WHERE id=$9`
		_, err := tx.ExecContext(ctx, query,
			t.Title, t.Price, t.StageOfStudy, t.CourseOfStudy, t.SubjectID,
			t.Description, t.StopAccepting, t.ExpiresAt, t.ID)
		if err != nil {
			return err
		}
		return setTaskTags(ctx, tx, t.ID, tagIDs)
	})
}

// DeleteTask удаляет задание; заявки, файлы и отзывы уходят каскадом по
// внешним ключам
func (s *Storage) DeleteTask(ctx context.Context, id int) error {
	query := `DELETE FROM task WHERE id=$1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

func setTaskTags(ctx context.Context, tx *sqlx.Tx, taskID int, tagIDs []int) error {
	if tagIDs == nil {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id=$1`, taskID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2)`, taskID, tagID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) GetTaskTags(ctx context.Context, taskID int) ([]models.TaskTag, error) {
	tags := []models.TaskTag{}
	query := `
        SELECT g.* FROM task_tag g
        JOIN task_tags tt ON tt.tag_id = g.id
        WHERE tt.task_id = $1
        ORDER BY g.name ASC`
	err := s.db.SelectContext(ctx, &tags, query, taskID)
	return tags, err
}

// Справочники тегов и предметов

func (s *Storage) CreateTag(ctx context.Context, t *models.TaskTag) error {
	query := `INSERT INTO task_tag (name) VALUES ($1) RETURNING id`
	err := s.db.QueryRowContext(ctx, query, t.Name).Scan(&t.ID)
	if isUniqueViolation(err) {
		return apperr.Validation("tag %s already exists", t.Name)
	}
	return err
}

func (s *Storage) GetTags(ctx context.Context) ([]models.TaskTag, error) {
	tags := []models.TaskTag{}
	err := s.db.SelectContext(ctx, &tags, `SELECT * FROM task_tag ORDER BY name ASC`)
	return tags, err
}

func (s *Storage) CreateSubject(ctx context.Context, sub *models.TaskSubject) error {
	query := `INSERT INTO task_subject (name) VALUES ($1) RETURNING id`
	err := s.db.QueryRowContext(ctx, query, sub.Name).Scan(&sub.ID)
	if isUniqueViolation(err) {
		return apperr.Validation("subject %s already exists", sub.Name)
	}
	return err
}

func (s *Storage) GetSubjects(ctx context.Context) ([]models.TaskSubject, error) {
	subjects := []models.TaskSubject{}
	err := s.db.SelectContext(ctx, &subjects, `SELECT * FROM task_subject ORDER BY name ASC`)
	return subjects, err
}

// Файлы задания

func (s *Storage) CreateTaskFile(ctx context.Context, f *models.TaskFile) error {
	query := `INSERT INTO task_file (task_id, file_ref, file_name) VALUES ($1, $2, $3) RETURNING id`
	return s.db.QueryRowContext(ctx, query, f.TaskID, f.FileRef, f.FileName).Scan(&f.ID)
}

func (s *Storage) GetTaskFiles(ctx context.Context, taskID int) ([]models.TaskFile, error) {
	files := []models.TaskFile{}
	query := `SELECT * FROM task_file WHERE task_id=$1 ORDER BY id ASC`
	err := s.db.SelectContext(ctx, &files, query, taskID)
	return files, err
}
