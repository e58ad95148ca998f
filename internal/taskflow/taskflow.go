// Package taskflow содержит чистую логику жизненного цикла задания:
// переходы статусов, выбор исполнителя, допуск к отзывам и роли просмотра.
// Функции не трогают базу: принимают текущее состояние целиком и возвращают
// либо новое состояние, либо типизированную ошибку. Записью занимается db.
package taskflow

import (
	"time"

	"assistance/internal/apperr"
	"assistance/models"
)

// Роль пользователя по отношению к заданию
type Role int

const (
	RoleOther Role = iota
	RoleAuthor
	RoleImplementer
)

// Точная фраза подтверждения закрытия задачи
const CloseConfirmPhrase = "Я подтверждаю, что хочу закрыть задачу"

// RoleOf определяет роль пользователя по отношению к заданию.
// Сравнение по username: автор и исполнитель подтягиваются join-ом.
func RoleOf(username string, t models.Task) Role {
	if t.AuthorUsername != nil && *t.AuthorUsername == username {
		return RoleAuthor
	}
	if t.ImplementerUsername != nil && *t.ImplementerUsername == username {
		return RoleImplementer
	}
	return RoleOther
}

// AssignResult — результат назначения исполнителя: новое состояние задания,
// принятая заявка и все отклоненные
type AssignResult struct {
	Task     models.Task
	Accepted models.Application
	Rejected []models.Application
}

// Assign назначает исполнителя на задание. Проверяет предусловия и возвращает
// новое состояние задания и заявок; при любом нарушении состояние не меняется.
func Assign(t models.Task, apps []models.Application, implementer string) (*AssignResult, error) {
	if t.ImplementerID != nil {
		return nil, apperr.Validation("this task (id = %d) already has implementer", t.ID)
	}
	if t.Status != models.TaskStatusAccepting {
		return nil, apperr.Validation("this task (id = %d) status is %s, it is not accepting applications", t.ID, t.Status)
	}

	res := &AssignResult{Task: t}
	found := false
	for _, app := range apps {
		if app.ApplicantUsername == implementer && app.Status == models.ApplicationStatusSent {
			app.Status = models.ApplicationStatusAccepted
			res.Accepted = app
			found = true
		} else {
			app.Status = models.ApplicationStatusRejected
			res.Rejected = append(res.Rejected, app)
		}
	}
	if !found {
		return nil, apperr.Validation("user %s hasn't sent an application for this task (id = %d)", implementer, t.ID)
	}

	res.Task.Status = models.TaskStatusInProgress
	res.Task.ImplementerID = &res.Accepted.ApplicantID
	impl := implementer
	res.Task.ImplementerUsername = &impl
	return res, nil
}

// Close закрывает задание. Требуется точное совпадение фразы подтверждения,
// чтобы защититься от случайного необратимого действия.
func Close(t models.Task, confirm string, now time.Time) (models.Task, error) {
	switch {
	case t.Status == models.TaskStatusClosed:
		return t, apperr.Validation("задача уже была закрыта ранее")
	case t.ImplementerID == nil:
		return t, apperr.Validation("нельзя закрыть задачу без исполнителя, вы можете удалить ее")
	case confirm != CloseConfirmPhrase:
		return t, apperr.Validation("задача не была закрыта: подтверждение не совпало")
	}
	closed := t
	closed.Status = models.TaskStatusClosed
	closed.ClosedAt = &now
	return closed, nil
}

// CheckApply проверяет, может ли пользователь подать заявку на задание.
// Уникальность пары (заявитель, задание) обеспечивает ограничение в базе.
func CheckApply(t models.Task, applicant string) error {
	if t.Status != models.TaskStatusAccepting {
		return apperr.Validation("this task (id = %d) is not accepting applications", t.ID)
	}
	if RoleOf(applicant, t) == RoleAuthor {
		return apperr.Validation("author can't apply for his own task")
	}
	return nil
}

// CheckReview проверяет допуск отзыва и возвращает роль рецензента.
// Тип отзыва обязан совпадать с фактической ролью на задании:
// AsAuthor может оставить только автор, AsImplementer — только исполнитель.
func CheckReview(t models.Task, reviewer, reviewType string, rating int) (Role, error) {
	if rating < 1 || rating > 10 {
		return RoleOther, apperr.Validation("rating must be in range [1, 10], got %d", rating)
	}
	if t.Status != models.TaskStatusClosed {
		return RoleOther, apperr.Validation("reviews are only allowed on closed tasks, task (id = %d) is %s", t.ID, t.Status)
	}
	role := RoleOf(reviewer, t)
	switch {
	case role == RoleAuthor && reviewType == models.ReviewAsAuthor:
		return RoleAuthor, nil
	case role == RoleImplementer && reviewType == models.ReviewAsImplementer:
		return RoleImplementer, nil
	case role == RoleOther:
		return RoleOther, apperr.Validation("user %s is not a party to task (id = %d)", reviewer, t.ID)
	default:
		return role, apperr.Validation("review type %s doesn't match the reviewer's role on task (id = %d)", reviewType, t.ID)
	}
}

// ReviewTarget возвращает id пользователя, чей рейтинг пополняет отзыв:
// автор оценивает работу исполнителя и наоборот. Рейтинг рецензента
// отзыв не меняет.
func ReviewTarget(t models.Task, reviewerRole Role) (int, error) {
	switch reviewerRole {
	case RoleAuthor:
		if t.ImplementerID == nil {
			return 0, apperr.Validation("task (id = %d) has no implementer to review", t.ID)
		}
		return *t.ImplementerID, nil
	case RoleImplementer:
		if t.AuthorID == nil {
			return 0, apperr.Validation("task (id = %d) author account no longer exists", t.ID)
		}
		return *t.AuthorID, nil
	default:
		return 0, apperr.Validation("task (id = %d): only the author or the implementer may review", t.ID)
	}
}
