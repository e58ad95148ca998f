package taskflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"assistance/internal/apperr"
	"assistance/internal/taskflow"
	"assistance/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func acceptingTask() models.Task {
	return models.Task{
		ID:             1,
		AuthorID:       intPtr(10),
		AuthorUsername: strPtr("author"),
		Status:         models.TaskStatusAccepting,
	}
}

func closedTask() models.Task {
	t := acceptingTask()
	t.Status = models.TaskStatusClosed
	t.ImplementerID = intPtr(20)
	t.ImplementerUsername = strPtr("worker")
	return t
}

func sentApplication(id, applicantID int, username string) models.Application {
	return models.Application{
		ID:                id,
		ApplicantID:       applicantID,
		TaskID:            1,
		Status:            models.ApplicationStatusSent,
		ApplicantUsername: username,
	}
}

func TestRoleOf(t *testing.T) {
	task := closedTask()

	require.Equal(t, taskflow.RoleAuthor, taskflow.RoleOf("author", task))
	require.Equal(t, taskflow.RoleImplementer, taskflow.RoleOf("worker", task))
	require.Equal(t, taskflow.RoleOther, taskflow.RoleOf("stranger", task))
	require.Equal(t, taskflow.RoleOther, taskflow.RoleOf("", models.Task{}))
}

func TestAssignAcceptsOneRejectsRest(t *testing.T) {
	task := acceptingTask()
	apps := []models.Application{
		sentApplication(1, 20, "worker"),
		sentApplication(2, 30, "second"),
		sentApplication(3, 40, "third"),
	}

	res, err := taskflow.Assign(task, apps, "worker")
	require.NoError(t, err)

	require.Equal(t, models.TaskStatusInProgress, res.Task.Status)
	require.NotNil(t, res.Task.ImplementerID)
	require.Equal(t, 20, *res.Task.ImplementerID)
	require.Equal(t, "worker", *res.Task.ImplementerUsername)

	require.Equal(t, models.ApplicationStatusAccepted, res.Accepted.Status)
	require.Equal(t, "worker", res.Accepted.ApplicantUsername)
	require.Len(t, res.Rejected, 2)
	for _, rejected := range res.Rejected {
		require.Equal(t, models.ApplicationStatusRejected, rejected.Status)
		require.NotEqual(t, "worker", rejected.ApplicantUsername)
	}

	// входное состояние не тронуто
	require.Equal(t, models.TaskStatusAccepting, task.Status)
	require.Equal(t, models.ApplicationStatusSent, apps[0].Status)
}

func TestAssignRejectsWhenImplementerAlreadySet(t *testing.T) {
	task := acceptingTask()
	task.ImplementerID = intPtr(20)

	_, err := taskflow.Assign(task, []models.Application{sentApplication(1, 30, "second")}, "second")
	require.Error(t, err)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAssignRejectsWrongStatus(t *testing.T) {
	task := acceptingTask()
	task.Status = models.TaskStatusInProgress

	_, err := taskflow.Assign(task, nil, "worker")
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAssignRequiresSentApplication(t *testing.T) {
	task := acceptingTask()

	// заявки нет вовсе
	_, err := taskflow.Assign(task, nil, "worker")
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)

	// заявка есть, но уже не в статусе Sent
	app := sentApplication(1, 20, "worker")
	app.Status = models.ApplicationStatusRejected
	_, err = taskflow.Assign(task, []models.Application{app}, "worker")
	require.ErrorAs(t, err, &ve)
}

func TestCloseHappyPath(t *testing.T) {
	task := acceptingTask()
	task.Status = models.TaskStatusInProgress
	task.ImplementerID = intPtr(20)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	closed, err := taskflow.Close(task, taskflow.CloseConfirmPhrase, now)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.Equal(t, now, *closed.ClosedAt)

	// исходное состояние не тронуто
	require.Equal(t, models.TaskStatusInProgress, task.Status)
	require.Nil(t, task.ClosedAt)
}

func TestCloseFailures(t *testing.T) {
	now := time.Now()
	var ve *apperr.ValidationError

	// уже закрыта
	_, err := taskflow.Close(closedTask(), taskflow.CloseConfirmPhrase, now)
	require.ErrorAs(t, err, &ve)
	alreadyClosed := ve.Reason

	// нет исполнителя
	_, err = taskflow.Close(acceptingTask(), taskflow.CloseConfirmPhrase, now)
	require.ErrorAs(t, err, &ve)
	noImplementer := ve.Reason

	// фраза подтверждения не совпала
	inProgress := acceptingTask()
	inProgress.Status = models.TaskStatusInProgress
	inProgress.ImplementerID = intPtr(20)
	after, err := taskflow.Close(inProgress, "не то подтверждение", now)
	require.ErrorAs(t, err, &ve)
	require.Equal(t, models.TaskStatusInProgress, after.Status)

	// каждое нарушение дает свое сообщение
	require.NotEqual(t, alreadyClosed, noImplementer)
	require.NotEqual(t, alreadyClosed, ve.Reason)
	require.NotEqual(t, noImplementer, ve.Reason)
}

func TestCheckApply(t *testing.T) {
	var ve *apperr.ValidationError

	require.NoError(t, taskflow.CheckApply(acceptingTask(), "worker"))

	err := taskflow.CheckApply(acceptingTask(), "author")
	require.ErrorAs(t, err, &ve)

	inProgress := acceptingTask()
	inProgress.Status = models.TaskStatusInProgress
	err = taskflow.CheckApply(inProgress, "worker")
	require.ErrorAs(t, err, &ve)
}

func TestCheckReview(t *testing.T) {
	task := closedTask()
	var ve *apperr.ValidationError

	role, err := taskflow.CheckReview(task, "author", models.ReviewAsAuthor, 9)
	require.NoError(t, err)
	require.Equal(t, taskflow.RoleAuthor, role)

	role, err = taskflow.CheckReview(task, "worker", models.ReviewAsImplementer, 5)
	require.NoError(t, err)
	require.Equal(t, taskflow.RoleImplementer, role)

	// рейтинг вне диапазона
	_, err = taskflow.CheckReview(task, "author", models.ReviewAsAuthor, 0)
	require.ErrorAs(t, err, &ve)
	_, err = taskflow.CheckReview(task, "author", models.ReviewAsAuthor, 11)
	require.ErrorAs(t, err, &ve)

	// задание не закрыто
	_, err = taskflow.CheckReview(acceptingTask(), "author", models.ReviewAsAuthor, 5)
	require.ErrorAs(t, err, &ve)

	// посторонний
	_, err = taskflow.CheckReview(task, "stranger", models.ReviewAsAuthor, 5)
	require.ErrorAs(t, err, &ve)

	// тип не совпадает с ролью
	_, err = taskflow.CheckReview(task, "author", models.ReviewAsImplementer, 5)
	require.ErrorAs(t, err, &ve)
	_, err = taskflow.CheckReview(task, "worker", models.ReviewAsAuthor, 5)
	require.ErrorAs(t, err, &ve)
}

func TestReviewTarget(t *testing.T) {
	task := closedTask()

	// автор оценивает исполнителя
	target, err := taskflow.ReviewTarget(task, taskflow.RoleAuthor)
	require.NoError(t, err)
	require.Equal(t, 20, target)

	// исполнитель оценивает автора
	target, err = taskflow.ReviewTarget(task, taskflow.RoleImplementer)
	require.NoError(t, err)
	require.Equal(t, 10, target)

	var ve *apperr.ValidationError
	_, err = taskflow.ReviewTarget(task, taskflow.RoleOther)
	require.ErrorAs(t, err, &ve)

	orphan := task
	orphan.AuthorID = nil
	_, err = taskflow.ReviewTarget(orphan, taskflow.RoleImplementer)
	require.ErrorAs(t, err, &ve)
}
