package handlers

import (
	"context"

	"assistance/db"
	"assistance/internal/taskflow"
	"assistance/models"
)

type StorageInterface interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsers(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateUserProfile(ctx context.Context, u *models.User) error
	UpdateUserContacts(ctx context.Context, u *models.User) error
	UpdateUserSettings(ctx context.Context, u *models.User) error
	GetUserTaskCounts(ctx context.Context, userID int) (*db.UserTaskCounts, error)

	CreateTask(ctx context.Context, t *models.Task, tagIDs []int) error
	GetTask(ctx context.Context, id int) (*models.Task, error)
	GetTasks(ctx context.Context, f db.TaskFilter) ([]models.Task, error)
	GetUserTasks(ctx context.Context, username string, limit, offset int) ([]models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task, tagIDs []int) error
	DeleteTask(ctx context.Context, id int) error
	GetTaskTags(ctx context.Context, taskID int) ([]models.TaskTag, error)

	CreateTag(ctx context.Context, t *models.TaskTag) error
	GetTags(ctx context.Context) ([]models.TaskTag, error)
	CreateSubject(ctx context.Context, s *models.TaskSubject) error
	GetSubjects(ctx context.Context) ([]models.TaskSubject, error)

	CreateTaskFile(ctx context.Context, f *models.TaskFile) error
	GetTaskFiles(ctx context.Context, taskID int) ([]models.TaskFile, error)

	CreateApplication(ctx context.Context, a *models.Application) error
	GetApplicationsForTask(ctx context.Context, taskID int) ([]models.Application, error)
	GetUserApplications(ctx context.Context, username string, limit, offset int) ([]models.Application, error)

	AssignImplementer(ctx context.Context, taskID int, actor, implementer string) (*taskflow.AssignResult, error)
	CloseTask(ctx context.Context, taskID int, actor, confirm string) (*models.Task, error)
	SubmitReview(ctx context.Context, taskID int, actor, reviewType, message string, rating int) (*models.Review, error)
	GetReviewsForTask(ctx context.Context, taskID int) ([]models.Review, error)

	ListNotifications(ctx context.Context, userID int, filter string) ([]models.Notification, error)
}
