package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"assistance/db"
	"assistance/internal/apperr"
	"assistance/internal/handlers"
	"assistance/internal/handlers/testutils"
	"assistance/internal/taskflow"
	"assistance/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// MockStorage реализует StorageInterface
type MockStorage struct {
	users map[string]*models.User

	GetTaskFunc      func(ctx context.Context, id int) (*models.Task, error)
	AssignFunc       func(ctx context.Context, taskID int, actor, implementer string) (*taskflow.AssignResult, error)
	CloseFunc        func(ctx context.Context, taskID int, actor, confirm string) (*models.Task, error)
	SubmitReviewFunc func(ctx context.Context, taskID int, actor, reviewType, message string, rating int) (*models.Review, error)

	notifications []models.Notification
}

func defaultTask(id int) *models.Task {
	return &models.Task{
		ID:             id,
		AuthorID:       intPtr(1),
		AuthorUsername: strPtr("author"),
		Title:          "Sample Task",
		Status:         models.TaskStatusAccepting,
		StopAccepting:  time.Now().Add(24 * time.Hour),
	}
}

func (m *MockStorage) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = 99
	return nil
}

func (m *MockStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.users != nil {
		if u, ok := m.users[username]; ok {
			return u, nil
		}
		return nil, apperr.NotFound("user", username)
	}
	return &models.User{ID: 1, Username: username}, nil
}

func (m *MockStorage) GetUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return []models.User{{ID: 1, Username: "author"}}, nil
}

func (m *MockStorage) UpdateUserProfile(ctx context.Context, u *models.User) error  { return nil }
func (m *MockStorage) UpdateUserContacts(ctx context.Context, u *models.User) error { return nil }
func (m *MockStorage) UpdateUserSettings(ctx context.Context, u *models.User) error { return nil }

func (m *MockStorage) GetUserTaskCounts(ctx context.Context, userID int) (*db.UserTaskCounts, error) {
	return &db.UserTaskCounts{}, nil
}

func (m *MockStorage) CreateTask(ctx context.Context, t *models.Task, tagIDs []int) error {
	t.ID = 123
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	return nil
}

func (m *MockStorage) GetTask(ctx context.Context, id int) (*models.Task, error) {
	if m.GetTaskFunc != nil {
		return m.GetTaskFunc(ctx, id)
	}
	return defaultTask(id), nil
}

func (m *MockStorage) GetTasks(ctx context.Context, f db.TaskFilter) ([]models.Task, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return []models.Task{*defaultTask(1)}, nil
}

func (m *MockStorage) GetUserTasks(ctx context.Context, username string, limit, offset int) ([]models.Task, error) {
	return []models.Task{*defaultTask(1)}, nil
}

func (m *MockStorage) UpdateTask(ctx context.Context, t *models.Task, tagIDs []int) error { return nil }
func (m *MockStorage) DeleteTask(ctx context.Context, id int) error                       { return nil }

func (m *MockStorage) GetTaskTags(ctx context.Context, taskID int) ([]models.TaskTag, error) {
	return []models.TaskTag{}, nil
}

func (m *MockStorage) CreateTag(ctx context.Context, t *models.TaskTag) error { t.ID = 1; return nil }
func (m *MockStorage) GetTags(ctx context.Context) ([]models.TaskTag, error) {
	return []models.TaskTag{{ID: 1, Name: "math"}}, nil
}
func (m *MockStorage) CreateSubject(ctx context.Context, s *models.TaskSubject) error {
	s.ID = 1
	return nil
}
func (m *MockStorage) GetSubjects(ctx context.Context) ([]models.TaskSubject, error) {
	return []models.TaskSubject{{ID: 1, Name: "physics"}}, nil
}

func (m *MockStorage) CreateTaskFile(ctx context.Context, f *models.TaskFile) error {
	f.ID = 1
	return nil
}
func (m *MockStorage) GetTaskFiles(ctx context.Context, taskID int) ([]models.TaskFile, error) {
	return []models.TaskFile{}, nil
}

func (m *MockStorage) CreateApplication(ctx context.Context, a *models.Application) error {
	a.ID = 1
	a.Status = models.ApplicationStatusSent
	return nil
}

func (m *MockStorage) GetApplicationsForTask(ctx context.Context, taskID int) ([]models.Application, error) {
	return []models.Application{
		{ID: 1, ApplicantID: 2, TaskID: taskID, Status: models.ApplicationStatusSent, ApplicantUsername: "worker"},
	}, nil
}

func (m *MockStorage) GetUserApplications(ctx context.Context, username string, limit, offset int) ([]models.Application, error) {
	return []models.Application{
		{ID: 1, TaskID: 1, Status: models.ApplicationStatusSent, ApplicantUsername: username},
	}, nil
}

func (m *MockStorage) AssignImplementer(ctx context.Context, taskID int, actor, implementer string) (*taskflow.AssignResult, error) {
	if m.AssignFunc != nil {
		return m.AssignFunc(ctx, taskID, actor, implementer)
	}
	task := defaultTask(taskID)
	task.Status = models.TaskStatusInProgress
	task.ImplementerID = intPtr(2)
	task.ImplementerUsername = strPtr(implementer)
	return &taskflow.AssignResult{
		Task: *task,
		Accepted: models.Application{
			ID: 1, ApplicantID: 2, TaskID: taskID,
			Status: models.ApplicationStatusAccepted, ApplicantUsername: implementer,
		},
	}, nil
}

func (m *MockStorage) CloseTask(ctx context.Context, taskID int, actor, confirm string) (*models.Task, error) {
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx, taskID, actor, confirm)
	}
	now := time.Now()
	task := defaultTask(taskID)
	task.Status = models.TaskStatusClosed
	task.ClosedAt = &now
	return task, nil
}

func (m *MockStorage) SubmitReview(ctx context.Context, taskID int, actor, reviewType, message string, rating int) (*models.Review, error) {
	if m.SubmitReviewFunc != nil {
		return m.SubmitReviewFunc(ctx, taskID, actor, reviewType, message, rating)
	}
	return &models.Review{
		ID: 1, TaskID: taskID, ReviewType: reviewType,
		Message: message, Rating: rating, ReviewerUsername: actor,
	}, nil
}

func (m *MockStorage) GetReviewsForTask(ctx context.Context, taskID int) ([]models.Review, error) {
	return []models.Review{}, nil
}

// ListNotifications воспроизводит контракт хранилища: ответ несет состояние
// до переворота, после вызова все перечисленное помечено прочитанным
func (m *MockStorage) ListNotifications(ctx context.Context, userID int, filter string) ([]models.Notification, error) {
	if filter != "" && filter != db.NotificationFilterNew && filter != db.NotificationFilterOld {
		return nil, apperr.Validation("unknown notification_type %q", filter)
	}
	out := []models.Notification{}
	for i := range m.notifications {
		n := m.notifications[i]
		switch filter {
		case db.NotificationFilterNew:
			if n.Checked {
				continue
			}
		case db.NotificationFilterOld:
			if !n.Checked {
				continue
			}
		}
		out = append(out, n)
		m.notifications[i].Checked = true
	}
	return out, nil
}

func newTestHandler(store handlers.StorageInterface) *handlers.Handler {
	return handlers.NewHandler(store, zerolog.Nop())
}

func TestGetTasksHandler(t *testing.T) {
	handler := newTestHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	w := httptest.NewRecorder()

	handler.GetTasksHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, w.Body.String(), "Sample Task")
}

func TestGetTasksHandlerRejectsUnknownDateField(t *testing.T) {
	handler := newTestHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?date_field=password_hash", nil)
	w := httptest.NewRecorder()

	handler.GetTasksHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	require.Contains(t, w.Body.String(), "unknown date field")
}

func TestCreateTaskHandler(t *testing.T) {
	handler := newTestHandler(&MockStorage{})

	reqBody := `{
        "title": "Решить контрольную",
        "description": "10 задач",
        "stopAcceptingAt": "2025-06-01T12:00:00Z"
    }`
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/new?username=author", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.CreateTaskHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, w.Body.String(), `"status":"Accepting"`)
	require.Contains(t, w.Body.String(), "author")
}

func TestCreateTaskHandlerRequiresTitleAndDeadline(t *testing.T) {
	handler := newTestHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/new?username=author",
		strings.NewReader(`{"description": "без названия"}`))
	w := httptest.NewRecorder()
	handler.CreateTaskHandler(w, req)
	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/tasks/new?username=author",
		strings.NewReader(`{"title": "Без дедлайна"}`))
	w = httptest.NewRecorder()
	handler.CreateTaskHandler(w, req)
	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	require.Contains(t, w.Body.String(), "stopAcceptingAt")
}

func TestApplyHandler(t *testing.T) {
	handler := newTestHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/1/apply?username=worker",
		strings.NewReader(`{"message": "возьмусь"}`))
	req = testutils.WithChiURLParams(req, map[string]string{"taskId": "1"})
	w := httptest.NewRecorder()

	handler.ApplyHandler(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)
	require.Contains(t, w.Body.String(), `"status":"Sent"`)
}

func TestApplyHandlerRejectsAuthor(t *testing.T) {
	handler := newTestHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/1/apply?username=author",
		strings.NewReader(`{"message": "сам сделаю"}`))
	req = testutils.WithChiURLParams(req, map[string]string{"taskId": "1"})
	w := httptest.NewRecorder()

	handler.ApplyHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestUpdateUserSettingsHandlerRequiresOwner(t *testing.T) {
	handler := newTestHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodPatch, "/api/users/author/settings?username=stranger",
		strings.NewReader(`{"showContacts": true}`))
	req = testutils.WithChiURLParams(req, map[string]string{"username": "author"})
	w := httptest.NewRecorder()

	handler.UpdateUserSettingsHandler(w, req)

	require.Equal(t, http.StatusForbidden, w.Result().StatusCode)
}

func TestRegisterUserHandler(t *testing.T) {
	handler := newTestHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodPost, "/api/users/new",
		strings.NewReader(`{"username": "newbie", "password": "secret123", "email": "n@b.ru"}`))
	w := httptest.NewRecorder()

	handler.RegisterUserHandler(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)
	require.Contains(t, w.Body.String(), "newbie")
	require.NotContains(t, w.Body.String(), "secret123")
}

func TestRegisterUserHandlerRejectsShortPassword(t *testing.T) {
	handler := newTestHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodPost, "/api/users/new",
		strings.NewReader(`{"username": "newbie", "password": "123"}`))
	w := httptest.NewRecorder()

	handler.RegisterUserHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}
