package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"assistance/db"
	"assistance/internal/apperr"
	"assistance/internal/taskflow"
	"assistance/models"
)

func taskIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "taskId"))
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid taskId")
	}
	return id, nil
}

// CreateTaskHandler обрабатывает POST /api/tasks/new.
// Автор — действующий пользователь, статус всегда Accepting.
func (h *Handler) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	username := actor(r)
	if username == "" {
		h.writeError(w, apperr.Validation("missing username parameter"))
		return
	}

	var input struct {
		Title           string     `json:"title"`
		Price           *int       `json:"price"`
		StageOfStudy    string     `json:"stageOfStudy"`
		CourseOfStudy   int        `json:"courseOfStudy"`
		Tags            []int      `json:"tags"`
		SubjectID       *int       `json:"subjectId"`
		Description     string     `json:"description"`
		StopAcceptingAt *time.Time `json:"stopAcceptingAt"`
		ExpiresAt       *time.Time `json:"expiresAt"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	if input.Title == "" || len(input.Title) > 255 {
		h.writeError(w, apperr.Validation("title is required and max length 255"))
		return
	}
	if input.StopAcceptingAt == nil {
		h.writeError(w, apperr.Validation("stopAcceptingAt is required"))
		return
	}
	if input.StageOfStudy == "" {
		input.StageOfStudy = "N"
	}
	if _, ok := models.StageOfStudyChoices[input.StageOfStudy]; !ok {
		h.writeError(w, apperr.Validation("invalid stageOfStudy %q", input.StageOfStudy))
		return
	}
	if input.CourseOfStudy < 0 || input.CourseOfStudy > 15 {
		h.writeError(w, apperr.Validation("courseOfStudy must be in range [0, 15]"))
		return
	}

	author, err := h.Store.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	task := &models.Task{
		AuthorID:      &author.ID,
		Title:         input.Title,
		Price:         input.Price,
		StageOfStudy:  input.StageOfStudy,
		CourseOfStudy: input.CourseOfStudy,
		SubjectID:     input.SubjectID,
		Description:   input.Description,
		Status:        models.TaskStatusAccepting,
		StopAccepting: *input.StopAcceptingAt,
		ExpiresAt:     input.ExpiresAt,
	}
	if err := h.Store.CreateTask(r.Context(), task, input.Tags); err != nil {
		h.writeError(w, err)
		return
	}

	task.AuthorUsername = &author.Username
	h.writeJSON(w, http.StatusOK, newTaskView(*task))
}

// GetTasksHandler возвращает список заданий с фильтрами. Фильтр по дате
// принимает только перечисленные в models.TaskDateFieldNames поля.
func (h *Handler) GetTasksHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)
	q := r.URL.Query()

	filter := db.TaskFilter{
		Tags:         q["tag"],
		StageOfStudy: q.Get("stage_of_study"),
		DateField:    q.Get("date_field"),
		Limit:        params.Limit,
		Offset:       params.Offset,
	}
	if subjectStr := q.Get("subject"); subjectStr != "" {
		subjectID, err := strconv.Atoi(subjectStr)
		if err != nil {
			h.writeError(w, apperr.Validation("invalid subject parameter"))
			return
		}
		filter.SubjectID = subjectID
	}
	for param, dst := range map[string]**time.Time{"after": &filter.After, "before": &filter.Before} {
		if v := q.Get(param); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				h.writeError(w, apperr.Validation("invalid %s, expected RFC3339", param))
				return
			}
			*dst = &t
		}
	}

	tasks, err := h.Store.GetTasks(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newTaskViews(tasks))
}

// GetUserTasksHandler возвращает задания, созданные пользователем
func (h *Handler) GetUserTasksHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)
	username := actor(r)
	if username == "" {
		h.writeError(w, apperr.Validation("missing username parameter"))
		return
	}

	tasks, err := h.Store.GetUserTasks(r.Context(), username, params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newTaskViews(tasks))
}

// GetTaskHandler возвращает детальную карточку задания. Контактный блок
// зависит от роли зрителя: сторона видит контакты контрагента, посторонние
// не видят ничего.
func (h *Handler) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	viewer := actor(r)

	task, err := h.Store.GetTask(r.Context(), taskID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	apps, err := h.Store.GetApplicationsForTask(r.Context(), taskID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	tags, err := h.Store.GetTaskTags(r.Context(), taskID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	files, err := h.Store.GetTaskFiles(r.Context(), taskID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	reviews, err := h.Store.GetReviewsForTask(r.Context(), taskID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// стороны задания нужны только ради контактного блока
	var author, implementer *models.User
	if task.AuthorUsername != nil {
		if author, err = h.Store.GetUserByUsername(r.Context(), *task.AuthorUsername); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if task.ImplementerUsername != nil {
		if implementer, err = h.Store.GetUserByUsername(r.Context(), *task.ImplementerUsername); err != nil {
			h.writeError(w, err)
			return
		}
	}

	h.writeJSON(w, http.StatusOK,
		newTaskDetailView(*task, viewer, apps, tags, files, reviews, author, implementer))
}

// EditTaskHandler обрабатывает PATCH /api/tasks/{taskId}/edit, только автор
func (h *Handler) EditTaskHandler(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var input struct {
		Title           *string    `json:"title"`
		Price           *int       `json:"price"`
		StageOfStudy    *string    `json:"stageOfStudy"`
		CourseOfStudy   *int       `json:"courseOfStudy"`
		Tags            []int      `json:"tags"`
		SubjectID       *int       `json:"subjectId"`
		Description     *string    `json:"description"`
		StopAcceptingAt *time.Time `json:"stopAcceptingAt"`
		ExpiresAt       *time.Time `json:"expiresAt"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	task, err := h.Store.GetTask(r.Context(), taskID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if taskflow.RoleOf(actor(r), *task) != taskflow.RoleAuthor {
		h.writeError(w, apperr.Permission("only the task author can edit the task"))
		return
	}
	if task.Status == models.TaskStatusClosed {
		h.writeError(w, apperr.Validation("closed task (id = %d) can't be edited", taskID))
		return
	}

	if input.Title != nil {
		if *input.Title == "" || len(*input.Title) > 255 {
			h.writeError(w, apperr.Validation("title is required and max length 255"))
			return
		}
		task.Title = *input.Title
	}
	if input.Price != nil {
		task.Price = input.Price
	}
	if input.StageOfStudy != nil {
		if _, ok := models.StageOfStudyChoices[*input.StageOfStudy]; !ok {
			h.writeError(w, apperr.Validation("invalid stageOfStudy %q", *input.StageOfStudy))
			return
		}
		task.StageOfStudy = *input.StageOfStudy
	}
	if input.CourseOfStudy != nil {
		task.CourseOfStudy = *input.CourseOfStudy
	}
	if input.SubjectID != nil {
		task.SubjectID = input.SubjectID
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.StopAcceptingAt != nil {
		task.StopAccepting = *input.StopAcceptingAt
	}
	if input.ExpiresAt != nil {
		task.ExpiresAt = input.ExpiresAt
	}

	if err := h.Store.UpdateTask(r.Context(), task, input.Tags); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newTaskView(*task))
}

// DeleteTaskHandler удаляет задание автора вместе с заявками, файлами
// и отзывами
func (h *Handler) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	task, err := h.Store.GetTask(r.Context(), taskID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if taskflow.RoleOf(actor(r), *task) != taskflow.RoleAuthor {
		h.writeError(w, apperr.Permission("only the task author can delete the task"))
		return
	}

	if err := h.Store.DeleteTask(r.Context(), taskID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"deleted": taskID})
}

// CloseTaskHandler обрабатывает PUT /api/tasks/{taskId}/close.
// Закрытие требует точной фразы подтверждения.
func (h *Handler) CloseTaskHandler(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var input struct {
		Confirm string `json:"confirm"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	task, err := h.Store.CloseTask(r.Context(), taskID, actor(r), input.Confirm)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       task.ID,
		"status":   task.Status,
		"closedAt": task.ClosedAt,
	})
}

// AddTaskFileHandler прикрепляет к заданию ссылку на файл. Сами байты
// принимает внешнее хранилище, здесь выдается непрозрачная ссылка.
func (h *Handler) AddTaskFileHandler(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var input struct {
		FileName string `json:"fileName"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}
	if input.FileName == "" {
		h.writeError(w, apperr.Validation("fileName is required"))
		return
	}

	task, err := h.Store.GetTask(r.Context(), taskID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if taskflow.RoleOf(actor(r), *task) != taskflow.RoleAuthor {
		h.writeError(w, apperr.Permission("only the task author can attach files"))
		return
	}

	file := &models.TaskFile{
		TaskID:   taskID,
		FileRef:  uuid.NewString(),
		FileName: input.FileName,
	}
	if err := h.Store.CreateTaskFile(r.Context(), file); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, file)
}
