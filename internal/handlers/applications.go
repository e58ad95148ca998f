package handlers

import (
	"net/http"

	"assistance/internal/apperr"
	"assistance/internal/taskflow"
	"assistance/models"
)

// ApplyHandler обрабатывает POST /api/tasks/{taskId}/apply.
// Подать заявку можно только на задание в статусе Accepting и не на свое;
// повторная заявка отбивается уникальным ограничением в базе.
func (h *Handler) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	username := actor(r)
	if username == "" {
		h.writeError(w, apperr.Validation("missing username parameter"))
		return
	}

	var input struct {
		Message string `json:"message"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}
	if len(input.Message) > 500 {
		h.writeError(w, apperr.Validation("message max length is 500"))
		return
	}

	task, err := h.Store.GetTask(r.Context(), taskID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := taskflow.CheckApply(*task, username); err != nil {
		h.writeError(w, err)
		return
	}

	applicant, err := h.Store.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	app := &models.Application{
		ApplicantID:       applicant.ID,
		TaskID:            taskID,
		Message:           input.Message,
		ApplicantUsername: applicant.Username,
	}
	if err := h.Store.CreateApplication(r.Context(), app); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newApplicationView(*app))
}

// GetTaskApplicationsHandler возвращает заявки на задание, отсортированные
// по рейтингу заявителя как исполнителя
func (h *Handler) GetTaskApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	apps, err := h.Store.GetApplicationsForTask(r.Context(), taskID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newApplicationViews(apps))
}

// GetUserApplicationsHandler возвращает заявки пользователя
func (h *Handler) GetUserApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)
	username := actor(r)
	if username == "" {
		h.writeError(w, apperr.Validation("missing username parameter"))
		return
	}

	apps, err := h.Store.GetUserApplications(r.Context(), username, params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newApplicationViews(apps))
}

// AssignImplementerHandler обрабатывает PUT /api/tasks/{taskId}/implementer.
// Мутация происходит только на явной записи с указанным исполнителем;
// чтение того же ресурса побочных эффектов не дает (GetTaskImplementerHandler).
func (h *Handler) AssignImplementerHandler(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var input struct {
		Implementer string `json:"implementer"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}
	if input.Implementer == "" {
		h.writeError(w, apperr.Validation("implementer is required"))
		return
	}

	res, err := h.Store.AssignImplementer(r.Context(), taskID, actor(r), input.Implementer)
	if err != nil {
		h.writeError(w, err)
		return
	}

	applications := append([]models.Application{res.Accepted}, res.Rejected...)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":           res.Task.ID,
		"implementer":  res.Task.ImplementerUsername,
		"status":       res.Task.Status,
		"applications": newApplicationViews(applications),
	})
}

// GetTaskImplementerHandler читает текущее назначение без побочных эффектов
func (h *Handler) GetTaskImplementerHandler(w http.ResponseWriter, r *http.Request) {
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
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":          task.ID,
		"implementer": task.ImplementerUsername,
		"status":      task.Status,
	})
}
