package handlers

import (
	"net/http"

	"assistance/internal/apperr"
	"assistance/models"
)

// Справочники тегов и предметов плюс информационный эндпоинт

func (h *Handler) CreateTagHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}
	if input.Name == "" || len(input.Name) > 50 {
		h.writeError(w, apperr.Validation("name is required and max length 50"))
		return
	}

	tag := &models.TaskTag{Name: input.Name}
	if err := h.Store.CreateTag(r.Context(), tag); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tag)
}

func (h *Handler) GetTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Store.GetTags(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tags)
}

func (h *Handler) CreateSubjectHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}
	if input.Name == "" || len(input.Name) > 50 {
		h.writeError(w, apperr.Validation("name is required and max length 50"))
		return
	}

	subject := &models.TaskSubject{Name: input.Name}
	if err := h.Store.CreateSubject(r.Context(), subject); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, subject)
}

func (h *Handler) GetSubjectsHandler(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.Store.GetSubjects(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, subjects)
}

// InformationalHandler отдает словари системы: фронт не хардкодит ни имена
// полей для фильтрации по датам, ни ступени обучения, ни статусы
func (h *Handler) InformationalHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"taskDateFieldNames": models.TaskDateFieldNames,
		"stageOfStudyChoices": models.StageOfStudyChoices,
		"taskStatuses": []string{
			models.TaskStatusAccepting,
			models.TaskStatusInProgress,
			models.TaskStatusClosed,
		},
		"applicationStatuses": []string{
			models.ApplicationStatusSent,
			models.ApplicationStatusAccepted,
			models.ApplicationStatusRejected,
		},
		"reviewTypes": []string{
			models.ReviewAsAuthor,
			models.ReviewAsImplementer,
		},
		// нормализованный рейтинг при нуле отзывов
		"ratingDefault": 0.0,
	})
}
