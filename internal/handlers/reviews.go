package handlers

import (
	"net/http"

	"assistance/internal/apperr"
	"assistance/models"
)

// SubmitReviewHandler обрабатывает POST /api/tasks/{taskId}/reviews.
// Отзыв оставляет сторона закрытого задания, тип отзыва обязан совпадать
// с ее ролью; рейтинг оцененной стороны пополняется в той же транзакции.
func (h *Handler) SubmitReviewHandler(w http.ResponseWriter, r *http.Request) {
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
		ReviewType string `json:"reviewType"`
		Message    string `json:"message"`
		Rating     int    `json:"rating"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}
	if input.ReviewType != models.ReviewAsAuthor && input.ReviewType != models.ReviewAsImplementer {
		h.writeError(w, apperr.Validation("reviewType must be AsAuthor or AsImplementer"))
		return
	}

	review, err := h.Store.SubmitReview(r.Context(), taskID, username,
		input.ReviewType, input.Message, input.Rating)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newReviewViews([]models.Review{*review})[0])
}

// GetTaskReviewsHandler возвращает отзывы по заданию
func (h *Handler) GetTaskReviewsHandler(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	reviews, err := h.Store.GetReviewsForTask(r.Context(), taskID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newReviewViews(reviews))
}
