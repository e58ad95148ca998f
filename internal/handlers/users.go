package handlers

import (
	"net/http"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"assistance/internal/apperr"
	"assistance/models"
)

// RegisterUserHandler обрабатывает POST /api/users/new.
// Подтверждение по email не делается, письмо не отправляется.
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	if input.Username == "" {
		h.writeError(w, apperr.Validation("username is required"))
		return
	}
	if len(input.Password) < 6 || len(input.Password) > 128 {
		h.writeError(w, apperr.Validation("password length must be in range [6, 128]"))
		return
	}

	hash, err := argon2id.CreateHash(input.Password, argon2id.DefaultParams)
	if err != nil {
		h.writeError(w, err)
		return
	}

	user := &models.User{
		Username:     input.Username,
		PasswordHash: hash,
		Email:        input.Email,
		StageOfStudy: "N",
	}
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// GetUsersHandler возвращает список пользователей со статистикой
func (h *Handler) GetUsersHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	users, err := h.Store.GetUsers(r.Context(), params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	views := make([]UserView, 0, len(users))
	for i := range users {
		u := &users[i]
		counts, err := h.Store.GetUserTaskCounts(r.Context(), u.ID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		views = append(views, UserView{
			ID:         u.ID,
			Username:   u.Username,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Email:      u.Email,
			Statistics: newUserStatisticsView(u, counts),
		})
	}
	h.writeJSON(w, http.StatusOK, views)
}

// GetUserHandler возвращает детальную карточку пользователя. Контакты
// показываются владельцу всегда, остальным — только при show_contacts,
// иначе отдается заглушка той же формы.
func (h *Handler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	viewer := actor(r)

	user, err := h.Store.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}
	counts, err := h.Store.GetUserTaskCounts(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, UserDetailView{
		ID:         user.ID,
		Username:   user.Username,
		Profile:    newUserProfileView(user),
		Contacts:   userContactsView(user, viewer),
		Statistics: newUserStatisticsView(user, counts),
	})
}

// requireOwner проверяет, что действует владелец аккаунта
func requireOwner(r *http.Request, username string) error {
	if actor(r) != username {
		return apperr.Permission("only the account owner can edit user %s", username)
	}
	return nil
}

// UpdateUserProfileHandler обрабатывает PATCH /api/users/{username}/profile
func (h *Handler) UpdateUserProfileHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := requireOwner(r, username); err != nil {
		h.writeError(w, err)
		return
	}

	var input struct {
		FirstName     *string `json:"firstName"`
		LastName      *string `json:"lastName"`
		Biography     *string `json:"biography"`
		ProfileImage  *string `json:"profileImage"`
		StageOfStudy  *string `json:"stageOfStudy"`
		CourseOfStudy *int    `json:"courseOfStudy"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Biography != nil {
		user.Biography = *input.Biography
	}
	if input.ProfileImage != nil {
		user.ProfileImage = *input.ProfileImage
	}
	if input.StageOfStudy != nil {
		if _, ok := models.StageOfStudyChoices[*input.StageOfStudy]; !ok {
			h.writeError(w, apperr.Validation("invalid stageOfStudy %q", *input.StageOfStudy))
			return
		}
		user.StageOfStudy = *input.StageOfStudy
	}
	if input.CourseOfStudy != nil {
		if *input.CourseOfStudy < 0 || *input.CourseOfStudy > 15 {
			h.writeError(w, apperr.Validation("courseOfStudy must be in range [0, 15]"))
			return
		}
		user.CourseOfStudy = *input.CourseOfStudy
	}

	if err := h.Store.UpdateUserProfile(r.Context(), user); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newUserProfileView(user))
}

// UpdateUserContactsHandler обрабатывает PATCH /api/users/{username}/contacts
func (h *Handler) UpdateUserContactsHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := requireOwner(r, username); err != nil {
		h.writeError(w, err)
		return
	}

	var input struct {
		Phone    *string `json:"phone"`
		Email    *string `json:"email"`
		Telegram *string `json:"telegram"`
		Vk       *string `json:"vk"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if input.Phone != nil {
		user.ContactPhone = *input.Phone
	}
	if input.Email != nil {
		user.ContactEmail = *input.Email
	}
	if input.Telegram != nil {
		user.ContactTg = *input.Telegram
	}
	if input.Vk != nil {
		user.ContactVk = *input.Vk
	}

	if err := h.Store.UpdateUserContacts(r.Context(), user); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contactsOf(user))
}

// UpdateUserSettingsHandler обрабатывает PATCH /api/users/{username}/settings
func (h *Handler) UpdateUserSettingsHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := requireOwner(r, username); err != nil {
		h.writeError(w, err)
		return
	}

	var input struct {
		ShowContacts           *bool `json:"showContacts"`
		SendEmailNotifications *bool `json:"sendEmailNotifications"`
	}
	if err := h.decodeBody(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if input.ShowContacts != nil {
		user.ShowContacts = *input.ShowContacts
	}
	if input.SendEmailNotifications != nil {
		user.SendEmailNotifications = *input.SendEmailNotifications
	}

	if err := h.Store.UpdateUserSettings(r.Context(), user); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{
		"showContacts":           user.ShowContacts,
		"sendEmailNotifications": user.SendEmailNotifications,
	})
}
