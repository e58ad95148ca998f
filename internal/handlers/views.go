package handlers

import (
	"time"

	"assistance/db"
	"assistance/internal/taskflow"
	"assistance/models"
)

// Формирование выдачи для разных ролей просмотра. Путь рендеринга один,
// различия ролей задаются таблицей видимости, а не ветвлением по сериализаторам.

type ContactsView struct {
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Telegram  string `json:"telegram"`
	Vk        string `json:"vk"`
}

// hiddenContacts — фиксированная заглушка: та же форма ответа, чтобы клиенту
// не приходилось обрабатывать другой набор полей
var hiddenContacts = ContactsView{
	FirstName: "",
	Email:     "скрыто",
	Phone:     "скрыто",
	Telegram:  "скрыто",
	Vk:        "скрыто",
}

func contactsOf(u *models.User) *ContactsView {
	return &ContactsView{
		FirstName: u.FirstName,
		Email:     u.ContactEmail,
		Phone:     u.ContactPhone,
		Telegram:  u.ContactTg,
		Vk:        u.ContactVk,
	}
}

// userContactsView: владелец всегда видит свои контакты, остальные — только
// при show_contacts, иначе заглушка
func userContactsView(u *models.User, viewer string) *ContactsView {
	if u.ShowContacts || u.Username == viewer {
		return contactsOf(u)
	}
	hidden := hiddenContacts
	return &hidden
}

// Таблица видимости контактного блока задания: сторона видит контакты
// контрагента, посторонние не видят ничего
var taskContactsVisibility = map[taskflow.Role]string{
	taskflow.RoleImplementer: "author",
	taskflow.RoleAuthor:      "implementer",
}

// taskContactsView возвращает контактный блок задания для зрителя.
// До назначения исполнителя блок пуст для всех.
func taskContactsView(t models.Task, viewer string, author, implementer *models.User) map[string]*ContactsView {
	if t.ImplementerID == nil {
		return nil
	}
	side, ok := taskContactsVisibility[taskflow.RoleOf(viewer, t)]
	if !ok {
		return nil
	}
	switch side {
	case "author":
		if author == nil {
			return nil
		}
		return map[string]*ContactsView{"author": contactsOf(author)}
	default:
		if implementer == nil {
			return nil
		}
		return map[string]*ContactsView{"implementer": contactsOf(implementer)}
	}
}

type TaskView struct {
	ID                      int        `json:"id"`
	Title                   string     `json:"title"`
	Price                   *int       `json:"price"`
	Author                  *string    `json:"author"`
	AuthorRatingNormalized  float64    `json:"authorRatingNormalized"`
	Implementer             *string    `json:"implementer"`
	ApplicationsAmount      int        `json:"applicationsAmount"`
	StageOfStudy            string     `json:"stageOfStudy"`
	CourseOfStudy           int        `json:"courseOfStudy"`
	SubjectID               *int       `json:"subjectId"`
	Description             string     `json:"description"`
	Status                  string     `json:"status"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
	StopAcceptingAt         time.Time  `json:"stopAcceptingAt"`
	ExpiresAt               *time.Time `json:"expiresAt"`
}

func newTaskView(t models.Task) TaskView {
	return TaskView{
		ID:                     t.ID,
		Title:                  t.Title,
		Price:                  t.Price,
		Author:                 t.AuthorUsername,
		AuthorRatingNormalized: models.Normalized(t.AuthorRatingSum, t.AuthorRatingCount),
		Implementer:            t.ImplementerUsername,
		ApplicationsAmount:     t.ApplicationsAmount,
		StageOfStudy:           t.StageOfStudy,
		CourseOfStudy:          t.CourseOfStudy,
		SubjectID:              t.SubjectID,
		Description:            t.Description,
		Status:                 t.Status,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
		StopAcceptingAt:        t.StopAccepting,
		ExpiresAt:              t.ExpiresAt,
	}
}

func newTaskViews(tasks []models.Task) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, newTaskView(t))
	}
	return views
}

type TaskDetailView struct {
	TaskView
	Applicants []string                 `json:"applicants"`
	Tags       []models.TaskTag         `json:"tags"`
	Files      []models.TaskFile        `json:"files"`
	Contacts   map[string]*ContactsView `json:"contacts"`
	Reviews    []ReviewView             `json:"reviews"`
	ClosedAt   *time.Time               `json:"closedAt"`
}

// newTaskDetailView собирает детальную выдачу задания; заявители уже
// отсортированы хранилищем по рейтингу исполнителя
func newTaskDetailView(t models.Task, viewer string, apps []models.Application,
	tags []models.TaskTag, files []models.TaskFile, reviews []models.Review,
	author, implementer *models.User) TaskDetailView {

	applicants := make([]string, 0, len(apps))
	for _, a := range apps {
		applicants = append(applicants, a.ApplicantUsername)
	}
	return TaskDetailView{
		TaskView:   newTaskView(t),
		Applicants: applicants,
		Tags:       tags,
		Files:      files,
		Contacts:   taskContactsView(t, viewer, author, implementer),
		Reviews:    newReviewViews(reviews),
		ClosedAt:   t.ClosedAt,
	}
}

type ApplicationView struct {
	ID                           int       `json:"id"`
	Applicant                    string    `json:"applicant"`
	ImplementerRatingNormalized  float64   `json:"implementerRatingNormalized"`
	TaskID                       int       `json:"taskId"`
	Status                       string    `json:"status"`
	Message                      string    `json:"message"`
	CreatedAt                    time.Time `json:"createdAt"`
	UpdatedAt                    time.Time `json:"updatedAt"`
}

func newApplicationView(a models.Application) ApplicationView {
	return ApplicationView{
		ID:                          a.ID,
		Applicant:                   a.ApplicantUsername,
		ImplementerRatingNormalized: models.Normalized(a.ApplicantRatingSum, a.ApplicantRatingCount),
		TaskID:                      a.TaskID,
		Status:                      a.Status,
		Message:                     a.Message,
		CreatedAt:                   a.CreatedAt,
		UpdatedAt:                   a.UpdatedAt,
	}
}

func newApplicationViews(apps []models.Application) []ApplicationView {
	views := make([]ApplicationView, 0, len(apps))
	for _, a := range apps {
		views = append(views, newApplicationView(a))
	}
	return views
}

type ReviewView struct {
	Reviewer   string    `json:"reviewer"`
	TaskID     int       `json:"taskId"`
	ReviewType string    `json:"reviewType"`
	Message    string    `json:"message"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newReviewViews(reviews []models.Review) []ReviewView {
	views := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, ReviewView{
			Reviewer:   r.ReviewerUsername,
			TaskID:     r.TaskID,
			ReviewType: r.ReviewType,
			Message:    r.Message,
			Rating:     r.Rating,
			CreatedAt:  r.CreatedAt,
		})
	}
	return views
}

// Блок статистики пользователя: рейтинги по двум ролям и счетчики заданий

type RatingView struct {
	Sum        int     `json:"sum"`
	Amount     int     `json:"amount"`
	Normalized float64 `json:"normalized"`
}

type UserStatisticsView struct {
	Ratings map[string]RatingView     `json:"ratings"`
	Tasks   map[string]map[string]int `json:"tasks"`
}

func newUserStatisticsView(u *models.User, counts *db.UserTaskCounts) UserStatisticsView {
	stats := UserStatisticsView{
		Ratings: map[string]RatingView{
			"author": {
				Sum:        u.AuthorRating,
				Amount:     u.AuthorReviewCount,
				Normalized: u.AuthorRatingNormalized(),
			},
			"implementer": {
				Sum:        u.ImplementerRating,
				Amount:     u.ImplementerReviewCount,
				Normalized: u.ImplementerRatingNormalized(),
			},
		},
	}
	if counts != nil {
		stats.Tasks = map[string]map[string]int{
			"authored":     {"active": counts.AuthoredActive, "total": counts.AuthoredTotal},
			"implementered": {"active": counts.ImplementedActive, "total": counts.ImplementedTotal},
			"applications": {"active": counts.ApplicationsActive, "total": counts.ApplicationsTotal},
		}
	}
	return stats
}

type UserProfileView struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Biography     string `json:"biography"`
	ProfileImage  string `json:"profileImage"`
	StageOfStudy  string `json:"stageOfStudy"`
	CourseOfStudy int    `json:"courseOfStudy"`
}

func newUserProfileView(u *models.User) UserProfileView {
	return UserProfileView{
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Biography:     u.Biography,
		ProfileImage:  u.ProfileImage,
		StageOfStudy:  u.StageOfStudy,
		CourseOfStudy: u.CourseOfStudy,
	}
}

type UserView struct {
	ID         int                `json:"id"`
	Username   string             `json:"username"`
	FirstName  string             `json:"firstName"`
	LastName   string             `json:"lastName"`
	Email      string             `json:"email"`
	Statistics UserStatisticsView `json:"statistics"`
}

type UserDetailView struct {
	ID         int                `json:"id"`
	Username   string             `json:"username"`
	Profile    UserProfileView    `json:"profile"`
	Contacts   *ContactsView      `json:"contacts"`
	Statistics UserStatisticsView `json:"statistics"`
}
