package models

import "time"

// Статусы задания
const (
	TaskStatusAccepting  = "Accepting"
	TaskStatusInProgress = "InProgress"
	TaskStatusClosed     = "Closed"
)

// Статусы заявки
const (
	ApplicationStatusSent     = "Sent"
	ApplicationStatusAccepted = "Accepted"
	ApplicationStatusRejected = "Rejected"
)

// Типы отзыва: в каком качестве оставлен отзыв
const (
	ReviewAsAuthor      = "AsAuthor"
	ReviewAsImplementer = "AsImplementer"
)

// Типы уведомлений
const (
	NotificationImplementerSet      = "set_task_implementer_notification"
	NotificationApplicationAccepted = "application_accepted_notification"
	NotificationApplicationRejected = "application_rejected_notification"
)

// Ступени обучения
var StageOfStudyChoices = map[string]string{
	"N":  "None",
	"S":  "School",
	"C":  "College",
	"B":  "bachelor's degree",
	"M":  "master's degree",
	"PG": "postgraduate study",
}

// Этот список нужен, чтобы фронт знал, по каким датам можно фильтровать задания.
// Произвольные имена полей в фильтр не пропускаются.
var TaskDateFieldNames = map[string]string{
	"created_at":        "Дата создания",
	"updated_at":        "Дата последнего редактирования",
	"stop_accepting_at": "Дата окончания приема заявок",
	"expires_at":        "Дедлайн по задаче",
	"closed_at":         "Дата закрытия задачи",
}

// Сущность Пользователя
type User struct {
	ID           int    `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	FirstName    string `db:"first_name" json:"firstName"`
	LastName     string `db:"last_name" json:"lastName"`
	Email        string `db:"email" json:"email"`

	Biography     string `db:"biography" json:"biography"`
	StageOfStudy  string `db:"stage_of_study" json:"stageOfStudy"`
	CourseOfStudy int    `db:"course_of_study" json:"courseOfStudy"`
	ProfileImage  string `db:"profile_image" json:"profileImage"`

	ContactPhone string `db:"contact_phone" json:"contactPhone"`
	ContactEmail string `db:"contact_email" json:"contactEmail"`
	ContactTg    string `db:"contact_tg" json:"contactTg"`
	ContactVk    string `db:"contact_vk" json:"contactVk"`

	ShowContacts           bool `db:"show_contacts" json:"showContacts"`
	SendEmailNotifications bool `db:"send_email_notifications" json:"sendEmailNotifications"`

	// Накопители рейтинга: сумма и количество, по двум ролям.
	// Нормализованное значение никогда не хранится, только считается.
	AuthorRating           int `db:"author_rating" json:"-"`
	AuthorReviewCount      int `db:"author_review_count" json:"-"`
	ImplementerRating      int `db:"implementer_rating" json:"-"`
	ImplementerReviewCount int `db:"implementer_review_count" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Normalized считает средний рейтинг sum/count.
// При нуле отзывов возвращается 0.0 — это зафиксированное значение-заглушка.
func Normalized(sum, count int) float64 {
	if count == 0 {
		return 0.0
	}
	return float64(sum) / float64(count)
}

func (u *User) AuthorRatingNormalized() float64 {
	return Normalized(u.AuthorRating, u.AuthorReviewCount)
}

func (u *User) ImplementerRatingNormalized() float64 {
	return Normalized(u.ImplementerRating, u.ImplementerReviewCount)
}

// Сущность Задания
type Task struct {
	ID            int        `db:"id" json:"id"`
	AuthorID      *int       `db:"author_id" json:"-"`
	ImplementerID *int       `db:"implementer_id" json:"-"`
	Title         string     `db:"title" json:"title"`
	Price         *int       `db:"price" json:"price"`
	StageOfStudy  string     `db:"stage_of_study" json:"stageOfStudy"`
	CourseOfStudy int        `db:"course_of_study" json:"courseOfStudy"`
	SubjectID     *int       `db:"subject_id" json:"subjectId"`
	Description   string     `db:"description" json:"description"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
	StopAccepting time.Time  `db:"stop_accepting_at" json:"stopAcceptingAt"`
	ExpiresAt     *time.Time `db:"expires_at" json:"expiresAt"`
	ClosedAt      *time.Time `db:"closed_at" json:"closedAt"`

	// Имена автора и исполнителя подтягиваются join-ом, в таблице task их нет
	AuthorUsername      *string `db:"author_username" json:"author"`
	ImplementerUsername *string `db:"implementer_username" json:"implementer"`

	// Производные поля для выдачи, тоже из join-а
	ApplicationsAmount int `db:"applications_amount" json:"-"`
	AuthorRatingSum    int `db:"author_rating_sum" json:"-"`
	AuthorRatingCount  int `db:"author_rating_count" json:"-"`
}

// Сущность Заявки
type Application struct {
	ID          int       `db:"id" json:"id"`
	ApplicantID int       `db:"applicant_id" json:"-"`
	TaskID      int       `db:"task_id" json:"taskId"`
	Message     string    `db:"message" json:"message"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	ApplicantUsername string `db:"applicant_username" json:"applicant"`
	// Рейтинг заявителя как исполнителя, для сортировки заявок
	ApplicantRatingSum   int `db:"applicant_rating_sum" json:"-"`
	ApplicantRatingCount int `db:"applicant_rating_count" json:"-"`
}

// Сущность Файла задания: сами байты хранит внешнее файловое хранилище,
// здесь только непрозрачная ссылка на него
type TaskFile struct {
	ID       int    `db:"id" json:"id"`
	TaskID   int    `db:"task_id" json:"taskId"`
	FileRef  string `db:"file_ref" json:"fileRef"`
	FileName string `db:"file_name" json:"fileName"`
}

// Сущность Отзыва
type Review struct {
	ID         int       `db:"id" json:"id"`
	ReviewerID int       `db:"reviewer_id" json:"-"`
	TaskID     int       `db:"task_id" json:"taskId"`
	ReviewType string    `db:"review_type" json:"reviewType"`
	Message    string    `db:"message" json:"message"`
	Rating     int       `db:"rating" json:"rating"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`

	ReviewerUsername string `db:"reviewer_username" json:"reviewer"`
}

// Сущности Тега и Предмета
type TaskTag struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type TaskSubject struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Сущность Уведомления
type Notification struct {
	ID               int       `db:"id" json:"id"`
	UserID           int       `db:"user_id" json:"-"`
	Type             string    `db:"type" json:"type"`
	AffectedObjectID int       `db:"affected_object_id" json:"affectedObjectId"`
	Message          string    `db:"message" json:"message"`
	Checked          bool      `db:"checked" json:"checked"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}
