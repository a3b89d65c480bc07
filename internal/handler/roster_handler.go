package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shutsugan-server/internal/auditlog"
	"shutsugan-server/internal/authz"
	"shutsugan-server/internal/middleware"
	"shutsugan-server/internal/model"
	"shutsugan-server/pkg/database"
	"shutsugan-server/pkg/logger"
	"shutsugan-server/prometheus"
)

func roster() authz.RosterChecker {
	return authz.DBRoster{DB: database.GetDB()}
}

// requireStudentScope resolves :id and runs the roster predicate for the
// calling staff member, writing the error response itself on failure. The
// caller must stop when ok is false. A student outside the caller's scope
// reads as 404 so teachers cannot probe which accounts exist.
func requireStudentScope(c echo.Context) (staff *middleware.StaffUser, studentID uint, ok bool) {
	staff, _ = middleware.Staff(c)
	studentID, valid := paramID(c, "id")
	if !valid {
		c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
		return staff, 0, false
	}
	allowed, err := authz.CanActOnStudent(roster(), staff.Role, staff.ID, studentID)
	if err != nil {
		logger.FromContext(c).Error("Roster check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
		return staff, 0, false
	}
	if !allowed {
		c.JSON(http.StatusNotFound, echo.Map{"message": "student not found"})
		return staff, 0, false
	}
	return staff, studentID, true
}

type rosterStudent struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	PlanCount     int64  `json:"plan_count"`
	ReminderCount int64  `json:"reminder_count"`
}

// MyStudents lists the caller's roster. Elevated roles see every student
// account instead of a roster slice.
func MyStudents(c echo.Context) error {
	log := logger.FromContext(c)
	staff, _ := middleware.Staff(c)
	db := database.GetDB()

	query := db.Model(&model.User{}).
		Select(`users.id, users.username, users.email,
			(SELECT COUNT(*) FROM plan_items WHERE plan_items.user_id = users.id) AS plan_count,
			(SELECT COUNT(*) FROM reminders WHERE reminders.student_id = users.id) AS reminder_count`).
		Where("users.role = ? AND users.status = ?", authz.RoleUser, authz.StatusActive)
	if !staff.Role.Elevated() {
		query = query.
			Joins("JOIN teacher_students ts ON ts.student_id = users.id").
			Where("ts.teacher_id = ?", staff.ID)
	}

	var students []rosterStudent
	if err := query.Order("users.username ASC").Scan(&students).Error; err != nil {
		log.Error("Failed to list students", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	var assignedIDs []uint
	if err := db.Model(&model.TeacherStudent{}).
		Where("teacher_id = ?", staff.ID).
		Pluck("student_id", &assignedIDs).Error; err != nil {
		log.Error("Failed to load roster ids", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	if assignedIDs == nil {
		assignedIDs = []uint{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"list":        students,
		"assignedIds": assignedIDs,
		"isSuper":     staff.Role.Elevated(),
	})
}

// AvailableStudents lists every active student account with a flag telling
// whether the caller already has them on the roster.
func AvailableStudents(c echo.Context) error {
	log := logger.FromContext(c)
	staff, _ := middleware.Staff(c)

	var students []struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		InPool   bool   `json:"inPool"`
	}
	err := database.GetDB().Model(&model.User{}).
		Select(`users.id, users.username, users.email,
			EXISTS(SELECT 1 FROM teacher_students ts
				WHERE ts.teacher_id = ? AND ts.student_id = users.id) AS in_pool`, staff.ID).
		Where("users.role = ? AND users.status = ?", authz.RoleUser, authz.StatusActive).
		Order("users.username ASC").
		Scan(&students).Error
	if err != nil {
		log.Error("Failed to list available students", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"list": students})
}

// AttachStudent adds a student to the caller's roster. Attaching an already
// linked student succeeds without a second row.
func AttachStudent(c echo.Context) error {
	log := logger.FromContext(c)
	staff, _ := middleware.Staff(c)

	studentID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var student model.User
	if result := database.GetDB().First(&student, studentID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "student not found"})
	}
	if authz.NormalizeRole(student.Role) != authz.RoleUser {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "student not found"})
	}

	link := model.TeacherStudent{TeacherID: staff.ID, StudentID: studentID}
	if result := database.GetDB().Create(&link); result.Error != nil {
		if isUniqueViolation(result.Error) {
			return c.JSON(http.StatusOK, echo.Map{"message": "already on roster"})
		}
		log.Error("Failed to attach student", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	auditlog.Record(auditlog.Entry{
		OperatorID:   staff.ID,
		OperatorName: staff.Username,
		Action:       "attach_student",
		TargetType:   "user",
		TargetID:     itoa(studentID),
		IP:           c.RealIP(),
	})
	return c.JSON(http.StatusCreated, echo.Map{"message": "added to roster"})
}

// DetachStudent removes a student from the caller's roster
func DetachStudent(c echo.Context) error {
	log := logger.FromContext(c)
	staff, _ := middleware.Staff(c)

	studentID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	result := database.GetDB().
		Where("teacher_id = ? AND student_id = ?", staff.ID, studentID).
		Delete(&model.TeacherStudent{})
	if result.Error != nil {
		log.Error("Failed to detach student", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "student not on roster"})
	}

	auditlog.Record(auditlog.Entry{
		OperatorID:   staff.ID,
		OperatorName: staff.Username,
		Action:       "detach_student",
		TargetType:   "user",
		TargetID:     itoa(studentID),
		IP:           c.RealIP(),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "removed from roster"})
}

// StudentPlans returns one roster student's application plan
func StudentPlans(c echo.Context) error {
	_, studentID, ok := requireStudentScope(c)
	if !ok {
		return nil
	}

	var items []model.PlanItem
	if qerr := database.GetDB().
		Where("user_id = ?", studentID).
		Order("created_at ASC").
		Find(&items).Error; qerr != nil {
		logger.FromContext(c).Error("Failed to load student plan", zap.Error(qerr))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	list := make([]echo.Map, 0, len(items))
	for _, item := range items {
		list = append(list, echo.Map{"id": item.ID, "payload": json.RawMessage(item.Payload)})
	}
	return c.JSON(http.StatusOK, echo.Map{"list": list})
}

// AddStudentPlan appends a plan item to a roster student's plan on their behalf
func AddStudentPlan(c echo.Context) error {
	staff, studentID, ok := requireStudentScope(c)
	if !ok {
		return nil
	}
	log := logger.FromContext(c)

	var req struct {
		Payload json.RawMessage `json:"payload"`
	}
	if berr := c.Bind(&req); berr != nil || !isJSONObject(req.Payload) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "payload must be a JSON object"})
	}

	item := model.PlanItem{UserID: studentID, Payload: []byte(req.Payload)}
	if result := database.GetDB().Create(&item); result.Error != nil {
		log.Error("Failed to add plan item", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	auditlog.Record(auditlog.Entry{
		OperatorID:   staff.ID,
		OperatorName: staff.Username,
		Action:       "add_student_plan",
		TargetType:   "user",
		TargetID:     itoa(studentID),
		IP:           c.RealIP(),
		Details:      map[string]interface{}{"plan_item_id": item.ID},
	})
	return c.JSON(http.StatusCreated, echo.Map{"id": item.ID})
}

type remindRequest struct {
	StudentID  uint   `json:"student_id"`
	StudentIDs []uint `json:"student_ids"`
	Message    string `json:"message"`
	PlanItemID *uint  `json:"plan_item_id"`
}

// SendReminder delivers a message to one or many students. For teachers,
// recipients outside the roster are skipped without failing the request.
func SendReminder(c echo.Context) error {
	log := logger.FromContext(c)
	staff, _ := middleware.Staff(c)

	var req remindRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "message is required"})
	}

	targets := req.StudentIDs
	if len(targets) == 0 && req.StudentID != 0 {
		targets = []uint{req.StudentID}
	}
	if len(targets) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "student_id or student_ids is required"})
	}

	checker := roster()
	sent := 0
	skipped := 0
	for _, studentID := range targets {
		allowed, err := authz.CanActOnStudent(checker, staff.Role, staff.ID, studentID)
		if err != nil {
			log.Error("Roster check failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
		}
		if !allowed {
			skipped++
			continue
		}
		reminder := model.Reminder{
			TeacherID:  staff.ID,
			StudentID:  studentID,
			Message:    req.Message,
			PlanItemID: req.PlanItemID,
		}
		if result := database.GetDB().Create(&reminder); result.Error != nil {
			log.Error("Failed to store reminder", zap.Error(result.Error), zap.Uint("student_id", studentID))
			skipped++
			continue
		}
		prometheus.ReminderCounter.Inc()
		sent++
	}
	if sent == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "no reachable students"})
	}

	auditlog.Record(auditlog.Entry{
		OperatorID:   staff.ID,
		OperatorName: staff.Username,
		Action:       "send_reminder",
		TargetType:   "user",
		IP:           c.RealIP(),
		Details:      map[string]interface{}{"sent": sent, "skipped": skipped},
	})
	return c.JSON(http.StatusOK, echo.Map{"sent": sent, "skipped": skipped})
}

// StudentReminders returns the reminders a roster student has received
func StudentReminders(c echo.Context) error {
	_, studentID, ok := requireStudentScope(c)
	if !ok {
		return nil
	}

	var rows []struct {
		model.Reminder
		TeacherName string `json:"teacher_name"`
	}
	qerr := database.GetDB().Model(&model.Reminder{}).
		Select("reminders.*, users.username AS teacher_name").
		Joins("LEFT JOIN users ON users.id = reminders.teacher_id").
		Where("reminders.student_id = ?", studentID).
		Order("reminders.created_at DESC").
		Limit(50).
		Scan(&rows).Error
	if qerr != nil {
		logger.FromContext(c).Error("Failed to load student reminders", zap.Error(qerr))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"list": rows})
}

// SentReminders returns the reminders the caller has sent, newest first
func SentReminders(c echo.Context) error {
	log := logger.FromContext(c)
	staff, _ := middleware.Staff(c)

	var rows []struct {
		model.Reminder
		StudentName string `json:"student_name"`
	}
	err := database.GetDB().Model(&model.Reminder{}).
		Select("reminders.*, users.username AS student_name").
		Joins("LEFT JOIN users ON users.id = reminders.student_id").
		Where("reminders.teacher_id = ?", staff.ID).
		Order("reminders.created_at DESC").
		Limit(200).
		Scan(&rows).Error
	if err != nil {
		log.Error("Failed to load sent reminders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"list": rows})
}
