package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/models"
)

type StudentController struct {
	DB *gorm.DB
}

type studentRequest struct {
	Code     string `json:"code" binding:"required,max=20"`
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Program  string `json:"program"`
	Semester int    `json:"semester" binding:"required,min=1,max=12"`
	Phone    string `json:"phone"`
	Active   *bool  `json:"active"`
}

func (sc *StudentController) List(c *gin.Context) {
	q := sc.DB.Order("full_name")
	if active := c.Query("active"); active != "" {
		q = q.Where("active = ?", active == "true")
	}
	var students []models.Student
	if err := q.Find(&students).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students, "count": len(students)})
}

func (sc *StudentController) Create(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	student := models.Student{
		Code:     req.Code,
		FullName: req.FullName,
		Email:    req.Email,
		Program:  req.Program,
		Semester: req.Semester,
		Phone:    req.Phone,
		Active:   active,
	}
	if student.Program == "" {
		student.Program = "Nursing"
	}
	if err := sc.DB.Create(&student).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (sc *StudentController) Get(c *gin.Context) {
	student, ok := sc.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, student)
}

func (sc *StudentController) Update(c *gin.Context) {
	student, ok := sc.find(c)
	if !ok {
		return
	}

	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}

	student.Code = req.Code
	student.FullName = req.FullName
	student.Email = req.Email
	student.Program = req.Program
	student.Semester = req.Semester
	student.Phone = req.Phone
	if req.Active != nil {
		student.Active = *req.Active
	}
	if err := sc.DB.Save(student).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, student)
}

func (sc *StudentController) find(c *gin.Context) (*models.Student, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return nil, false
	}
	var student models.Student
	if err := sc.DB.First(&student, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return nil, false
	}
	return &student, true
}
