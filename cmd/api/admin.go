package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/attendance"
)

// registerAdmin mounts the dashboard CRUD under the staff group. Thin
// pass-throughs to the repository; the engine never reads these routes.
func registerAdmin(staff *gin.RouterGroup, repo *attendance.Repository) {
	admin := staff.Group("/admin")

	admin.POST("/courses", func(c *gin.Context) {
		var course attendance.Course
		if err := c.ShouldBindJSON(&course); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if course.Code == "" || course.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code and name required"})
			return
		}
		created, err := repo.CreateCourse(c.Request.Context(), course)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	admin.GET("/courses", func(c *gin.Context) {
		courses, err := repo.ListCourses(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"courses": courses})
	})

	admin.GET("/courses/:code", func(c *gin.Context) {
		course, err := repo.GetCourse(c.Request.Context(), c.Param("code"))
		if err != nil {
			writeRepoError(c, err)
			return
		}
		c.JSON(http.StatusOK, course)
	})

	admin.PUT("/courses/:code", func(c *gin.Context) {
		var course attendance.Course
		if err := c.ShouldBindJSON(&course); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		course.Code = c.Param("code")
		if err := repo.UpdateCourse(c.Request.Context(), course); err != nil {
			writeRepoError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": course.Code})
	})

	admin.DELETE("/courses/:code", func(c *gin.Context) {
		if err := repo.DeleteCourse(c.Request.Context(), c.Param("code")); err != nil {
			writeRepoError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	admin.POST("/students", func(c *gin.Context) {
		var student attendance.Student
		if err := c.ShouldBindJSON(&student); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if student.RegNumber == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reg_number required"})
			return
		}
		saved, err := repo.UpsertStudent(c.Request.Context(), student)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, saved)
	})

	admin.GET("/students", func(c *gin.Context) {
		students, err := repo.ListStudents(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"students": students})
	})

	admin.GET("/students/:id", func(c *gin.Context) {
		student, err := repo.GetStudent(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeRepoError(c, err)
			return
		}
		c.JSON(http.StatusOK, student)
	})
}

func writeRepoError(c *gin.Context, err error) {
	if errors.Is(err, attendance.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
