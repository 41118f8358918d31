package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/cloudinary"
	"classattend/internal/config"
	"classattend/internal/faceclient"
	"classattend/internal/geo"
	"classattend/internal/httpmiddleware"
	"classattend/internal/metrics"
	"classattend/internal/queue"
	"classattend/internal/rotcode"
	"classattend/internal/store"
	"classattend/internal/verify"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classattend:audits")
	}

	repo := attendance.NewRepository(db.Client)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)
	dispatcher := verify.NewDispatcher(repo, face)

	// Cloudinary client (nil when not configured)
	var cdnClient *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdnClient = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin, redisClient.Client).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/devices/register", func(c *gin.Context) {
		var req struct {
			DeviceID  string `json:"device_id" binding:"required"`
			StudentID string `json:"student_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if _, err := repo.GetStudent(c.Request.Context(), req.StudentID); err != nil {
			if errors.Is(err, attendance.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown student"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := repo.UpsertDevice(c.Request.Context(), req.DeviceID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tokens, err := auth.Issue(req.StudentID, auth.RoleStudent, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		_ = repo.SaveRefreshToken(c.Request.Context(), req.DeviceID, tokens.RefreshToken, tokens.RefreshExp)

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	r.POST("/v1/staff/token", func(c *gin.Context) {
		var req struct {
			StaffID string `json:"staff_id" binding:"required"`
			Key     string `json:"key" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Key != cfg.StaffKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid staff key"})
			return
		}
		tokens, err := auth.Issue(req.StaffID, auth.RoleStaff, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer))

	// Upload endpoint — uploads a base64 image or multipart file to
	// Cloudinary and returns the public URL for use in /v1/checkins
	authGroup.POST("/upload", func(c *gin.Context) {
		if cdnClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
			return
		}

		var result *cloudinary.UploadResult
		var err error

		switch {
		case strings.Contains(c.ContentType(), "multipart/form-data"):
			file, header, ferr := c.Request.FormFile("file")
			if ferr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
				return
			}
			defer file.Close()
			data, ferr := io.ReadAll(file)
			if ferr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
				return
			}
			result, err = cdnClient.UploadBytes(data, header.Filename)

		default:
			var body struct {
				Data string `json:"data" binding:"required"`
			}
			if berr := c.ShouldBindJSON(&body); berr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
				return
			}
			result, err = cdnClient.UploadBase64(body.Data)
		}

		if err != nil {
			log.Printf("cloudinary upload failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": result.SecureURL, "public_id": result.PublicID, "bytes": result.Bytes})
	})

	authGroup.POST("/checkins", func(c *gin.Context) {
		var req struct {
			CourseCode string   `json:"course_code" binding:"required"`
			Method     string   `json:"method" binding:"required"`
			Passcode   string   `json:"passcode"`
			Latitude   *float64 `json:"latitude"`
			Longitude  *float64 `json:"longitude"`
			ImageURL   string   `json:"image_url"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		method, err := verify.ParseMethod(req.Method)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		claims := auth.FromContext(c)
		student, err := repo.GetStudent(c.Request.Context(), claims.Subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown student"})
			return
		}
		course, err := repo.GetCourse(c.Request.Context(), req.CourseCode)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown course"})
			return
		}

		attempt := verify.Attempt{
			Course:   course,
			Student:  student,
			Method:   method,
			Now:      time.Now(),
			Passcode: req.Passcode,
			ImageURL: req.ImageURL,
		}
		if req.Latitude != nil && req.Longitude != nil {
			attempt.Location = &geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
		}

		out, err := dispatcher.CheckIn(c.Request.Context(), attempt)
		if err != nil {
			status, outcome := failureStatus(err)
			metrics.CheckinsTotal.WithLabelValues(string(method), outcome).Inc()
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		metrics.CheckinsTotal.WithLabelValues(string(method), metrics.OutcomeRecorded).Inc()

		if method == verify.MethodBiometric && req.ImageURL != "" {
			if err := q.Publish(c.Request.Context(), queue.Message{
				Type:     queue.TypeMarkRecorded,
				LogID:    out.LogID,
				ImageURL: req.ImageURL,
			}); err != nil {
				log.Printf("queue publish failed: %v", err)
			}
		}

		c.JSON(http.StatusCreated, gin.H{"mark": out.Mark})
	})

	// Rotating code preview for the course screen; the countdown is for
	// display only
	authGroup.GET("/courses/:code/code", func(c *gin.Context) {
		now := time.Now()
		course, err := repo.GetCourse(c.Request.Context(), c.Param("code"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown course"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"code":       rotcode.Generate(course.Code, now),
			"rotates_in": rotcode.SecondsToRotation(now),
		})
	})

	authGroup.GET("/records", func(c *gin.Context) {
		claims := auth.FromContext(c)
		date := c.Query("date")
		if date == "" {
			date = attendance.DateOf(time.Now())
		}
		studentID := claims.Subject
		if claims.Role == auth.RoleStaff && c.Query("student_id") != "" {
			studentID = c.Query("student_id")
		}
		marks, err := repo.TodayMarks(c.Request.Context(), studentID, date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"marks": marks})
	})

	staff := authGroup.Group("", auth.RequireRole(auth.RoleStaff))

	// Manual code for the instructor screen, shown after the device's
	// local verification step. Not validated against student input.
	staff.POST("/courses/:code/staff-code", func(c *gin.Context) {
		if _, err := repo.GetCourse(c.Request.Context(), c.Param("code")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown course"})
			return
		}
		code, err := rotcode.StaffCode()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "code generation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": code, "valid_for_seconds": 60})
	})

	staff.POST("/courses/:code/marks", func(c *gin.Context) {
		var req struct {
			StudentID string `json:"student_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		course, err := repo.GetCourse(c.Request.Context(), c.Param("code"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown course"})
			return
		}
		student, err := repo.GetStudent(c.Request.Context(), req.StudentID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown student"})
			return
		}

		out, err := dispatcher.RecordByStaff(c.Request.Context(), course, student, time.Now())
		if err != nil {
			status, outcome := failureStatus(err)
			metrics.CheckinsTotal.WithLabelValues(string(verify.MethodStaff), outcome).Inc()
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		metrics.CheckinsTotal.WithLabelValues(string(verify.MethodStaff), metrics.OutcomeRecorded).Inc()
		c.JSON(http.StatusCreated, gin.H{"mark": out.Mark})
	})

	staff.GET("/courses/:code/marks", func(c *gin.Context) {
		marks, err := repo.ListMarks(c.Request.Context(), c.Param("code"), c.Query("date"), 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"marks": marks})
	})

	registerAdmin(staff, repo)

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// failureStatus maps an engine failure to an HTTP status and a metric
// outcome label.
func failureStatus(err error) (int, string) {
	var closed *verify.ScheduleClosedError
	var oor *verify.OutOfRangeError
	var netErr *verify.NetworkError
	switch {
	case errors.Is(err, verify.ErrAlreadyMarked):
		return http.StatusConflict, metrics.OutcomeAlreadyMarked
	case errors.As(err, &closed):
		return http.StatusForbidden, metrics.OutcomeScheduleClosed
	case errors.As(err, &oor):
		return http.StatusForbidden, metrics.OutcomeOutOfRange
	case errors.Is(err, verify.ErrPermissionDenied):
		return http.StatusForbidden, metrics.OutcomePermissionDenied
	case errors.Is(err, verify.ErrVerificationFailed):
		return http.StatusUnauthorized, metrics.OutcomeVerificationFailed
	case errors.As(err, &netErr):
		return http.StatusBadGateway, metrics.OutcomeNetworkError
	default:
		return http.StatusInternalServerError, metrics.OutcomeNetworkError
	}
}

// CORS middleware for browser requests from the dashboard
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
