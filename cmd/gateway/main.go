package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/learnloop/learnloop-lms/internal/activity"
	api "github.com/learnloop/learnloop-lms/internal/api/http"
	auth "github.com/learnloop/learnloop-lms/internal/auth/middleware"
	"github.com/learnloop/learnloop-lms/internal/config"
	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/db"
	"github.com/learnloop/learnloop-lms/internal/grading"
	"github.com/learnloop/learnloop-lms/internal/progress"
	"github.com/learnloop/learnloop-lms/internal/quiz"
	"github.com/learnloop/learnloop-lms/internal/rbac"
	"github.com/learnloop/learnloop-lms/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Stores and services ---
	materials := course.NewSQLStore(dbh, cfg.DBDriver)
	quizzes := quiz.NewSQLStore(dbh, cfg.DBDriver)
	progressStore := progress.NewSQLStore(dbh, cfg.DBDriver)
	events := activity.NewEventRepo(dbh)

	courseSvc := course.NewService(materials)
	quizSvc := quiz.NewService(quizzes, materials, grading.NewDefaultGrader(), events)
	progressSvc := progress.NewService(progressStore, courseSvc, materials, quizzes, events)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, auth.LoginOpts{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
		}))
	}

	// assets routes (protected); uploads gated apart from reads
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Route("/assets", func(ar chi.Router) {
			ar.With(rbac.Require("asset:upload")).
				Post("/{courseID}", api.UploadAssetHandler(bs, cfg.SignedURLTTL))
			ar.With(rbac.Require("course:view")).
				Get("/signed-url", api.SignedURLHandler(bs, cfg.SignedURLTTL))
			ar.With(rbac.Require("course:view")).
				Get("/*", api.ServeAssetHandler(bs))
		})
	})

	// Protected API (JWT → subject/role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Course tree, shared by admin console and student viewer
		pr.With(rbac.Require("course:view")).
			Get("/course-materials", api.CourseTreeHandler(courseSvc))
		pr.With(rbac.Require("course:view")).
			Get("/materials/{materialID}", api.GetMaterialHandler(materials))

		// Instructor/admin: content management
		pr.With(rbac.RequireAny("material:create", "material:update")).
			Post("/materials", api.PutMaterialHandler(materials))
		pr.With(rbac.Require("material:delete")).
			Delete("/materials/{materialID}", api.DeleteMaterialHandler(materials, bs))
		pr.With(rbac.Require("question:create")).
			Post("/questions", api.CreateQuestionHandler(quizzes))
		pr.With(rbac.Require("question:delete")).
			Delete("/questions/{questionID}", api.DeleteQuestionHandler(quizzes))

		// Quiz delivery and submission
		pr.With(rbac.Require("quiz:view")).
			Get("/questions", api.ListQuestionsHandler(materials, quizzes, quizSvc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts", api.SubmitAttemptHandler(quizSvc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(quizSvc))

		// Progress
		pr.With(rbac.RequireAny("progress:view-own", "progress:view-all")).
			Get("/progress", api.GetProgressHandler(progressSvc))
		pr.With(rbac.Require("progress:mark")).
			Post("/progress/complete", api.MarkCompleteHandler(progressSvc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
