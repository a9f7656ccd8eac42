package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/OpenScholar/ScholarPress/app/repository"
	apiv1 "github.com/OpenScholar/ScholarPress/internal/api/v1"
	"github.com/OpenScholar/ScholarPress/internal/pkg/activity"
	"github.com/OpenScholar/ScholarPress/internal/pkg/analytics"
	"github.com/OpenScholar/ScholarPress/internal/pkg/articles"
	"github.com/OpenScholar/ScholarPress/internal/pkg/cache"
	"github.com/OpenScholar/ScholarPress/internal/pkg/database"
	"github.com/OpenScholar/ScholarPress/internal/pkg/env"
	"github.com/OpenScholar/ScholarPress/internal/pkg/files"
	"github.com/OpenScholar/ScholarPress/internal/pkg/quota"
	"github.com/OpenScholar/ScholarPress/internal/pkg/router"
	"github.com/OpenScholar/ScholarPress/internal/pkg/storage"
)

func main() {
	app, err := NewApplication()
	if err != nil {
		log.Fatal(err)
	}
	log.Fatal(app.Listen(fmt.Sprintf("%s:%s",
		env.GetEnv("APP_HOST", "localhost"),
		env.GetEnv("APP_PORT", "4000"),
	)))
}

// NewApplication wires the full service graph and returns the fiber app.
func NewApplication() (*fiber.App, error) {
	env.SetupEnvFile()

	db, err := database.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	repos := repository.NewRepositories(db)
	redisCache := cache.Setup()

	uploader, err := storage.NewS3Uploader(storage.S3ConfigFromEnv())
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	auditor := activity.NewService(repos.Activity)
	gate := quota.NewGate(repos.User, auditor, quota.FreeDownloadsFromEnv())
	articleSvc := articles.NewService(repos, auditor)
	analyticsSvc := analytics.NewService(repos, redisCache)
	fileSvc := files.NewService(repos, uploader, gate, auditor)

	app := fiber.New(fiber.Config{
		AppName:   "ScholarPress",
		BodyLimit: 100 * 1024 * 1024,
	})

	app.Use(recover.New(), logger.New())

	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	if specPath := findOpenAPISpec(); specPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: specPath,
			Path:     "v1",
		}))
	}

	server := apiv1.NewServer(repos, articleSvc, analyticsSvc, auditor, fileSvc, gate)
	router.InstallRouter(app, router.NewApiRouter(server, repos.User))

	return app, nil
}

func findOpenAPISpec() string {
	for _, base := range []string{"./", "../../", "../../../"} {
		path := base + "public/docs/v1/openapi.yml"
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
