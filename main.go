package main

import (
	"fmt"
	"log"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/models"
	"github.com/Walid-EM/restaurantsitev0-sub001/app/repository"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/cache"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/database"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/env"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/imagesync"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/router"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/storage"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	cache.SetupCache()

	if err := models.LoadSettings(database.GetDB()); err != nil {
		fiberlog.Warnf("[App] Could not load settings, using defaults: %v", err)
	}

	backend, err := storage.NewBackendFromEnv()
	if err != nil {
		log.Fatalf("[App] Storage backend setup failed: %v", err)
	}
	fiberlog.Infof("[App] Storage backend: %s", backend.Name())

	// The git backend is optional. When configured it powers the admin
	// upload-to-git flow even if it is not the primary backend.
	git := setupGitBackend(backend)

	reconciler := imagesync.New(backend, repository.GetGlobalFactory().GetImageRepository(), imagesync.Config{
		Workers:     env.GetEnvInt("SYNC_WORKERS", imagesync.DefaultWorkers),
		LocalDir:    storage.UploadsDir(),
		HookURL:     env.GetEnv("DEPLOY_HOOK_URL", ""),
		CompareSize: env.GetEnv("SYNC_COMPARE_SIZE", "false") == "true",
	})

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})
	app.Use(recover.New(), logger.New())
	if env.IsDev() {
		app.Get("/metrics", monitor.New())
	}

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	router.InstallRouter(app, router.Deps{
		Backend:    backend,
		Git:        git,
		Reconciler: reconciler,
	})

	return app
}

func setupGitBackend(backend storage.Backend) *storage.GithubBackend {
	if git, ok := backend.(*storage.GithubBackend); ok {
		return git
	}
	if env.GetEnv("GITHUB_TOKEN", "") == "" {
		return nil
	}
	git, err := storage.NewGithubBackendFromEnv()
	if err != nil {
		fiberlog.Warnf("[App] Git backend not available: %v", err)
		return nil
	}
	return git
}
