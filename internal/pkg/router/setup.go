package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/imagesync"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/storage"
)

// Deps carries the explicitly constructed pipeline pieces into the routers,
// keeping handlers backend-agnostic.
type Deps struct {
	Backend    storage.Backend
	Git        *storage.GithubBackend
	Reconciler *imagesync.Reconciler
}

type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, deps Deps) {
	setup(app, NewHttpRouter(deps), NewAdminRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
