package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.uber.org/fx"

	"fritime/config"
	"fritime/internal/delivery"
	"fritime/internal/delivery/http"
	"fritime/internal/delivery/http/middleware"
	"fritime/internal/delivery/http/router/handler"
	"fritime/internal/domain/repository"
	"fritime/internal/infra/auth"
	logs "fritime/internal/infra/log"
	"fritime/internal/infra/metrics"
	"fritime/internal/infra/persistence/postgres"
	"fritime/internal/usecase/impl"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
			startTokenJanitor,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		metrics.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewRefreshTokenRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewUserService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewUserHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

const tokenJanitorInterval = time.Hour

type tokenJanitorParams struct {
	fx.In
	fx.Lifecycle

	TokenRepo repository.RefreshTokenRepository
	Logger    *slog.Logger
}

// startTokenJanitor sweeps expired refresh tokens periodically. Expired
// tokens are already rejected on use; the sweep only keeps the table small.
func startTokenJanitor(params tokenJanitorParams) {
	janitorCtx, cancel := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				ticker := time.NewTicker(tokenJanitorInterval)
				defer ticker.Stop()

				for {
					select {
					case <-janitorCtx.Done():
						return
					case <-ticker.C:
						deleted, err := params.TokenRepo.DeleteExpired(janitorCtx)
						if err != nil {
							params.Logger.Warn("Expired token sweep failed", slog.Any("error", err))

							continue
						}
						if deleted > 0 {
							params.Logger.Info("Swept expired refresh tokens", slog.Int64("deleted", deleted))
						}
					}
				}
			}()

			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()

			return nil
		},
	})
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
