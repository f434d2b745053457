package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/eventmux/app_config"
	"github.com/Luismorlan/eventmux/relation"
	"github.com/Luismorlan/eventmux/reporter"
	"github.com/Luismorlan/eventmux/server"
	"github.com/Luismorlan/eventmux/server/middlewares"
	"github.com/Luismorlan/eventmux/server/resolver"
	. "github.com/Luismorlan/eventmux/utils"
	"github.com/Luismorlan/eventmux/utils/dotenv"
	. "github.com/Luismorlan/eventmux/utils/flag"
	. "github.com/Luismorlan/eventmux/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

const (
	defaultPort          = "8080"
	defaultDogStatsdAddr = "127.0.0.1:8125"
	jwtTokenTTL          = 24 * time.Hour
)

func cleanup() {
	CloseProfiler()
	CloseTracer()
	Log.Info("api server shutdown")
}

func newIdentityProvider(ctx context.Context) middlewares.IdentityProvider {
	if os.Getenv("AUTH_PROVIDER") == "jwt" {
		provider, err := middlewares.NewJWTIdentityProvider(os.Getenv("JWT_SECRET"), jwtTokenTTL)
		if err != nil {
			panic(err)
		}
		return provider
	}
	provider, err := middlewares.NewCognitoIdentityProvider(ctx)
	if err != nil {
		panic(err)
	}
	return provider
}

func newDogStatsdClient() *statsd.Client {
	addr := os.Getenv("DOGSTATSD_ADDR")
	if addr == "" {
		addr = defaultDogStatsdAddr
	}
	client, err := statsd.New(addr)
	if err != nil {
		panic(err)
	}
	return client
}

func loadAppConfig() app_config.AppConfig {
	config, err := app_config.ParseAppConfig(*AppConfigPath)
	if err != nil {
		Log.WithError(err).Warn("cannot read app config, using defaults")
		return app_config.DefaultAppConfig()
	}
	return config
}

func main() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	flag.Parse()
	InitLogger()

	StartTracer()
	if err := StartProfiler(); err != nil {
		Log.WithError(err).Warn("profiler not started")
	}
	defer cleanup()

	db, err := GetDBConnection()
	if err != nil {
		panic("failed to connect to database")
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		panic(err)
	}

	ctx := context.Background()
	eventbus := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            100,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)

	// Reporter counts relation toggles in datadog.
	engine := reporter.NewEngine(ctx, []reporter.Module{
		reporter.NewReporter(reporter.ReporterConfig{Name: "toggle_reporter"}, newDogStatsdClient(), eventbus),
	}, eventbus)
	engine.Start()
	defer engine.Shutdown()

	r := resolver.NewResolver(db, relation.NewRelations(db, relation.WithPublisher(eventbus)), loadAppConfig())

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(gintrace.Middleware(*ServiceName))
	router.Use(middlewares.RequestID())

	server.RegisterRoutes(router, r, newIdentityProvider(ctx))

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	Log.Infof("api server starts up on port %s", port)
	if err := router.Run(":" + port); err != nil {
		Log.WithError(err).Error("api server stopped")
	}
}
