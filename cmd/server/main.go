package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/xianrendesu-max/threts/notifier"
	"github.com/xianrendesu-max/threts/server"
	"github.com/xianrendesu-max/threts/session"
	"github.com/xianrendesu-max/threts/store"
	"github.com/xianrendesu-max/threts/store/pg"
	"github.com/xianrendesu-max/threts/store/supabase"
	"github.com/xianrendesu-max/threts/utils"
	"github.com/xianrendesu-max/threts/utils/dotenv"
	Flag "github.com/xianrendesu-max/threts/utils/flag"
	Logger "github.com/xianrendesu-max/threts/utils/log"
)

func cleanup() {
	utils.CloseProfiler()
	utils.CloseTracer()
	Logger.Log.Info("web server shutdown")
}

// buildStore picks the backend per STORE_BACKEND: the managed supabase
// service by default, or a self-hosted postgres database.
func buildStore() store.Store {
	if os.Getenv("STORE_BACKEND") == "postgres" {
		db, err := utils.GetDBConnection()
		if err != nil {
			Logger.Log.Fatalf("cannot connect to postgres: %v", err)
		}
		if err := pg.Migrate(db); err != nil {
			Logger.Log.Fatalf("cannot migrate postgres schema: %v", err)
		}
		return pg.New(db)
	}
	return supabase.NewFromEnv()
}

// buildSessions picks the session backend per SESSION_BACKEND: process
// memory by default, redis when logins must survive restarts.
func buildSessions() session.Store {
	if os.Getenv("SESSION_BACKEND") == "redis" {
		sessions, err := session.GetRedisStore()
		if err != nil {
			Logger.Log.Fatalf("cannot connect to redis: %v", err)
		}
		return sessions
	}
	return session.NewMemoryStore()
}

// buildNotifier enables the kafka producer only when a broker is
// configured, otherwise events are dropped.
func buildNotifier() notifier.Notifier {
	broker := os.Getenv("KAFKA_BROKER")
	if broker == "" {
		return notifier.Noop{}
	}
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "threts-events"
	}
	return notifier.NewProducer(broker, topic)
}

func main() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	Flag.Parse()
	Logger.InitLogger()
	utils.StartTracer()
	utils.StartProfiler()
	defer cleanup()

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "threts-secret-key"
	}

	s := &server.Server{
		Store:    buildStore(),
		Sessions: buildSessions(),
		Cookies:  session.NewCookieCodec(secret, dotenv.IsProdEnv()),
		Notifier: buildNotifier(),
	}

	router := server.NewRouter(s, "web/templates/*.html")
	router.Static("/static", "web/static")
	router.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	Logger.Log.Infof("web server starts up on port %s", port)
	router.Run(":" + port)
}
