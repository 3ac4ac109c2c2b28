package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/time/rate"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"lrc-fetch-go/config"
	"lrc-fetch-go/logcolors"
	"lrc-fetch-go/middleware"

	// Providers self-register into the global registry.
	_ "lrc-fetch-go/services/providers/kg"
	_ "lrc-fetch-go/services/providers/lrclib"
	_ "lrc-fetch-go/services/providers/ne"
	_ "lrc-fetch-go/services/providers/qm"
)

var conf = config.Get()

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	err := godotenv.Load()
	if err != nil {
		log.Debug("No .env file found, using environment variables")
	}
}

func main() {
	host := flag.String("host", conf.Server.Host, "bind address")
	port := flag.Int("port", conf.Server.Port, "listen port")
	flag.Parse()

	router := mux.NewRouter()
	setupRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})

	limiter := middleware.NewIPRateLimiter(rate.Limit(conf.Server.RateLimitPerSecond), conf.Server.RateLimitBurstLimit)

	loggedRouter := middleware.LoggingMiddleware(router)
	corsHandler := c.Handler(loggedRouter)
	handler := limitMiddleware(corsHandler, limiter)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	log.Infof("%s Listening on %s", logcolors.LogServer, addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

func limitMiddleware(next http.Handler, limiter *middleware.IPRateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.GetLimiter(r.RemoteAddr).Allow() {
			log.Warnf("%s Too many requests from %s", logcolors.LogRateLimit, r.RemoteAddr)
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
