package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shophub-dev/shophub-backend/api/controllers"
	ordercontrollers "github.com/shophub-dev/shophub-backend/api/controllers/orders"
	paymentcontrollers "github.com/shophub-dev/shophub-backend/api/controllers/payments"
	"github.com/shophub-dev/shophub-backend/api/middleware"
	"github.com/shophub-dev/shophub-backend/internal/auth"
	"github.com/shophub-dev/shophub-backend/internal/orders"
	"github.com/shophub-dev/shophub-backend/internal/payments"
	"github.com/shophub-dev/shophub-backend/internal/products"
	"github.com/shophub-dev/shophub-backend/internal/users"
	"github.com/shophub-dev/shophub-backend/pkg/config"
	"github.com/shophub-dev/shophub-backend/pkg/logger"
	"github.com/shophub-dev/shophub-backend/pkg/metrics"
	"github.com/shophub-dev/shophub-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	authService auth.Service,
	productsService products.Service,
	usersService users.Service,
	ordersService orders.Service,
	paymentsService payments.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if httpMetrics != nil {
		r.Use(middleware.Metrics(httpMetrics))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbP, redisClient, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.Register(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(authService, logg))
		r.Post("/logout", controllers.Logout())
		r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.Me(authService, logg))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(productsService, logg))
		r.Get("/{productId}", controllers.ProductDetail(productsService, logg))
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Post("/", ordercontrollers.Create(ordersService, logg))
		r.Get("/", ordercontrollers.List(ordersService, logg))
		r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
	})

	r.Route("/api/payment", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Post("/create-intent", paymentcontrollers.CreateIntent(paymentsService, logg))
		r.Post("/confirm", paymentcontrollers.ConfirmPayment(paymentsService, logg))
	})

	r.Route("/api/paymongo", func(r chi.Router) {
		// Gateway callbacks carry no bearer token.
		r.Post("/webhook", paymentcontrollers.Webhook(paymentsService, logg))
		r.Get("/payment-success", paymentcontrollers.PaymentSuccess(paymentsService, logg))
		r.Get("/payment-failed", paymentcontrollers.PaymentFailed(paymentsService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/create-payment-intent", paymentcontrollers.CreatePayMongoIntent(paymentsService, logg))
			r.Post("/create-payment-method", paymentcontrollers.CreatePaymentMethod(paymentsService, logg))
			r.Post("/create-source", paymentcontrollers.CreateSource(paymentsService, logg))
			r.Post("/attach-payment", paymentcontrollers.AttachPayment(paymentsService, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(productsService, logg))
			r.Put("/{productId}", controllers.UpdateProduct(productsService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(productsService, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.ListUsers(usersService, logg))
			r.Get("/{userId}", controllers.UserDetail(usersService, logg))
			r.Put("/{userId}/role", controllers.SetUserRole(usersService, logg))
			r.Put("/{userId}/status", controllers.SetUserActive(usersService, logg))
			r.Delete("/{userId}", controllers.DeleteUser(usersService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(ordersService, logg))
			r.Put("/{orderId}", ordercontrollers.AdminUpdateStatus(ordersService, logg))
		})
	})

	return r
}
