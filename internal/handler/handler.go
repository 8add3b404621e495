package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/config"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
)

// Publisher 发布消息到 RabbitMQ，*amqp.Channel 实现了这个接口
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	admin       *domain.User
	translator  ut.Translator
	mailChannel Publisher     // 为 nil 时不发送报告邮件
	redisClient *redis.Client // 为 nil 时不缓存优化结果

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, admin *domain.User, mailCh Publisher, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		admin:       admin,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/me", h.GetMyInfo)
		r.Route("/optimizations", func(r chi.Router) {
			r.Get("/defaults", h.GetOptimizationDefaults)
			r.With(h.RequiredRole([]domain.Role{domain.RoleInventoryManager})).Post("/", h.RunOptimization)
		})
	})
}
