package wire

import (
	"Fellowship/internal/api"
	"Fellowship/internal/api/config"
	"Fellowship/internal/api/handler"
	"Fellowship/internal/job"
	"Fellowship/internal/pkg/cron"
	"Fellowship/internal/pkg/directory"
	"Fellowship/internal/pkg/kafka"
	"Fellowship/internal/pkg/minio"
	"Fellowship/internal/pkg/redis"
	"Fellowship/internal/pkg/security"
	"Fellowship/internal/repository"
	"Fellowship/internal/service"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager // kafka.enable 为 false 时为 nil
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	dir, err := buildDirectory(db, cfg.Directory)
	if err != nil {
		return nil, err
	}

	convRepo := repository.NewConversationRepo(db)
	participantRepo := repository.NewParticipantRepo(db)
	messageRepo := repository.NewMessageRepo(db)

	opts := service.ChatOptionsFromConfig(cfg.Chat)
	provisioningService := service.NewProvisioningService(convRepo, participantRepo, dir, opts)
	conversationService := service.NewConversationService(convRepo, participantRepo, messageRepo, dir, provisioningService, opts)
	messageService := service.NewMessageService(convRepo, participantRepo, messageRepo, dir, opts)
	queryService := service.NewQueryService(convRepo, participantRepo, messageRepo, dir, opts)

	handlers := &api.HandlersGroup{
		ConversationHandler: handler.NewConversationHandler(conversationService, queryService, messageService),
		MessageHandler:      handler.NewMessageHandler(messageService),
		AttachmentHandler:   handler.NewAttachmentHandler(minio.Storage{}, cfg.Chat.MaxAttachmentSize),
		TokenSigner: security.NewTokenSigner(cfg.JWT.Secret, cfg.JWT.Issuer,
			time.Duration(cfg.JWT.ExpirationHours)*time.Hour),
	}

	router := api.SetupRouter(handlers)

	provisionJob := job.NewProvisionJob(provisioningService, 0)
	cronMgr := cron.NewCronManager(cfg.Cron.ProvisionSpec, provisionJob)

	app := &ApplicationContainer{
		Router:  router,
		DB:      db,
		CronMgr: cronMgr,
	}

	if cfg.Kafka.Enable {
		app.KafkaManager, err = kafka.NewConsumerManager(cfg, provisioningService, dir)
		if err != nil {
			return nil, err
		}
	}

	return app, nil
}

// buildDirectory 按配置选择目录来源，并套上 Redis 缓存
func buildDirectory(db *gorm.DB, cfg config.DirectoryConfig) (directory.CachedDirectory, error) {
	var backend directory.Directory
	switch cfg.Mode {
	case config.DirectoryModeDB, "":
		backend = directory.NewDBDirectory(db)
	case config.DirectoryModeHTTP:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("directory.base_url is required in %s mode", cfg.Mode)
		}
		backend = directory.NewHTTPDirectory(cfg.BaseURL, cfg.Token, time.Duration(cfg.Timeout)*time.Second)
	default:
		return nil, fmt.Errorf("unknown directory mode %q", cfg.Mode)
	}
	return directory.NewCachedDirectory(backend, redis.GetRdbClient(), time.Duration(cfg.CacheTTL)*time.Second), nil
}
