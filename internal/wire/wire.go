package wire

import (
	"Attestor/internal/api"
	"Attestor/internal/api/config"
	"Attestor/internal/api/handler"
	"Attestor/internal/job"
	"Attestor/internal/pkg/cron"
	"Attestor/internal/pkg/kafka"
	"Attestor/internal/pkg/mongo"
	"Attestor/internal/pkg/redis"
	"Attestor/internal/pkg/solana"
	"Attestor/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router    *gin.Engine
	Ledger    *solana.Client
	Publisher kafka.EventPublisher
	CronMgr   *cron.Manager
}

// BuildApplication rdb may be nil when Redis is not configured.
func BuildApplication(db *mongodriver.Database, rdb *redisv9.Client, ledger *solana.Client, cfg *config.Config) (*ApplicationContainer, error) {
	submissionRepo := mongo.NewMediaSubmissionRepo(db, cfg.Mongo.Collection)

	var verifyCache redis.VerifyCache = redis.NoopVerifyCache{}
	if rdb != nil {
		verifyCache = redis.NewVerifyCache(rdb, time.Duration(cfg.Redis.VerifyCacheTTL)*time.Second)
	}

	publisher, err := kafka.NewEventPublisher(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	submissionService := service.NewSubmissionService(
		service.NewSubmissionValidator(cfg.Auth),
		submissionRepo,
		ledger,
		verifyCache,
		publisher,
		cfg.Solana.VerifyOnRead,
	)

	handlers := &api.HandlersGroup{
		HealthHandler:     handler.NewHealthHandler(),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService),
	}

	router := api.SetupRouter(handlers, cfg.Server.MaxBodyBytes)

	auditJob := job.NewAnchorAuditJob(submissionRepo, submissionService, cfg.Audit.BatchSize)
	cronMgr := cron.NewCronManager(auditJob, cfg.Audit.Cron)

	return &ApplicationContainer{
		Router:    router,
		Ledger:    ledger,
		Publisher: publisher,
		CronMgr:   cronMgr,
	}, nil
}
