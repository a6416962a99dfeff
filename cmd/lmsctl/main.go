// lmsctl 运维命令：创建管理员、导入教学大纲、重建排名
//
// 用法:
//
//	go run ./cmd/lmsctl create-admin -name Admin -email admin@uni.edu
//	go run ./cmd/lmsctl seed-syllabus -file seeds/syllabus.yaml
//	go run ./cmd/lmsctl recompute-rankings
package main

import (
	"errors"
	"log"
	"os"

	"lms_backend/internal/config"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/pkg/database"
	"lms_backend/pkg/events"
	"lms_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	logger.InitLogger(cfg)
	defer logger.Sync()

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	publisher, err := events.NewAMQPPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
	if err != nil {
		log.Printf("RabbitMQ 不可用，事件不会发送: %v", err)
		publisher, _ = events.NewAMQPPublisher("", cfg.RabbitMQ.Exchange)
	}
	defer publisher.Close()

	users := repository.NewUserRepository(db)
	attempts := repository.NewQuizAttemptRepository(db)
	cli := &commandLine{
		auth:     service.NewAuthService(users, cfg),
		syllabus: service.NewSyllabusService(repository.NewSyllabusRepository(db), users, publisher),
		rankings: service.NewRankingService(repository.NewRankingRepository(db), users, attempts, publisher),
		out:      os.Stdout,
	}

	if err := cli.run(os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
