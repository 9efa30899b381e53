// @title           FaceID Access Control API
// @version         1.0
// @description     Biometric exam venue access control: face recognition turnstiles, provisioning, live monitoring

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer: ` prefix
package main

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/yusufturaev707/faceid/internal/app/routes"
	"github.com/yusufturaev707/faceid/internal/domain/models"
	"github.com/yusufturaev707/faceid/internal/domain/services"
	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
	"github.com/yusufturaev707/faceid/internal/infrastructure/database"
	Logger "github.com/yusufturaev707/faceid/pkg/logger"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	if err := Logger.SetupLogger(); err != nil {
		fmt.Printf("failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		// env vars may come from the environment directly
		Logger.Warning("could not load .env file: %v", err)
	} else {
		Logger.Info("loaded .env file")
	}

	cfg := config.GetConfig()

	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		log.Fatalf("failed to create database connection pool: %v", err)
	}
	db := pool.GetDB()

	switch cfg.DBMigrationMode {
	case "drop":
		log.Println("WARNING: running in drop mode, all tables will be dropped and recreated")
		if err := dropAndRecreateTables(db); err != nil {
			log.Fatalf("drop and recreate failed: %v", err)
		}
	default:
		log.Println("running standard migration, only new columns and tables are added")
		if err := autoMigrate(db); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}

	if err := services.NewAdminService(db, cfg).EnsureDefaultAdmin(); err != nil {
		log.Fatalf("failed to ensure default admin: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.GetRedisAddr(),
		DB:   cfg.RedisDB,
	})

	r := routes.SetupRouter(db, cfg, redisClient)

	printSystemInfo(pool)

	port := cfg.ServerPort
	Logger.Info("server listening on http://0.0.0.0:%s", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		Logger.Error("server failed: %v", err)
		os.Exit(1)
	}
}

// autoMigrate adds new columns and tables without touching existing ones
func autoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Admin{},
		&models.Region{},
		&models.Zone{},
		&models.Turnstile{},
		&models.Test{},
		&models.Exam{},
		&models.Shift{},
		&models.ExamShift{},
		&models.ExamTurnstile{},
		&models.Student{},
		&models.StudentPsData{},
		&models.StudentLog{},
		&models.StudentBlacklist{},
		&models.Reason{},
		&models.Cheating{},
		&models.Supervisor{},
		&models.EventSupervisor{},
		&models.SupervisorLog{},
	)

	if err != nil {
		return err
	}

	fmt.Println("Database migration completed")
	return nil
}

// dropAndRecreateTables drops every table and recreates the schema
func dropAndRecreateTables(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB connection: %w", err)
	}

	_, err = sqlDB.Exec("SET FOREIGN_KEY_CHECKS = 0")
	if err != nil {
		log.Printf("failed to disable foreign key checks: %v", err)
	}
	defer sqlDB.Exec("SET FOREIGN_KEY_CHECKS = 1")

	tables := []string{
		"admins", "regions", "zones", "turnstiles",
		"tests", "exams", "shifts", "exam_shifts", "exam_turnstiles",
		"students", "student_ps_data", "student_logs", "student_blacklists", "reasons", "cheatings",
		"supervisors", "event_supervisors", "supervisor_logs",
	}

	for _, table := range tables {
		log.Printf("dropping table: %s", table)
		if _, err := sqlDB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			log.Printf("failed to drop table: %v", err)
		}
	}

	return autoMigrate(db)
}

// printSystemInfo logs pool and runtime state at startup
func printSystemInfo(pool *database.ConnectionPool) {
	stats, err := pool.Stats()
	if err == nil {
		log.Printf("database pool stats: %+v", stats)
	}

	log.Printf("CPU cores: %d", runtime.NumCPU())
	log.Printf("goroutines: %d", runtime.NumGoroutine())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	log.Printf("memory: Alloc=%v MiB, TotalAlloc=%v MiB, Sys=%v MiB",
		m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024)
}
