// 手动触发待确认执行记录修复脚本
//
// 主应用按 progression.reconcile_interval_minutes 定期执行同样的修复。
// 此脚本用于手动触发，例如数据迁移或故障恢复之后。
//
// 用法: go run scripts/reconcile.go [-config configs] [-limit 500]

package main

import (
	"context"
	"flag"
	"goalpath_backend/internal/config"
	"goalpath_backend/internal/repository"
	"goalpath_backend/internal/service"
	"goalpath_backend/pkg/database"
	"goalpath_backend/pkg/logger"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// report 运行结果，以 YAML 输出到标准输出，便于运维脚本解析
type report struct {
	Database string    `yaml:"database"`
	Limit    int       `yaml:"limit"`
	Repaired int       `yaml:"repaired"`
	RunAt    time.Time `yaml:"run_at"`
}

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	limit := flag.Int("limit", 500, "单次最多处理的记录数")
	flag.Parse()

	// 与主程序一致：GOALPATH_ 前缀的环境变量覆盖配置文件
	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	loc, err := cfg.Progression.Location()
	if err != nil {
		log.Fatalf("时区配置错误: %v", err)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	actions := repository.NewActionRepository(db)
	phases := repository.NewPhaseRepository(db)
	execs := repository.NewExecutionRecordRepository(db)
	cache := repository.NewCompletionCacheRepository(nil)
	resolver := service.NewOrderingResolver(actions, phases)

	completion := service.NewCompletionService(
		db,
		repository.NewGoalRepository(db),
		phases,
		actions,
		execs,
		repository.NewStatePointerRepository(db),
		repository.NewDailyCompletionRepository(db),
		cache,
		resolver,
		service.NewDailyGuard(execs, cache),
		service.NewCalendar(service.SystemClock(), loc),
	)

	log.Println("手动触发待确认记录修复...")
	repaired, err := completion.ReconcileInDoubt(context.Background(), *limit)
	if err != nil {
		log.Fatalf("修复失败: %v", err)
	}
	log.Printf("完成！修复 %d 条记录", repaired)

	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	if err := enc.Encode(report{
		Database: cfg.Database.Driver,
		Limit:    *limit,
		Repaired: repaired,
		RunAt:    time.Now(),
	}); err != nil {
		log.Fatalf("输出结果失败: %v", err)
	}
}
