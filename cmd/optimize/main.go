package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/config"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/optimizer"
)

// overrides 命令行中给出的参数，零值（代数为负数）表示使用配置中的值
type overrides struct {
	seed           uint64
	populationSize int
	generations    int
}

func (o overrides) apply(parameters domain.OptimizationParameters) domain.OptimizationParameters {
	if o.seed != 0 {
		parameters.Seed = o.seed
	}
	if o.populationSize > 0 {
		parameters.PopulationSize = o.populationSize
	}
	if o.generations >= 0 {
		parameters.Generations = o.generations
	}
	return parameters
}

func main() {
	var flags overrides
	var verbose bool

	flag.Uint64Var(&flags.seed, "seed", 0, "随机种子，为 0 时使用配置中的值")
	flag.IntVar(&flags.populationSize, "population", 0, "种群大小，为 0 时使用配置中的值")
	flag.IntVar(&flags.generations, "generations", -1, "迭代代数，为负数时使用配置中的值")
	flag.BoolVar(&verbose, "verbose", false, "输出每一代的统计日志")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// 读取配置文件，命令行工具只需要优化相关的配置
	cfg, err := config.LoadOptimizerConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	parameters := flags.apply(cfg.Optimizer.Parameters())
	problem := cfg.Problem.ToDomain()

	opt, err := optimizer.New(&parameters, &problem, nil)
	if err != nil {
		logger.Error("无法创建优化器", slog.String("error", err.Error()))
		os.Exit(1)
	}
	opt.SetLogger(logger)

	// CTRL+C 会在当前这一代结束后停止
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := opt.Optimize(ctx)
	if err != nil {
		logger.Error("优化失败", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("优化完成", slog.Duration("duration", result.Duration), slog.Uint64("seed", parameters.Seed))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "gen\tnevals\tavg\tstd\tmin\tmax\t")
	for _, s := range result.Statistics {
		fmt.Fprintf(w, "%d\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t\n", s.Generation, s.Evaluations, s.Mean, s.Std, s.Min, s.Max)
	}
	w.Flush()

	fmt.Println()
	fmt.Println("最优库存方案：")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "类别\t需求\t目标库存\t库存水平")
	for i, stock := range result.Best.StockLevels {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.4f\n", problem.CategoryName(i), problem.Demand[i], problem.OptimalStock[i], stock)
	}
	w.Flush()

	b := result.Best.Breakdown
	fmt.Printf("\n适应度（总成本）：%.4f\n", result.Best.Fitness)
	fmt.Printf("  过期浪费：%.4f\n  未满足需求：%.4f\n  运输成本：%.4f\n", b.ExpiryWaste, b.UnmetDemand, b.TransportCost)
	fmt.Printf("历史最优适应度：%.4f\n", result.BestEver.Fitness)
}
