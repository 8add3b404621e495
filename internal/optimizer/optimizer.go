package optimizer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Optimizer struct {
	parameters *domain.OptimizationParameters
	problem    *domain.Problem
	toolbox    *Toolbox
	logger     *slog.Logger
}

// Result 一次完整运行的结果
type Result struct {
	Best       *Individual // 最后一代中的最优个体
	BestEver   *Individual // 所有代中出现过的最优个体
	Population Population  // 最后一代种群
	Statistics []domain.GenerationStats
}

// New 校验参数并创建优化器，toolbox 为 nil 时使用 DefaultToolbox
// 参数和问题定义的错误都会在这里返回；自定义的 Select 返回的子代数量不对时，
// 只能在 Run 的第一代中发现，此时返回 ErrOffspringCount
func New(parameters *domain.OptimizationParameters, problem *domain.Problem, toolbox *Toolbox) (*Optimizer, error) {
	if err := validateConfig(parameters, problem); err != nil {
		return nil, err
	}

	if toolbox == nil {
		toolbox = DefaultToolbox(problem, parameters)
	}
	if toolbox.Evaluate == nil || toolbox.Mate == nil || toolbox.Mutate == nil || toolbox.Select == nil {
		return nil, fmt.Errorf("%w: 算子不完整", ErrInvalidConfig)
	}

	return &Optimizer{
		parameters: parameters,
		problem:    problem,
		toolbox:    toolbox,
		logger:     slog.Default(),
	}, nil
}

// SetLogger 设置输出每一代统计信息的 logger（Debug 级别）
func (o *Optimizer) SetLogger(logger *slog.Logger) {
	o.logger = logger
}

func validateConfig(parameters *domain.OptimizationParameters, problem *domain.Problem) error {
	if parameters == nil || problem == nil {
		return fmt.Errorf("%w: 缺少参数或问题定义", ErrInvalidConfig)
	}
	if err := validate.Struct(parameters); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := validate.Struct(problem); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	n := problem.Size()
	if n == 0 {
		return fmt.Errorf("%w: 类别数量不能为 0", ErrInvalidConfig)
	}
	if len(problem.OptimalStock) != n {
		return fmt.Errorf("%w: 目标库存的长度 %d 与需求的长度 %d 不一致", ErrInvalidConfig, len(problem.OptimalStock), n)
	}
	if len(problem.Categories) != 0 && len(problem.Categories) != n {
		return fmt.Errorf("%w: 类别名称的数量 %d 与需求的长度 %d 不一致", ErrInvalidConfig, len(problem.Categories), n)
	}

	// 未命名的类别使用序号，同样不能和其他名称重复
	names := make(map[string]struct{}, n)
	for i := range n {
		name := problem.CategoryName(i)
		if _, ok := names[name]; ok {
			return fmt.Errorf("%w: 类别名称 %s 重复", ErrInvalidConfig, name)
		}
		names[name] = struct{}{}
	}

	return nil
}

// evaluate 为适应度已失效的个体重新计算适应度，返回计算的次数
func (o *Optimizer) evaluate(pop Population) int {
	evaluations := 0
	for _, ind := range pop {
		if _, ok := ind.Fitness(); ok {
			continue
		}
		ind.SetFitness(o.toolbox.Evaluate(ind.Genome))
		evaluations++
	}
	return evaluations
}

// vary 对交配池依次进行交叉和变异，被修改过的个体的适应度会失效
func (o *Optimizer) vary(rng *rand.Rand, offspring Population) {
	// 相邻的两个个体以 CrossoverRate 的概率交叉，落单的最后一个个体直接保留
	for i := 1; i < len(offspring); i += 2 {
		if rng.Float64() < o.parameters.CrossoverRate {
			o.toolbox.Mate(rng, offspring[i-1].Genome, offspring[i].Genome)
			offspring[i-1].Invalidate()
			offspring[i].Invalidate()
		}
	}

	// 每个个体以 MutationRate 的概率进入逐基因的变异过程
	for _, ind := range offspring {
		if rng.Float64() < o.parameters.MutationRate {
			if o.toolbox.Mutate(rng, ind.Genome) {
				ind.Invalidate()
			}
		}
	}
}

func (o *Optimizer) logGeneration(s domain.GenerationStats) {
	o.logger.Debug("完成一代进化",
		slog.Int("gen", s.Generation),
		slog.Int("nevals", s.Evaluations),
		slog.Float64("avg", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
	)
}

// Run 执行遗传算法
// 随机数的消耗顺序固定为：初始化，然后每一代依次为选择、交叉、变异，因此相同的种子会得到完全相同的结果
// ctx 只在两代之间检查
func (o *Optimizer) Run(ctx context.Context) (*Result, error) {
	rng := rand.New(rand.NewPCG(o.parameters.Seed, o.parameters.Seed))

	// 生成初始种群
	pop := InitPopulation(rng, o.parameters.PopulationSize, o.problem.Size())
	evaluations := o.evaluate(pop)

	statistics := make([]domain.GenerationStats, 0, o.parameters.Generations+1)
	statistics = append(statistics, calcStats(0, evaluations, pop))
	o.logGeneration(statistics[0])

	bestEver := Best(pop).Clone()

	// 迭代
	for gen := 1; gen <= o.parameters.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		offspring := o.toolbox.Select(rng, pop, len(pop))
		if len(offspring) != len(pop) {
			return nil, fmt.Errorf("%w: 第 %d 代得到 %d 个子代，种群大小为 %d", ErrOffspringCount, gen, len(offspring), len(pop))
		}

		o.vary(rng, offspring)
		evaluations := o.evaluate(offspring)

		// 完全的代际替换，不保留精英
		pop = offspring

		s := calcStats(gen, evaluations, pop)
		statistics = append(statistics, s)
		o.logGeneration(s)

		if genBest := Best(pop); genBest.fitness < bestEver.fitness {
			bestEver = genBest.Clone()
		}
	}

	return &Result{
		Best:       Best(pop),
		BestEver:   bestEver,
		Population: pop,
		Statistics: statistics,
	}, nil
}

// Solution 将个体转换为带有成本明细的方案
func (o *Optimizer) Solution(ind *Individual) domain.Solution {
	byCategory := make(map[string]float64, len(ind.Genome))
	for i, stock := range ind.Genome {
		byCategory[o.problem.CategoryName(i)] = stock
	}

	fitness, _ := ind.Fitness()
	return domain.Solution{
		StockLevels: ind.Genome.Clone(),
		Fitness:     fitness,
		Breakdown:   Breakdown(o.problem, ind.Genome),
		ByCategory:  byCategory,
	}
}

// Optimize 执行遗传算法并整理为对外的结果
func (o *Optimizer) Optimize(ctx context.Context) (*domain.OptimizationResult, error) {
	start := time.Now()

	res, err := o.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(res); err != nil {
		return nil, err
	}

	return &domain.OptimizationResult{
		Best:       o.Solution(res.Best),
		BestEver:   o.Solution(res.BestEver),
		Statistics: res.Statistics,
		Parameters: *o.parameters,
		Problem:    *o.problem,
		Duration:   time.Since(start),
		CreatedAt:  start,
	}, nil
}
