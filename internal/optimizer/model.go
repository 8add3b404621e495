package optimizer

import (
	"errors"
	"math/rand/v2"
	"slices"

	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
)

var (
	ErrInvalidConfig  = errors.New("optimizer: 无效的配置")
	ErrOffspringCount = errors.New("optimizer: 子代数量与种群大小不一致")
	// 成本溢出为 Inf 或 NaN 时无法比较，也无法序列化为 JSON
	ErrNonFiniteFitness = errors.New("optimizer: 适应度不是有限值")
)

// Genome: 每个类别的库存水平，长度等于类别数量
type Genome []float64

func (g Genome) Clone() Genome {
	return slices.Clone(g)
}

// Individual: 一个基因组以及缓存的适应度
// 基因被修改之后必须调用 Invalidate，适应度会在下一次评估时重新计算
type Individual struct {
	Genome  Genome
	fitness float64
	valid   bool
}

func NewIndividual(genome Genome) *Individual {
	return &Individual{Genome: genome}
}

// Fitness 返回缓存的适应度，ok 为 false 表示尚未评估或已经失效
func (ind *Individual) Fitness() (fitness float64, ok bool) {
	return ind.fitness, ind.valid
}

func (ind *Individual) SetFitness(fitness float64) {
	ind.fitness = fitness
	ind.valid = true
}

func (ind *Individual) Invalidate() {
	ind.fitness = 0
	ind.valid = false
}

// Clone 深拷贝，包括缓存的适应度
func (ind *Individual) Clone() *Individual {
	return &Individual{
		Genome:  ind.Genome.Clone(),
		fitness: ind.fitness,
		valid:   ind.valid,
	}
}

// Population: 种群，顺序会影响统计结果的可复现性，因此需要保持
type Population []*Individual

// Toolbox 保存遗传算法使用的各个算子
type Toolbox struct {
	// Evaluate 计算基因组的成本，越小越好
	Evaluate func(genome Genome) float64
	// Mate 原地修改两个基因组
	Mate func(rng *rand.Rand, a, b Genome)
	// Mutate 原地修改基因组，返回基因是否发生了变化
	Mutate func(rng *rand.Rand, genome Genome) bool
	// Select 从种群中选出 size 个个体的副本组成交配池
	Select func(rng *rand.Rand, pop Population, size int) Population
}

// DefaultToolbox 按照参数构建默认算子：混合交叉、高斯变异、锦标赛选择
func DefaultToolbox(problem *domain.Problem, parameters *domain.OptimizationParameters) *Toolbox {
	return &Toolbox{
		Evaluate: func(genome Genome) float64 {
			return Evaluate(problem, genome)
		},
		Mate: func(rng *rand.Rand, a, b Genome) {
			BlendCrossover(rng, a, b, parameters.BlendAlpha)
		},
		Mutate: func(rng *rand.Rand, genome Genome) bool {
			return GaussianMutation(rng, genome, parameters.MutationMu, parameters.MutationSigma, parameters.GeneMutationRate)
		},
		Select: func(rng *rand.Rand, pop Population, size int) Population {
			return TournamentSelect(rng, pop, parameters.TournamentSize, size)
		},
	}
}
