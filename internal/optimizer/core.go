package optimizer

import (
	"math"
	"math/rand/v2"

	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
)

// 初始化时每个基因的取值范围为 [0, geneInitMax] 内的整数
const geneInitMax = 100

// randomGenome 随机初始化一个基因组
func randomGenome(rng *rand.Rand, n int) Genome {
	genome := make(Genome, n)
	for i := range genome {
		genome[i] = float64(rng.IntN(geneInitMax + 1))
	}
	return genome
}

// InitPopulation 生成初始种群，先按个体再按基因的顺序消耗随机数
func InitPopulation(rng *rand.Rand, size int, n int) Population {
	pop := make(Population, size)
	for i := range pop {
		pop[i] = NewIndividual(randomGenome(rng, n))
	}
	return pop
}

/**
 * 计算基因组的成本
 * cost = expiryWaste + unmetDemand + transportCost
 * 其中:
 * 		1. expiryWaste 为库存超过 需求 + 安全余量 的部分，视为过期浪费
 * 		2. unmetDemand 为库存不足以满足需求的部分
 * 		3. transportCost 为库存偏离目标库存所需的运输成本
 */
func Breakdown(problem *domain.Problem, genome Genome) domain.CostBreakdown {
	var c domain.CostBreakdown
	for i, stock := range genome {
		c.ExpiryWaste += max(0, stock-problem.Demand[i]-problem.SafetyMargin)
		c.UnmetDemand += max(0, problem.Demand[i]-stock)
		c.TransportCost += math.Abs(stock-problem.OptimalStock[i]) * problem.TransportCostPerUnit
	}
	return c
}

// Evaluate 返回基因组的总成本
func Evaluate(problem *domain.Problem, genome Genome) float64 {
	return Breakdown(problem, genome).Total()
}

// BlendCrossover 混合交叉
// 对每个基因，两个子代分别独立地从 [min - alpha*d, max + alpha*d] 中均匀采样，d 为两个父代基因之差的绝对值
func BlendCrossover(rng *rand.Rand, a, b Genome, alpha float64) {
	length := min(len(a), len(b))

	for i := 0; i < length; i++ {
		lo, hi := min(a[i], b[i]), max(a[i], b[i])
		d := hi - lo
		lo -= alpha * d
		hi += alpha * d

		a[i] = lo + rng.Float64()*(hi-lo)
		b[i] = lo + rng.Float64()*(hi-lo)
	}
}

// GaussianMutation 高斯变异
// 每个基因以 indpb 的概率加上均值为 mu、标准差为 sigma 的高斯噪声，返回是否有基因发生变化
func GaussianMutation(rng *rand.Rand, genome Genome, mu, sigma, indpb float64) bool {
	changed := false
	for i := range genome {
		if rng.Float64() >= indpb {
			continue
		}

		noise := mu + sigma*rng.NormFloat64()
		if noise != 0 {
			genome[i] += noise
			changed = true
		}
	}
	return changed
}

// TournamentSelect 锦标赛选择
// 每次有放回地随机抽取 k 个个体，选出成本最低的一个（相同时保留先抽到的），重复 size 次
// 返回的是个体的副本，后续的交叉和变异不会影响原种群
func TournamentSelect(rng *rand.Rand, pop Population, k int, size int) Population {
	chosen := make(Population, 0, size)
	if len(pop) == 0 {
		return chosen
	}

	// 锦标赛覆盖整个种群时，结果必然是种群中的最优个体，不需要抽样
	if k >= len(pop) {
		best := pop[bestIndex(pop)]
		for len(chosen) < size {
			chosen = append(chosen, best.Clone())
		}
		return chosen
	}

	for len(chosen) < size {
		winner := pop[rng.IntN(len(pop))]
		for j := 1; j < k; j++ {
			aspirant := pop[rng.IntN(len(pop))]
			if aspirant.fitness < winner.fitness {
				winner = aspirant
			}
		}
		chosen = append(chosen, winner.Clone())
	}

	return chosen
}
