package optimizer

import (
	"fmt"
	"math"

	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// bestIndex 返回种群中成本最低的个体下标，相同时返回靠前的一个
func bestIndex(pop Population) int {
	best := 0
	for i := 1; i < len(pop); i++ {
		if pop[i].fitness < pop[best].fitness {
			best = i
		}
	}
	return best
}

// Best 返回种群中成本最低的个体
func Best(pop Population) *Individual {
	if len(pop) == 0 {
		return nil
	}
	return pop[bestIndex(pop)]
}

func fitnesses(pop Population) []float64 {
	fits := make([]float64, len(pop))
	for i, ind := range pop {
		fits[i] = ind.fitness
	}
	return fits
}

// calcStats 计算一代种群的适应度统计，标准差使用总体标准差
func calcStats(generation int, evaluations int, pop Population) domain.GenerationStats {
	fits := fitnesses(pop)
	mean, std := stat.PopMeanStdDev(fits, nil)

	return domain.GenerationStats{
		Generation:  generation,
		Evaluations: evaluations,
		Mean:        mean,
		Std:         std,
		Min:         floats.Min(fits),
		Max:         floats.Max(fits),
	}
}

// checkFinite 确认最优个体和每一代的统计量都是有限值
func checkFinite(res *Result) error {
	for _, ind := range []*Individual{res.Best, res.BestEver} {
		if f, _ := ind.Fitness(); math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("%w: 最优个体的成本为 %v", ErrNonFiniteFitness, f)
		}
	}
	for _, s := range res.Statistics {
		for _, v := range []float64{s.Mean, s.Std, s.Min, s.Max} {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return fmt.Errorf("%w: 第 %d 代的统计量为 %v", ErrNonFiniteFitness, s.Generation, v)
			}
		}
	}
	return nil
}
