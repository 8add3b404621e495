package domain

import "time"

// OptimizationParameters 遗传算法参数
type OptimizationParameters struct {
	PopulationSize   int     `json:"populationSize" validate:"min=1"`         // 种群大小
	Generations      int     `json:"generations" validate:"min=0"`            // 迭代代数，0 表示只评估初始种群
	TournamentSize   int     `json:"tournamentSize" validate:"min=1"`         // 锦标赛规模
	CrossoverRate    float64 `json:"crossoverRate" validate:"min=0,max=1"`    // 每对个体的交叉概率
	MutationRate     float64 `json:"mutationRate" validate:"min=0,max=1"`     // 每个个体的变异概率
	GeneMutationRate float64 `json:"geneMutationRate" validate:"min=0,max=1"` // 变异个体中每个基因的变异概率
	MutationMu       float64 `json:"mutationMu"`                              // 高斯噪声均值
	MutationSigma    float64 `json:"mutationSigma" validate:"min=0"`          // 高斯噪声标准差
	BlendAlpha       float64 `json:"blendAlpha" validate:"min=0"`             // 混合交叉的扩展系数
	Seed             uint64  `json:"seed"`                                    // 随机种子
}

// CostBreakdown 成本的三个组成部分
type CostBreakdown struct {
	ExpiryWaste   float64 `json:"expiryWaste"`
	UnmetDemand   float64 `json:"unmetDemand"`
	TransportCost float64 `json:"transportCost"`
}

// Total 返回总成本
func (c CostBreakdown) Total() float64 {
	return c.ExpiryWaste + c.UnmetDemand + c.TransportCost
}

// GenerationStats 每一代种群的适应度统计
type GenerationStats struct {
	Generation  int     `json:"generation"`
	Evaluations int     `json:"evaluations"` // 本代重新计算适应度的个体数量
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// Solution 一个库存方案及其成本
type Solution struct {
	StockLevels []float64          `json:"stockLevels"`
	Fitness     float64            `json:"fitness"`
	Breakdown   CostBreakdown      `json:"breakdown"`
	ByCategory  map[string]float64 `json:"byCategory"`
}

type OptimizationResult struct {
	ID         string                 `json:"id"`
	Best       Solution               `json:"best"`     // 最后一代中的最优个体
	BestEver   Solution               `json:"bestEver"` // 整个过程中出现过的最优个体，仅用于报告
	Statistics []GenerationStats      `json:"statistics"`
	Parameters OptimizationParameters `json:"parameters"`
	Problem    Problem                `json:"problem"`
	Duration   time.Duration          `json:"duration"`
	CreatedAt  time.Time              `json:"createdAt"`
}
