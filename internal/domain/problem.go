package domain

import "strconv"

// Problem 描述一次库存优化所面对的需求情况，在整个优化过程中只读
// Demand、OptimalStock 以及非空的 Categories 必须等长，类别名称不能重复
type Problem struct {
	Categories           []string  `json:"categories" validate:"unique"`               // 血型类别，例如 A+、O-，可以为空
	Demand               []float64 `json:"demand" validate:"dive,min=0,max=1e6"`       // 每个类别的需求量
	OptimalStock         []float64 `json:"optimalStock" validate:"dive,min=0,max=1e6"` // 每个类别的目标库存（补货基准）
	TransportCostPerUnit float64   `json:"transportCostPerUnit" validate:"min=0,max=1e6"`
	SafetyMargin         float64   `json:"safetyMargin" validate:"min=0,max=1e6"` // 超出需求多少之后的库存被视为过期浪费
}

// Size 返回类别数量，即基因组的长度
func (p *Problem) Size() int {
	return len(p.Demand)
}

// CategoryName 返回第 i 个类别的名称，没有名称时使用序号
func (p *Problem) CategoryName(i int) string {
	if i < len(p.Categories) && p.Categories[i] != "" {
		return p.Categories[i]
	}
	return "#" + strconv.Itoa(i+1)
}
