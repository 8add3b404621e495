package utils

import (
	"fmt"

	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
)

// ValidateParameterLimits 检查参数是否超出服务允许的计算量
func ValidateParameterLimits(parameters *domain.OptimizationParameters, maxPopulationSize int, maxGenerations int) error {
	if parameters.PopulationSize > maxPopulationSize {
		return fmt.Errorf("种群大小不能超过 %d", maxPopulationSize)
	}

	if parameters.Generations > maxGenerations {
		return fmt.Errorf("迭代代数不能超过 %d", maxGenerations)
	}

	return nil
}
