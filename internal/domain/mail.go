package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const MailTypeOptimizationReport = "optimization_report"

type OptimizationReportCategory struct {
	Name         string  `json:"name"`
	Demand       float64 `json:"demand"`
	OptimalStock float64 `json:"optimalStock"`
	StockLevel   float64 `json:"stockLevel"`
}

type OptimizationReportMailData struct {
	ResultID    string                       `json:"resultID"`
	Fitness     float64                      `json:"fitness"`
	Breakdown   CostBreakdown                `json:"breakdown"`
	Categories  []OptimizationReportCategory `json:"categories"`
	Generations int                          `json:"generations"`
	Seed        uint64                       `json:"seed"`
}
