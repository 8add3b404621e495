package config

import (
	"errors"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
)

// Optimizer 遗传算法的默认参数，HTTP 请求中可以覆盖
type Optimizer struct {
	PopulationSize    int     `env:"POPULATION_SIZE" envDefault:"50"`
	Generations       int     `env:"GENERATIONS" envDefault:"50"`
	TournamentSize    int     `env:"TOURNAMENT_SIZE" envDefault:"3"`
	CrossoverRate     float64 `env:"CROSSOVER_RATE" envDefault:"0.7"`
	MutationRate      float64 `env:"MUTATION_RATE" envDefault:"0.2"`
	GeneMutationRate  float64 `env:"GENE_MUTATION_RATE" envDefault:"0.2"`
	MutationMu        float64 `env:"MUTATION_MU" envDefault:"0"`
	MutationSigma     float64 `env:"MUTATION_SIGMA" envDefault:"10"`
	BlendAlpha        float64 `env:"BLEND_ALPHA" envDefault:"0.5"`
	Seed              uint64  `env:"SEED" envDefault:"42"`
	MaxPopulationSize int     `env:"MAX_POPULATION_SIZE" envDefault:"1000"` // HTTP 请求允许的最大种群
	MaxGenerations    int     `env:"MAX_GENERATIONS" envDefault:"1000"`     // HTTP 请求允许的最大代数
}

// Problem 默认的库存问题（8 种血型）
type Problem struct {
	Categories           []string  `env:"CATEGORIES" envDefault:"A+,A-,B+,B-,O+,O-,AB+,AB-"`
	Demand               []float64 `env:"DEMAND" envDefault:"50,30,40,20,60,25,10,5"`
	OptimalStock         []float64 `env:"OPTIMAL_STOCK" envDefault:"70,50,60,40,90,35,20,10"`
	TransportCostPerUnit float64   `env:"TRANSPORT_COST_PER_UNIT" envDefault:"1.5"`
	SafetyMargin         float64   `env:"SAFETY_MARGIN" envDefault:"10"`
}

// Parameters 转换为优化器使用的参数
func (o Optimizer) Parameters() domain.OptimizationParameters {
	return domain.OptimizationParameters{
		PopulationSize:   o.PopulationSize,
		Generations:      o.Generations,
		TournamentSize:   o.TournamentSize,
		CrossoverRate:    o.CrossoverRate,
		MutationRate:     o.MutationRate,
		GeneMutationRate: o.GeneMutationRate,
		MutationMu:       o.MutationMu,
		MutationSigma:    o.MutationSigma,
		BlendAlpha:       o.BlendAlpha,
		Seed:             o.Seed,
	}
}

// ToDomain 转换为领域模型，切片会被复制，避免调用方修改配置
func (p Problem) ToDomain() domain.Problem {
	return domain.Problem{
		Categories:           slices.Clone(p.Categories),
		Demand:               slices.Clone(p.Demand),
		OptimalStock:         slices.Clone(p.OptimalStock),
		TransportCostPerUnit: p.TransportCostPerUnit,
		SafetyMargin:         p.SafetyMargin,
	}
}

// OptimizerConfig 只包含运行优化所需的配置，命令行工具使用
type OptimizerConfig struct {
	Optimizer Optimizer `envPrefix:"OPTIMIZER_"`
	Problem   Problem   `envPrefix:"PROBLEM_"`
}

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"60"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Optimizer    Optimizer `envPrefix:"OPTIMIZER_"`
	Problem      Problem   `envPrefix:"PROBLEM_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 单位为小时，14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
		TemplateDir string `env:"TEMPLATE_DIR" envDefault:"./templates"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host             string `env:"HOST" envDefault:"localhost"`
		Port             int    `env:"PORT" envDefault:"6379"`
		Password         string `env:"PASSWORD,required"`
		ConnectTimeout   int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"5"`
		ResultExpiration int    `env:"RESULT_EXPIRATION" envDefault:"60"` // 单位为分钟
	} `envPrefix:"REDIS_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOptimizerConfig 只解析优化器和问题相关的环境变量，不要求服务所需的必填项
func LoadOptimizerConfig() (*OptimizerConfig, error) {
	cfg := &OptimizerConfig{}
	if err := parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parse(v any) error {
	if err := env.Parse(v); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return aggErr.Errors[0]
		}
		return err
	}
	return nil
}
