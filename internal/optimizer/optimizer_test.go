package optimizer_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/optimizer"
)

func defaultParameters() *domain.OptimizationParameters {
	return &domain.OptimizationParameters{
		PopulationSize:   50,
		Generations:      50,
		TournamentSize:   3,
		CrossoverRate:    0.7,
		MutationRate:     0.2,
		GeneMutationRate: 0.2,
		MutationMu:       0,
		MutationSigma:    10,
		BlendAlpha:       0.5,
		Seed:             42,
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(params *domain.OptimizationParameters, p *domain.Problem)
		tagErr bool
	}{
		{"zero population", func(params *domain.OptimizationParameters, _ *domain.Problem) { params.PopulationSize = 0 }, true},
		{"negative generations", func(params *domain.OptimizationParameters, _ *domain.Problem) { params.Generations = -1 }, true},
		{"zero tournament", func(params *domain.OptimizationParameters, _ *domain.Problem) { params.TournamentSize = 0 }, true},
		{"crossover above one", func(params *domain.OptimizationParameters, _ *domain.Problem) { params.CrossoverRate = 1.5 }, true},
		{"negative mutation", func(params *domain.OptimizationParameters, _ *domain.Problem) { params.MutationRate = -0.1 }, true},
		{"gene mutation above one", func(params *domain.OptimizationParameters, _ *domain.Problem) { params.GeneMutationRate = 2 }, true},
		{"negative sigma", func(params *domain.OptimizationParameters, _ *domain.Problem) { params.MutationSigma = -1 }, true},
		{"negative demand", func(_ *domain.OptimizationParameters, p *domain.Problem) { p.Demand[0] = -5 }, true},
		{"empty problem", func(_ *domain.OptimizationParameters, p *domain.Problem) {
			p.Demand = nil
			p.OptimalStock = nil
			p.Categories = nil
		}, false},
		{"length mismatch", func(_ *domain.OptimizationParameters, p *domain.Problem) { p.OptimalStock = p.OptimalStock[:7] }, false},
		{"category mismatch", func(_ *domain.OptimizationParameters, p *domain.Problem) { p.Categories = p.Categories[:3] }, false},
		{"duplicate categories", func(_ *domain.OptimizationParameters, p *domain.Problem) { p.Categories[1] = p.Categories[0] }, true},
		{"unnamed category collides", func(_ *domain.OptimizationParameters, p *domain.Problem) {
			p.Categories[0] = ""
			p.Categories[1] = "#1"
		}, false},
		{"demand too large", func(_ *domain.OptimizationParameters, p *domain.Problem) { p.Demand[0] = 1e308 }, true},
		{"optimal stock too large", func(_ *domain.OptimizationParameters, p *domain.Problem) { p.OptimalStock[0] = 1e308 }, true},
		{"transport cost too large", func(_ *domain.OptimizationParameters, p *domain.Problem) { p.TransportCostPerUnit = 1e308 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, p := defaultParameters(), defaultProblem()
			tt.mutate(params, p)

			o, err := optimizer.New(params, p, nil)
			require.Nil(t, o)
			require.ErrorIs(t, err, optimizer.ErrInvalidConfig)

			var validationErrors validator.ValidationErrors
			require.Equal(t, tt.tagErr, errors.As(err, &validationErrors))
		})
	}
}

func TestNew_IncompleteToolbox(t *testing.T) {
	params, p := defaultParameters(), defaultProblem()
	toolbox := optimizer.DefaultToolbox(p, params)
	toolbox.Mutate = nil

	_, err := optimizer.New(params, p, toolbox)
	require.ErrorIs(t, err, optimizer.ErrInvalidConfig)
}

func run(t *testing.T, params *domain.OptimizationParameters) *optimizer.Result {
	t.Helper()

	o, err := optimizer.New(params, defaultProblem(), nil)
	require.NoError(t, err)

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestRun_DefaultScenario(t *testing.T) {
	res := run(t, defaultParameters())

	require.Len(t, res.Best.Genome, 8)
	require.Len(t, res.Population, 50)
	require.Len(t, res.Statistics, 51)

	best, ok := res.Best.Fitness()
	require.True(t, ok)
	require.Equal(t, best, res.Statistics[50].Min)
	require.LessOrEqual(t, best, res.Statistics[0].Min)

	// 每个个体的缓存适应度都必须与重新计算的结果一致
	for _, ind := range res.Population {
		fitness, ok := ind.Fitness()
		require.True(t, ok)
		require.Equal(t, optimizer.Evaluate(defaultProblem(), ind.Genome), fitness)
	}

	bestEver, _ := res.BestEver.Fitness()
	require.LessOrEqual(t, bestEver, best)
	for _, s := range res.Statistics {
		require.GreaterOrEqual(t, s.Min, bestEver)
		require.LessOrEqual(t, s.Min, s.Mean+1e-9)
		require.LessOrEqual(t, s.Mean, s.Max+1e-9)
		require.GreaterOrEqual(t, s.Std, 0.0)
	}

	// 初始种群全部需要评估，之后每代的评估次数不超过种群大小
	require.Equal(t, 50, res.Statistics[0].Evaluations)
	for i, s := range res.Statistics {
		require.Equal(t, i, s.Generation)
		require.LessOrEqual(t, s.Evaluations, 50)
	}
}

func TestRun_Deterministic(t *testing.T) {
	a := run(t, defaultParameters())
	b := run(t, defaultParameters())

	require.Equal(t, a.Statistics, b.Statistics)
	require.Equal(t, a.Best.Genome, b.Best.Genome)
	require.Equal(t, a.BestEver.Genome, b.BestEver.Genome)
	for i := range a.Population {
		require.Equal(t, a.Population[i].Genome, b.Population[i].Genome)
	}

	params := defaultParameters()
	params.Seed = 7
	c := run(t, params)
	require.NotEqual(t, a.Statistics, c.Statistics)
}

func TestRun_ZeroGenerations(t *testing.T) {
	params := defaultParameters()
	params.Generations = 0

	res := run(t, params)

	initial := optimizer.InitPopulation(rand.New(rand.NewPCG(42, 42)), 50, 8)
	p := defaultProblem()
	for _, ind := range initial {
		ind.SetFitness(optimizer.Evaluate(p, ind.Genome))
	}
	want := optimizer.Best(initial)

	require.Len(t, res.Statistics, 1)
	require.Equal(t, want.Genome, res.Best.Genome)
	require.Equal(t, want.Genome, res.BestEver.Genome)
	for i := range initial {
		require.Equal(t, initial[i].Genome, res.Population[i].Genome)
	}
}

func TestRun_OddPopulation(t *testing.T) {
	params := defaultParameters()
	params.PopulationSize = 7
	params.Generations = 5

	res := run(t, params)
	require.Len(t, res.Population, 7)
	require.Len(t, res.Statistics, 6)
}

func TestRun_NoVariationKeepsFitness(t *testing.T) {
	params := defaultParameters()
	params.CrossoverRate = 0
	params.MutationRate = 0
	params.Generations = 3

	res := run(t, params)
	for _, s := range res.Statistics[1:] {
		require.Equal(t, 0, s.Evaluations)
	}
}

func TestRun_OffspringCountMismatch(t *testing.T) {
	params, p := defaultParameters(), defaultProblem()
	toolbox := optimizer.DefaultToolbox(p, params)
	toolbox.Select = func(rng *rand.Rand, pop optimizer.Population, size int) optimizer.Population {
		return optimizer.TournamentSelect(rng, pop, 3, size-1)
	}

	o, err := optimizer.New(params, p, toolbox)
	require.NoError(t, err)

	_, err = o.Run(context.Background())
	require.ErrorIs(t, err, optimizer.ErrOffspringCount)
}

func TestRun_Canceled(t *testing.T) {
	o, err := optimizer.New(defaultParameters(), defaultProblem(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = o.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOptimize_Solution(t *testing.T) {
	o, err := optimizer.New(defaultParameters(), defaultProblem(), nil)
	require.NoError(t, err)

	res, err := o.Optimize(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Best.StockLevels, 8)
	require.Len(t, res.Best.ByCategory, 8)
	require.Equal(t, res.Best.StockLevels[0], res.Best.ByCategory["A+"])
	require.Equal(t, res.Best.StockLevels[7], res.Best.ByCategory["AB-"])
	require.InDelta(t, res.Best.Fitness, res.Best.Breakdown.Total(), 1e-9)
	require.Equal(t, uint64(42), res.Parameters.Seed)
	require.Len(t, res.Statistics, 51)
}

func TestOptimize_NonFiniteFitness(t *testing.T) {
	params, p := defaultParameters(), defaultProblem()
	toolbox := optimizer.DefaultToolbox(p, params)
	toolbox.Evaluate = func(optimizer.Genome) float64 { return math.Inf(1) }

	o, err := optimizer.New(params, p, toolbox)
	require.NoError(t, err)

	res, err := o.Optimize(context.Background())
	require.Nil(t, res)
	require.ErrorIs(t, err, optimizer.ErrNonFiniteFitness)
}

func TestOptimize_OverflowingMutation(t *testing.T) {
	params := defaultParameters()
	params.MutationSigma = 1e300

	o, err := optimizer.New(params, defaultProblem(), nil)
	require.NoError(t, err)

	_, err = o.Optimize(context.Background())
	require.ErrorIs(t, err, optimizer.ErrNonFiniteFitness)
}
