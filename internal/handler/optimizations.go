package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/utils"
)

type problemRequest struct {
	Categories           []string  `json:"categories" validate:"omitempty,unique,dive,required"`
	Demand               []float64 `json:"demand" validate:"required,min=1,dive,min=0,max=1e6"`
	OptimalStock         []float64 `json:"optimalStock" validate:"required,min=1,dive,min=0,max=1e6"`
	TransportCostPerUnit float64   `json:"transportCostPerUnit" validate:"min=0,max=1e6"`
	SafetyMargin         float64   `json:"safetyMargin" validate:"min=0,max=1e6"`
}

type optimizationRequest struct {
	PopulationSize   *int            `json:"populationSize" validate:"omitempty,min=1"`
	Generations      *int            `json:"generations" validate:"omitempty,min=0"`
	TournamentSize   *int            `json:"tournamentSize" validate:"omitempty,min=1"`
	CrossoverRate    *float64        `json:"crossoverRate" validate:"omitempty,min=0,max=1"`
	MutationRate     *float64        `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	GeneMutationRate *float64        `json:"geneMutationRate" validate:"omitempty,min=0,max=1"`
	MutationMu       *float64        `json:"mutationMu"`
	MutationSigma    *float64        `json:"mutationSigma" validate:"omitempty,min=0"`
	BlendAlpha       *float64        `json:"blendAlpha" validate:"omitempty,min=0"`
	Seed             *uint64         `json:"seed"`
	Problem          *problemRequest `json:"problem"`
	NotifyEmail      string          `json:"notifyEmail" validate:"omitempty,email"`
}

// parameters 将请求中给出的参数覆盖到默认参数上
func (req *optimizationRequest) parameters(defaults domain.OptimizationParameters) domain.OptimizationParameters {
	p := defaults
	if req.PopulationSize != nil {
		p.PopulationSize = *req.PopulationSize
	}
	if req.Generations != nil {
		p.Generations = *req.Generations
	}
	if req.TournamentSize != nil {
		p.TournamentSize = *req.TournamentSize
	}
	if req.CrossoverRate != nil {
		p.CrossoverRate = *req.CrossoverRate
	}
	if req.MutationRate != nil {
		p.MutationRate = *req.MutationRate
	}
	if req.GeneMutationRate != nil {
		p.GeneMutationRate = *req.GeneMutationRate
	}
	if req.MutationMu != nil {
		p.MutationMu = *req.MutationMu
	}
	if req.MutationSigma != nil {
		p.MutationSigma = *req.MutationSigma
	}
	if req.BlendAlpha != nil {
		p.BlendAlpha = *req.BlendAlpha
	}
	if req.Seed != nil {
		p.Seed = *req.Seed
	}
	return p
}

func (req *optimizationRequest) problem(defaults domain.Problem) domain.Problem {
	if req.Problem == nil {
		return defaults
	}
	return domain.Problem{
		Categories:           req.Problem.Categories,
		Demand:               req.Problem.Demand,
		OptimalStock:         req.Problem.OptimalStock,
		TransportCostPerUnit: req.Problem.TransportCostPerUnit,
		SafetyMargin:         req.Problem.SafetyMargin,
	}
}

func (h *Handler) GetOptimizationDefaults(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取默认参数成功", map[string]any{
		"parameters": h.config.Optimizer.Parameters(),
		"problem":    h.config.Problem.ToDomain(),
	})
}

func (h *Handler) RunOptimization(w http.ResponseWriter, r *http.Request) {
	var req optimizationRequest

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	parameters := req.parameters(h.config.Optimizer.Parameters())
	problem := req.problem(h.config.Problem.ToDomain())

	// 限制单次请求的计算量
	if err := utils.ValidateParameterLimits(&parameters, h.config.Optimizer.MaxPopulationSize, h.config.Optimizer.MaxGenerations); err != nil {
		h.badRequest(w, r, err)
		return
	}

	o, err := optimizer.New(&parameters, &problem, nil)
	if err != nil {
		switch {
		case errors.Is(err, optimizer.ErrInvalidConfig):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 相同的参数和种子一定得到相同的结果，因此可以直接使用缓存
	key, err := resultCacheKey(&parameters, &problem)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	result, ok := h.getCachedResult(r.Context(), key)
	if !ok {
		result, err = o.Optimize(r.Context())
		if err != nil {
			switch {
			case errors.Is(err, optimizer.ErrNonFiniteFitness):
				h.badRequest(w, r, err)
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		result.ID = utils.GenerateRandomID(4, 8)
		h.cacheResult(r.Context(), key, result)
	}

	slog.Info("优化完成", slog.String("id", result.ID), slog.Float64("fitness", result.Best.Fitness), slog.Int("generations", parameters.Generations), slog.Bool("cached", ok))

	// 发送报告邮件
	if req.NotifyEmail != "" {
		if err := h.publishReport(r.Context(), req.NotifyEmail, result); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, "优化完成", result)
}
