package handler

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
)

const EmailQueue = "email_queue"

func newReportMailData(result *domain.OptimizationResult) domain.OptimizationReportMailData {
	categories := make([]domain.OptimizationReportCategory, len(result.Best.StockLevels))
	for i, stock := range result.Best.StockLevels {
		categories[i] = domain.OptimizationReportCategory{
			Name:         result.Problem.CategoryName(i),
			Demand:       result.Problem.Demand[i],
			OptimalStock: result.Problem.OptimalStock[i],
			StockLevel:   stock,
		}
	}

	return domain.OptimizationReportMailData{
		ResultID:    result.ID,
		Fitness:     result.Best.Fitness,
		Breakdown:   result.Best.Breakdown,
		Categories:  categories,
		Generations: result.Parameters.Generations,
		Seed:        result.Parameters.Seed,
	}
}

// publishReport 将优化报告发送到邮件队列，由 mail worker 负责真正发送
func (h *Handler) publishReport(ctx context.Context, to string, result *domain.OptimizationResult) error {
	if h.mailChannel == nil {
		return nil
	}

	mailMessage := domain.MailMessage{
		Type: domain.MailTypeOptimizationReport,
		To:   to,
		Data: newReportMailData(result),
	}

	// 对邮件进行序列化
	emailData, err := json.Marshal(mailMessage)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.mailChannel.PublishWithContext(
		ctx,
		"",
		EmailQueue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        emailData,
		},
	)
}
