package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/metrics"
	"github.com/illegalcall/quickfix/internal/models"
)

type HelpService struct {
	tasks   TaskStore
	metrics *metrics.Metrics
	emitter
}

func NewHelpService(tasks TaskStore, pub events.Publisher, m *metrics.Metrics) *HelpService {
	return &HelpService{tasks: tasks, metrics: m, emitter: emitter{pub: pub, metrics: m}}
}

// RequestProfessional pays for a professional help request and schedules it.
func (s *HelpService) RequestProfessional(ctx context.Context, userID, key string, req models.ProfessionalHelpRequest) (*models.TaskSubmissionResult, error) {
	if err := ValidateIdempotencyKey(key); err != nil {
		return nil, err
	}
	if err := ValidatePrice(req.Price); err != nil {
		return nil, err
	}
	if !slices.Contains(models.Expertises, req.Expertise) {
		return nil, apperror.Validation("expertise", "unknown expertise")
	}
	problem := strings.TrimSpace(req.Problem)
	if problem == "" {
		return nil, apperror.Validation("problem", "problem description is required")
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, apperror.Validation("location", "location is required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = models.Preview(problem, 60)
	}

	description := "Professional help: " + req.Expertise
	res, err := s.tasks.Submit(ctx, models.TaskSubmission{
		Task: models.ProfessionalTask{
			UserID:    userID,
			Title:     title,
			Problem:   problem,
			Expertise: req.Expertise,
			Location:  location,
			Price:     req.Price,
		},
		Checkout: models.WalletMutation{
			UserID:         userID,
			IdempotencyKey: key,
			Amount:         req.Price,
			Description:    description,
			Kind:           models.CheckoutService,
		},
	})
	if err != nil {
		outcome := metrics.OutcomeError
		if apperror.KindOf(err) != apperror.KindInternal {
			outcome = metrics.OutcomeRejected
		}
		s.metrics.WalletOp(string(models.CheckoutService), outcome)
		return nil, err
	}

	log := zerolog.Ctx(ctx)
	if res.Checkout.Replayed {
		s.metrics.WalletOp(string(models.CheckoutService), metrics.OutcomeReplayed)
		log.Info().Str("task_id", res.Task.ID).Msg("professional help request replayed")
		return res, nil
	}

	s.metrics.WalletOp(string(models.CheckoutService), metrics.OutcomeSuccess)
	log.Info().Str("task_id", res.Task.ID).Str("expertise", req.Expertise).Msg("professional help requested")

	s.emit(ctx, events.CheckoutCompleted, userID, events.WalletPayload{
		CheckoutID:  res.Checkout.Checkout.ID,
		Amount:      req.Price,
		Balance:     res.Checkout.Balance,
		Description: description,
	})
	s.emit(ctx, events.TaskCreated, userID, events.TaskPayload{
		TaskID:    res.Task.ID,
		Title:     res.Task.Title,
		Expertise: res.Task.Expertise,
		Price:     res.Task.Price,
	})
	return res, nil
}

func (s *HelpService) Tasks(ctx context.Context, userID, status string, limit int) ([]models.ProfessionalTask, error) {
	filter := models.TaskFilter{Limit: limit}
	if status != "" && status != "all" {
		st, err := ParseTaskStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	return s.tasks.List(ctx, userID, filter)
}

func (s *HelpService) Task(ctx context.Context, userID, id string) (*models.ProfessionalTask, error) {
	return s.tasks.Get(ctx, userID, id)
}

func ValidatePrice(price decimal.Decimal) error {
	if price.LessThan(models.MinTaskPrice) || price.GreaterThan(models.MaxTaskPrice) {
		return apperror.Validation("price", fmt.Sprintf("price must be between %s and %s",
			models.MinTaskPrice, models.MaxTaskPrice))
	}
	if !price.Mod(models.TaskPriceStep).IsZero() {
		return apperror.Validation("price", fmt.Sprintf("price must be a multiple of %s", models.TaskPriceStep))
	}
	return nil
}

// ParseTaskStatus accepts both in_progress and in-progress.
func ParseTaskStatus(s string) (models.TaskStatus, error) {
	switch strings.ReplaceAll(s, "-", "_") {
	case string(models.TaskScheduled):
		return models.TaskScheduled, nil
	case string(models.TaskInProgress):
		return models.TaskInProgress, nil
	case string(models.TaskCompleted):
		return models.TaskCompleted, nil
	}
	return "", apperror.Validation("status", "unknown task status")
}
