package services

import (
	"context"
	"fmt"
	"strings"

	"dailybread/models"
	"dailybread/repository"
	"dailybread/utils"

	"go.uber.org/zap"
)

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactService struct {
	Messages repository.ContactRepository
	Logger   *zap.Logger
}

func (s *ContactService) Send(ctx context.Context, in ContactInput) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   normalizeEmail(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}
	if err := checkLength("name", "Name", msg.Name, 1, 100); err != nil {
		return nil, err
	}
	if err := checkEmail("email", msg.Email); err != nil {
		return nil, err
	}
	if err := checkLength("subject", "Subject", msg.Subject, 1, 200); err != nil {
		return nil, err
	}
	if err := checkLength("message", "Message", msg.Message, 1, 5000); err != nil {
		return nil, err
	}
	if err := s.Messages.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save contact message: %w", err)
	}
	s.Logger.Info("contact message received", zap.Int64("id", msg.ID), zap.String("subject", msg.Subject))
	return msg, nil
}

// Pricing lists what donors and churches pay.
type Pricing struct {
	DonorFeeCents       int64   `json:"donor_fee_cents"`
	ChurchFeePercent    float64 `json:"church_fee_percent"`
	ChurchFeeFixedCents int64   `json:"church_fee_fixed_cents"`
	ThresholdsCents     []int64 `json:"thresholds_cents"`
	Multipliers         []int   `json:"multipliers"`
	MilestonesCents     []int64 `json:"milestones_cents"`
}

func CurrentPricing() Pricing {
	return Pricing{
		DonorFeeCents:       0,
		ChurchFeePercent:    float64(utils.FeeRateBasisPoints) / 100,
		ChurchFeeFixedCents: utils.FeeFixedCents,
		ThresholdsCents:     Thresholds,
		Multipliers:         Multipliers,
		MilestonesCents:     Milestones,
	}
}
