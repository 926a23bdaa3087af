package services

import (
	"context"
	"strings"
	"testing"

	"dailybread/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContactSend(t *testing.T) {
	store := repository.NewMemoryStore()
	s := &ContactService{Messages: store, Logger: zap.NewNop()}
	ctx := context.Background()

	valid := ContactInput{Name: "Ana", Email: "ana@example.com", Subject: "Hello", Message: "How do fees work?"}

	tests := []struct {
		name  string
		edit  func(*ContactInput)
		field string
	}{
		{"no name", func(in *ContactInput) { in.Name = "" }, "name"},
		{"bad email", func(in *ContactInput) { in.Email = "ana" }, "email"},
		{"no subject", func(in *ContactInput) { in.Subject = " " }, "subject"},
		{"long message", func(in *ContactInput) { in.Message = strings.Repeat("x", 5001) }, "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.edit(&in)
			_, err := s.Send(ctx, in)
			assert.Equal(t, tt.field, fieldOf(t, err))
		})
	}

	msg, err := s.Send(ctx, valid)
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)

	saved, err := store.ListMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Hello", saved[0].Subject)
}

func TestCurrentPricing(t *testing.T) {
	p := CurrentPricing()
	assert.Zero(t, p.DonorFeeCents)
	assert.InDelta(t, 2.9, p.ChurchFeePercent, 0.0001)
	assert.Equal(t, int64(30), p.ChurchFeeFixedCents)
	assert.Equal(t, []int64{700, 1000, 2500}, p.ThresholdsCents)
}
