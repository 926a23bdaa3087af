package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dailybread/models"
	"dailybread/payments"
	"dailybread/repository"
	"dailybread/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeGateway struct {
	mu    sync.Mutex
	calls []payments.ChargeRequest
	err   error
}

func (g *fakeGateway) Charge(_ context.Context, req payments.ChargeRequest) (*payments.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return &payments.ChargeResult{ID: "ch_" + req.IdempotencyKey, Status: "succeeded"}, nil
}

type countingPurger struct{ calls int }

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls++
	return 0, nil
}

// seedDonation creates a donor with an active church and one pending
// donation of 712 cents.
func seedDonation(t *testing.T, store *repository.MemoryStore, withCard bool) *models.Donation {
	t.Helper()
	ctx := context.Background()

	church := &models.Church{Name: "Grace Chapel", Slug: "grace-chapel", Status: models.ChurchActive}
	require.NoError(t, store.CreateChurch(ctx, church))
	user := &models.AppUser{Email: "ana@example.com", Password: "x"}
	require.NoError(t, store.CreateUser(ctx, user, &models.Profile{FirstName: "Ana", LastName: "Lopez"}))
	require.NoError(t, store.SetProfileChurch(ctx, user.ID, &church.ID))

	if withCard {
		s, err := store.GetSettings(ctx, user.ID)
		require.NoError(t, err)
		s.Card = &models.Card{Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2099, Token: "tok_visa"}
		require.NoError(t, store.SaveSettings(ctx, s))
	}

	for _, amt := range []int64{288, 424} {
		require.NoError(t, store.AddRoundUp(ctx, &models.RoundUp{
			UserID: user.ID, Merchant: "Cafe", PurchaseCents: 1000 - amt, RoundUpCents: amt,
			Multiplier: 1, AppliedCents: amt, Status: models.RoundUpPending, OccurredAt: time.Now(),
		}))
	}
	d, err := store.SweepPending(ctx, user.ID, church.ID, 700, utils.ProcessingFee)
	require.NoError(t, err)
	require.NotNil(t, d)
	return d
}

func TestRunOnce_Completes(t *testing.T) {
	store := repository.NewMemoryStore()
	d := seedDonation(t, store, true)
	gw := &fakeGateway{}
	purger := &countingPurger{}
	s := NewSettler(store, store, gw, purger, zap.NewNop(), 10, 2)

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Completed: 1}, res)
	assert.Equal(t, 1, purger.calls)

	require.Len(t, gw.calls, 1)
	assert.Equal(t, int64(712), gw.calls[0].AmountCents)
	assert.Equal(t, "tok_visa", gw.calls[0].CardToken)

	list, err := store.ListDonations(context.Background(), models.DonationFilter{UserID: d.UserID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.DonationCompleted, list[0].Status)
	require.NotNil(t, list[0].ChargeRef)
	assert.NotNil(t, list[0].SettledAt)

	// Nothing left to charge.
	res, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestRunOnce_FailsAfterMaxAttempts(t *testing.T) {
	store := repository.NewMemoryStore()
	d := seedDonation(t, store, true)
	gw := &fakeGateway{err: errors.New("payment provider error (503): unavailable")}
	s := NewSettler(store, store, gw, nil, zap.NewNop(), 10, 1)

	for i := 1; i < MaxAttempts; i++ {
		res, err := s.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Result{Retrying: 1}, res)
	}
	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)

	list, err := store.ListDonations(context.Background(), models.DonationFilter{UserID: d.UserID})
	require.NoError(t, err)
	assert.Equal(t, models.DonationFailed, list[0].Status)
	assert.Equal(t, MaxAttempts, list[0].Attempts)
	assert.Len(t, gw.calls, MaxAttempts)
}

func TestRunOnce_RetryReusesChargeKey(t *testing.T) {
	store := repository.NewMemoryStore()
	d := seedDonation(t, store, true)
	gw := &fakeGateway{err: context.DeadlineExceeded}
	s := NewSettler(store, store, gw, nil, zap.NewNop(), 10, 1)

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Retrying: 1}, res)

	gw.err = nil
	res, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Completed: 1}, res)

	require.Len(t, gw.calls, 2)
	assert.Equal(t, gw.calls[0].IdempotencyKey, gw.calls[1].IdempotencyKey)
	assert.Equal(t, chargeKey(d), gw.calls[1].IdempotencyKey)
}

func TestRunOnce_DeclineIsFinal(t *testing.T) {
	store := repository.NewMemoryStore()
	d := seedDonation(t, store, true)
	gw := &fakeGateway{err: fmt.Errorf("%w: insufficient funds", payments.ErrDeclined)}
	s := NewSettler(store, store, gw, nil, zap.NewNop(), 10, 1)

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)

	list, err := store.ListDonations(context.Background(), models.DonationFilter{UserID: d.UserID})
	require.NoError(t, err)
	assert.Equal(t, models.DonationFailed, list[0].Status)
	assert.Equal(t, 1, list[0].Attempts)
	require.NotNil(t, list[0].FailureReason)
	assert.Equal(t, "card declined: insufficient funds", *list[0].FailureReason)
}

func TestRunOnce_NoCard(t *testing.T) {
	store := repository.NewMemoryStore()
	d := seedDonation(t, store, false)
	gw := &fakeGateway{}
	s := NewSettler(store, store, gw, nil, zap.NewNop(), 10, 1)

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Retrying: 1}, res)
	assert.Empty(t, gw.calls)

	list, err := store.ListDonations(context.Background(), models.DonationFilter{UserID: d.UserID})
	require.NoError(t, err)
	require.NotNil(t, list[0].FailureReason)
	assert.Equal(t, "no payment method on file", *list[0].FailureReason)
}

func TestRunOnce_SkipsClaimedDonations(t *testing.T) {
	store := repository.NewMemoryStore()
	seedDonation(t, store, true)

	claimed, err := store.ClaimPendingDonations(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	gw := &fakeGateway{}
	s := NewSettler(store, store, gw, nil, zap.NewNop(), 10, 1)
	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, gw.calls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := repository.NewMemoryStore()
	seedDonation(t, store, true)
	gw := &fakeGateway{}
	s := NewSettler(store, store, gw, nil, zap.NewNop(), 10, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		list, _ := store.ListDonations(context.Background(), models.DonationFilter{Status: models.DonationCompleted})
		return len(list) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("settler did not stop")
	}
}
