package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGateway_Charge(t *testing.T) {
	var got chargeBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sk_test", user)
		assert.Equal(t, "/charges", r.URL.Path)
		assert.Equal(t, "don-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(chargeResponse{ID: "ch_123", Status: "succeeded"})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL+"/", "sk_test")
	res, err := g.Charge(context.Background(), ChargeRequest{
		IdempotencyKey: "don-1",
		AmountCents:    712,
		CardToken:      "tok_visa",
	})
	require.NoError(t, err)
	assert.Equal(t, "ch_123", res.ID)
	assert.Equal(t, int64(712), got.Amount)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "tok_visa", got.Source)
}

func TestHTTPGateway_Declined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte("insufficient funds"))
	}))
	defer srv.Close()

	_, err := NewHTTPGateway(srv.URL, "sk").Charge(context.Background(), ChargeRequest{
		IdempotencyKey: "don-2", AmountCents: 700, CardToken: "tok",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestHTTPGateway_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPGateway(srv.URL, "sk").Charge(context.Background(), ChargeRequest{
		IdempotencyKey: "don-3", AmountCents: 700, CardToken: "tok",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeclined)
}

func TestHTTPGateway_NoCard(t *testing.T) {
	_, err := NewHTTPGateway("http://unused", "sk").Charge(context.Background(), ChargeRequest{AmountCents: 700})
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestSandboxGateway(t *testing.T) {
	res, err := SandboxGateway{}.Charge(context.Background(), ChargeRequest{AmountCents: 700, CardToken: "tok"})
	require.NoError(t, err)
	assert.Contains(t, res.ID, "sandbox_")

	_, err = SandboxGateway{}.Charge(context.Background(), ChargeRequest{AmountCents: 700})
	assert.ErrorIs(t, err, ErrDeclined)
}
