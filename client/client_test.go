package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieunv6/scavenger-miner/client"
)

func newTestClient(t *testing.T, handler http.Handler) *client.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, client.WithRetryMax(0))
	require.NoError(t, err)
	return c
}

func TestTerms(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/TandC", r.URL.Path)
		assert.Equal(t, "application/json, text/plain, */*", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`{"version":"1.2","content":"terms","message":"sign me"}`))
	}))

	terms, err := c.Terms(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.2", terms.Version)
	require.Equal(t, "sign me", terms.Message)
}

func TestChallenge(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/challenge", r.URL.Path)
		w.Write([]byte(`{
			"code": "OK",
			"challenge": {
				"challenge_id": "c1",
				"day": 3,
				"challenge_number": 7,
				"difficulty": "00ffffffff",
				"no_pre_mine": "seedA",
				"latest_submission": "ls1",
				"no_pre_mine_hour": "h1"
			},
			"mining_period_ends": "2025-11-20T12:00:00Z"
		}`))
	}))

	envelope, err := c.Challenge(context.Background())
	require.NoError(t, err)
	require.NoError(t, envelope.Challenge.Validate())
	require.Equal(t, "c1", envelope.Challenge.ChallengeID)
	require.EqualValues(t, 3, envelope.Challenge.Day)
	require.Equal(t, "00ffffffff", envelope.Challenge.Difficulty)
	require.Equal(t, "2025-11-20T12:00:00Z", envelope.MiningPeriodEnds)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/register/addrX/sig1/pub1", r.URL.Path)
		w.Write([]byte(`{"registrationReceipt":{"preimage":"p","signature":"s","timestamp":"ts"}}`))
	}))

	receipt, err := c.Register(context.Background(), "addrX", "sig1", "pub1")
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.Equal(t, "ts", receipt.Timestamp)
}

func TestSubmitSolution(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		// The nonce text is handed over unmodified.
		assert.Equal(t, "/solution/addrX/c1/0000000000000042", r.URL.Path)
		w.Write([]byte(`{"crypto_receipt":{"preimage":"p","timestamp":"ts","signature":"s"}}`))
	}))

	receipt, err := c.SubmitSolution(context.Background(), "addrX", "c1", "0000000000000042")
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.Equal(t, "s", receipt.Signature)
}

func TestSubmitSolutionRejected(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"already solved"}`))
	}))

	receipt, err := c.SubmitSolution(context.Background(), "addrX", "c1", "0000000000000042")
	require.NoError(t, err)
	require.Nil(t, receipt)
}

func TestStarRates(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/work_to_star_rate", r.URL.Path)
		w.Write([]byte(`[100, 200, 300]`))
	}))

	rates, err := c.StarRates(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uint64{100, 200, 300}, rates)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, client.ErrNotFound},
		{http.StatusServiceUnavailable, client.ErrUnavailable},
		{http.StatusBadRequest, client.ErrInvalidRequest},
	} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := c.Challenge(context.Background())
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}
