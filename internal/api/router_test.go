package api_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/point-ledger/internal/api"
	"github.com/baharkarakas/point-ledger/internal/api/httpx"
	"github.com/baharkarakas/point-ledger/internal/config"
	"github.com/baharkarakas/point-ledger/internal/logger"
	"github.com/baharkarakas/point-ledger/internal/models"
	"github.com/baharkarakas/point-ledger/internal/repository/memory"
	"github.com/baharkarakas/point-ledger/internal/sequencer"
	"github.com/baharkarakas/point-ledger/internal/services"
)

func testConfig() config.Config {
	return config.Config{
		Env:               "test",
		MaxPoint:          100_000,
		MinChargeAmount:   100,
		MinUseAmount:      100,
		RequestTimeout:    2 * time.Second,
		AdminResetEnabled: true,
	}
}

func newServer(t *testing.T, cfg config.Config) (*httptest.Server, *resty.Client) {
	t.Helper()
	repos := memory.NewRepositories(nil)
	log := logger.Discard()
	svc := services.NewPointService(repos.Balances, repos.History, sequencer.New(),
		services.WithMaxPoint(cfg.MaxPoint), services.WithLogger(log))
	srv := httptest.NewServer(api.NewRouter(cfg, svc, log))
	t.Cleanup(srv.Close)
	return srv, resty.New()
}

func pointURL(srv *httptest.Server, id int64, suffix string) string {
	return srv.URL + "/point/" + strconv.FormatInt(id, 10) + suffix
}

func patchAmount(c *resty.Client, url, body string) (*resty.Response, models.Balance, httpx.APIError, error) {
	var b models.Balance
	var apiErr httpx.APIError
	resp, err := c.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&b).
		SetError(&apiErr).
		Patch(url)
	return resp, b, apiErr, err
}

func TestGetPoint_UnknownUser(t *testing.T) {
	srv, c := newServer(t, testConfig())

	var b models.Balance
	resp, err := c.R().SetResult(&b).Get(pointURL(srv, 999, ""))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int64(999), b.UserID)
	assert.Equal(t, int64(0), b.Amount)
	assert.Contains(t, string(resp.Body()), `"point":0`)
}

func TestChargeThenHistories(t *testing.T) {
	srv, c := newServer(t, testConfig())

	resp, b, _, err := patchAmount(c, pointURL(srv, 999, "/charge"), "700")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int64(700), b.Amount)
	assert.NotZero(t, b.UpdatedAt)

	resp, b, _, err = patchAmount(c, pointURL(srv, 999, "/use"), `{"amount": 500}`)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int64(200), b.Amount)

	var hist []models.TransactionRecord
	resp, err = c.R().SetResult(&hist).Get(pointURL(srv, 999, "/histories"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Len(t, hist, 2)
	assert.Equal(t, models.KindCharge, hist[0].Kind)
	assert.Equal(t, int64(700), hist[0].Amount)
	assert.Equal(t, int64(999), hist[0].UserID)
	assert.Equal(t, models.KindUse, hist[1].Kind)
	assert.Equal(t, int64(500), hist[1].Amount)
	assert.Contains(t, string(resp.Body()), `"type":"CHARGE"`)
}

func TestHistories_EmptyIsArray(t *testing.T) {
	srv, c := newServer(t, testConfig())

	resp, err := c.R().Get(pointURL(srv, 5, "/histories"))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `[]`, string(resp.Body()))
}

func TestCharge_BelowFloorRejected(t *testing.T) {
	srv, c := newServer(t, testConfig())

	resp, _, apiErr, err := patchAmount(c, pointURL(srv, 999, "/charge"), "99")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, "invalid_request", apiErr.Code)

	resp, b, _, err := patchAmount(c, pointURL(srv, 999, "/charge"), "100")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int64(100), b.Amount)
}

func TestUse_InsufficientBalance(t *testing.T) {
	srv, c := newServer(t, testConfig())
	_, _, _, err := patchAmount(c, pointURL(srv, 999, "/charge"), "500")
	require.NoError(t, err)

	resp, _, apiErr, err := patchAmount(c, pointURL(srv, 999, "/use"), "700")

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, "insufficient_balance", apiErr.Code)

	var b models.Balance
	_, err = c.R().SetResult(&b).Get(pointURL(srv, 999, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(500), b.Amount)
}

func TestCharge_LimitExceeded(t *testing.T) {
	srv, c := newServer(t, testConfig())
	_, _, _, err := patchAmount(c, pointURL(srv, 999, "/charge"), "80000")
	require.NoError(t, err)

	resp, _, apiErr, err := patchAmount(c, pointURL(srv, 999, "/charge"), "60000")

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, "limit_exceeded", apiErr.Code)
}

func TestBadRequests(t *testing.T) {
	srv, c := newServer(t, testConfig())

	cases := []struct {
		name string
		url  string
		body string
	}{
		{"non numeric id", srv.URL + "/point/abc/charge", "500"},
		{"zero id", srv.URL + "/point/0/charge", "500"},
		{"empty body", pointURL(srv, 1, "/charge"), ""},
		{"string amount", pointURL(srv, 1, "/charge"), `"500"`},
		{"fraction", pointURL(srv, 1, "/use"), "500.5"},
		{"missing field", pointURL(srv, 1, "/charge"), `{"points": 500}`},
		{"trailing", pointURL(srv, 1, "/charge"), `500 600`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _, apiErr, err := patchAmount(c, tc.url, tc.body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
			assert.Equal(t, "invalid_request", apiErr.Code)
		})
	}
}

func TestConcurrentCharges_CapHolds(t *testing.T) {
	srv, c := newServer(t, testConfig())

	var wg sync.WaitGroup
	codes := make(chan int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, _, _, err := patchAmount(c, pointURL(srv, 999, "/charge"), "20000")
			if err == nil {
				codes <- resp.StatusCode()
			}
		}()
	}
	wg.Wait()
	close(codes)

	var ok, rejected int
	for code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusBadRequest:
			rejected++
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, rejected)

	var b models.Balance
	_, err := c.R().SetResult(&b).Get(pointURL(srv, 999, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), b.Amount)
}

func TestConcurrentUses_DrainExactly(t *testing.T) {
	srv, c := newServer(t, testConfig())
	_, _, _, err := patchAmount(c, pointURL(srv, 999, "/charge"), "10000")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _, _ = patchAmount(c, pointURL(srv, 999, "/use"), "1000")
		}()
	}
	wg.Wait()

	var b models.Balance
	_, err = c.R().SetResult(&b).Get(pointURL(srv, 999, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Amount)
}

func TestAdminReset(t *testing.T) {
	srv, c := newServer(t, testConfig())
	_, _, _, err := patchAmount(c, pointURL(srv, 999, "/charge"), "500")
	require.NoError(t, err)

	resp, err := c.R().Post(srv.URL + "/admin/reset")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())

	var b models.Balance
	_, err = c.R().SetResult(&b).Get(pointURL(srv, 999, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Amount)
}

func TestAdminReset_DisabledByDefault(t *testing.T) {
	cfg := testConfig()
	cfg.AdminResetEnabled = false
	srv, c := newServer(t, cfg)

	resp, err := c.R().Post(srv.URL + "/admin/reset")

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestHealthAndRequestID(t *testing.T) {
	srv, c := newServer(t, testConfig())

	resp, err := c.R().Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body()))
	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))

	resp, err = c.R().SetHeader("X-Request-Id", "abc-123").Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header().Get("X-Request-Id"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 1
	cfg.RateBurst = 1
	srv, c := newServer(t, cfg)

	limited := false
	for i := 0; i < 5; i++ {
		resp, err := c.R().Get(pointURL(srv, 1, ""))
		require.NoError(t, err)
		if resp.StatusCode() == http.StatusTooManyRequests {
			limited = true
		}
	}
	assert.True(t, limited)
}

func TestIdempotencyKey_ReplayAndReuse(t *testing.T) {
	srv, c := newServer(t, testConfig())
	send := func(path, body string) (*resty.Response, models.Balance, httpx.APIError) {
		var b models.Balance
		var apiErr httpx.APIError
		resp, err := c.R().
			SetHeader("Content-Type", "application/json").
			SetHeader("Idempotency-Key", "order-42").
			SetBody(body).
			SetResult(&b).
			SetError(&apiErr).
			Patch(pointURL(srv, 999, path))
		require.NoError(t, err)
		return resp, b, apiErr
	}

	resp, b, _ := send("/charge", "500")
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int64(500), b.Amount)

	resp, b, _ = send("/charge", "500")
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int64(500), b.Amount)

	resp, _, apiErr := send("/use", "200")
	assert.Equal(t, http.StatusConflict, resp.StatusCode())
	assert.Equal(t, "idempotency_key_reused", apiErr.Code)

	var hist []models.TransactionRecord
	_, err := c.R().SetResult(&hist).Get(pointURL(srv, 999, "/histories"))
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}
