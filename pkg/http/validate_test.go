package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindTarget struct {
	Symbol  string  `query:"symbol" json:"symbol" validate:"required,alphanum,max=16"`
	Capital float64 `json:"capital" default:"1000" validate:"gte=0"`
	Horizon int     `json:"horizon" default:"30" validate:"gte=0,lte=3650"`
	Mode    string  `json:"mode" default:"neutral" validate:"oneof=neutral bullish"`
}

func bind(t *testing.T, method, target, body string) (*bindTarget, []*AppError) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	c := echo.New().NewContext(req, httptest.NewRecorder())
	out := &bindTarget{}
	return out, BindRequest(c, out)
}

func TestBindRequestDefaultsOnlyAbsentFields(t *testing.T) {
	got, errs := bind(t, http.MethodPost, "/", `{"symbol":"ETH"}`)
	require.Nil(t, errs)
	assert.Equal(t, 1000.0, got.Capital)
	assert.Equal(t, 30, got.Horizon)
	assert.Equal(t, "neutral", got.Mode)

	got, errs = bind(t, http.MethodPost, "/", `{"symbol":"ETH","capital":0,"horizon":0}`)
	require.Nil(t, errs)
	assert.Zero(t, got.Capital)
	assert.Zero(t, got.Horizon)

	got, errs = bind(t, http.MethodGet, "/?symbol=SOL", "")
	require.Nil(t, errs)
	assert.Equal(t, "SOL", got.Symbol)
	assert.Equal(t, 30, got.Horizon)
}

func TestBindRequestReportsEveryField(t *testing.T) {
	_, errs := bind(t, http.MethodPost, "/", `{"symbol":"ETH/USD","capital":-1,"horizon":9000,"mode":"moon"}`)
	require.Len(t, errs, 4)

	byField := map[string]*AppError{}
	for _, e := range errs {
		assert.Equal(t, http.StatusBadRequest, e.Status)
		byField[e.Field] = e
	}
	assert.Equal(t, "ERR_ALPHANUM", byField["symbol"].Code)
	assert.Equal(t, "ERR_GTE", byField["capital"].Code)
	assert.Equal(t, "0", byField["capital"].Params["limit"])
	assert.Equal(t, "horizon must be at most 3650", byField["horizon"].Message)
	assert.Equal(t, []string{"neutral", "bullish"}, byField["mode"].Params["options"])
}

func TestBindRequestMalformedBody(t *testing.T) {
	_, errs := bind(t, http.MethodPost, "/", `{"symbol":`)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeBadRequest, errs[0].Code)
}
