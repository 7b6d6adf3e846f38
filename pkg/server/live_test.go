package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soltwin/soltwin/pkg/storage/storagemock"
	"github.com/soltwin/soltwin/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandleLive(t *testing.T) {
	db := &storagemock.MockDatabase{}
	db.On("ListPanels", mock.Anything).Return([]types.PanelSpec{}, nil)
	db.On("ListBatteries", mock.Anything).Return([]types.BatterySpec{}, nil)

	srv := newTestServer(db, &stubWeatherSource{snapshot: testSnapshot()}, nil)
	ts := httptest.NewServer(srv.setupHandler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	// the first snapshot arrives immediately
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var res SolarRes
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, "predictive", res.Mode)
	assert.NotEmpty(t, res.Historical)
	assert.Equal(t, "Open-Meteo API", res.Weather.Provider)
}

func TestHandleLiveRejectsPlainHTTP(t *testing.T) {
	db := &storagemock.MockDatabase{}
	srv := newTestServer(db, &stubWeatherSource{snapshot: testSnapshot()}, nil)

	req := httptest.NewRequest("GET", "/api/live", nil)
	w := httptest.NewRecorder()
	srv.setupHandler().ServeHTTP(w, req)

	// not a websocket handshake
	assert.Equal(t, 400, w.Code)
}
