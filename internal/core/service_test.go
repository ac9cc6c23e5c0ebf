package core

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ofertas/internal/config"
	"github.com/JonMunkholm/ofertas/internal/metrics"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(func(string) string { return "" })
	require.NoError(t, err)
	return cfg
}

func newTestService(t *testing.T, mutate func(*config.Config)) (*Service, *metrics.Metrics) {
	t.Helper()
	cfg := testConfig(t)
	if mutate != nil {
		mutate(cfg)
	}
	m := metrics.New()
	svc, err := NewService(testReference(), cfg, m)
	require.NoError(t, err)
	return svc, m
}

const offersCSV = "CN,LABORATORIO,PVL,PVP\n123456,LabX,4.50,6\n654321,LabY,,7\n000042,LabZ,1.10,2\n"

func TestNewService_RequiresReference(t *testing.T) {
	_, err := NewService(nil, testConfig(t), nil)
	assert.Error(t, err)
}

func TestService_CreateSessionValidation(t *testing.T) {
	svc, _ := newTestService(t, func(c *config.Config) {
		c.Upload.MaxFiles = 2
		c.Upload.MaxFileSize = 16
	})
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, nil)
	assert.ErrorIs(t, err, ErrNoFiles)

	small := UploadedFile{Name: "a.csv", Data: []byte("CN,PVL\n1,2\n")}
	_, err = svc.CreateSession(ctx, []UploadedFile{small, small, small})
	assert.ErrorIs(t, err, ErrTooManyFiles)

	big := UploadedFile{Name: "big.csv", Data: bytes.Repeat([]byte("x"), 17)}
	_, err = svc.CreateSession(ctx, []UploadedFile{small, big})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestService_CreateSessionPreview(t *testing.T) {
	svc, _ := newTestService(t, nil)

	sess, err := svc.CreateSession(context.Background(), []UploadedFile{
		{Name: "ofertas.csv", Data: []byte(offersCSV)},
		{Name: "otro.csv", Data: []byte("CN\n1\n")},
	})
	require.NoError(t, err)

	require.NotNil(t, sess.Preview)
	assert.Equal(t, "ofertas.csv", sess.Preview.File)
	assert.Equal(t, []string{"CN", "LABORATORIO", "PVL", "PVP"}, sess.Preview.Columns())
	assert.Equal(t, 3, sess.Preview.Sheet.TotalRows)
}

func TestService_CreateSessionBrokenFirstFile(t *testing.T) {
	svc, _ := newTestService(t, nil)

	sess, err := svc.CreateSession(context.Background(), []UploadedFile{
		{Name: "roto.xlsx", Data: []byte("PK\x03\x04garbage")},
	})
	require.NoError(t, err, "a broken preview does not reject the upload")
	assert.NotEmpty(t, sess.Preview.Error)
	assert.Nil(t, sess.Preview.Columns())
}

func TestService_ProcessFilterExport(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, []UploadedFile{{Name: "ofertas.csv", Data: []byte(offersCSV)}})
	require.NoError(t, err)

	res, err := svc.Process(ctx, sess.ID, "PVL")
	require.NoError(t, err)
	require.True(t, res.Ran)
	assert.Equal(t, []string{"123456", "000042"}, codesOf(res.Offers))

	offers, err := svc.Offers(ctx, sess.ID, FilterQuery{ActiveIngredient: "PARA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"123456"}, codesOf(offers))

	all, err := svc.Offers(ctx, sess.ID, FilterQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2, "filters always run over the full result")

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, sess.ID, FilterQuery{ActiveIngredient: "para"}, ExportCSV, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)

	expected := `
# HELP ofertas_offers_produced_total Offer records produced by processing runs.
# TYPE ofertas_offers_produced_total counter
ofertas_offers_produced_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "ofertas_offers_produced_total"))
}

func TestService_ReprocessReplacesOffers(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, []UploadedFile{{Name: "ofertas.csv", Data: []byte(offersCSV)}})
	require.NoError(t, err)

	_, err = svc.Process(ctx, sess.ID, "PVL")
	require.NoError(t, err)
	_, err = svc.Process(ctx, sess.ID, "PVP")
	require.NoError(t, err)

	got, err := svc.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "PVP", got.PriceColumn)
	assert.Len(t, got.Offers, 3)
}

func TestService_ProcessNotRun(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, []UploadedFile{{Name: "ofertas.csv", Data: []byte(offersCSV)}})
	require.NoError(t, err)

	res, err := svc.Process(ctx, sess.ID, "")
	require.NoError(t, err)
	assert.False(t, res.Ran)

	got, err := svc.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, got.Processed(), "a skipped run leaves the session untouched")
}

func TestService_UnknownSession(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Process(ctx, "nope", "PVL")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Offers(ctx, "nope", FilterQuery{})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, "nope"), ErrSessionNotFound)
}

func TestService_ProcessBusy(t *testing.T) {
	svc, _ := newTestService(t, func(c *config.Config) {
		c.Upload.MaxConcurrent = 1
		c.Upload.MaxWaitTime = 20 * time.Millisecond
	})
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, []UploadedFile{{Name: "ofertas.csv", Data: []byte(offersCSV)}})
	require.NoError(t, err)

	require.NoError(t, svc.Limiter().Acquire(ctx))
	defer svc.Limiter().Release()

	_, err = svc.Process(ctx, sess.ID, "PVL")
	assert.ErrorIs(t, err, ErrTooManyRuns)
}

func TestService_SweeperStopsOnCancel(t *testing.T) {
	svc, _ := newTestService(t, func(c *config.Config) { c.Session.TTL = time.Millisecond })

	_, err := svc.CreateSession(context.Background(), []UploadedFile{{Name: "a.csv", Data: []byte("CN\n1\n")}})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartSessionSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return svc.sessions.Len() == 0 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
