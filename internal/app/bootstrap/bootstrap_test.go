package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/clinic-intake/internal/config"
	"github.com/wolfman30/clinic-intake/internal/notify"
	"github.com/wolfman30/clinic-intake/internal/scheduling"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

func fileConfig(t *testing.T) *appconfig.Config {
	t.Helper()
	return &appconfig.Config{
		Env:            "test",
		ClinicName:     "Test Clinic",
		DataDir:        t.TempDir(),
		StorageBackend: appconfig.BackendFile,
		SlotBackend:    appconfig.BackendFile,
		EmailProvider:  "stub",
		SessionIdleTTL: time.Minute,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		AdminJWTSecret: "secret",
	}
}

func TestBuildStores_File(t *testing.T) {
	cfg := fileConfig(t)
	stores, err := BuildStores(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &scheduling.FileStore{}, stores.Slots)
	require.NoError(t, stores.Ping(context.Background()))

	list, err := stores.Ledger.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBuildStores_RedisSlots(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fileConfig(t)
	cfg.SlotBackend = appconfig.BackendRedis
	cfg.RedisAddr = mr.Addr()

	stores, err := BuildStores(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &scheduling.RedisStore{}, stores.Slots)
	require.NoError(t, stores.Ping(context.Background()))
}

func TestBuildStores_Errors(t *testing.T) {
	cases := map[string]func(*appconfig.Config){
		"unknown storage":   func(c *appconfig.Config) { c.StorageBackend = "sqlite" },
		"unknown slots":     func(c *appconfig.Config) { c.SlotBackend = "memcache" },
		"postgres no url":   func(c *appconfig.Config) { c.StorageBackend = appconfig.BackendPostgres },
		"redis unreachable": func(c *appconfig.Config) { c.SlotBackend = appconfig.BackendRedis },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := fileConfig(t)
			mutate(cfg)
			_, err := BuildStores(context.Background(), cfg, logging.Discard())
			assert.Error(t, err)
		})
	}
	_, err := BuildStores(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestBuildEmailSender(t *testing.T) {
	ctx := context.Background()
	cfg := fileConfig(t)

	cfg.EmailProvider = "auto"
	sender, err := BuildEmailSender(ctx, cfg, nil, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &notify.StubEmailSender{}, sender)

	cfg.SendGridAPIKey = "SG.test"
	sender, err = BuildEmailSender(ctx, cfg, nil, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &notify.SendGridSender{}, sender)

	cfg.SendGridAPIKey = ""
	cfg.Env = "production"
	sender, err = BuildEmailSender(ctx, cfg, nil, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, sender)

	cfg.EmailProvider = "sendgrid"
	_, err = BuildEmailSender(ctx, cfg, nil, logging.Discard())
	assert.Error(t, err)

	cfg.EmailProvider = "pigeon"
	_, err = BuildEmailSender(ctx, cfg, nil, logging.Discard())
	assert.Error(t, err)
}

func TestBuildEmailSender_SES(t *testing.T) {
	cfg := fileConfig(t)
	cfg.EmailProvider = "ses"
	cfg.EmailFrom = "clinic@example.com"

	_, err := BuildEmailSender(context.Background(), cfg, nil, logging.Discard())
	assert.Error(t, err, "ses without an aws loader")

	loadErr := errors.New("no credentials")
	_, err = BuildEmailSender(context.Background(), cfg, func(context.Context) (aws.Config, error) {
		return aws.Config{}, loadErr
	}, logging.Discard())
	assert.ErrorIs(t, err, loadErr)

	sender, err := BuildEmailSender(context.Background(), cfg, func(context.Context) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &notify.SESSender{}, sender)
}

func TestBuildIntakeForm(t *testing.T) {
	ctx := context.Background()
	cfg := fileConfig(t)

	doc, err := BuildIntakeForm(ctx, cfg, nil, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, doc)

	cfg.IntakeFormPath = "data/patient_intake_form.pdf"
	doc, err = BuildIntakeForm(ctx, cfg, nil, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, notify.FileDocument{Path: "data/patient_intake_form.pdf"}, doc)

	cfg.IntakeFormS3Bucket = "forms"
	cfg.IntakeFormS3Key = "intake.pdf"
	doc, err = BuildIntakeForm(ctx, cfg, func(context.Context) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}, logging.Discard())
	require.NoError(t, err)
	s3doc, ok := doc.(notify.S3Document)
	require.True(t, ok)
	assert.Equal(t, "forms", s3doc.Bucket)
	assert.Equal(t, "intake.pdf", s3doc.Key)
}

func TestBuildApp_ServesSessions(t *testing.T) {
	cfg := fileConfig(t)
	app, err := BuildApp(context.Background(), cfg, Options{WidgetJS: []byte("//w")}, logging.Discard())
	require.NoError(t, err)
	defer app.Close()

	plan := scheduling.SeedPlan{Doctors: []string{"Dr. Smith"}, Days: 1, StartHour: 9, EndHour: 10, LunchHour: -1, IntervalMinutes: 30}
	slots, err := scheduling.GenerateSlots(plan)
	require.NoError(t, err)
	require.NoError(t, app.Stores.Slots.Seed(context.Background(), slots))

	srv := httptest.NewServer(app.Handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, app.Manager.Len())

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestAppRun_StopsOnCancel(t *testing.T) {
	cfg := fileConfig(t)
	app, err := BuildApp(context.Background(), cfg, Options{}, logging.Discard())
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, time.Minute, sweepInterval(4*time.Minute))
	assert.Equal(t, time.Second, sweepInterval(time.Millisecond))
}

func TestSeedPlanFromConfig(t *testing.T) {
	cfg := &appconfig.Config{SeedDoctors: []string{"Dr. A"}, SeedDays: 2, SeedStartHour: 9, SeedEndHour: 17, SeedLunchHour: 12, SeedIntervalMinutes: 30}
	plan := SeedPlan(cfg)
	assert.Equal(t, []string{"Dr. A"}, plan.Doctors)
	assert.Equal(t, 12, plan.LunchHour)
	assert.NoError(t, plan.Validate())
}

func TestReadWidget(t *testing.T) {
	assert.Nil(t, ReadWidget(""))
	assert.Nil(t, ReadWidget(filepath.Join(t.TempDir(), "missing.js")))

	path := filepath.Join(t.TempDir(), "widget.js")
	require.NoError(t, os.WriteFile(path, []byte("(function(){})();"), 0o644))
	assert.Equal(t, "(function(){})();", string(ReadWidget(path)))
}
