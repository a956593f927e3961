package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"partnerbot/internal/admin"
	"partnerbot/internal/config"
	"partnerbot/internal/storage"
	"partnerbot/internal/transport"
	telegram "partnerbot/internal/transport/telegram/adapter"
	logx "partnerbot/pkg/logx"
)

// App wires the pieces together: config, logging, storage, the Telegram
// adapter, the admin router, and the scheduled digest.
type App struct {
	cfgPath string

	cfgm *config.Manager
	log  logx.Logger
	logs *logx.Service

	store   storage.Store
	adapter transport.Adapter
	router  *admin.Router

	digestMu sync.Mutex
	digest   *cron.Cron

	updates chan transport.Message
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	pollTimeout, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	router := admin.New(routerConfig(cfg), store, ad, log.With(logx.String("comp", "admin")))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		adapter: ad,
		router:  router,
		updates: make(chan transport.Message, 256),
	}, nil
}

func routerConfig(cfg *config.Config) admin.Config {
	return admin.Config{
		AdminUserIDs:           cfg.Telegram.AdminUserIDs,
		BroadcastRatePerSec:    cfg.Broadcast.RatePerSec,
		BroadcastProgressEvery: cfg.Broadcast.ProgressEvery,
		WelcomeDefault:         cfg.Welcome.Default,
	}
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return err
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.router.DispatchLoop(runCtx, a.updates)
	}()

	a.applyDigest(runCtx, a.cfgm.Get())

	// Hot reload: logging, admin allow-list, broadcast pacing, digest spec.
	sub := a.cfgm.Subscribe(8)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-runCtx.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.logs.Apply(logx.Config{
					Level:   newCfg.Logging.Level,
					Console: newCfg.Logging.Console,
					File: logx.FileConfig{
						Enabled: newCfg.Logging.File.Enabled,
						Path:    newCfg.Logging.File.Path,
					},
				})
				a.router.Apply(routerConfig(newCfg))
				a.applyDigest(runCtx, newCfg)
				a.log.Info("config reloaded")
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgm.Watch(runCtx)
	}()

	// systemd integration: readiness plus optional watchdog keepalive.
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify ready sent")
	}
	if interval, err := daemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			t := time.NewTicker(interval / 2)
			defer t.Stop()
			for {
				select {
				case <-runCtx.Done():
					return
				case <-t.C:
					_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
				}
			}
		}()
	}

	a.log.Info("app started")
	return nil
}

func (a *App) applyDigest(ctx context.Context, cfg *config.Config) {
	a.digestMu.Lock()
	defer a.digestMu.Unlock()

	if a.digest != nil {
		a.digest.Stop()
		a.digest = nil
	}
	if cfg == nil || !cfg.Digest.Enabled {
		return
	}

	spec := strings.TrimSpace(cfg.Digest.Spec)
	if spec == "" {
		spec = "0 9 * * *"
	}
	loc := time.Local
	if tz := strings.TrimSpace(cfg.Digest.Timezone); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		dctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := a.router.SendDigest(dctx); err != nil {
			a.log.Warn("digest failed", logx.Err(err))
		}
	})
	if err != nil {
		// Validated at load time; reaching this means the spec regressed.
		a.log.Warn("digest schedule rejected", logx.String("spec", spec), logx.Err(err))
		return
	}
	c.Start()
	a.digest = c
	a.log.Info("digest scheduled", logx.String("spec", spec))
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.log.Info("stopping")

	if a.cancel != nil {
		a.cancel()
	}

	a.digestMu.Lock()
	if a.digest != nil {
		stopCtx := a.digest.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
		a.digest = nil
	}
	a.digestMu.Unlock()

	_ = a.adapter.Stop(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("stop timed out waiting for loops")
	}

	if err := a.store.Close(); err != nil {
		a.log.Warn("store close failed", logx.Err(err))
	}

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
