// Package daemon wires the stores, token services and web service of a running instance.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	storagemysql "github.com/gofiber/storage/mysql/v2"
	storagepostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/config"
	"github.com/municipal-dp/digital-profile/internal/db"
	"github.com/municipal-dp/digital-profile/internal/db/dsn"
	"github.com/municipal-dp/digital-profile/internal/db/models"
	"github.com/municipal-dp/digital-profile/internal/passwordreset"
	"github.com/municipal-dp/digital-profile/internal/token"
	"github.com/municipal-dp/digital-profile/internal/web"
	"github.com/municipal-dp/digital-profile/internal/web/handler"
)

const (
	staffName   = "staff"
	citizenName = "citizen"

	defaultGCInterval = 10 * time.Minute
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
	storage    fiber.Storage
	stop       context.CancelFunc
}

// Start starts the Daemon's web service and blocks until a shutdown signal arrives.
func (d *Daemon) Start() error {
	defer d.close()

	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

func (d *Daemon) close() {
	d.stop()

	if d.storage != nil {
		if err := d.storage.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close blacklist storage")
		}
	}

	if err := db.Close(d.db); err != nil {
		log.Error().Err(err).Msg("failed to close database")
	}
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	gdb, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(context.Background())
	d := &Daemon{cfg: cfg, db: gdb, stop: stop}

	deps, err := d.wire(ctx)
	if err != nil {
		d.close()
		return nil, err
	}

	if d.webService, err = web.New(cfg, deps); err != nil {
		d.close()
		return nil, err
	}

	return d, nil
}

func (d *Daemon) wire(ctx context.Context) (*handler.Deps, error) {
	cfg := d.cfg

	if err := db.Migrate(d.db); err != nil {
		return nil, err
	}

	if err := auth.SeedPermissions(ctx, d.db); err != nil {
		return nil, err
	}

	users := auth.NewUserStore(d.db)
	citizens := auth.NewCitizenStore(d.db)

	if err := seedAdmin(ctx, d.db, users, cfg.Seed); err != nil {
		return nil, err
	}

	bl, err := d.blacklist()
	if err != nil {
		return nil, err
	}

	interval := cfg.Blacklist.GCInterval
	if interval <= 0 {
		interval = defaultGCInterval
	}

	if c, ok := bl.(token.Collector); ok {
		go token.RunCollector(ctx, c, interval)
	}

	staffTokens, err := token.NewStaffService(tokenConfig(staffName, cfg.JWT.Staff), bl)
	if err != nil {
		return nil, err
	}

	citizenTokens, err := token.NewCitizenService(tokenConfig(citizenName, cfg.JWT.Citizen), bl)
	if err != nil {
		return nil, err
	}

	notifier := passwordreset.WithNotifier(passwordreset.LogNotifier{ShowCode: cfg.DevMode})

	staffReset, err := passwordreset.New(d.db, models.OtpChannelStaff, users, cfg.PasswordReset, notifier)
	if err != nil {
		return nil, err
	}

	citizenReset, err := passwordreset.New(d.db, models.OtpChannelCitizen, citizens, cfg.PasswordReset, notifier)
	if err != nil {
		return nil, err
	}

	go token.RunCollector(ctx, staffReset, interval)
	go token.RunCollector(ctx, citizenReset, interval)

	return &handler.Deps{
		Cfg:           cfg,
		Users:         users,
		Citizens:      citizens,
		Evaluator:     auth.NewEvaluator(),
		StaffTokens:   staffTokens,
		CitizenTokens: citizenTokens,
		StaffReset:    staffReset,
		CitizenReset:  citizenReset,
	}, nil
}

// blacklist creates the configured revocation backend.
func (d *Daemon) blacklist() (token.Blacklist, error) {
	cfg := d.cfg.Blacklist

	switch cfg.Backend {
	case "", config.BlacklistMemory:
		return token.NewMemoryBlacklist(), nil
	case config.BlacklistDB:
		return token.NewDBBlacklist(d.db), nil
	case config.BlacklistMySQL:
		d.storage = storagemysql.New(storagemysql.Config{
			ConnectionURI: dsn.MySQL(d.cfg.DB),
			Table:         cfg.Table,
			GCInterval:    cfg.GCInterval,
		})
	case config.BlacklistPostgres:
		d.storage = storagepostgres.New(storagepostgres.Config{
			ConnectionURI: dsn.Postgres(d.cfg.DB),
			Table:         cfg.Table,
			GCInterval:    cfg.GCInterval,
		})
	default:
		return nil, fmt.Errorf("unknown blacklist backend %q", cfg.Backend)
	}

	log.Info().Str("backend", cfg.Backend).Str("table", cfg.Table).Msg("using storage token blacklist")

	return token.NewStorageBlacklist(d.storage), nil
}

func tokenConfig(name string, t config.Token) token.Config {
	return token.Config{
		Name:       name,
		Secret:     []byte(t.Secret),
		Issuer:     t.Issuer,
		Audience:   t.Audience,
		AccessTTL:  t.AccessTTL,
		RefreshTTL: t.RefreshTTL,
	}
}
