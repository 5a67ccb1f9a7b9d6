package container

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/cache"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/notify"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/service"
	pkgcache "github.com/narwhalmedia/watchtrack/pkg/cache"
	"github.com/narwhalmedia/watchtrack/pkg/config"
	"github.com/narwhalmedia/watchtrack/pkg/database"
	"github.com/narwhalmedia/watchtrack/pkg/events"
	"github.com/narwhalmedia/watchtrack/pkg/interfaces"
	"github.com/narwhalmedia/watchtrack/pkg/logger"
)

// natsConnectTimeout bounds stream creation during startup.
const natsConnectTimeout = 10 * time.Second

// InfrastructureSet provides logging, database and caching.
var InfrastructureSet = wire.NewSet(
	ProvideZap,
	wire.Bind(new(interfaces.Logger), new(*logger.ZapLogger)),
	ProvideDatabase,
	ProvideMigrator,
	database.NewTxManager,
	wire.Bind(new(database.Transactor), new(*database.TxManager)),
	ProvideCache,
	wire.Bind(new(interfaces.Cache), new(*pkgcache.InMemoryCache)),
)

// WatchStatusSet provides the watch status engine and its collaborators.
var WatchStatusSet = wire.NewSet(
	repository.NewGormRepository,
	wire.Bind(new(repository.WatchStatusRepository), new(*repository.GormRepository)),
	wire.Bind(new(repository.CatalogRepository), new(*repository.GormRepository)),
	wire.Bind(new(service.ProfileContentLister), new(*repository.GormRepository)),
	ProvideCalculator,
	service.NewDataService,
	wire.Bind(new(service.DataStore), new(*service.DataService)),
	cache.NewProfileInvalidator,
	wire.Bind(new(service.ProfileCacheInvalidator), new(*cache.ProfileInvalidator)),
	wire.Bind(new(cache.ProfileSource), new(*repository.GormRepository)),
	ProvideProfileViews,
	ProvideNotifier,
	service.NewWatchStatusService,
)

// ProvideZap exposes the zap logger behind log for infrastructure that logs with zap.
func ProvideZap(log *logger.ZapLogger) *zap.Logger {
	return log.Zap()
}

// ProvideDatabase opens the configured database.
func ProvideDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	return database.NewGormDB(cfg.Database.ToDatabaseConfig(), log)
}

// ProvideMigrator builds the migrator with the watch status schema.
func ProvideMigrator(db *gorm.DB, log *zap.Logger) *database.Migrator {
	return database.NewMigrator(db, log, repository.Migrations())
}

// ProvideCalculator returns a calculator on the wall clock.
func ProvideCalculator() *domain.StatusCalculator {
	return domain.NewStatusCalculator(time.Now)
}

// ProvideCache creates the profile cache, sweeping at the profile TTL.
func ProvideCache(cfg *config.Config) (*pkgcache.InMemoryCache, func()) {
	c := pkgcache.NewInMemoryCache(cfg.Cache.ProfileTTL)
	return c, c.Close
}

// ProvideProfileViews creates the cached profile view reader. Views expire
// after the profile TTL.
func ProvideProfileViews(c interfaces.Cache, source cache.ProfileSource, cfg *config.Config, log interfaces.Logger) *cache.ProfileViews {
	return cache.NewProfileViews(c, source, cfg.Cache.ProfileTTL, log)
}

// ProvideNotifier selects the change notifier named by notifier.type.
func ProvideNotifier(cfg *config.Config, log *logger.ZapLogger) (service.ChangeNotifier, func(), error) {
	switch cfg.Notifier.Type {
	case config.NotifierNone, "":
		return notify.NewNoopNotifier(), func() {}, nil

	case config.NotifierEventBus:
		bus := events.NewInMemoryEventBus(log)
		if err := bus.Subscribe(notify.EventTypeStatusChanged, notify.NewChangeLogger(log)); err != nil {
			return nil, nil, err
		}
		if err := bus.Start(context.Background()); err != nil {
			return nil, nil, err
		}
		return notify.NewEventBusNotifier(bus), func() { _ = bus.Stop() }, nil

	case config.NotifierNATS:
		ctx, cancel := context.WithTimeout(context.Background(), natsConnectTimeout)
		defer cancel()
		js, cleanup, err := notify.ConnectJetStream(ctx, cfg.Notifier.NATS, log.Zap())
		if err != nil {
			return nil, nil, err
		}
		return notify.NewNATSNotifier(js, cfg.Notifier.NATS.SubjectPrefix, log.Zap()), cleanup, nil

	case config.NotifierKafka:
		producer, err := notify.NewKafkaProducer(cfg.Notifier.Kafka.Brokers)
		if err != nil {
			return nil, nil, err
		}
		n := notify.NewKafkaNotifier(producer, cfg.Notifier.Kafka.Topic, log.Zap())
		cleanup := func() {
			if err := n.Close(); err != nil {
				log.Error("failed to close kafka producer", interfaces.Error(err))
			}
		}
		return n, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unsupported notifier type: %q", cfg.Notifier.Type)
	}
}
