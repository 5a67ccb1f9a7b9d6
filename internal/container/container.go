package container

import (
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/cache"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/service"
	"github.com/narwhalmedia/watchtrack/pkg/config"
	"github.com/narwhalmedia/watchtrack/pkg/database"
)

// App holds everything the watchtrack commands need.
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Migrator    *database.Migrator
	Catalog     repository.CatalogRepository
	WatchStatus *service.WatchStatusService
	Profiles    *cache.ProfileViews
}
