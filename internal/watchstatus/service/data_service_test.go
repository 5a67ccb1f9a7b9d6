package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/service"
	"github.com/narwhalmedia/watchtrack/pkg/database"
	"github.com/narwhalmedia/watchtrack/pkg/errors"
	"github.com/narwhalmedia/watchtrack/pkg/logger"
	"github.com/narwhalmedia/watchtrack/test/testutil"
)

const profileID int64 = 123

type DataServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	repo    *repository.GormRepository
	calc    *domain.StatusCalculator
	service *service.DataService
	catalog *testutil.Catalog
}

func (suite *DataServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	db := testutil.SetupTestDatabase(suite.T())
	suite.repo = repository.NewGormRepository(db.DB)
	suite.calc = domain.NewStatusCalculator(testutil.Clock)
	suite.service = service.NewDataService(suite.repo, database.NewTxManager(db.DB), suite.calc, logger.NewNoop())
	suite.catalog = testutil.NewCatalog(suite.T(), suite.repo)
}

func TestDataServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DataServiceTestSuite))
}

func (suite *DataServiceTestSuite) setEpisodes(status domain.WatchStatus, ids ...int64) {
	writes := make([]domain.EpisodeWrite, len(ids))
	for i, id := range ids {
		writes[i] = domain.EpisodeWrite{EpisodeID: id, Status: status}
	}
	_, err := suite.repo.UpsertEpisodeStatuses(suite.ctx, profileID, writes)
	suite.Require().NoError(err)
}

func (suite *DataServiceTestSuite) setSeason(id int64, status domain.WatchStatus) {
	_, err := suite.repo.UpsertSeasonStatuses(suite.ctx, profileID, []domain.SeasonWrite{{SeasonID: id, Status: status}})
	suite.Require().NoError(err)
}

func (suite *DataServiceTestSuite) setShow(id int64, status domain.WatchStatus) {
	_, err := suite.repo.UpsertShowStatus(suite.ctx, profileID, id, status)
	suite.Require().NoError(err)
}

func (suite *DataServiceTestSuite) episodeStatuses(showID int64) map[int64]domain.WatchStatus {
	episodes, err := suite.repo.ListShowEpisodes(suite.ctx, profileID, showID)
	suite.Require().NoError(err)
	out := make(map[int64]domain.WatchStatus, len(episodes))
	for _, e := range episodes {
		out[e.ID] = e.Status
	}
	return out
}

// assertConsistent checks that every stored season and the show equal what
// the calculator derives from their current children.
func (suite *DataServiceTestSuite) assertConsistent(showID int64) {
	show, err := suite.repo.GetShow(suite.ctx, profileID, showID)
	suite.Require().NoError(err)
	seasons, err := suite.repo.ListShowSeasons(suite.ctx, profileID, showID)
	suite.Require().NoError(err)
	episodes, err := suite.repo.ListShowEpisodes(suite.ctx, profileID, showID)
	suite.Require().NoError(err)

	for _, season := range seasons {
		if season.Status == domain.StatusNone {
			continue
		}
		derived := suite.calc.CalculateSeasonStatus(suite.calc.SeasonFromEpisodes(season, episodes))
		suite.Equal(derived, season.Status, "season %d drifted", season.ID)
	}

	filled := suite.calc.FillUnderivedSeasons(seasons, episodes)
	suite.Equal(suite.calc.CalculateShowStatus(domain.ShowFromSeasons(*show, filled)), show.Status, "show %d drifted", showID)
}

func (suite *DataServiceTestSuite) TestEpisodeWatchedPropagatesToSeasonAndShow() {
	suite.catalog.
		Show(101112, true).
		Season(789, 101112, 1).
		Episode(456, 789, 101112, 1, testutil.DaysAgo(30)).
		Episode(457, 789, 101112, 2, testutil.DaysAgo(23)).
		Episode(458, 789, 101112, 3, testutil.DaysAgo(16))
	suite.setEpisodes(domain.NotWatched, 456, 457, 458)
	suite.setSeason(789, domain.NotWatched)
	suite.setShow(101112, domain.NotWatched)

	result, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 456, domain.Watched)
	suite.Require().NoError(err)

	suite.True(result.Success)
	suite.Equal(int64(3), result.AffectedRows)
	suite.Require().Len(result.Changes, 3)

	episode, season, show := result.Changes[0], result.Changes[1], result.Changes[2]
	suite.Equal(domain.EntityEpisode, episode.EntityType)
	suite.Equal(int64(456), episode.EntityID)
	suite.Equal(domain.NotWatched, episode.From)
	suite.Equal(domain.Watched, episode.To)
	suite.Equal("Episode manually set to WATCHED", episode.Reason)

	suite.Equal(domain.EntitySeason, season.EntityType)
	suite.Equal(int64(789), season.EntityID)
	suite.Equal(domain.Watching, season.To)
	suite.Equal("Episode 456 status changed", season.Reason)

	suite.Equal(domain.EntityShow, show.EntityType)
	suite.Equal(int64(101112), show.EntityID)
	suite.Equal(domain.Watching, show.To)
	suite.Equal("Season 789 status changed", show.Reason)

	suite.Equal(testutil.Now, episode.Timestamp)
	suite.NotEqual(episode.ID, season.ID)
	suite.assertConsistent(101112)
}

func (suite *DataServiceTestSuite) TestEpisodeUpdateLeavesShowWhenSeasonUnchanged() {
	suite.catalog.
		Show(101112, true).
		Season(789, 101112, 1).
		Episode(456, 789, 101112, 1, testutil.DaysAgo(30)).
		Episode(457, 789, 101112, 2, testutil.DaysAgo(23)).
		Episode(458, 789, 101112, 3, testutil.DaysAgo(16))

	_, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 456, domain.Watched)
	suite.Require().NoError(err)

	result, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 457, domain.Watched)
	suite.Require().NoError(err)
	suite.Equal(int64(1), result.AffectedRows)
	suite.Require().Len(result.Changes, 1)
	suite.Equal(domain.EntityEpisode, result.Changes[0].EntityType)

	// same status again: row is rewritten but nothing changes
	result, err = suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 457, domain.Watched)
	suite.Require().NoError(err)
	suite.Empty(result.Changes)
	suite.Equal(int64(1), result.AffectedRows)
	suite.assertConsistent(101112)
}

func (suite *DataServiceTestSuite) TestEpisodeCompletingSeasonMarksShowWatched() {
	suite.catalog.
		Show(101112, false).
		Season(789, 101112, 1).
		Episode(456, 789, 101112, 1, testutil.DaysAgo(30)).
		Episode(457, 789, 101112, 2, testutil.DaysAgo(23))
	suite.setEpisodes(domain.Watched, 456)

	result, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 457, domain.Watched)
	suite.Require().NoError(err)
	suite.Require().Len(result.Changes, 3)
	suite.Equal(domain.Watched, result.Changes[1].To)
	suite.Equal(domain.NotWatched, result.Changes[1].From)
	suite.Equal(domain.Watched, result.Changes[2].To)
	suite.assertConsistent(101112)
}

func (suite *DataServiceTestSuite) TestFirstTouchReportsEffectiveStatuses() {
	suite.catalog.
		Show(101112, true).
		Season(789, 101112, 1).
		Episode(100, 789, 101112, 1, testutil.DaysAgo(30)).
		Episode(101, 789, 101112, 2, testutil.DaysAgo(23))

	result, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 100, domain.Watched)
	suite.Require().NoError(err)
	suite.Require().Len(result.Changes, 3)
	for _, change := range result.Changes {
		suite.Equal(domain.NotWatched, change.From, "%s %d", change.EntityType, change.EntityID)
	}

	data, err := json.Marshal(result)
	suite.Require().NoError(err)
	suite.NotContains(string(data), "NONE")

	var decoded domain.StatusUpdateResult
	suite.Require().NoError(json.Unmarshal(data, &decoded))
	suite.Equal(result.Changes[0].From, decoded.Changes[0].From)
	suite.Equal(result.Changes[2].To, decoded.Changes[2].To)
	suite.Equal(result.AffectedRows, decoded.AffectedRows)
}

func (suite *DataServiceTestSuite) TestFirstTouchWithoutEffectiveChange() {
	suite.catalog.
		Show(101112, true).
		Season(789, 101112, 1).
		Episode(100, 789, 101112, 1, testutil.DaysAgo(30))

	// rows are written, but NOT_WATCHED is what every level already counted as
	result, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 100, domain.NotWatched)
	suite.Require().NoError(err)
	suite.Empty(result.Changes)
	suite.Equal(int64(3), result.AffectedRows)
	suite.Equal(domain.NotWatched, suite.episodeStatuses(101112)[100])
	suite.assertConsistent(101112)
}

func (suite *DataServiceTestSuite) TestEpisodeRejectsUnairedAndInvalidTargets() {
	suite.catalog.
		Show(101112, true).
		Season(789, 101112, 1).
		Episode(458, 789, 101112, 3, testutil.DaysAgo(-7))

	_, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 458, domain.Watched)
	suite.True(errors.IsBadRequest(err))

	_, err = suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 458, domain.UpToDate)
	suite.True(errors.IsBadRequest(err))

	_, err = suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 458, domain.Unaired)
	suite.True(errors.IsBadRequest(err))

	suite.Equal(domain.StatusNone, suite.episodeStatuses(101112)[458])
}

func (suite *DataServiceTestSuite) TestNotFoundIsNotWrapped() {
	_, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 456, domain.Watched)
	suite.True(errors.IsNotFound(err))
	suite.False(errors.IsDatabase(err))
	suite.Contains(err.Error(), "Episode 456 not found")

	_, err = suite.service.UpdateSeasonWatchStatus(suite.ctx, profileID, 789, domain.Watched)
	suite.True(errors.IsNotFound(err))
	suite.Contains(err.Error(), "Season 789 not found")

	_, err = suite.service.UpdateShowWatchStatus(suite.ctx, profileID, 101112, domain.Watched)
	suite.True(errors.IsNotFound(err))

	_, err = suite.service.CheckAndUpdateShowWatchStatus(suite.ctx, profileID, 101112)
	suite.True(errors.IsNotFound(err))

	_, err = suite.service.CheckAndUpdateMovieWatchStatus(suite.ctx, profileID, 42)
	suite.True(errors.IsNotFound(err))
}

func (suite *DataServiceTestSuite) TestSeasonWatchedWithUnairedEpisodeBecomesUpToDate() {
	suite.catalog.
		Show(200, false).
		Season(201, 200, 1).
		Episode(2011, 201, 200, 1, testutil.DaysAgo(14)).
		Episode(2012, 201, 200, 2, testutil.DaysAgo(7)).
		Episode(2013, 201, 200, 3, testutil.DaysAgo(-7))
	suite.setEpisodes(domain.Watched, 2011, 2012)
	suite.setEpisodes(domain.Unaired, 2013)
	suite.setSeason(201, domain.Watching)

	result, err := suite.service.UpdateSeasonWatchStatus(suite.ctx, profileID, 201, domain.Watched)
	suite.Require().NoError(err)

	// two aired episodes, the season and the show
	suite.Equal(int64(4), result.AffectedRows)
	suite.Require().Len(result.Changes, 2)
	suite.Equal(domain.EntitySeason, result.Changes[0].EntityType)
	suite.Equal(domain.UpToDate, result.Changes[0].To)
	suite.Equal("Season manually set to WATCHED", result.Changes[0].Reason)
	suite.Equal(domain.EntityShow, result.Changes[1].EntityType)
	suite.Equal(domain.UpToDate, result.Changes[1].To)

	statuses := suite.episodeStatuses(200)
	suite.Equal(domain.Watched, statuses[2011])
	suite.Equal(domain.Watched, statuses[2012])
	suite.Equal(domain.Unaired, statuses[2013])
	suite.assertConsistent(200)
}

func (suite *DataServiceTestSuite) TestSeasonNotWatchedResetsAiredEpisodes() {
	suite.catalog.
		Show(200, true).
		Season(201, 200, 1).
		Season(202, 200, 2).
		Episode(2011, 201, 200, 1, testutil.DaysAgo(14)).
		Episode(2012, 201, 200, 2, testutil.DaysAgo(7)).
		Episode(2021, 202, 200, 1, testutil.DaysAgo(1))
	suite.setEpisodes(domain.Watched, 2011, 2012, 2021)
	suite.setSeason(201, domain.Watched)
	suite.setSeason(202, domain.Watched)
	suite.setShow(200, domain.UpToDate)

	result, err := suite.service.UpdateSeasonWatchStatus(suite.ctx, profileID, 201, domain.NotWatched)
	suite.Require().NoError(err)
	suite.Require().Len(result.Changes, 2)
	suite.Equal(domain.NotWatched, result.Changes[0].To)
	suite.Equal(domain.Watching, result.Changes[1].To)
	suite.Equal("Season 201 status changed", result.Changes[1].Reason)

	statuses := suite.episodeStatuses(200)
	suite.Equal(domain.NotWatched, statuses[2011])
	suite.Equal(domain.Watched, statuses[2021])
	suite.assertConsistent(200)
}

func (suite *DataServiceTestSuite) TestShowWatchedPreservesUnairedEpisodes() {
	suite.catalog.
		Show(300, false).
		Season(301, 300, 1).
		Season(302, 300, 2).
		Episode(3011, 301, 300, 1, testutil.DaysAgo(60)).
		Episode(3012, 301, 300, 2, testutil.DaysAgo(53)).
		Episode(3021, 302, 300, 1, testutil.DaysAgo(3)).
		Episode(3022, 302, 300, 2, nil)

	result, err := suite.service.UpdateShowWatchStatus(suite.ctx, profileID, 300, domain.Watched)
	suite.Require().NoError(err)

	// three aired episodes, two seasons, one show
	suite.Equal(int64(6), result.AffectedRows)
	suite.Require().Len(result.Changes, 2)
	suite.Equal(domain.EntitySeason, result.Changes[0].EntityType)
	suite.Equal(int64(302), result.Changes[0].EntityID)
	suite.Equal(domain.UpToDate, result.Changes[0].To)
	suite.Equal(domain.EntityShow, result.Changes[1].EntityType)
	suite.Equal(domain.UpToDate, result.Changes[1].To)
	suite.Equal("Show manually set to WATCHED", result.Changes[1].Reason)

	statuses := suite.episodeStatuses(300)
	suite.Equal(domain.Watched, statuses[3011])
	suite.Equal(domain.Watched, statuses[3012])
	suite.Equal(domain.Watched, statuses[3021])
	suite.Equal(domain.StatusNone, statuses[3022])
	suite.assertConsistent(300)

	result, err = suite.service.UpdateShowWatchStatus(suite.ctx, profileID, 300, domain.NotWatched)
	suite.Require().NoError(err)
	suite.Require().Len(result.Changes, 1)
	suite.Equal(domain.EntityShow, result.Changes[0].EntityType)
	suite.Equal(domain.UpToDate, result.Changes[0].From)
	suite.Equal(domain.NotWatched, result.Changes[0].To)
	suite.assertConsistent(300)
}

func (suite *DataServiceTestSuite) TestMovieReleaseDatePassed() {
	suite.catalog.Movie(42, testutil.DaysAgo(10))
	_, err := suite.repo.UpsertMovieStatus(suite.ctx, profileID, 42, domain.Unaired)
	suite.Require().NoError(err)

	result, err := suite.service.CheckAndUpdateMovieWatchStatus(suite.ctx, profileID, 42)
	suite.Require().NoError(err)

	suite.True(result.Success)
	suite.Equal(int64(1), result.AffectedRows)
	suite.Require().Len(result.Changes, 1)
	change := result.Changes[0]
	suite.Equal(domain.EntityEpisode, change.EntityType)
	suite.Equal(int64(42), change.EntityID)
	suite.Equal(domain.Unaired, change.From)
	suite.Equal(domain.NotWatched, change.To)
	suite.Equal("Movie release date passed", change.Reason)

	result, err = suite.service.CheckAndUpdateMovieWatchStatus(suite.ctx, profileID, 42)
	suite.Require().NoError(err)
	suite.True(result.Success)
	suite.Empty(result.Changes)
	suite.Zero(result.AffectedRows)
}

func (suite *DataServiceTestSuite) TestMovieReconcileNoOps() {
	suite.catalog.
		Movie(42, testutil.DaysAgo(-10)).
		Movie(43, testutil.DaysAgo(10)).
		Movie(44, testutil.DaysAgo(10))
	_, err := suite.repo.UpsertMovieStatus(suite.ctx, profileID, 43, domain.Watched)
	suite.Require().NoError(err)

	result, err := suite.service.CheckAndUpdateMovieWatchStatus(suite.ctx, profileID, 42)
	suite.Require().NoError(err)
	suite.Empty(result.Changes)

	result, err = suite.service.CheckAndUpdateMovieWatchStatus(suite.ctx, profileID, 43)
	suite.Require().NoError(err)
	suite.Empty(result.Changes)

	// released with no row at all
	result, err = suite.service.CheckAndUpdateMovieWatchStatus(suite.ctx, profileID, 44)
	suite.Require().NoError(err)
	suite.Require().Len(result.Changes, 1)
	suite.Equal(domain.StatusNone, result.Changes[0].From)
	suite.Equal(domain.NotWatched, result.Changes[0].To)
}

func (suite *DataServiceTestSuite) TestUpdateMovieWatchStatus() {
	suite.catalog.
		Movie(42, testutil.DaysAgo(10)).
		Movie(43, testutil.DaysAgo(-10))

	result, err := suite.service.UpdateMovieWatchStatus(suite.ctx, profileID, 42, domain.Watched)
	suite.Require().NoError(err)
	suite.Require().Len(result.Changes, 1)
	suite.Equal(domain.EntityEpisode, result.Changes[0].EntityType)
	suite.Equal("Movie manually set to WATCHED", result.Changes[0].Reason)

	_, err = suite.service.UpdateMovieWatchStatus(suite.ctx, profileID, 42, domain.Watching)
	suite.True(errors.IsBadRequest(err))

	_, err = suite.service.UpdateMovieWatchStatus(suite.ctx, profileID, 43, domain.Watched)
	suite.True(errors.IsBadRequest(err))
}

func (suite *DataServiceTestSuite) TestShowReconcileIsIdempotent() {
	suite.catalog.
		Show(400, true).
		Season(401, 400, 1).
		Episode(4011, 401, 400, 1, testutil.DaysAgo(8)).
		Episode(4012, 401, 400, 2, testutil.DaysAgo(1)).
		Episode(4013, 401, 400, 3, testutil.DaysAgo(-6))
	suite.setEpisodes(domain.Watched, 4011)
	suite.setEpisodes(domain.Unaired, 4012, 4013)
	suite.setSeason(401, domain.UpToDate)
	suite.setShow(400, domain.UpToDate)

	result, err := suite.service.CheckAndUpdateShowWatchStatus(suite.ctx, profileID, 400)
	suite.Require().NoError(err)
	suite.Equal(int64(3), result.AffectedRows)
	suite.Require().Len(result.Changes, 2)
	for _, change := range result.Changes {
		suite.Equal("Content updates detected", change.Reason)
		suite.Equal(domain.Watching, change.To)
	}

	statuses := suite.episodeStatuses(400)
	suite.Equal(domain.NotWatched, statuses[4012])
	suite.Equal(domain.Unaired, statuses[4013])
	suite.assertConsistent(400)

	result, err = suite.service.CheckAndUpdateShowWatchStatus(suite.ctx, profileID, 400)
	suite.Require().NoError(err)
	suite.True(result.Success)
	suite.Empty(result.Changes)
	suite.Zero(result.AffectedRows)
}

func (suite *DataServiceTestSuite) TestShowReconcileExpiryWithoutSeasonDelta() {
	suite.catalog.
		Show(500, false).
		Season(501, 500, 1).
		Episode(5011, 501, 500, 1, testutil.DaysAgo(8)).
		Episode(5012, 501, 500, 2, testutil.DaysAgo(1))
	suite.setEpisodes(domain.NotWatched, 5011)
	suite.setEpisodes(domain.Unaired, 5012)
	suite.setSeason(501, domain.NotWatched)
	suite.setShow(500, domain.NotWatched)

	result, err := suite.service.CheckAndUpdateShowWatchStatus(suite.ctx, profileID, 500)
	suite.Require().NoError(err)
	suite.Empty(result.Changes)
	suite.Equal(int64(1), result.AffectedRows)
	suite.Equal(domain.NotWatched, suite.episodeStatuses(500)[5012])
}

func (suite *DataServiceTestSuite) TestShowReconcileAlreadyCorrect() {
	suite.catalog.
		Show(600, false).
		Season(601, 600, 1).
		Episode(6011, 601, 600, 1, testutil.DaysAgo(8)).
		Episode(6012, 601, 600, 2, testutil.DaysAgo(1))
	suite.setEpisodes(domain.Watched, 6011)
	suite.setEpisodes(domain.NotWatched, 6012)
	suite.setSeason(601, domain.Watching)
	suite.setShow(600, domain.Watching)

	result, err := suite.service.CheckAndUpdateShowWatchStatus(suite.ctx, profileID, 600)
	suite.Require().NoError(err)
	suite.True(result.Success)
	suite.Empty(result.Changes)
	suite.Zero(result.AffectedRows)
}

func (suite *DataServiceTestSuite) TestShowReconcileAfterProductionEnds() {
	suite.catalog.
		Show(700, true).
		Season(701, 700, 1).
		Episode(7011, 701, 700, 1, testutil.DaysAgo(8))
	_, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, profileID, 7011, domain.Watched)
	suite.Require().NoError(err)

	show, err := suite.repo.GetShow(suite.ctx, profileID, 700)
	suite.Require().NoError(err)
	suite.Equal(domain.UpToDate, show.Status)

	suite.Require().NoError(suite.repo.SetShowInProduction(suite.ctx, 700, false))
	result, err := suite.service.CheckAndUpdateShowWatchStatus(suite.ctx, profileID, 700)
	suite.Require().NoError(err)
	suite.Require().Len(result.Changes, 1)
	suite.Equal(domain.EntityShow, result.Changes[0].EntityType)
	suite.Equal(domain.UpToDate, result.Changes[0].From)
	suite.Equal(domain.Watched, result.Changes[0].To)
	suite.assertConsistent(700)
}
