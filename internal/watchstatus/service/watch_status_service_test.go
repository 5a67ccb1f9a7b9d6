package service_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/service"
	"github.com/narwhalmedia/watchtrack/pkg/database"
	"github.com/narwhalmedia/watchtrack/pkg/errors"
	"github.com/narwhalmedia/watchtrack/pkg/logger"
	"github.com/narwhalmedia/watchtrack/test/testutil"
)

const accountID int64 = 55

// MockDataStore is a mock for the data service
type MockDataStore struct {
	mock.Mock
}

func (m *MockDataStore) result(args mock.Arguments) (*domain.StatusUpdateResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatusUpdateResult), args.Error(1)
}

func (m *MockDataStore) UpdateEpisodeWatchStatus(ctx context.Context, profileID, episodeID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error) {
	return m.result(m.Called(ctx, profileID, episodeID, status))
}

func (m *MockDataStore) UpdateSeasonWatchStatus(ctx context.Context, profileID, seasonID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error) {
	return m.result(m.Called(ctx, profileID, seasonID, status))
}

func (m *MockDataStore) UpdateShowWatchStatus(ctx context.Context, profileID, showID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error) {
	return m.result(m.Called(ctx, profileID, showID, status))
}

func (m *MockDataStore) UpdateMovieWatchStatus(ctx context.Context, profileID, movieID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error) {
	return m.result(m.Called(ctx, profileID, movieID, status))
}

func (m *MockDataStore) CheckAndUpdateMovieWatchStatus(ctx context.Context, profileID, movieID int64) (*domain.StatusUpdateResult, error) {
	return m.result(m.Called(ctx, profileID, movieID))
}

func (m *MockDataStore) CheckAndUpdateShowWatchStatus(ctx context.Context, profileID, showID int64) (*domain.StatusUpdateResult, error) {
	return m.result(m.Called(ctx, profileID, showID))
}

// MockContentLister is a mock for profile content listing
type MockContentLister struct {
	mock.Mock
}

func (m *MockContentLister) ListProfileShowIDs(ctx context.Context, profileID int64) ([]int64, error) {
	args := m.Called(ctx, profileID)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockContentLister) ListProfileMovieIDs(ctx context.Context, profileID int64) ([]int64, error) {
	args := m.Called(ctx, profileID)
	return args.Get(0).([]int64), args.Error(1)
}

// MockInvalidator is a mock for the profile cache invalidator
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateProfileCache(ctx context.Context, accountID, profileID int64) error {
	return m.Called(ctx, accountID, profileID).Error(0)
}

// MockNotifier is a mock for the change notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, batch domain.ChangeBatch) error {
	return m.Called(ctx, batch).Error(0)
}

func change(entityType domain.EntityType, id int64, from, to domain.WatchStatus) domain.StatusChange {
	return domain.NewStatusChange(entityType, id, from, to, "test", testutil.Now)
}

type WatchStatusServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	data     *MockDataStore
	content  *MockContentLister
	cache    *MockInvalidator
	notifier *MockNotifier
	service  *service.WatchStatusService
}

func (suite *WatchStatusServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.data = new(MockDataStore)
	suite.content = new(MockContentLister)
	suite.cache = new(MockInvalidator)
	suite.notifier = new(MockNotifier)
	suite.service = service.NewWatchStatusService(suite.data, suite.content, suite.cache, suite.notifier, logger.NewNoop())
}

func (suite *WatchStatusServiceTestSuite) TearDownTest() {
	suite.data.AssertExpectations(suite.T())
	suite.content.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
	suite.notifier.AssertExpectations(suite.T())
}

func TestWatchStatusServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WatchStatusServiceTestSuite))
}

func (suite *WatchStatusServiceTestSuite) TestEpisodeUpdateWithShowChangeInvalidatesAndNotifies() {
	changes := []domain.StatusChange{
		change(domain.EntityEpisode, 456, domain.NotWatched, domain.Watched),
		change(domain.EntitySeason, 789, domain.NotWatched, domain.Watching),
		change(domain.EntityShow, 101112, domain.NotWatched, domain.Watching),
	}
	suite.data.On("UpdateEpisodeWatchStatus", suite.ctx, profileID, int64(456), domain.Watched).
		Return(&domain.StatusUpdateResult{Success: true, Changes: changes, AffectedRows: 3}, nil)
	suite.cache.On("InvalidateProfileCache", suite.ctx, accountID, profileID).Return(nil)
	suite.notifier.On("Notify", suite.ctx, mock.MatchedBy(func(b domain.ChangeBatch) bool {
		return b.Operation == domain.OpEpisodeUpdate && b.AccountID == accountID && len(b.Changes) == 3
	})).Return(nil)

	resp, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, accountID, profileID, 456, domain.Watched)
	suite.Require().NoError(err)
	suite.True(resp.Success)
	suite.Equal("Updated 1 episode, 1 season, 1 show", resp.Message)
	suite.Equal(int64(3), resp.AffectedRows)
}

func (suite *WatchStatusServiceTestSuite) TestEpisodeUpdateWithoutShowChangeSkipsInvalidation() {
	changes := []domain.StatusChange{change(domain.EntityEpisode, 457, domain.NotWatched, domain.Watched)}
	suite.data.On("UpdateEpisodeWatchStatus", suite.ctx, profileID, int64(457), domain.Watched).
		Return(&domain.StatusUpdateResult{Success: true, Changes: changes, AffectedRows: 1}, nil)
	suite.notifier.On("Notify", suite.ctx, mock.Anything).Return(nil)

	resp, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, accountID, profileID, 457, domain.Watched)
	suite.Require().NoError(err)
	suite.Equal("Updated 1 episode", resp.Message)
	suite.cache.AssertNotCalled(suite.T(), "InvalidateProfileCache", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WatchStatusServiceTestSuite) TestUnsuccessfulResultBecomesDatabaseError() {
	failed := &domain.StatusUpdateResult{Success: false, Changes: []domain.StatusChange{}}
	suite.data.On("UpdateSeasonWatchStatus", suite.ctx, profileID, int64(789), domain.Watched).Return(failed, nil)
	suite.data.On("CheckAndUpdateShowWatchStatus", suite.ctx, profileID, int64(101112)).Return(failed, nil)

	_, err := suite.service.UpdateSeasonWatchStatus(suite.ctx, accountID, profileID, 789, domain.Watched)
	suite.True(errors.IsDatabase(err))
	suite.Contains(err.Error(), "Failed to update season watch status")

	_, err = suite.service.CheckAndUpdateShowWatchStatus(suite.ctx, accountID, profileID, 101112)
	suite.True(errors.IsDatabase(err))
	suite.Contains(err.Error(), "Failed to recalculate and update show watch status")
}

func (suite *WatchStatusServiceTestSuite) TestDataErrorsPassThrough() {
	notFound := errors.NotFoundf("Episode %d not found", 999)
	suite.data.On("UpdateEpisodeWatchStatus", suite.ctx, profileID, int64(999), domain.Watched).Return(nil, notFound)

	_, err := suite.service.UpdateEpisodeWatchStatus(suite.ctx, accountID, profileID, 999, domain.Watched)
	suite.Equal(notFound, err)
}

func (suite *WatchStatusServiceTestSuite) TestShowUpdateAlwaysInvalidates() {
	suite.data.On("UpdateShowWatchStatus", suite.ctx, profileID, int64(101112), domain.Watched).
		Return(&domain.StatusUpdateResult{Success: true, Changes: []domain.StatusChange{}, AffectedRows: 4}, nil)
	suite.cache.On("InvalidateProfileCache", suite.ctx, accountID, profileID).Return(nil)

	resp, err := suite.service.UpdateShowWatchStatus(suite.ctx, accountID, profileID, 101112, domain.Watched)
	suite.Require().NoError(err)
	suite.Equal("No status changes occurred", resp.Message)
	suite.notifier.AssertNotCalled(suite.T(), "Notify", mock.Anything, mock.Anything)
}

func (suite *WatchStatusServiceTestSuite) TestCollaboratorFailuresDoNotFailOperation() {
	changes := []domain.StatusChange{change(domain.EntityShow, 101112, domain.Watching, domain.Watched)}
	suite.data.On("UpdateShowWatchStatus", suite.ctx, profileID, int64(101112), domain.Watched).
		Return(&domain.StatusUpdateResult{Success: true, Changes: changes, AffectedRows: 1}, nil)
	suite.cache.On("InvalidateProfileCache", suite.ctx, accountID, profileID).Return(stderrors.New("cache down"))
	suite.notifier.On("Notify", suite.ctx, mock.Anything).Return(stderrors.New("broker down"))

	resp, err := suite.service.UpdateShowWatchStatus(suite.ctx, accountID, profileID, 101112, domain.Watched)
	suite.Require().NoError(err)
	suite.True(resp.Success)
}

func (suite *WatchStatusServiceTestSuite) TestReconcileWithoutChanges() {
	suite.data.On("CheckAndUpdateShowWatchStatus", suite.ctx, profileID, int64(101112)).
		Return(&domain.StatusUpdateResult{Success: true, Changes: []domain.StatusChange{}}, nil)

	resp, err := suite.service.CheckAndUpdateShowWatchStatus(suite.ctx, accountID, profileID, 101112)
	suite.Require().NoError(err)
	suite.True(resp.Success)
	suite.Equal("Show status is already correct", resp.Message)
	suite.Zero(resp.AffectedRows)
}

func (suite *WatchStatusServiceTestSuite) TestMovieOperations() {
	changes := []domain.StatusChange{change(domain.EntityEpisode, 42, domain.Unaired, domain.NotWatched)}
	suite.data.On("CheckAndUpdateMovieWatchStatus", suite.ctx, profileID, int64(42)).
		Return(&domain.StatusUpdateResult{Success: true, Changes: changes, AffectedRows: 1}, nil)
	suite.data.On("UpdateMovieWatchStatus", suite.ctx, profileID, int64(42), domain.Watched).
		Return(&domain.StatusUpdateResult{Success: false}, nil)
	suite.notifier.On("Notify", suite.ctx, mock.MatchedBy(func(b domain.ChangeBatch) bool {
		return b.Operation == domain.OpMovieReconcile
	})).Return(nil)

	resp, err := suite.service.CheckAndUpdateMovieWatchStatus(suite.ctx, accountID, profileID, 42)
	suite.Require().NoError(err)
	suite.Equal("Updated 1 episode", resp.Message)

	_, err = suite.service.UpdateMovieWatchStatus(suite.ctx, accountID, profileID, 42, domain.Watched)
	suite.True(errors.IsDatabase(err))
	suite.Contains(err.Error(), "Failed to update movie watch status")
}

func (suite *WatchStatusServiceTestSuite) TestReconcileProfileAggregates() {
	suite.content.On("ListProfileShowIDs", suite.ctx, profileID).Return([]int64{1, 2}, nil)
	suite.content.On("ListProfileMovieIDs", suite.ctx, profileID).Return([]int64{42}, nil)
	suite.data.On("CheckAndUpdateShowWatchStatus", suite.ctx, profileID, int64(1)).
		Return(&domain.StatusUpdateResult{Success: true, Changes: []domain.StatusChange{}}, nil)
	suite.data.On("CheckAndUpdateShowWatchStatus", suite.ctx, profileID, int64(2)).
		Return(&domain.StatusUpdateResult{Success: true, AffectedRows: 2, Changes: []domain.StatusChange{
			change(domain.EntitySeason, 20, domain.UpToDate, domain.Watching),
			change(domain.EntityShow, 2, domain.UpToDate, domain.Watching),
		}}, nil)
	suite.data.On("CheckAndUpdateMovieWatchStatus", suite.ctx, profileID, int64(42)).
		Return(&domain.StatusUpdateResult{Success: true, AffectedRows: 1, Changes: []domain.StatusChange{
			change(domain.EntityEpisode, 42, domain.Unaired, domain.NotWatched),
		}}, nil)
	suite.cache.On("InvalidateProfileCache", suite.ctx, accountID, profileID).Return(nil).Once()
	suite.notifier.On("Notify", suite.ctx, mock.MatchedBy(func(b domain.ChangeBatch) bool {
		return len(b.Changes) == 3
	})).Return(nil).Once()

	resp, err := suite.service.ReconcileProfile(suite.ctx, accountID, profileID)
	suite.Require().NoError(err)
	suite.Equal(int64(3), resp.AffectedRows)
	suite.Equal("Updated 1 season, 1 show, 1 episode", resp.Message)
}

func (suite *WatchStatusServiceTestSuite) TestReconcileProfileStopsOnFailure() {
	cause := errors.Database("checking and updating show watch status", stderrors.New("boom"))
	suite.content.On("ListProfileShowIDs", suite.ctx, profileID).Return([]int64{1}, nil)
	suite.content.On("ListProfileMovieIDs", suite.ctx, profileID).Return([]int64{}, nil)
	suite.data.On("CheckAndUpdateShowWatchStatus", suite.ctx, profileID, int64(1)).Return(nil, cause)

	_, err := suite.service.ReconcileProfile(suite.ctx, accountID, profileID)
	suite.Equal(cause, err)
}

func TestFormatChangesMessage(t *testing.T) {
	assert.Equal(t, "No status changes occurred", service.FormatChangesMessage(nil))

	msg := service.FormatChangesMessage([]domain.StatusChange{
		change(domain.EntityShow, 1, domain.NotWatched, domain.Watched),
		change(domain.EntitySeason, 2, domain.NotWatched, domain.Watched),
		change(domain.EntitySeason, 3, domain.NotWatched, domain.Watched),
		change(domain.EntityEpisode, 4, domain.NotWatched, domain.Watched),
		change(domain.EntityEpisode, 5, domain.NotWatched, domain.Watched),
	})
	assert.Equal(t, "Updated 1 show, 2 seasons, 2 episodes", msg)
}

func TestWatchStatusServiceOverDatabase(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDatabase(t)
	repo := repository.NewGormRepository(db.DB)
	svc := service.NewDataService(repo, database.NewTxManager(db.DB), domain.NewStatusCalculator(testutil.Clock), logger.NewNoop())
	testutil.NewCatalog(t, repo).
		Show(101112, false).
		Season(789, 101112, 1).
		Episode(456, 789, 101112, 1, testutil.DaysAgo(30))

	invalidator := new(MockInvalidator)
	invalidator.On("InvalidateProfileCache", ctx, accountID, profileID).Return(nil)
	notifier := new(MockNotifier)
	notifier.On("Notify", ctx, mock.Anything).Return(nil)
	watch := service.NewWatchStatusService(svc, repo, invalidator, notifier, logger.NewNoop())

	resp, err := watch.UpdateEpisodeWatchStatus(ctx, accountID, profileID, 456, domain.Watched)
	require.NoError(t, err)
	assert.Equal(t, "Updated 1 episode, 1 season, 1 show", resp.Message)

	resp, err = watch.CheckAndUpdateShowWatchStatus(ctx, accountID, profileID, 101112)
	require.NoError(t, err)
	assert.Equal(t, "Show status is already correct", resp.Message)
	assert.Zero(t, resp.AffectedRows)

	resp, err = watch.ReconcileProfile(ctx, accountID, profileID)
	require.NoError(t, err)
	assert.Equal(t, "No status changes occurred", resp.Message)

	invalidator.AssertNumberOfCalls(t, "InvalidateProfileCache", 1)
	notifier.AssertNumberOfCalls(t, "Notify", 1)
}
