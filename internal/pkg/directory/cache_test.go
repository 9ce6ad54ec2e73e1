package directory_test

import (
	"context"
	"testing"
	"time"

	"Fellowship/internal/pkg/directory"
	"Fellowship/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDirectory is a mock implementation of directory.Directory for testing
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetUser(ctx context.Context, id uint64) (*directory.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.User), args.Error(1)
}

func (m *MockDirectory) GetUsers(ctx context.Context, ids []uint64) (map[uint64]*directory.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint64]*directory.User), args.Error(1)
}

func (m *MockDirectory) ListUsersByBranch(ctx context.Context, branchID uint64) ([]*directory.User, error) {
	args := m.Called(ctx, branchID)
	return args.Get(0).([]*directory.User), args.Error(1)
}

func (m *MockDirectory) ListUsersByMC(ctx context.Context, mcID uint64) ([]*directory.User, error) {
	args := m.Called(ctx, mcID)
	return args.Get(0).([]*directory.User), args.Error(1)
}

func (m *MockDirectory) ListAllUsers(ctx context.Context) ([]*directory.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*directory.User), args.Error(1)
}

func (m *MockDirectory) GetBranch(ctx context.Context, id uint64) (*directory.Branch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Branch), args.Error(1)
}

func (m *MockDirectory) GetMC(ctx context.Context, id uint64) (*directory.MC, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.MC), args.Error(1)
}

func (m *MockDirectory) HeadquartersBranchIDs(ctx context.Context) ([]uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uint64), args.Error(1)
}

func TestCachedDirectory_GetUserHitsBackendOnce(t *testing.T) {
	rdb, mr := testhelpers.NewRedis(t)
	backend := new(MockDirectory)
	backend.On("GetUser", mock.Anything, uint64(5)).
		Return(&directory.User{ID: 5, Name: "Eve"}, nil).Once()

	dir := directory.NewCachedDirectory(backend, rdb, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u, err := dir.GetUser(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, "Eve", u.Name)
	}
	backend.AssertExpectations(t)
	assert.True(t, mr.Exists("chat:directory:user:5"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("chat:directory:user:5"))
}

func TestCachedDirectory_Invalidate(t *testing.T) {
	rdb, _ := testhelpers.NewRedis(t)
	backend := new(MockDirectory)
	backend.On("GetUser", mock.Anything, uint64(5)).
		Return(&directory.User{ID: 5, Name: "Eve"}, nil).Once()
	backend.On("GetUser", mock.Anything, uint64(5)).
		Return(&directory.User{ID: 5, Name: "Eve Renamed"}, nil).Once()

	dir := directory.NewCachedDirectory(backend, rdb, time.Minute)
	ctx := context.Background()

	_, err := dir.GetUser(ctx, 5)
	require.NoError(t, err)
	require.NoError(t, dir.Invalidate(ctx, 5))

	u, err := dir.GetUser(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Eve Renamed", u.Name)
	backend.AssertExpectations(t)
}

func TestCachedDirectory_GetUsersFetchesOnlyMisses(t *testing.T) {
	rdb, _ := testhelpers.NewRedis(t)
	backend := new(MockDirectory)
	backend.On("GetUser", mock.Anything, uint64(1)).
		Return(&directory.User{ID: 1, Name: "Ann"}, nil).Once()
	backend.On("GetUsers", mock.Anything, []uint64{2}).
		Return(map[uint64]*directory.User{2: {ID: 2, Name: "Bob"}}, nil).Once()

	dir := directory.NewCachedDirectory(backend, rdb, time.Minute)
	ctx := context.Background()

	_, err := dir.GetUser(ctx, 1)
	require.NoError(t, err)

	users, err := dir.GetUsers(ctx, []uint64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "Ann", users[1].Name)
	assert.Equal(t, "Bob", users[2].Name)
	backend.AssertExpectations(t)
}

func TestCachedDirectory_PassThroughOnMiss(t *testing.T) {
	rdb, _ := testhelpers.NewRedis(t)
	backend := new(MockDirectory)
	backend.On("GetUser", mock.Anything, uint64(9)).Return(nil, directory.ErrNotFound)
	backend.On("GetMC", mock.Anything, uint64(4)).Return(&directory.MC{ID: 4, BranchID: 1}, nil)

	dir := directory.NewCachedDirectory(backend, rdb, time.Minute)
	ctx := context.Background()

	_, err := dir.GetUser(ctx, 9)
	assert.ErrorIs(t, err, directory.ErrNotFound)

	mc, err := dir.GetMC(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), mc.BranchID)
}
