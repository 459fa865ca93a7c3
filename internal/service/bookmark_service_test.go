package service

import (
	"context"
	"errors"
	"testing"

	"bookmarkhub-be/internal/dto"
	"bookmarkhub-be/internal/entity"
	"bookmarkhub-be/internal/repository/contract"
	"bookmarkhub-be/internal/repository/specification"
	"bookmarkhub-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookmarkRepo struct {
	bookmarks  []*entity.Bookmark
	created    []*entity.Bookmark
	updated    []*entity.Bookmark
	deleteRows int64
	deleteErr  error
	findOne    *entity.Bookmark
}

func (f *fakeBookmarkRepo) Create(_ context.Context, b *entity.Bookmark) error {
	f.created = append(f.created, b)
	return nil
}

func (f *fakeBookmarkRepo) Update(_ context.Context, b *entity.Bookmark) error {
	f.updated = append(f.updated, b)
	return nil
}

func (f *fakeBookmarkRepo) Delete(_ context.Context, _ ...specification.Specification) (int64, error) {
	return f.deleteRows, f.deleteErr
}

func (f *fakeBookmarkRepo) FindOne(_ context.Context, _ ...specification.Specification) (*entity.Bookmark, error) {
	return f.findOne, nil
}

func (f *fakeBookmarkRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.Bookmark, error) {
	return f.bookmarks, nil
}

func (f *fakeBookmarkRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return int64(len(f.bookmarks)), nil
}

type fakeUow struct {
	bookmarkRepo *fakeBookmarkRepo
}

func (f *fakeUow) Begin(_ context.Context) error { return nil }
func (f *fakeUow) Commit() error                 { return nil }
func (f *fakeUow) Rollback() error               { return nil }

func (f *fakeUow) UserRepository() contract.UserRepository         { return nil }
func (f *fakeUow) BookmarkRepository() contract.BookmarkRepository { return f.bookmarkRepo }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork { return f.uow }

type fakePublisher struct {
	published [][]byte
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func newTestService(repo *fakeBookmarkRepo, pub *fakePublisher) IBookmarkService {
	return NewBookmarkService(&fakeFactory{uow: &fakeUow{bookmarkRepo: repo}}, pub, nil, nopLogger{})
}

func TestBookmarkCreateTrimsFields(t *testing.T) {
	repo := &fakeBookmarkRepo{}
	svc := newTestService(repo, &fakePublisher{})
	owner := uuid.New()

	res, err := svc.Create(context.Background(), owner, &dto.CreateBookmarkRequest{
		Title:     "  Go docs  ",
		TargetURL: " https://go.dev ",
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "Go docs", repo.created[0].Title)
	assert.Equal(t, "https://go.dev", repo.created[0].TargetURL)
	assert.Equal(t, owner, repo.created[0].UserId)
	assert.Equal(t, res.Id, repo.created[0].Id)
}

func TestBookmarkCreateQueuesEnrichmentForUntitled(t *testing.T) {
	repo := &fakeBookmarkRepo{}
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	_, err := svc.Create(context.Background(), uuid.New(), &dto.CreateBookmarkRequest{
		Title:     "Untitled",
		TargetURL: "https://example.com",
	})
	require.NoError(t, err)
	assert.Len(t, pub.published, 1, "untitled creates go to the enrichment queue")

	_, err = svc.Create(context.Background(), uuid.New(), &dto.CreateBookmarkRequest{
		Title:     "Real title",
		TargetURL: "https://example.com",
	})
	require.NoError(t, err)
	assert.Len(t, pub.published, 1, "titled creates are not enriched")
}

func TestBookmarkCreateSurvivesEnrichmentQueueFailure(t *testing.T) {
	repo := &fakeBookmarkRepo{}
	pub := &fakePublisher{err: errors.New("bus down")}
	svc := newTestService(repo, pub)

	res, err := svc.Create(context.Background(), uuid.New(), &dto.CreateBookmarkRequest{
		Title:     "untitled",
		TargetURL: "https://example.com",
	})
	require.NoError(t, err, "a dead enrichment queue must not fail the create")
	assert.NotNil(t, res)
	assert.Len(t, repo.created, 1)
}

func TestBookmarkUpdateNotFound(t *testing.T) {
	repo := &fakeBookmarkRepo{findOne: nil}
	svc := newTestService(repo, &fakePublisher{})

	res, err := svc.Update(context.Background(), uuid.New(), &dto.UpdateBookmarkRequest{
		Id:        uuid.New(),
		Title:     "new",
		TargetURL: "https://example.com",
	})
	require.NoError(t, err)
	assert.Nil(t, res, "scoped miss maps to not found, not an error")
	assert.Empty(t, repo.updated)
}

func TestBookmarkDeleteMissIsNoop(t *testing.T) {
	repo := &fakeBookmarkRepo{deleteRows: 0}
	svc := newTestService(repo, &fakePublisher{})

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	assert.NoError(t, err, "deleting an absent or foreign row is a no-op")
}

func TestBookmarkDeletePropagatesStoreError(t *testing.T) {
	repo := &fakeBookmarkRepo{deleteErr: errors.New("connection reset")}
	svc := newTestService(repo, &fakePublisher{})

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	assert.Error(t, err)
}

func TestBookmarkListMapsEntities(t *testing.T) {
	owner := uuid.New()
	repo := &fakeBookmarkRepo{bookmarks: []*entity.Bookmark{
		{Id: uuid.New(), Title: "a", TargetURL: "https://a.test", UserId: owner},
		{Id: uuid.New(), Title: "b", TargetURL: "https://b.test", UserId: owner},
	}}
	svc := newTestService(repo, &fakePublisher{})

	res, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a", res[0].Title)
	assert.Equal(t, owner, res[0].UserId)
}
