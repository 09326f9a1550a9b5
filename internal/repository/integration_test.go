//go:build integration

// 実PostgreSQLコンテナに対するリポジトリの結合テスト。
//
//	go test -v -tags=integration ./internal/repository/...
package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/hitoshi/mossy/internal/database"
	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
)

func setupContainer(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		tcpostgres.WithDatabase("mossy_test"),
		tcpostgres.WithUsername("mossy"),
		tcpostgres.WithPassword("mossy"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if termErr := container.Terminate(ctx); termErr != nil {
			t.Logf("failed to terminate postgres container: %v", termErr)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if _, err := database.RunMigrations(connStr); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db, err := database.Open(connStr, database.PoolConfig{MaxOpenConns: 5})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func createUser(t *testing.T, repo *repository.PostgresUserRepo, appleUserID string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	user, err := repo.UpsertLogin(context.Background(), &model.User{
		ID:            newID(),
		Email:         appleUserID + "@example.com",
		AppleUserID:   appleUserID,
		Token:         uuid.NewString(),
		Theme:         model.DefaultThemeSettings(),
		TokenIssuedAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("UpsertLogin: %v", err)
	}
	return user
}

func TestIntegration_UserUpsertLogin(t *testing.T) {
	db := setupContainer(t)
	ctx := context.Background()
	repo := repository.NewPostgresUserRepo(db)

	first := createUser(t, repo, "apple-sub-1")
	if first.Theme.ColorTheme != model.DefaultColorTheme {
		t.Errorf("ColorTheme = %d, want %d", first.Theme.ColorTheme, model.DefaultColorTheme)
	}

	if _, err := repo.UpdateTheme(ctx, first.ID, model.ThemeSettings{DarkMode: true, ColorTheme: 4}); err != nil {
		t.Fatalf("UpdateTheme: %v", err)
	}

	// 2回目のログインはトークンだけを差し替える
	now := time.Now().UTC()
	second, err := repo.UpsertLogin(ctx, &model.User{
		ID:            newID(),
		Email:         "other@example.com",
		AppleUserID:   "apple-sub-1",
		Token:         "second-token",
		Theme:         model.DefaultThemeSettings(),
		TokenIssuedAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("UpsertLogin: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("ID changed: %s -> %s", first.ID, second.ID)
	}
	if second.Email != first.Email {
		t.Errorf("Email = %q, want %q", second.Email, first.Email)
	}
	if second.Token != "second-token" {
		t.Errorf("Token = %q", second.Token)
	}
	if !second.Theme.DarkMode || second.Theme.ColorTheme != 4 {
		t.Errorf("theme not preserved: %+v", second.Theme)
	}

	old, err := repo.FindByToken(ctx, repository.ByToken(first.Token))
	if err != nil {
		t.Fatalf("FindByToken: %v", err)
	}
	if old != nil {
		t.Error("old token should no longer resolve")
	}

	got, err := repo.FindByToken(ctx, repository.ByTokenAndAppleUserID("second-token", "apple-sub-1"))
	if err != nil || got == nil {
		t.Fatalf("FindByToken = %v, %v", got, err)
	}

	mismatch, err := repo.FindByToken(ctx, repository.ByTokenAndAppleUserID("second-token", "apple-sub-2"))
	if err != nil {
		t.Fatalf("FindByToken: %v", err)
	}
	if mismatch != nil {
		t.Error("mismatched subject should not resolve")
	}
}

func TestIntegration_TaskListWithLatestEvent(t *testing.T) {
	db := setupContainer(t)
	ctx := context.Background()
	users := repository.NewPostgresUserRepo(db)
	tasks := repository.NewPostgresTaskRepo(db)
	events := repository.NewPostgresEventRepo(db)

	user := createUser(t, users, "apple-sub-1")
	withEvents := &model.Task{ID: newID(), UserID: user.ID, Name: "筋トレ", Frequency: 7, Tags: []string{newID()}, CreatedAt: time.Now()}
	withoutEvents := &model.Task{ID: newID(), UserID: user.ID, Name: "読書", Frequency: 1, CreatedAt: time.Now()}
	if err := tasks.CreateMany(ctx, []*model.Task{withEvents, withoutEvents}); err != nil {
		t.Fatalf("CreateMany: %v", err)
	}

	older := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2023, 10, 5, 0, 0, 0, 0, time.UTC)
	if err := events.CreateMany(ctx, []*model.Event{
		{ID: newID(), TaskID: withEvents.ID, UserID: user.ID, Date: older},
		{ID: newID(), TaskID: withEvents.ID, UserID: user.ID, Date: newer},
	}); err != nil {
		t.Fatalf("CreateMany events: %v", err)
	}

	rows, err := tasks.ListWithLatestEvent(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListWithLatestEvent: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	for _, row := range rows {
		switch row.ID {
		case withEvents.ID:
			if row.LatestEventDate == nil || !row.LatestEventDate.Equal(newer) {
				t.Errorf("LatestEventDate = %v, want %v", row.LatestEventDate, newer)
			}
			if len(row.Tags) != 1 || row.Tags[0] != withEvents.Tags[0] {
				t.Errorf("Tags = %v", row.Tags)
			}
		case withoutEvents.ID:
			if row.LatestEventDate != nil {
				t.Errorf("LatestEventDate = %v, want nil", row.LatestEventDate)
			}
		default:
			t.Errorf("unexpected task %s", row.ID)
		}
	}
}

func TestIntegration_OwnerScopedMutations(t *testing.T) {
	db := setupContainer(t)
	ctx := context.Background()
	users := repository.NewPostgresUserRepo(db)
	tasks := repository.NewPostgresTaskRepo(db)

	alice := createUser(t, users, "apple-alice")
	bob := createUser(t, users, "apple-bob")
	task := &model.Task{ID: newID(), UserID: alice.ID, Name: "散歩", Frequency: 2, CreatedAt: time.Now()}
	if err := tasks.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := tasks.Update(ctx, task.ID, bob.ID, repository.TaskUpdate{Name: "乗っ取り", Frequency: 1})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.MatchedCount != 0 {
		t.Errorf("MatchedCount = %d, want 0", res.MatchedCount)
	}

	deleted, err := tasks.DeleteByIDs(ctx, []string{task.ID}, bob.ID)
	if err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}

	res, err = tasks.Update(ctx, task.ID, alice.ID, repository.TaskUpdate{Name: "散歩30分", Frequency: 3})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.MatchedCount != 1 || res.ModifiedCount != 1 {
		t.Errorf("result = %+v", res)
	}

	got, err := tasks.FindByID(ctx, task.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID = %v, %v", got, err)
	}
	if got.Name != "散歩30分" || got.Frequency != 3 {
		t.Errorf("task = %+v", got)
	}
}

func TestIntegration_EventsOrderingAndTaskName(t *testing.T) {
	db := setupContainer(t)
	ctx := context.Background()
	users := repository.NewPostgresUserRepo(db)
	tasks := repository.NewPostgresTaskRepo(db)
	events := repository.NewPostgresEventRepo(db)

	user := createUser(t, users, "apple-sub-1")
	task := &model.Task{ID: newID(), UserID: user.ID, Name: "瞑想", Frequency: 1, CreatedAt: time.Now()}
	if err := tasks.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sameDate := time.Date(2023, 10, 1, 5, 43, 48, 487000000, time.UTC)
	first := &model.Event{ID: newID(), TaskID: task.ID, UserID: user.ID, Date: sameDate}
	second := &model.Event{ID: newID(), TaskID: task.ID, UserID: user.ID, Date: sameDate}
	orphan := &model.Event{ID: newID(), TaskID: newID(), UserID: user.ID, Date: sameDate.Add(time.Hour)}
	for _, e := range []*model.Event{first, second, orphan} {
		if err := events.Create(ctx, e); err != nil {
			t.Fatalf("Create event: %v", err)
		}
	}

	list, err := events.ListByUserID(ctx, user.ID, repository.NewPage(10, 0))
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	// date降順、同日時はid降順（UUIDv7なので後に採番したものが先）
	wantOrder := []string{orphan.ID, second.ID, first.ID}
	if len(list) != len(wantOrder) {
		t.Fatalf("len = %d, want %d", len(list), len(wantOrder))
	}
	for i, id := range wantOrder {
		if list[i].ID != id {
			t.Errorf("list[%d] = %s, want %s", i, list[i].ID, id)
		}
	}

	named, err := events.ListWithTaskName(ctx, user.ID, repository.NewPage(10, 0))
	if err != nil {
		t.Fatalf("ListWithTaskName: %v", err)
	}
	if named[0].TaskName != nil {
		t.Errorf("orphan TaskName = %q, want nil", *named[0].TaskName)
	}
	if named[1].TaskName == nil || *named[1].TaskName != "瞑想" {
		t.Errorf("TaskName = %v", named[1].TaskName)
	}

	// limit 0は件数無制限
	all, err := events.ListByUserID(ctx, user.ID, repository.NewPage(0, 0))
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if len(all) != len(wantOrder) {
		t.Errorf("limit 0 returned %d events, want %d", len(all), len(wantOrder))
	}

	rest, err := events.ListByUserID(ctx, user.ID, repository.NewPage(0, 1))
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if len(rest) != 2 || rest[0].ID != second.ID {
		t.Errorf("limit 0 offset 1 = %v", rest)
	}

	namedAll, err := events.ListWithTaskName(ctx, user.ID, repository.NewPage(0, 0))
	if err != nil {
		t.Fatalf("ListWithTaskName: %v", err)
	}
	if len(namedAll) != len(wantOrder) {
		t.Errorf("limit 0 returned %d named events, want %d", len(namedAll), len(wantOrder))
	}

	paged, err := events.ListByUserID(ctx, user.ID, repository.NewPage(1, 1))
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if len(paged) != 1 || paged[0].ID != second.ID {
		t.Errorf("paged = %v", paged)
	}
}

func TestIntegration_TagsOrderingAndDeleteByUser(t *testing.T) {
	db := setupContainer(t)
	ctx := context.Background()
	users := repository.NewPostgresUserRepo(db)
	tags := repository.NewPostgresTagRepo(db)

	user := createUser(t, users, "apple-sub-1")
	desc := "朝の習慣"
	b := &model.Tag{ID: newID(), UserID: user.ID, Name: "b"}
	a1 := &model.Tag{ID: newID(), UserID: user.ID, Name: "a", Description: &desc}
	a2 := &model.Tag{ID: newID(), UserID: user.ID, Name: "a", ParentTagID: &b.ID}
	if err := tags.CreateMany(ctx, []*model.Tag{b, a1, a2}); err != nil {
		t.Fatalf("CreateMany: %v", err)
	}

	list, err := tags.ListByUserID(ctx, user.ID, repository.NewPage(10, 0))
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	wantOrder := []string{a2.ID, a1.ID, b.ID}
	for i, id := range wantOrder {
		if list[i].ID != id {
			t.Errorf("list[%d] = %s, want %s", i, list[i].ID, id)
		}
	}
	if list[0].ParentTagID == nil || *list[0].ParentTagID != b.ID {
		t.Errorf("ParentTagID = %v", list[0].ParentTagID)
	}
	if list[1].Description == nil || *list[1].Description != desc {
		t.Errorf("Description = %v", list[1].Description)
	}

	// limit 0は件数無制限
	all, err := tags.ListByUserID(ctx, user.ID, repository.NewPage(0, 0))
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("limit 0 returned %d tags, want 3", len(all))
	}

	n, err := tags.DeleteByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("DeleteByUserID: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}
}
