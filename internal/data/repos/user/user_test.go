package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/tilegen-backend/internal/data/repos/testutil"
	types "github.com/yungbote/tilegen-backend/internal/domain"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, tx, []*types.User{{
		ID:    uuid.New(),
		Email: "  UserRepo@Example.com ",
		Name:  "Tile Maker",
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created[0].Email != "userrepo@example.com" {
		t.Fatalf("Create email: want=%q got=%q", "userrepo@example.com", created[0].Email)
	}

	gotByIDs, err := repo.GetByIDs(ctx, tx, []uuid.UUID{created[0].ID})
	if err != nil || len(gotByIDs) != 1 || gotByIDs[0].ID != created[0].ID {
		t.Fatalf("GetByIDs: got=%+v err=%v", gotByIDs, err)
	}

	byEmail, err := repo.GetByEmail(ctx, tx, "USERREPO@example.com")
	if err != nil || byEmail == nil || byEmail.ID != created[0].ID {
		t.Fatalf("GetByEmail: got=%+v err=%v", byEmail, err)
	}
	missing, err := repo.GetByEmail(ctx, tx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Fatalf("GetByEmail missing: want=nil got=%+v err=%v", missing, err)
	}

	if err := repo.UpdateStatus(ctx, tx, created[0].ID, types.UserStatusDisabled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	gotByIDs, _ = repo.GetByIDs(ctx, tx, []uuid.UUID{created[0].ID})
	if gotByIDs[0].Status != types.UserStatusDisabled || gotByIDs[0].IsActive() {
		t.Fatalf("UpdateStatus: want=%v got=%v", types.UserStatusDisabled, gotByIDs[0].Status)
	}
}

func TestUserRepoEnsureActive(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	u, created, err := repo.EnsureActive(ctx, tx, "New@Example.com", "newbie")
	if err != nil || !created {
		t.Fatalf("EnsureActive first: created=%v err=%v", created, err)
	}
	if !u.IsActive() || u.Role != types.UserRoleCreator || u.Email != "new@example.com" {
		t.Fatalf("EnsureActive first: got=%+v", u)
	}

	again, created, err := repo.EnsureActive(ctx, tx, "new@example.com", "other")
	if err != nil || created {
		t.Fatalf("EnsureActive second: created=%v err=%v", created, err)
	}
	if again.ID != u.ID || again.Username != "newbie" {
		t.Fatalf("EnsureActive second: want id=%v username=newbie got=%+v", u.ID, again)
	}

	at := time.Now().UTC().Truncate(time.Second)
	if err := repo.TouchLastLogin(ctx, tx, u.ID, at); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	got, _ := repo.GetByEmail(ctx, tx, "new@example.com")
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Fatalf("TouchLastLogin: want=%v got=%v", at, got.LastLoginAt)
	}
}
