package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
)

type shareFixture struct {
	svc    *ShareService
	users  *userRepoMock
	lists  *listRepoMock
	shares *shareRepoMock
	events *eventRecorderMock
}

func newShareFixture() *shareFixture {
	users := newUserRepoMock()
	lists := newListRepoMock()
	shares := newShareRepoMock()
	events := &eventRecorderMock{}
	permissions := NewPermissionService(lists, shares)

	return &shareFixture{
		svc:    NewShareService(shares, users, permissions, events, nil),
		users:  users,
		lists:  lists,
		shares: shares,
		events: events,
	}
}

func TestGrantShare(t *testing.T) {
	f := newShareFixture()
	owner := f.users.add(domain.User{Email: "owner@example.com"})
	grantee := f.users.add(domain.User{Email: "friend@example.com"})
	list := f.lists.addList(domain.GroceryList{Name: "Weekly shop", OwnerID: owner.ID})

	grant, err := f.svc.Grant(context.Background(), owner.ID, list.ID, "Friend@Example.com", domain.ShareRoleEditor)
	if err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if grant.Share.UserID != grantee.ID || grant.Share.Role != domain.ShareRoleEditor {
		t.Fatalf("unexpected grant: %+v", grant.Share)
	}
	if grant.Email != "friend@example.com" {
		t.Fatalf("expected grantee email on the grant, got %q", grant.Email)
	}

	if len(f.events.shared) != 1 {
		t.Fatalf("expected one shared event, got %d", len(f.events.shared))
	}
	if f.events.shared[0].UserID != grantee.ID || f.events.shared[0].ListID != list.ID {
		t.Fatalf("unexpected event: %+v", f.events.shared[0])
	}
}

func TestGrantShareRejections(t *testing.T) {
	f := newShareFixture()
	owner := f.users.add(domain.User{Email: "owner@example.com"})
	grantee := f.users.add(domain.User{Email: "friend@example.com"})
	list := f.lists.addList(domain.GroceryList{Name: "Weekly shop", OwnerID: owner.ID})

	if _, err := f.svc.Grant(context.Background(), owner.ID, list.ID, "owner@example.com", domain.ShareRoleEditor); !errors.Is(err, ErrSelfShare) {
		t.Fatalf("self share: expected ErrSelfShare, got %v", err)
	}
	if _, err := f.svc.Grant(context.Background(), owner.ID, list.ID, "nobody@example.com", domain.ShareRoleEditor); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown grantee: expected ErrUserNotFound, got %v", err)
	}
	if _, err := f.svc.Grant(context.Background(), owner.ID, list.ID, "friend@example.com", domain.ShareRole("admin")); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("bad role: expected ErrInvalidRole, got %v", err)
	}

	// Share management is owner only; grantees see the list as nonexistent.
	if _, err := f.svc.Grant(context.Background(), grantee.ID, list.ID, "owner@example.com", domain.ShareRoleEditor); !errors.Is(err, ErrListNotFound) {
		t.Fatalf("non-owner: expected ErrListNotFound, got %v", err)
	}
}

func TestGrantTwiceUpdatesRoleInPlace(t *testing.T) {
	f := newShareFixture()
	owner := f.users.add(domain.User{Email: "owner@example.com"})
	grantee := f.users.add(domain.User{Email: "friend@example.com"})
	list := f.lists.addList(domain.GroceryList{Name: "Weekly shop", OwnerID: owner.ID})

	first, err := f.svc.Grant(context.Background(), owner.ID, list.ID, "friend@example.com", domain.ShareRoleViewer)
	if err != nil {
		t.Fatalf("first Grant returned error: %v", err)
	}

	// The grantee hides the list before the role changes.
	if err := f.shares.SetHidden(context.Background(), list.ID, grantee.ID, true); err != nil {
		t.Fatalf("SetHidden returned error: %v", err)
	}

	second, err := f.svc.Grant(context.Background(), owner.ID, list.ID, "friend@example.com", domain.ShareRoleEditor)
	if err != nil {
		t.Fatalf("second Grant returned error: %v", err)
	}

	if second.Share.ID != first.Share.ID {
		t.Fatalf("expected the existing share row to be updated, got new id %d", second.Share.ID)
	}
	if second.Share.Role != domain.ShareRoleEditor {
		t.Fatalf("expected editor role, got %s", second.Share.Role)
	}
	if !second.Share.Hidden {
		t.Fatal("re-granting must not reset the grantee's hidden preference")
	}
}

func TestUpdateRoleAndRevoke(t *testing.T) {
	f := newShareFixture()
	owner := f.users.add(domain.User{Email: "owner@example.com"})
	f.users.add(domain.User{Email: "friend@example.com"})
	list := f.lists.addList(domain.GroceryList{Name: "Weekly shop", OwnerID: owner.ID})
	otherList := f.lists.addList(domain.GroceryList{Name: "Other", OwnerID: owner.ID})

	grant, err := f.svc.Grant(context.Background(), owner.ID, list.ID, "friend@example.com", domain.ShareRoleViewer)
	if err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}

	updated, err := f.svc.UpdateRole(context.Background(), owner.ID, list.ID, grant.Share.ID, domain.ShareRoleEditor)
	if err != nil {
		t.Fatalf("UpdateRole returned error: %v", err)
	}
	if updated.Role != domain.ShareRoleEditor {
		t.Fatalf("expected editor role, got %s", updated.Role)
	}

	// A share id addressed through the wrong list must not resolve.
	if _, err := f.svc.UpdateRole(context.Background(), owner.ID, otherList.ID, grant.Share.ID, domain.ShareRoleViewer); !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("cross-list update: expected ErrShareNotFound, got %v", err)
	}
	if err := f.svc.Revoke(context.Background(), owner.ID, otherList.ID, grant.Share.ID); !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("cross-list revoke: expected ErrShareNotFound, got %v", err)
	}

	if err := f.svc.Revoke(context.Background(), owner.ID, list.ID, grant.Share.ID); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if _, err := f.shares.GetByID(context.Background(), grant.Share.ID); err == nil {
		t.Fatal("expected the share to be deleted")
	}
}

func TestSharesListingIsOwnerOnly(t *testing.T) {
	f := newShareFixture()
	owner := f.users.add(domain.User{Email: "owner@example.com"})
	grantee := f.users.add(domain.User{Email: "friend@example.com"})
	list := f.lists.addList(domain.GroceryList{Name: "Weekly shop", OwnerID: owner.ID})

	if _, err := f.svc.Grant(context.Background(), owner.ID, list.ID, "friend@example.com", domain.ShareRoleEditor); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}

	grants, err := f.svc.Shares(context.Background(), owner.ID, list.ID)
	if err != nil {
		t.Fatalf("Shares returned error: %v", err)
	}
	if len(grants) != 1 || grants[0].Email != "friend@example.com" {
		t.Fatalf("unexpected grants: %+v", grants)
	}

	if _, err := f.svc.Shares(context.Background(), grantee.ID, list.ID); !errors.Is(err, ErrListNotFound) {
		t.Fatalf("grantee listing shares: expected ErrListNotFound, got %v", err)
	}
}
