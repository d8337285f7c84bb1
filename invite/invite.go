// Package invite implements C7: inviting a user into an organization or
// project and accepting that invite as the atomic membership + baseline
// role grant described in spec §1.10 and exercised by scenario S6.
//
// Grounded on store/invites.go's own doc comment, which already named this
// package as the intended home for acceptance orchestration, and on
// store.RoleAssignmentRepository.CreateWithMembership for the transactional
// write; token generation follows credential.GenerateAPIKey's entropy-byte
// + base64 shape, generalized from a credential to a single-use invite
// token.
package invite

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"iamkernel/apperror"
	"iamkernel/model"
	"iamkernel/store"
)

// TTL is the maximum lifetime of an invite token (spec §1.10: "<= 15 min").
const TTL = 15 * time.Minute

// tokenBytes is the amount of random entropy in a generated invite token.
const tokenBytes = 24

// Orchestrator ties the invite, membership and role-assignment repositories
// together so Create/Accept are each a single atomic unit from the caller's
// perspective.
type Orchestrator struct {
	invites     *store.InviteRepository
	assignments *store.RoleAssignmentRepository
	roles       *store.RoleRepository
}

func New(invites *store.InviteRepository, assignments *store.RoleAssignmentRepository, roles *store.RoleRepository) *Orchestrator {
	return &Orchestrator{invites: invites, assignments: assignments, roles: roles}
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "failed to generate invite token", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create issues an invite for email to join resourceID (an organization or
// project, per kind). If a live (unexpired) invite already exists for this
// exact (email, resourceID) pair, it is returned unchanged rather than
// duplicated - re-inviting the same address is idempotent. An expired row
// for the same pair is deleted and replaced with a fresh one.
func (o *Orchestrator) Create(ctx context.Context, email string, kind model.ResourceKind, resourceID string, invitedBy uuid.UUID) (*model.Invite, error) {
	if existing, err := o.invites.GetLiveByEmailAndResource(ctx, email, resourceID); err == nil {
		return existing, nil
	} else if apperror.KindOf(err) != apperror.KindNotFound {
		return nil, err
	}

	if err := o.invites.DeleteByEmailAndResource(ctx, email, resourceID); err != nil {
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	inv := &model.Invite{
		Email:           email,
		ResourceID:      resourceID,
		ResourceKind:    kind,
		TemporaryToken:  token,
		InvitedByUserID: invitedBy,
		ExpiresAt:       time.Now().Add(TTL),
	}
	if err := o.invites.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Accept atomically converts a presented token into membership plus the
// baseline role for the invite's resource kind, then deletes the invite so
// it can never be replayed. An expired invite is deleted and rejected
// without granting anything; any failure after lookup (including the
// membership/role write itself) leaves the invite row intact so the caller
// can retry with the same token.
func (o *Orchestrator) Accept(ctx context.Context, token string, acceptingUser uuid.UUID) (*model.Invite, error) {
	inv, err := o.invites.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if inv.ExpiresAt.Before(time.Now()) {
		_ = o.invites.DeleteByID(ctx, inv.ID)
		return nil, apperror.New(apperror.KindExpired, "invite has expired")
	}

	baselineRole, err := o.roles.GetByName(ctx, baselineRoleName(inv.ResourceKind))
	if err != nil {
		return nil, err
	}

	if err := o.assignments.CreateWithMembership(ctx, inv.ResourceKind, inv.ResourceID, acceptingUser, baselineRole.ID); err != nil {
		return nil, err
	}

	if err := o.invites.DeleteByID(ctx, inv.ID); err != nil {
		return nil, err
	}
	return inv, nil
}

// baselineRoleName maps a resource kind to the name of the read-only role
// granted automatically on acceptance (spec §1.10).
func baselineRoleName(kind model.ResourceKind) string {
	if kind == model.ResourceKindProject {
		return "ProjectViewer"
	}
	return "OrganizationViewer"
}
