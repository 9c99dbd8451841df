package rolerequest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/database"
	"github.com/sharath018/campus-events-backend/internal/auditlog"
	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/internal/notification"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
	"github.com/sharath018/campus-events-backend/utils"
)

type UserLookup interface {
	FindByID(ctx context.Context, userID uint) (*auth.User, error)
}

type Notifier interface {
	NotifyUser(ctx context.Context, in notification.CreateInput) (bool, error)
}

// RoleClaims mirrors a user's role into the identity provider. Optional.
type RoleClaims interface {
	SetRole(ctx context.Context, user auth.User) error
}

type Service interface {
	Create(ctx context.Context, userID uint, in CreateInput) (*RoleRequest, error)
	CancelPending(ctx context.Context, userID uint) error
	Approve(ctx context.Context, adminID, requestID uint) (*RoleRequest, error)
	Reject(ctx context.Context, adminID, requestID uint, reason string) (*RoleRequest, error)
	List(ctx context.Context, status Status) ([]RoleRequest, error)
	ListForUser(ctx context.Context, userID uint) ([]RoleRequest, error)
}

type service struct {
	repo     Repository
	users    UserLookup
	notifier Notifier
	claims   RoleClaims
	audit    auditlog.Service
	clock    utils.Clock
	log      zerolog.Logger
}

func NewService(repo Repository, users UserLookup, notifier Notifier, claims RoleClaims, audit auditlog.Service, clock utils.Clock, log zerolog.Logger) Service {
	return &service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		claims:   claims,
		audit:    audit,
		clock:    clock,
		log:      log.With().Str("component", "role_requests").Logger(),
	}
}

func (s *service) Create(ctx context.Context, userID uint, in CreateInput) (*RoleRequest, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	if in.RequestedRole == user.Role {
		return nil, apperror.Conflict(apperror.CodeDuplicate, "User already has this role")
	}

	rr := &RoleRequest{
		UserID:        userID,
		RequestedRole: in.RequestedRole,
		Description:   strings.TrimSpace(in.Description),
		Status:        StatusPending,
	}
	switch in.RequestedRole {
	case auth.RoleStudentRep:
		rr.University = strings.TrimSpace(in.University)
		rr.Represents = strings.TrimSpace(in.Represents)
		if rr.University == "" || rr.Represents == "" {
			return nil, apperror.Validation(apperror.CodeInvalidInput, "Fields 'university' and 'represents' are required for Student Representatives.")
		}
	case auth.RoleOrganizer:
		rr.OrganizationName = strings.TrimSpace(in.OrganizationName)
		if rr.OrganizationName == "" {
			return nil, apperror.Validation(apperror.CodeInvalidInput, "Field 'organizationName' is required for Organizers.")
		}
	default:
		return nil, apperror.Validation(apperror.CodeInvalidInput, "Invalid role for request")
	}

	if err := s.repo.Create(ctx, rr); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict(apperror.CodeDuplicate, "You already have a pending request.")
		}
		return nil, apperror.Internal(err)
	}
	s.log.Info().Uint("user_id", userID).Str("role", rr.RequestedRole).Msg("📝 role request created")
	return rr, nil
}

func (s *service) CancelPending(ctx context.Context, userID uint) error {
	if err := s.repo.DeletePending(ctx, userID); err != nil {
		return notFoundOr(err, "No pending role request found for this user.")
	}
	return nil
}

func (s *service) Approve(ctx context.Context, adminID, requestID uint) (*RoleRequest, error) {
	rr, err := s.pending(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.repo.Approve(ctx, rr.ID, adminID, now, rr.affiliationFields()); err != nil {
		return nil, settleError(err)
	}
	rr.Status = StatusApproved
	rr.ProcessedBy = &adminID
	rr.ProcessedAt = &now

	if s.claims != nil {
		if user, err := s.users.FindByID(ctx, rr.UserID); err == nil {
			if err := s.claims.SetRole(ctx, *user); err != nil {
				s.log.Warn().Err(err).Uint("user_id", rr.UserID).Msg("failed to sync role claim")
			}
		}
	}

	s.notify(ctx, rr, notification.TypeRoleApproved, "Role Request Approved",
		fmt.Sprintf("Your request for %s role has been approved!", roleLabel(rr.RequestedRole)))
	s.audit.LogAction(ctx, auditlog.Entry{
		UserID:  &adminID,
		Action:  auditlog.ActionRoleRequestApproved,
		Details: map[string]interface{}{"request_id": rr.ID, "user_id": rr.UserID, "role": rr.RequestedRole},
	})
	return rr, nil
}

func (s *service) Reject(ctx context.Context, adminID, requestID uint, reason string) (*RoleRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "Rejection reason is required")
	}
	rr, err := s.pending(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.repo.Reject(ctx, rr.ID, adminID, now, reason); err != nil {
		return nil, settleError(err)
	}
	rr.Status = StatusRejected
	rr.RejectionReason = reason
	rr.ProcessedBy = &adminID
	rr.ProcessedAt = &now

	s.notify(ctx, rr, notification.TypeRoleRejected, "Role Request Rejected",
		fmt.Sprintf("Your request for %s role has been rejected. Reason: %s", roleLabel(rr.RequestedRole), reason))
	s.audit.LogAction(ctx, auditlog.Entry{
		UserID:  &adminID,
		Action:  auditlog.ActionRoleRequestRejected,
		Details: map[string]interface{}{"request_id": rr.ID, "user_id": rr.UserID, "reason": reason},
	})
	return rr, nil
}

func (s *service) List(ctx context.Context, status Status) ([]RoleRequest, error) {
	items, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return items, nil
}

func (s *service) ListForUser(ctx context.Context, userID uint) ([]RoleRequest, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return items, nil
}

func (s *service) pending(ctx context.Context, id uint) (*RoleRequest, error) {
	rr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Request not found")
	}
	if rr.Status != StatusPending {
		return nil, errProcessed()
	}
	return rr, nil
}

func (s *service) notify(ctx context.Context, rr *RoleRequest, typ notification.Type, title, msg string) {
	requestID := rr.ID
	if _, err := s.notifier.NotifyUser(ctx, notification.CreateInput{
		UserID:           rr.UserID,
		Title:            title,
		Message:          msg,
		Type:             typ,
		RelatedRequestID: &requestID,
	}); err != nil {
		s.log.Warn().Err(err).Uint("request_id", rr.ID).Msg("failed to notify role request outcome")
	}
}

func roleLabel(role string) string {
	return strings.ReplaceAll(role, "_", " ")
}

func errProcessed() error {
	return apperror.Conflict(apperror.CodeAlreadyProcessed, "Request already processed")
}

func settleError(err error) error {
	if errors.Is(err, ErrAlreadyProcessed) {
		return errProcessed()
	}
	return apperror.Internal(err)
}

func notFoundOr(err error, msg string) error {
	if database.IsNotFound(err) {
		return apperror.NotFound(msg)
	}
	return apperror.Internal(err)
}
