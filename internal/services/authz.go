package services

import (
	"errors"

	"github.com/gradia/backend/internal/models"
	"github.com/gradia/backend/pkg/logger"
	"gorm.io/gorm"
)

// ResolutionSource identifies which authority source granted a role.
// It is recorded for logging and diagnostics only and must never be
// reported to unauthorized callers.
type ResolutionSource string

const (
	SourceMembership    ResolutionSource = "membership"
	SourceLegacyStudent ResolutionSource = "legacy_principal_student"
	SourceLegacyDirector ResolutionSource = "legacy_director"
	SourceWorkArea      ResolutionSource = "work_area_fallback"
)

// Resolution is the effective project-scoped role of a user and the
// source that granted it.
type Resolution struct {
	Role   models.ProjectRole `json:"role"`
	Source ResolutionSource   `json:"-"`
}

// AuthzService computes effective project roles. Authority over a
// project comes from three historically inconsistent sources: the
// membership table (the modern, intentional grant), the project's legacy
// direct-reference fields, and work-area coincidence. The service
// resolves them with a fixed precedence instead of merging; it is a pure
// read and never mutates membership or project records.
type AuthzService struct {
	db *gorm.DB
}

func NewAuthzService(db *gorm.DB) *AuthzService {
	return &AuthzService{db: db}
}

// resolveStep is one link of the precedence chain. It returns nil to
// pass authority decision to the next link.
type resolveStep func(user *models.User, project *models.Project) (*Resolution, error)

// Resolve returns the user's effective role on the project, or nil when
// no source grants one. Absence of a role is a normal return value, not
// an error; callers convert it to Forbidden at the operation boundary.
//
// Precedence, first match wins:
//  1. active membership row (authoritative)
//  2. project's legacy principal-student field
//  3. project's legacy director field
//  4. work-area coincidence for coordinators/admins (logged on use)
//
// An inactive membership row is an explicit revocation: it denies access
// outright and suppresses the legacy paths as well.
func (s *AuthzService) Resolve(user *models.User, project *models.Project) (*Resolution, error) {
	if user == nil || project == nil {
		return nil, nil
	}

	membership, err := s.membershipRow(user, project)
	if err != nil {
		return nil, err
	}
	if membership != nil {
		if membership.Status != models.MembershipActive {
			// Revoked members do not fall back to legacy grants.
			return nil, nil
		}
		return &Resolution{Role: membership.Role, Source: SourceMembership}, nil
	}

	for _, step := range []resolveStep{s.legacyPrincipalStudent, s.legacyDirector, s.workAreaFallback} {
		res, err := step(user, project)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// ResolveByID loads the user and project records and resolves.
func (s *AuthzService) ResolveByID(userID, projectID uint) (*Resolution, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return s.Resolve(&user, &project)
}

func (s *AuthzService) membershipRow(user *models.User, project *models.Project) (*models.Membership, error) {
	var m models.Membership
	err := s.db.Where("project_id = ? AND user_id = ?", project.ID, user.ID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (s *AuthzService) legacyPrincipalStudent(user *models.User, project *models.Project) (*Resolution, error) {
	if project.PrincipalStudentID != nil && *project.PrincipalStudentID == user.ID {
		return &Resolution{Role: models.ProjectRoleStudent, Source: SourceLegacyStudent}, nil
	}
	return nil, nil
}

func (s *AuthzService) legacyDirector(user *models.User, project *models.Project) (*Resolution, error) {
	if project.DirectorID != nil && *project.DirectorID == user.ID {
		return &Resolution{Role: models.ProjectRoleDirector, Source: SourceLegacyDirector}, nil
	}
	return nil, nil
}

// workAreaFallback grants coordinator by work-area coincidence. Lowest
// precedence: work-area assignment is coarse and may be stale, so every
// grant through this path is logged as a signal of missing explicit
// membership data.
func (s *AuthzService) workAreaFallback(user *models.User, project *models.Project) (*Resolution, error) {
	if user.Role != models.SystemRoleCoordinator && user.Role != models.SystemRoleAdmin {
		return nil, nil
	}
	if user.WorkAreaID == nil || project.WorkAreaID == nil {
		return nil, nil
	}
	if *user.WorkAreaID != *project.WorkAreaID {
		return nil, nil
	}

	logger.Warn().
		Uint("user_id", user.ID).
		Uint("project_id", project.ID).
		Uint("work_area_id", *user.WorkAreaID).
		Msg("authorization granted via work-area fallback; explicit membership missing")

	return &Resolution{Role: models.ProjectRoleCoordinator, Source: SourceWorkArea}, nil
}

// ResolutionCache memoizes resolutions for one user over the lifetime of
// a single request, so listing operations resolve once per project
// instead of once per row.
type ResolutionCache struct {
	authz *AuthzService
	user  *models.User
	cache map[uint]*Resolution
}

func (s *AuthzService) NewCache(user *models.User) *ResolutionCache {
	return &ResolutionCache{
		authz: s,
		user:  user,
		cache: make(map[uint]*Resolution),
	}
}

// Resolve returns the cached resolution for the project, computing it on
// first use. A cached nil (no role) is remembered too.
func (c *ResolutionCache) Resolve(project *models.Project) (*Resolution, error) {
	if res, ok := c.cache[project.ID]; ok {
		return res, nil
	}
	res, err := c.authz.Resolve(c.user, project)
	if err != nil {
		return nil, err
	}
	c.cache[project.ID] = res
	return res, nil
}
