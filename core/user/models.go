package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-playground/validator/v10"

	"github.com/keneanapp/kenean/core"
)

// Role is a closed set; role checks go through the capability methods on User
// instead of comparing strings at call sites.
type Role string

const (
	RoleUser    Role = "user"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var AllRoles = []Role{RoleUser, RoleTeacher, RoleAdmin}

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	Banned       bool       `json:"banned"`
	BanReason    string     `json:"ban_reason,omitempty"`
	BanExpires   *time.Time `json:"ban_expires,omitempty"` // UTC; nil = permanent
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
	LastLogin    time.Time  `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// IsStaff reports whether the user belongs to the staff tier
// (teachers and admins share the full question lifecycle permissions).
func (u User) IsStaff() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsBanned reports whether the user's ban is in effect at `now`;
// expired bans count as not banned.
func (u User) IsBanned(now time.Time) bool {
	if !u.Banned {
		return false
	}
	if u.BanExpires != nil && u.BanExpires.Before(now) {
		return false
	}
	return true
}

// Summary is the public projection of a User embedded in other payloads.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name}
}

// NewUser contains information needed to create a new User.
// Self-registered users always start with RoleUser.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(nu.Email)
}

// UpdateUser is a patch: nil fields are left unchanged, set fields are
// applied, so "leave unchanged" and "set to empty" stay distinguishable.
type UpdateUser struct {
	Name            *string `json:"name"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc Service) error {
	if uu.Name != nil {
		*uu.Name = core.CleanString(*uu.Name)
	}
	if uu.Email != nil {
		*uu.Email = core.CleanString(*uu.Email, true /* lower */)
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.Email != nil && *uu.Email != origUsr.Email {
		return svc.CheckEmailUniqueness(*uu.Email, origUsr)
	}
	return nil
}

type UpdateRole struct {
	Role Role `json:"role" validate:"required,role"`
}

func (ur UpdateRole) Validate(validate *validator.Validate) error { return validate.Struct(ur) }

type BanUser struct {
	Reason    string     `json:"reason" validate:"required,max=500"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (bu BanUser) Validate(validate *validator.Validate) error { return validate.Struct(bu) }

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Role        Role      `query:"role"`
	Banned      *bool     `query:"banned"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.Banned == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single User; exactly one field should be set.
type GetFilter struct {
	ID    string
	Email string
}
