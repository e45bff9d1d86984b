package domain

type User struct {
	ID            int32  `json:"id"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	PasswordHash  string `json:"-"`
	Name          string `json:"name"`
	IsSponsor     bool   `json:"is_sponsor"`
	IsPlaceholder bool   `json:"is_placeholder"` // created on conversion for sponsors without a login
	CreatedOn     string `json:"created_on"`
	UpdatedOn     string `json:"updated_on"`
}

type UserOrgRole string

const (
	UserOrgRoleSuperAdmin UserOrgRole = "SUPER_ADMIN"
	UserOrgRoleAdmin      UserOrgRole = "ADMIN"
	UserOrgRoleMember     UserOrgRole = "MEMBER"
)

func (r UserOrgRole) IsAdmin() bool {
	return r == UserOrgRoleAdmin || r == UserOrgRoleSuperAdmin
}

type UserOrg struct {
	UserID   int32       `json:"user_id"`
	OrgID    int32       `json:"org_id"`
	JoinedOn string      `json:"joined_on"`
	Role     UserOrgRole `json:"role"`
}
