package household

import "strings"

type CreateHouseholdDTO struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (d *CreateHouseholdDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
}

type AddMemberDTO struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin member"`
}

func (d *AddMemberDTO) Normalize() {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if d.Role == "" {
		d.Role = RoleMember
	}
}
