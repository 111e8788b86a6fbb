package users

// RoleCounts tallies users per known role
type RoleCounts struct {
	Admin   int `json:"admin" yaml:"admin"`
	Trainer int `json:"trainer" yaml:"trainer"`
	Trainee int `json:"trainee" yaml:"trainee"`
}

// Stats summarizes a user list
type Stats struct {
	Total    int        `json:"total" yaml:"total"`
	Active   int        `json:"active" yaml:"active"`
	Inactive int        `json:"inactive" yaml:"inactive"`
	ByRole   RoleCounts `json:"by_role" yaml:"by_role"`
}

// CalculateStats reduces list to counters. Unknown roles count toward Total only.
func CalculateStats(list []ViewUser) Stats {
	s := Stats{Total: len(list)}
	for _, u := range list {
		if u.IsActive {
			s.Active++
		}
		switch u.Role {
		case RoleAdmin:
			s.ByRole.Admin++
		case RoleTrainer:
			s.ByRole.Trainer++
		case RoleTrainee:
			s.ByRole.Trainee++
		}
	}
	s.Inactive = s.Total - s.Active
	return s
}
