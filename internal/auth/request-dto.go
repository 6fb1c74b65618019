package auth

// login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// registration request payload; every self-registered account is a USER
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

// profile update; absent fields are left as they are, an empty interests list clears them
type UpdateProfileRequest struct {
	FirstName *string  `json:"first_name" validate:"omitempty,min=2,max=100"`
	LastName  *string  `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email     *string  `json:"email" validate:"omitempty,email"`
	Password  *string  `json:"password" validate:"omitempty,min=6,max=72"`
	Interests []string `json:"interests" validate:"omitempty,max=10,dive,eventtype"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// admin user listing
type UserListQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}
