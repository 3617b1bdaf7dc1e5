package models

type User struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type ProfileUpdate struct {
	FullName string `json:"full_name" validate:"required"`
}

type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}
