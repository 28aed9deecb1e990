package payload

type RecoveryRequest struct {
	Email string `json:"email"`
}

type ConsumeRecoveryRequest struct {
	NewPassword string `json:"newPassword"`
}

type AdminChangePasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
