package constants

// Password policy. The original site shipped without an explicit policy;
// the minimum here is enforced both at binding time and in the service layer.
// The maximum matches the bcrypt input limit of 72 bytes.
const (
	PasswordMinLength = 8
	PasswordMaxLength = 72
)

// Name field limits
const (
	NameMaxLength = 50
)
