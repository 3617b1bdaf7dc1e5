package enums

type AuthState string

const (
	AuthStatePending         AuthState = "pending"
	AuthStateAuthenticated   AuthState = "authenticated"
	AuthStateUnauthenticated AuthState = "unauthenticated"
)

type RegistrationStep int

const (
	RegistrationStepCollectingProfile RegistrationStep = iota + 1
	RegistrationStepAwaitingOTP
	RegistrationStepCompleted
)

func (s RegistrationStep) String() string {
	switch s {
	case RegistrationStepCollectingProfile:
		return "collecting-profile"
	case RegistrationStepAwaitingOTP:
		return "awaiting-otp"
	case RegistrationStepCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

type OTPLoginStep int

const (
	OTPLoginStepEnteringEmail OTPLoginStep = iota + 1
	OTPLoginStepAwaitingOTP
	OTPLoginStepCompleted
)

func (s OTPLoginStep) String() string {
	switch s {
	case OTPLoginStepEnteringEmail:
		return "entering-email"
	case OTPLoginStepAwaitingOTP:
		return "awaiting-otp"
	case OTPLoginStepCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// StoreKey names an entry held by the token store.
type StoreKey string

const (
	StoreKeyAccess      StoreKey = "access"
	StoreKeyRefresh     StoreKey = "refresh"
	StoreKeyUser        StoreKey = "user"
	StoreKeyTempSession StoreKey = "temp_session"
	// StoreKeyAll is reported when every entry was removed at once.
	StoreKeyAll StoreKey = ""
)

type StoreDriver string

const (
	StoreDriverMemory StoreDriver = "memory"
	StoreDriverFile   StoreDriver = "file"
	StoreDriverRedis  StoreDriver = "redis"
)
