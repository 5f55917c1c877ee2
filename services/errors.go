package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrInvalidEmail         = errors.New("email address is invalid")
	ErrInvalidUsername      = errors.New("username must be 3-30 letters, digits, '_' or '-'")
	ErrStageNameRequired    = errors.New("stage name is required")
	ErrStageDeadlineMissing = errors.New("stage deadline is required")
	ErrInvalidCountry       = errors.New("side must be an ISO 3166-1 alpha-2 country code")
	ErrSameSides            = errors.New("home and away must be different")
	ErrInvalidOutcome       = errors.New("winner must be one of home, away, draw")
	ErrInvalidGoals         = errors.New("goals must be between 0 and 99")
	ErrInvalidMatchFilter   = errors.New("status must be played or upcoming")
	ErrMatchNotInStage      = errors.New("match does not belong to this stage")
	ErrNoBets               = errors.New("at least one bet is required")
	ErrDuplicateMatchInBets = errors.New("a match appears more than once")

	// Ошибки жизненного цикла этапа и матча
	ErrStageNotPublic   = errors.New("stage is not open for bets yet")
	ErrStageClosed      = errors.New("stage deadline has passed, bets are closed")
	ErrStageNotExpired  = errors.New("bets are visible once the stage deadline has passed")
	ErrMatchNotOver     = errors.New("match has not finished yet")
	ErrBetAlreadyPlaced = errors.New("a bet for this match has already been placed")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserUsernameConflict = errors.New("username is already in use")
	ErrStageSlugConflict    = errors.New("stage slug is already in use")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound  = errors.New("user not found")
	ErrStageNotFound = errors.New("stage not found")
	ErrMatchNotFound = errors.New("match not found")

	// Хранилище файлов
	ErrStorageNotConfigured = errors.New("file storage is not configured")
	ErrUnsupportedImageType = errors.New("unsupported image content type")
)
