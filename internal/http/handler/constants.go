package handler

const (
	jsonKeyError   = "error"
	jsonKeyMessage = "message"

	paramID   = "id"
	paramPath = "path"
	paramApp  = "app"

	queryAppID  = "appId"
	queryPrefix = "prefix"

	formFieldFile     = "file"
	formFieldVolumeID = "volume_id"
	formFieldAppID    = "app_id"
)

const (
	msgContentTypeJSONRequired = "content type must be application/json"
	msgInvalidRequestBody      = "invalid request body"
	msgRegistrationDisabled    = "registration is disabled"
	msgRegistrationSuccessful  = "registration successful"
	msgLoggedOut               = "logged out"
	msgInvalidID               = "invalid id"
	msgCannotDeleteSelf        = "cannot delete your own account"
	msgMissingFile             = "multipart field 'file' is required"
	msgInvalidVolumeID         = "volume_id must be a uuid"
	msgPresignUnsupported      = "storage driver does not support download URLs"
	msgSettingsForbidden       = "not allowed to access these settings"
	msgHashPasswordFailed      = "failed to process password"
	msgIssueTokenFailed        = "failed to issue token"
	msgRevokeTokenFailed       = "failed to revoke token"
	msgLoadGrantsFailed        = "failed to load permissions"
	msgOpenUploadFailed        = "failed to read uploaded file"
)
