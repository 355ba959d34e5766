package postgres

import (
	"fmt"
	"time"
)

const (
	poolHealthCheckPeriod = time.Minute
	poolMaxConnLifetime   = time.Hour
	poolMaxConnIdleTime   = 30 * time.Minute
	dbPingTimeout         = 5 * time.Second

	jwtSecretKey = "jwt_secret"

	errUserNotFound       = "user not found"
	errRoleNotFound       = "role not found"
	errPermissionNotFound = "permission not found"
	errFileNotFound       = "file not found"
	errQuotaNotFound      = "quota not found"
	errRoleExists         = "role with this name already exists"
	errPermissionExists   = "permission with this name already exists"
	errUnknownRoles       = "one or more roles do not exist"
	errUnknownPermissions = "one or more permissions do not exist"
	errFileExists         = "file already exists at this path"
	errUsernameExists     = "username already exists"
	errSetupComplete      = "root user already exists"
	errVolumeNotFound     = "volume not found"
	errVolumeExists       = "volume with this name already exists"
	errVolumeInUse        = "volume still has files"
	errAppQuotaNotFound   = "app quota not found"

	errFailedParseDatabaseConfigFmt  = "failed to parse database config: %w"
	errFailedCreateConnectionPoolFmt = "failed to create connection pool: %w"
	errFailedPingDatabaseFmt         = "failed to ping database: %w"
	errFailedApplySchemaFmt          = "failed to apply schema: %w"
	errFailedCheckTableFmt           = "failed to check table: %w"

	errFailedStartTransactionFmt  = "failed to start transaction: %w"
	errFailedCommitTransactionFmt = "failed to commit transaction: %w"

	errFailedCreateUserFmt   = "failed to create user: %w"
	errFailedGetUserFmt      = "failed to get user: %w"
	errFailedListUsersFmt    = "failed to list users: %w"
	errFailedScanUserFmt     = "failed to scan user: %w"
	errIterateUsersFmt       = "error iterating users: %w"
	errFailedUpdateUserFmt   = "failed to update user: %w"
	errFailedDeleteUserFmt   = "failed to delete user: %w"
	errFailedCountUsersFmt   = "failed to count users: %w"
	errFailedSetUserRolesFmt = "failed to set user roles: %w"
	errFailedGetGrantsFmt    = "failed to get user permissions: %w"

	errFailedCreateRoleFmt         = "failed to create role: %w"
	errFailedListRolesFmt          = "failed to list roles: %w"
	errFailedScanRoleFmt           = "failed to scan role: %w"
	errFailedDeleteRoleFmt         = "failed to delete role: %w"
	errFailedSetRolePermissionsFmt = "failed to set role permissions: %w"

	errFailedCreatePermissionFmt = "failed to create permission: %w"
	errFailedListPermissionsFmt  = "failed to list permissions: %w"
	errFailedScanPermissionFmt   = "failed to scan permission: %w"
	errFailedDeletePermissionFmt = "failed to delete permission: %w"

	errFailedGetSecretFmt    = "failed to get signing secret: %w"
	errFailedInsertSecretFmt = "failed to insert signing secret: %w"
	errFailedRevokeTokenFmt  = "failed to revoke token: %w"
	errFailedCheckRevokedFmt = "failed to check revocation: %w"
	errFailedPurgeRevokedFmt = "failed to purge revocations: %w"

	errFailedGetSettingsFmt   = "failed to get settings: %w"
	errFailedScanSettingFmt   = "failed to scan setting: %w"
	errFailedUpsertSettingFmt = "failed to upsert setting: %w"
	errFailedDeleteSettingFmt = "failed to delete setting: %w"
	errFailedListSettingsFmt  = "failed to list settings: %w"
	errFailedEncodeSettingFmt = "failed to encode setting: %w"

	errFailedCreateFileFmt = "failed to create file: %w"
	errFailedGetFileFmt    = "failed to get file: %w"
	errFailedListFilesFmt  = "failed to list files: %w"
	errFailedScanFileFmt   = "failed to scan file: %w"
	errFailedDeleteFileFmt = "failed to delete file: %w"

	errFailedGetQuotaFmt     = "failed to get quota: %w"
	errFailedReserveQuotaFmt = "failed to reserve quota: %w"
	errFailedReleaseQuotaFmt = "failed to release quota: %w"

	errFailedGetAppQuotaFmt     = "failed to get app quota: %w"
	errFailedReserveAppQuotaFmt = "failed to reserve app quota: %w"
	errFailedReleaseAppQuotaFmt = "failed to release app quota: %w"
	errFailedSetAppQuotaFmt     = "failed to set app quota: %w"

	errFailedCreateVolumeFmt  = "failed to create volume: %w"
	errFailedGetVolumeFmt     = "failed to get volume: %w"
	errFailedListVolumesFmt   = "failed to list volumes: %w"
	errFailedScanVolumeFmt    = "failed to scan volume: %w"
	errFailedUpdateVolumeFmt  = "failed to update volume: %w"
	errFailedDeleteVolumeFmt  = "failed to delete volume: %w"
	errFailedEncodeVolumeFmt  = "failed to encode volume config: %w"
	errFailedReserveVolumeFmt = "failed to reserve volume capacity: %w"
	errFailedReleaseVolumeFmt = "failed to release volume capacity: %w"

	errFailedEncodeAuditFmt = "failed to encode audit metadata: %w"
	errFailedInsertAuditFmt = "failed to insert audit event: %w"
	errFailedQueryAuditFmt  = "failed to query audit events: %w"
	errFailedScanAuditFmt   = "failed to scan audit event: %w"
)

var (
	errFailedApplySchema          = func(err error) error { return fmt.Errorf(errFailedApplySchemaFmt, err) }
	errFailedCheckRevoked         = func(err error) error { return fmt.Errorf(errFailedCheckRevokedFmt, err) }
	errFailedCheckTable           = func(err error) error { return fmt.Errorf(errFailedCheckTableFmt, err) }
	errFailedCommitTransaction    = func(err error) error { return fmt.Errorf(errFailedCommitTransactionFmt, err) }
	errFailedCountUsers           = func(err error) error { return fmt.Errorf(errFailedCountUsersFmt, err) }
	errFailedCreateConnectionPool = func(err error) error { return fmt.Errorf(errFailedCreateConnectionPoolFmt, err) }
	errFailedCreateFile           = func(err error) error { return fmt.Errorf(errFailedCreateFileFmt, err) }
	errFailedCreatePermission     = func(err error) error { return fmt.Errorf(errFailedCreatePermissionFmt, err) }
	errFailedCreateRole           = func(err error) error { return fmt.Errorf(errFailedCreateRoleFmt, err) }
	errFailedCreateUser           = func(err error) error { return fmt.Errorf(errFailedCreateUserFmt, err) }
	errFailedCreateVolume         = func(err error) error { return fmt.Errorf(errFailedCreateVolumeFmt, err) }
	errFailedDeleteFile           = func(err error) error { return fmt.Errorf(errFailedDeleteFileFmt, err) }
	errFailedDeletePermission     = func(err error) error { return fmt.Errorf(errFailedDeletePermissionFmt, err) }
	errFailedDeleteRole           = func(err error) error { return fmt.Errorf(errFailedDeleteRoleFmt, err) }
	errFailedDeleteSetting        = func(err error) error { return fmt.Errorf(errFailedDeleteSettingFmt, err) }
	errFailedDeleteUser           = func(err error) error { return fmt.Errorf(errFailedDeleteUserFmt, err) }
	errFailedDeleteVolume         = func(err error) error { return fmt.Errorf(errFailedDeleteVolumeFmt, err) }
	errFailedEncodeAudit          = func(err error) error { return fmt.Errorf(errFailedEncodeAuditFmt, err) }
	errFailedEncodeSetting        = func(err error) error { return fmt.Errorf(errFailedEncodeSettingFmt, err) }
	errFailedEncodeVolume         = func(err error) error { return fmt.Errorf(errFailedEncodeVolumeFmt, err) }
	errFailedGetAppQuota          = func(err error) error { return fmt.Errorf(errFailedGetAppQuotaFmt, err) }
	errFailedGetFile              = func(err error) error { return fmt.Errorf(errFailedGetFileFmt, err) }
	errFailedGetGrants            = func(err error) error { return fmt.Errorf(errFailedGetGrantsFmt, err) }
	errFailedGetQuota             = func(err error) error { return fmt.Errorf(errFailedGetQuotaFmt, err) }
	errFailedGetSecret            = func(err error) error { return fmt.Errorf(errFailedGetSecretFmt, err) }
	errFailedGetSettings          = func(err error) error { return fmt.Errorf(errFailedGetSettingsFmt, err) }
	errFailedGetUser              = func(err error) error { return fmt.Errorf(errFailedGetUserFmt, err) }
	errFailedGetVolume            = func(err error) error { return fmt.Errorf(errFailedGetVolumeFmt, err) }
	errFailedInsertAudit          = func(err error) error { return fmt.Errorf(errFailedInsertAuditFmt, err) }
	errFailedInsertSecret         = func(err error) error { return fmt.Errorf(errFailedInsertSecretFmt, err) }
	errFailedListFiles            = func(err error) error { return fmt.Errorf(errFailedListFilesFmt, err) }
	errFailedListPermissions      = func(err error) error { return fmt.Errorf(errFailedListPermissionsFmt, err) }
	errFailedListRoles            = func(err error) error { return fmt.Errorf(errFailedListRolesFmt, err) }
	errFailedListSettings         = func(err error) error { return fmt.Errorf(errFailedListSettingsFmt, err) }
	errFailedListUsers            = func(err error) error { return fmt.Errorf(errFailedListUsersFmt, err) }
	errFailedListVolumes          = func(err error) error { return fmt.Errorf(errFailedListVolumesFmt, err) }
	errFailedParseDatabaseConfig  = func(err error) error { return fmt.Errorf(errFailedParseDatabaseConfigFmt, err) }
	errFailedPingDatabase         = func(err error) error { return fmt.Errorf(errFailedPingDatabaseFmt, err) }
	errFailedPurgeRevoked         = func(err error) error { return fmt.Errorf(errFailedPurgeRevokedFmt, err) }
	errFailedQueryAudit           = func(err error) error { return fmt.Errorf(errFailedQueryAuditFmt, err) }
	errFailedReleaseAppQuota      = func(err error) error { return fmt.Errorf(errFailedReleaseAppQuotaFmt, err) }
	errFailedReleaseQuota         = func(err error) error { return fmt.Errorf(errFailedReleaseQuotaFmt, err) }
	errFailedReleaseVolume        = func(err error) error { return fmt.Errorf(errFailedReleaseVolumeFmt, err) }
	errFailedReserveAppQuota      = func(err error) error { return fmt.Errorf(errFailedReserveAppQuotaFmt, err) }
	errFailedReserveQuota         = func(err error) error { return fmt.Errorf(errFailedReserveQuotaFmt, err) }
	errFailedReserveVolume        = func(err error) error { return fmt.Errorf(errFailedReserveVolumeFmt, err) }
	errFailedRevokeToken          = func(err error) error { return fmt.Errorf(errFailedRevokeTokenFmt, err) }
	errFailedScanAudit            = func(err error) error { return fmt.Errorf(errFailedScanAuditFmt, err) }
	errFailedScanFile             = func(err error) error { return fmt.Errorf(errFailedScanFileFmt, err) }
	errFailedScanPermission       = func(err error) error { return fmt.Errorf(errFailedScanPermissionFmt, err) }
	errFailedScanRole             = func(err error) error { return fmt.Errorf(errFailedScanRoleFmt, err) }
	errFailedScanSetting          = func(err error) error { return fmt.Errorf(errFailedScanSettingFmt, err) }
	errFailedScanUser             = func(err error) error { return fmt.Errorf(errFailedScanUserFmt, err) }
	errFailedScanVolume           = func(err error) error { return fmt.Errorf(errFailedScanVolumeFmt, err) }
	errFailedSetAppQuota          = func(err error) error { return fmt.Errorf(errFailedSetAppQuotaFmt, err) }
	errFailedSetRolePermissions   = func(err error) error { return fmt.Errorf(errFailedSetRolePermissionsFmt, err) }
	errFailedSetUserRoles         = func(err error) error { return fmt.Errorf(errFailedSetUserRolesFmt, err) }
	errFailedStartTransaction     = func(err error) error { return fmt.Errorf(errFailedStartTransactionFmt, err) }
	errFailedUpdateUser           = func(err error) error { return fmt.Errorf(errFailedUpdateUserFmt, err) }
	errFailedUpdateVolume         = func(err error) error { return fmt.Errorf(errFailedUpdateVolumeFmt, err) }
	errFailedUpsertSetting        = func(err error) error { return fmt.Errorf(errFailedUpsertSettingFmt, err) }
	errIterateUsers               = func(err error) error { return fmt.Errorf(errIterateUsersFmt, err) }
)
