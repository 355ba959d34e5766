package postgres

import (
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/audit"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/repository"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/settings"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/storage"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/tokenstore"
)

var (
	_ repository.UserRepository       = (*UserRepository)(nil)
	_ repository.RoleRepository       = (*RoleRepository)(nil)
	_ repository.PermissionRepository = (*PermissionRepository)(nil)
	_ settings.FragmentStore          = (*SettingsRepository)(nil)
	_ storage.FileRepository          = (*FileRepository)(nil)
	_ storage.QuotaRepository         = (*QuotaRepository)(nil)
	_ storage.VolumeRepository        = (*VolumeRepository)(nil)
	_ storage.AppQuotaRepository      = (*AppQuotaRepository)(nil)
	_ audit.Store                     = (*AuditRepository)(nil)
	_ tokenstore.SecretRepository     = (*TokenRepository)(nil)
	_ tokenstore.RevocationRepository = (*TokenRepository)(nil)
)
