package repository

import (
	"errors"

	"go-lending-ws/internal/model"

	"gorm.io/gorm"
)

type SettingRepository interface {
	Get() (*model.Setting, error)
	Update(setting *model.Setting) error
	SeedDefaults() error
}

type settingRepo struct {
	db *gorm.DB
}

func NewSettingRepo(db *gorm.DB) SettingRepository {
	return &settingRepo{db}
}

// Get returns the singleton settings row.
func (r *settingRepo) Get() (*model.Setting, error) {
	var setting model.Setting
	err := r.db.First(&setting).Error
	return &setting, err
}

func (r *settingRepo) Update(setting *model.Setting) error {
	return r.db.Save(setting).Error
}

// SeedDefaults creates the settings row on first boot.
func (r *settingRepo) SeedDefaults() error {
	var setting model.Setting
	err := r.db.First(&setting).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	defaults := model.DefaultSetting()
	defaults.CreatedBy = "system"
	defaults.UpdatedBy = "system"
	return r.db.Create(&defaults).Error
}
