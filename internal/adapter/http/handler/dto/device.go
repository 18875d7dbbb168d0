package dto

import (
	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

type CreateDeviceRequest struct {
	ID          types.DeviceID `json:"id"`
	Name        string         `json:"name" validate:"required,max=100"`
	Color       string         `json:"color" validate:"omitempty,hexcolor"`
	Description string         `json:"description" validate:"max=500"`
	Icon        string         `json:"icon" validate:"max=100"`
}

func (r *CreateDeviceRequest) ToModel() models.Device {
	color := r.Color
	if color == "" {
		color = models.DefaultDeviceColor
	}
	return models.Device{
		ID:          r.ID,
		Name:        r.Name,
		Color:       color,
		Description: r.Description,
		Icon:        r.Icon,
		IsActive:    true,
	}
}

func ValidateCreateDevice(v *validator.Validator, req *CreateDeviceRequest) {
	v.Struct(req)
	req.ToModel().Validate(v)
}

func ValidateDevicePatch(v *validator.Validator, patch *models.DevicePatch) {
	v.Struct(patch)
	if patch.Name != nil {
		v.Check(*patch.Name != "", "name", "must not be empty")
	}
}
