package dto

import (
	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

func ValidateCreateUser(v *validator.Validator, req *models.UserCreateRequest) {
	v.Struct(req)
}

func ValidateUserPatch(v *validator.Validator, patch *models.UserPatch) {
	v.Struct(patch)
}
