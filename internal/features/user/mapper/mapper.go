package mapper

import "membership-backend/internal/features/user/models"

// ToUserResponse maps User model to its public projection. The credential
// hash never crosses this boundary.
func ToUserResponse(user *models.User) *models.UserResponse {
	resp := &models.UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Code:       user.Code,
		ReferredBy: user.ReferredBy,
		CreatedAt:  user.CreatedAt,
	}
	if user.Level != nil {
		resp.Level = user.Level.ToSnapshot()
	}
	if user.Profile != nil {
		resp.Profile = ToProfileResponse(user.Profile)
	}
	return resp
}

// ToProfileResponse maps Profile model to its public projection.
func ToProfileResponse(profile *models.Profile) *models.ProfileResponse {
	return &models.ProfileResponse{
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		Sex:         profile.Sex,
		DateOfBirth: profile.DateOfBirth,
		Phone:       profile.Phone,
		Address:     profile.Address,
		AvatarURL:   profile.AvatarURL,
		Bio:         profile.Bio,
		CNP:         profile.CNP,
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}
