package models

import "time"

// Profile is the minimal user record the core consults, mainly for push tokens.
type Profile struct {
	ID          string    `bson:"id" json:"id"`
	Role        Role      `bson:"role" json:"role"`
	DisplayName string    `bson:"displayName" json:"displayName"`
	FCMToken    string    `bson:"fcmToken,omitempty" json:"fcmToken,omitempty"`
	Timezone    string    `bson:"timezone,omitempty" json:"timezone,omitempty"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UpsertProfileRequest updates the caller's own profile.
type UpsertProfileRequest struct {
	DisplayName string `json:"displayName"`
	FCMToken    string `json:"fcmToken"`
	Timezone    string `json:"timezone"`
}
