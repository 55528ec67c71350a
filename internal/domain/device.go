package domain

import "time"

// UpdateDeviceRequest carries the mutable device fields: the push token
// and the installed app version. Nil fields are left unchanged.
type UpdateDeviceRequest struct {
	Token        *string `json:"token"`
	AppVersionID *string `json:"app_version_id"`
}

// Device is a client installation tied to a user. Sessions resolve the
// device by its UUID at login so refresh tokens and push notifications
// follow the physical device, not the session.
type Device struct {
	DeviceID     string    `json:"id" dynamodbav:"device_id"`
	UUID         string    `json:"uuid" dynamodbav:"device_uuid"`
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	Token        *string   `json:"token" dynamodbav:"token"`
	AppVersionID string    `json:"app_version_id" dynamodbav:"app_version_id"`
	Enable       bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}
