package domain

// AppVersion is a published client build. Offline-capable clients check in
// with their version before syncing; disabled versions must update first.
type AppVersion struct {
	VersionID string `json:"id" dynamodbav:"version_id"`
	Version   string `json:"version" dynamodbav:"version"`
	Enable    bool   `json:"enable" dynamodbav:"enable"`
}
