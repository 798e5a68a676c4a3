package realtime

// Topic names mirror the logical document paths they announce changes for.

func UserTopic(userID string) string {
	return "users/" + userID
}

func RoomTopic(roomID string) string {
	return "rooms/" + roomID
}

func RoomMessagesTopic(roomID string) string {
	return "rooms/" + roomID + "/messages"
}

func SiteConfigTopic(tenantID string) string {
	return "tenants/" + tenantID + "/config/site"
}

func TenantTopic(tenantID string) string {
	return "tenants/" + tenantID
}
